package server

import (
	"strconv"

	"jobquality/internal/conf"
	"jobquality/internal/service"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Server, quality *service.QualityService, admin *service.AdminService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
		),
	}
	if c.HTTP.Network != "" {
		opts = append(opts, http.Network(c.HTTP.Network))
	}
	if c.HTTP.Addr != "" {
		opts = append(opts, http.Address(c.HTTP.Addr))
	}
	opts = append(opts, http.Timeout(c.HTTP.TimeoutDuration()))

	srv := http.NewServer(opts...)
	registerQualityRoutes(srv, quality)
	registerAdminRoutes(srv, admin)
	return srv
}

func registerQualityRoutes(srv *http.Server, svc *service.QualityService) {
	r := srv.Route("/v1")

	r.POST("/listings/{id}/score", func(ctx http.Context) error {
		id, err := pathID(ctx, "id")
		if err != nil {
			return err
		}
		var req service.ScoreRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		reply, err := svc.ScoreListing(ctx, id, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.POST("/listings/{id}/description", func(ctx http.Context) error {
		id, err := pathID(ctx, "id")
		if err != nil {
			return err
		}
		var req service.IngestRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		reply, err := svc.IngestDescription(ctx, id, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.POST("/users/{id}/filters", func(ctx http.Context) error {
		userID := ctx.Vars().Get("id")
		var req service.ToggleFilterRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		reply, err := svc.ToggleFilter(ctx, userID, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.GET("/users/{id}/filters", func(ctx http.Context) error {
		userID := ctx.Vars().Get("id")
		reply, err := svc.UserFilters(ctx, userID)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.POST("/users/{id}/actions", func(ctx http.Context) error {
		userID := ctx.Vars().Get("id")
		var req service.RecordActionRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		reply, err := svc.RecordAction(ctx, userID, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.GET("/filters/suggestions", func(ctx http.Context) error {
		var minUsers int64
		if raw := ctx.Query().Get("min_users"); raw != "" {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return errors.BadRequest("INVALID_ARGUMENT", "min_users must be an integer")
			}
			minUsers = v
		}
		reply, err := svc.Suggestions(ctx, minUsers)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})
}

func registerAdminRoutes(srv *http.Server, svc *service.AdminService) {
	r := srv.Route("/v1/admin")

	r.POST("/tokens", func(ctx http.Context) error {
		var req service.CreateTokenRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		reply, err := svc.CreateToken(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.DELETE("/tokens/{id}", func(ctx http.Context) error {
		id, err := pathID(ctx, "id")
		if err != nil {
			return err
		}
		if err := svc.DeleteToken(ctx, id); err != nil {
			return err
		}
		return ctx.Result(200, map[string]any{"deleted": id})
	})

	r.GET("/tokens", func(ctx http.Context) error {
		limit := queryInt32(ctx, "limit")
		offset := queryInt32(ctx, "offset")
		reply, err := svc.ListTokens(ctx, limit, offset)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})
}

func pathID(ctx http.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Vars().Get(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.BadRequest("INVALID_ARGUMENT", name+" must be a positive integer")
	}
	return id, nil
}

func queryInt32(ctx http.Context, name string) int32 {
	v, err := strconv.ParseInt(ctx.Query().Get(name), 10, 32)
	if err != nil {
		return 0
	}
	return int32(v)
}
