package data

import (
	"context"
	"time"

	"jobquality/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
)

type actionRepo struct {
	data *Data
	log  *log.Helper
}

// NewActionRepo new a user action repo.
func NewActionRepo(data *Data, logger log.Logger) biz.ActionRepo {
	return &actionRepo{data: data, log: log.NewHelper(logger)}
}

func (r *actionRepo) Append(ctx context.Context, a *biz.UserAction) error {
	row := r.data.Pool.QueryRow(ctx, `
		INSERT INTO user_actions (user_id, listing_id, action)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		a.UserID, a.ListingID, a.Action.String())
	return row.Scan(&a.ID, &a.CreatedAt)
}

func (r *actionRepo) ListSince(ctx context.Context, since time.Time) ([]*biz.UserAction, error) {
	rows, err := r.data.Pool.Query(ctx, `
		SELECT id, user_id, listing_id, action, created_at
		FROM user_actions
		WHERE created_at >= $1
		ORDER BY id`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*biz.UserAction
	for rows.Next() {
		a := &biz.UserAction{}
		var action string
		if err := rows.Scan(&a.ID, &a.UserID, &a.ListingID, &action, &a.CreatedAt); err != nil {
			return nil, err
		}
		kind, err := biz.ParseActionKind(action)
		if err != nil {
			return nil, err
		}
		a.Action = kind
		out = append(out, a)
	}
	return out, rows.Err()
}
