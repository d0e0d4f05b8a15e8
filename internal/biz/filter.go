package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// FilterAction is a user filter toggle action.
type FilterAction int

const (
	FilterActionUnspecified FilterAction = iota
	FilterActionHide
	FilterActionShow
)

// ParseFilterAction converts an action string into a FilterAction.
func ParseFilterAction(s string) (FilterAction, error) {
	switch strings.ToLower(s) {
	case "hide":
		return FilterActionHide, nil
	case "show":
		return FilterActionShow, nil
	default:
		return FilterActionUnspecified, fmt.Errorf("unknown filter action %q", s)
	}
}

func (a FilterAction) String() string {
	switch a {
	case FilterActionHide:
		return "hide"
	case FilterActionShow:
		return "show"
	default:
		return "unspecified"
	}
}

// UserFilter is an active per-user filter row. Absence of a row always
// means inactive, there is no disabled state.
type UserFilter struct {
	UserID    string
	TokenID   int64
	CreatedAt time.Time
}

// FilterRepo is a UserFilter repository interface. Set and Delete must be
// atomic per (user, token) pair; writes to different pairs never contend.
type FilterRepo interface {
	Set(ctx context.Context, userID string, tokenID int64) error
	Delete(ctx context.Context, userID string, tokenID int64) error
	ActiveTokenIDs(ctx context.Context, userID string) ([]int64, error)
}

// FilterCache caches per-user active filter sets. All methods are best
// effort; errors degrade to repository reads.
type FilterCache interface {
	Get(ctx context.Context, userID string) (ids []int64, found bool, err error)
	Set(ctx context.Context, userID string, ids []int64) error
	Invalidate(ctx context.Context, userID string) error
}

// FilterUsecase manages which toxic tokens a user enforces against their
// own scoring view. Enforcement is strictly opt-in per user.
type FilterUsecase struct {
	repo  FilterRepo
	cache FilterCache
	log   *log.Helper
}

// NewFilterUsecase new a filter usecase. cache may be nil.
func NewFilterUsecase(repo FilterRepo, cache FilterCache, logger log.Logger) *FilterUsecase {
	return &FilterUsecase{repo: repo, cache: cache, log: log.NewHelper(logger)}
}

// Toggle applies a Hide or Show action to one (user, token) pair. Hide
// inserts or overwrites the active row, Show deletes it. Concurrent
// toggles on the same pair resolve to the last committed one; neither
// caller sees an error.
func (uc *FilterUsecase) Toggle(ctx context.Context, userID string, tokenID int64, action FilterAction) error {
	var err error
	switch action {
	case FilterActionHide:
		err = uc.repo.Set(ctx, userID, tokenID)
	case FilterActionShow:
		err = uc.repo.Delete(ctx, userID, tokenID)
	default:
		return fmt.Errorf("filter action %v cannot be applied", action)
	}
	if err != nil {
		return err
	}
	if uc.cache != nil {
		if cerr := uc.cache.Invalidate(ctx, userID); cerr != nil {
			uc.log.Warnf("filter cache invalidate for user %s: %v", userID, cerr)
		}
	}
	return nil
}

// ActiveFilters returns the set of token ids the user currently enforces.
// It fails open: any store or cache error yields an empty set, so scoring
// proceeds with no personal filters instead of blocking listing retrieval.
func (uc *FilterUsecase) ActiveFilters(ctx context.Context, userID string) map[int64]struct{} {
	if uc.cache != nil {
		ids, found, err := uc.cache.Get(ctx, userID)
		if err != nil {
			uc.log.Warnf("filter cache read for user %s: %v", userID, err)
		} else if found {
			return toIDSet(ids)
		}
	}

	ids, err := uc.repo.ActiveTokenIDs(ctx, userID)
	if err != nil {
		uc.log.Warnf("active filters for user %s unavailable, failing open: %v", userID, err)
		return map[int64]struct{}{}
	}

	if uc.cache != nil {
		if cerr := uc.cache.Set(ctx, userID, ids); cerr != nil {
			uc.log.Warnf("filter cache write for user %s: %v", userID, cerr)
		}
	}
	return toIDSet(ids)
}

func toIDSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
