package biz

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"jobquality/internal/conf"
	"jobquality/internal/pkg/hash"

	"github.com/go-kratos/kratos/v2/log"
)

// maxRecommendationStrength bounds the log-dampened suggestion ranking
// value regardless of how large the hide counters grow.
const maxRecommendationStrength = 5.0

const aggregateLockKey = "jobquality:aggregate:lock"

// ActionKind is a user feedback action on a listing.
type ActionKind int

const (
	ActionUnspecified ActionKind = iota
	ActionHideListing
	ActionHideCompany
	ActionThumbsUp
	ActionThumbsDown
)

// ParseActionKind converts an action string into an ActionKind.
func ParseActionKind(s string) (ActionKind, error) {
	switch strings.ToLower(s) {
	case "hide_listing":
		return ActionHideListing, nil
	case "hide_company":
		return ActionHideCompany, nil
	case "thumbs_up":
		return ActionThumbsUp, nil
	case "thumbs_down":
		return ActionThumbsDown, nil
	default:
		return ActionUnspecified, fmt.Errorf("unknown action kind %q", s)
	}
}

func (k ActionKind) String() string {
	switch k {
	case ActionHideListing:
		return "hide_listing"
	case ActionHideCompany:
		return "hide_company"
	case ActionThumbsUp:
		return "thumbs_up"
	case ActionThumbsDown:
		return "thumbs_down"
	default:
		return "unspecified"
	}
}

// Negative reports whether the action is negative feedback on the listing
// content itself, feeding the per-token statistics.
func (k ActionKind) Negative() bool {
	return k == ActionHideListing || k == ActionThumbsDown
}

// CompanyNegative reports whether the action counts against the listing's
// company reputation.
func (k ActionKind) CompanyNegative() bool {
	return k == ActionHideListing || k == ActionHideCompany
}

// UserAction is one logged feedback action.
type UserAction struct {
	ID        int64
	UserID    string
	ListingID int64
	Action    ActionKind
	CreatedAt time.Time
}

// GlobalTokenStats are community-wide counters per toxic token, recomputed
// by the aggregator over its trailing window. They are not lifetime
// cumulative counters.
type GlobalTokenStats struct {
	TokenID     int64
	HidesCount  int64
	UniqueUsers int64
	LastUsedAt  time.Time
}

// CompanyStats are community-wide hide counters per company, recomputed
// over the same trailing window.
type CompanyStats struct {
	Company     string
	HidesCount  int64
	UniqueUsers int64
	LastUsedAt  time.Time
}

// Recommendation is one ranked filter suggestion.
type Recommendation struct {
	TokenID     int64
	HidesCount  int64
	UniqueUsers int64
	Strength    float64
}

// ActionRepo is a UserAction log repository interface.
type ActionRepo interface {
	Append(ctx context.Context, a *UserAction) error
	ListSince(ctx context.Context, since time.Time) ([]*UserAction, error)
}

// StatsRepo persists aggregated statistics. Replace swaps the full
// contents of both tables in one transaction so a failed run commits
// nothing and a rerun over the same window is idempotent.
type StatsRepo interface {
	Replace(ctx context.Context, tokens []*GlobalTokenStats, companies []*CompanyStats) error
	ListTokenStats(ctx context.Context) ([]*GlobalTokenStats, error)
	// GetCompanyStats returns nil without error when the company has no stats.
	GetCompanyStats(ctx context.Context, company string) (*CompanyStats, error)
}

// RunLocker serializes aggregator runs across instances.
type RunLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// StatsUsecase runs the periodic feedback aggregation and derives ranked
// filter suggestions from its output.
type StatsUsecase struct {
	actions  ActionRepo
	listings ListingRepo
	stats    StatsRepo
	locker   RunLocker
	window   time.Duration
	lockTTL  time.Duration
	minUsers int64
	now      func() time.Time
	log      *log.Helper
}

// NewStatsUsecase new a stats usecase. locker may be nil.
func NewStatsUsecase(actions ActionRepo, listings ListingRepo, stats StatsRepo, locker RunLocker, c *conf.Engine, logger log.Logger) *StatsUsecase {
	return &StatsUsecase{
		actions:  actions,
		listings: listings,
		stats:    stats,
		locker:   locker,
		window:   c.WindowDuration(),
		lockTTL:  c.LockTTLDuration(),
		minUsers: c.MinUsersThreshold(),
		now:      time.Now,
		log:      log.NewHelper(logger),
	}
}

// RecordAction appends one feedback action to the log.
func (uc *StatsUsecase) RecordAction(ctx context.Context, userID string, listingID int64, kind ActionKind) error {
	if kind == ActionUnspecified {
		return fmt.Errorf("action kind is required")
	}
	return uc.actions.Append(ctx, &UserAction{UserID: userID, ListingID: listingID, Action: kind})
}

// Aggregate recomputes GlobalTokenStats and CompanyStats from scratch over
// the trailing window. The run takes a distributed lock first: a run that
// overlaps another is abandoned, and a run that fails mid-batch commits
// nothing, so every completed run is a consistent full snapshot and reruns
// never double-count.
func (uc *StatsUsecase) Aggregate(ctx context.Context) error {
	if uc.locker != nil {
		ok, err := uc.locker.TryLock(ctx, aggregateLockKey, uc.lockTTL)
		if err != nil {
			uc.log.Warnf("aggregate lock unavailable, abandoning run: %v", err)
			return nil
		}
		if !ok {
			uc.log.Info("aggregate run already in progress, abandoning")
			return nil
		}
		defer func() {
			if err := uc.locker.Unlock(context.WithoutCancel(ctx), aggregateLockKey); err != nil {
				uc.log.Warnf("aggregate unlock: %v", err)
			}
		}()
	}

	now := uc.now()
	actions, err := uc.actions.ListSince(ctx, now.Add(-uc.window))
	if err != nil {
		return fmt.Errorf("aggregate: list actions: %w", err)
	}

	listingIDs := relevantListingIDs(actions)
	matches, err := uc.listings.TokenMatches(ctx, listingIDs)
	if err != nil {
		return fmt.Errorf("aggregate: token matches: %w", err)
	}
	companies, err := uc.listings.Companies(ctx, listingIDs)
	if err != nil {
		return fmt.Errorf("aggregate: companies: %w", err)
	}

	tokenStats := foldTokenStats(actions, matches, now)
	companyStats := foldCompanyStats(actions, companies, now)

	if err := uc.stats.Replace(ctx, tokenStats, companyStats); err != nil {
		return fmt.Errorf("aggregate: replace stats: %w", err)
	}
	uc.log.Infof("aggregated %d actions into %d token and %d company rows over %s",
		len(actions), len(tokenStats), len(companyStats), uc.window)
	return nil
}

// Recommendations derives ranked filter suggestions from the aggregated
// token statistics. minUsers <= 0 falls back to the configured threshold.
func (uc *StatsUsecase) Recommendations(ctx context.Context, minUsers int64) ([]*Recommendation, error) {
	if minUsers <= 0 {
		minUsers = uc.minUsers
	}
	rows, err := uc.stats.ListTokenStats(ctx)
	if err != nil {
		return nil, err
	}
	return rankRecommendations(rows, minUsers), nil
}

// relevantListingIDs returns the distinct listing ids touched by any
// action the folds consume.
func relevantListingIDs(actions []*UserAction) []int64 {
	seen := make(map[int64]struct{}, len(actions))
	ids := make([]int64, 0, len(actions))
	for _, a := range actions {
		if !a.Action.Negative() && !a.Action.CompanyNegative() {
			continue
		}
		if _, ok := seen[a.ListingID]; ok {
			continue
		}
		seen[a.ListingID] = struct{}{}
		ids = append(ids, a.ListingID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// foldTokenStats is the pure aggregation core: negative actions joined
// with the matched-token records of the listings they target. Users enter
// the distinct sets only as anonymized hashes.
func foldTokenStats(actions []*UserAction, matches map[int64][]int64, now time.Time) []*GlobalTokenStats {
	type tally struct {
		hides int64
		users map[uint64]struct{}
	}
	byToken := make(map[int64]*tally)
	for _, a := range actions {
		if !a.Action.Negative() {
			continue
		}
		uid := hash.AnonUser(a.UserID)
		for _, tokenID := range matches[a.ListingID] {
			t := byToken[tokenID]
			if t == nil {
				t = &tally{users: make(map[uint64]struct{})}
				byToken[tokenID] = t
			}
			t.hides++
			t.users[uid] = struct{}{}
		}
	}

	out := make([]*GlobalTokenStats, 0, len(byToken))
	for id, t := range byToken {
		out = append(out, &GlobalTokenStats{
			TokenID:     id,
			HidesCount:  t.hides,
			UniqueUsers: int64(len(t.users)),
			LastUsedAt:  now,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TokenID < out[j].TokenID })
	return out
}

// foldCompanyStats tallies company-directed negative feedback.
func foldCompanyStats(actions []*UserAction, companies map[int64]string, now time.Time) []*CompanyStats {
	type tally struct {
		hides int64
		users map[uint64]struct{}
	}
	byCompany := make(map[string]*tally)
	for _, a := range actions {
		if !a.Action.CompanyNegative() {
			continue
		}
		company := companies[a.ListingID]
		if company == "" {
			continue
		}
		t := byCompany[company]
		if t == nil {
			t = &tally{users: make(map[uint64]struct{})}
			byCompany[company] = t
		}
		t.hides++
		t.users[hash.AnonUser(a.UserID)] = struct{}{}
	}

	out := make([]*CompanyStats, 0, len(byCompany))
	for company, t := range byCompany {
		out = append(out, &CompanyStats{
			Company:     company,
			HidesCount:  t.hides,
			UniqueUsers: int64(len(t.users)),
			LastUsedAt:  now,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Company < out[j].Company })
	return out
}

// rankRecommendations keeps tokens at or above the unique-users threshold
// and sorts them descending by hide count. Strength is log-dampened and
// capped so no single token dominates the suggestions.
func rankRecommendations(stats []*GlobalTokenStats, minUsers int64) []*Recommendation {
	out := make([]*Recommendation, 0, len(stats))
	for _, s := range stats {
		if s.UniqueUsers < minUsers {
			continue
		}
		out = append(out, &Recommendation{
			TokenID:     s.TokenID,
			HidesCount:  s.HidesCount,
			UniqueUsers: s.UniqueUsers,
			Strength:    math.Min(maxRecommendationStrength, math.Log10(1+float64(s.HidesCount))),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].HidesCount != out[j].HidesCount {
			return out[i].HidesCount > out[j].HidesCount
		}
		return out[i].TokenID < out[j].TokenID
	})
	return out
}
