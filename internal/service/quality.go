package service

import (
	"context"
	"sort"

	"jobquality/internal/biz"

	"github.com/go-kratos/kratos/v2/errors"
)

// QualityService exposes listing scoring, ingestion, user filters and
// community suggestions.
type QualityService struct {
	scoring  *biz.ScoringUsecase
	listings *biz.ListingUsecase
	filters  *biz.FilterUsecase
	stats    *biz.StatsUsecase
}

// NewQualityService creates a new QualityService.
func NewQualityService(scoring *biz.ScoringUsecase, listings *biz.ListingUsecase, filters *biz.FilterUsecase, stats *biz.StatsUsecase) *QualityService {
	return &QualityService{
		scoring:  scoring,
		listings: listings,
		filters:  filters,
		stats:    stats,
	}
}

// ScoreRequest asks for the score of one listing as seen by one user.
type ScoreRequest struct {
	UserID string `json:"user_id"`
}

// MatchedTokenReply is one dictionary hit on the scored listing.
type MatchedTokenReply struct {
	TokenID int64   `json:"token_id"`
	Phrase  string  `json:"phrase"`
	Weight  float64 `json:"weight"`
	Active  bool    `json:"active"`
}

// ScoreReply is the score of one listing for one user.
type ScoreReply struct {
	ListingID int64               `json:"listing_id"`
	Score     float64             `json:"score"`
	Matched   []MatchedTokenReply `json:"matched"`
	Reasons   []string            `json:"reasons"`
}

// ScoreListing scores one listing for one user.
func (s *QualityService) ScoreListing(ctx context.Context, listingID int64, req *ScoreRequest) (*ScoreReply, error) {
	if req.UserID == "" {
		return nil, errors.BadRequest("INVALID_ARGUMENT", "user_id is required")
	}
	res, err := s.scoring.ScoreListing(ctx, listingID, req.UserID)
	if err == biz.ErrListingNotFound {
		return nil, errors.NotFound("LISTING_NOT_FOUND", "listing not found")
	}
	if err != nil {
		return nil, err
	}

	matched := make([]MatchedTokenReply, 0, len(res.Matched))
	for _, m := range res.Matched {
		matched = append(matched, MatchedTokenReply{
			TokenID: m.TokenID,
			Phrase:  m.Phrase,
			Weight:  m.Weight,
			Active:  m.Active,
		})
	}
	return &ScoreReply{
		ListingID: listingID,
		Score:     res.Score,
		Matched:   matched,
		Reasons:   res.Reasons,
	}, nil
}

// IngestRequest carries a raw listing description from the upstream pipeline.
type IngestRequest struct {
	Company    string `json:"company"`
	Text       string `json:"text"`
	SalaryFrom *int64 `json:"salary_from"`
	SalaryTo   *int64 `json:"salary_to"`
	IsRemote   *bool  `json:"is_remote"`
}

// IngestReply reports the stored normalization outcome.
type IngestReply struct {
	ListingID  int64 `json:"listing_id"`
	TokenCount int   `json:"token_count"`
}

// IngestDescription normalizes and stores one listing description.
func (s *QualityService) IngestDescription(ctx context.Context, listingID int64, req *IngestRequest) (*IngestReply, error) {
	if req.Text == "" {
		return nil, errors.BadRequest("INVALID_ARGUMENT", "text is required")
	}
	l := &biz.Listing{
		ID:             listingID,
		Company:        req.Company,
		DescriptionRaw: req.Text,
		SalaryFrom:     req.SalaryFrom,
		SalaryTo:       req.SalaryTo,
		IsRemote:       req.IsRemote,
	}
	if err := s.listings.IngestDescription(ctx, l); err != nil {
		return nil, err
	}
	return &IngestReply{ListingID: l.ID, TokenCount: len(l.Tokens)}, nil
}

// ToggleFilterRequest toggles one token filter for a user.
type ToggleFilterRequest struct {
	TokenID int64  `json:"token_id"`
	Action  string `json:"action"`
}

// ToggleFilterReply acknowledges the toggle.
type ToggleFilterReply struct {
	UserID  string `json:"user_id"`
	TokenID int64  `json:"token_id"`
	Action  string `json:"action"`
}

// ToggleFilter applies a hide or show action to one (user, token) pair.
func (s *QualityService) ToggleFilter(ctx context.Context, userID string, req *ToggleFilterRequest) (*ToggleFilterReply, error) {
	if req.TokenID <= 0 {
		return nil, errors.BadRequest("INVALID_ARGUMENT", "token_id is required")
	}
	action, err := biz.ParseFilterAction(req.Action)
	if err != nil {
		return nil, errors.BadRequest("INVALID_ARGUMENT", err.Error())
	}
	if err := s.filters.Toggle(ctx, userID, req.TokenID, action); err != nil {
		return nil, err
	}
	return &ToggleFilterReply{UserID: userID, TokenID: req.TokenID, Action: action.String()}, nil
}

// UserFiltersReply lists the token ids a user currently enforces.
type UserFiltersReply struct {
	UserID   string  `json:"user_id"`
	TokenIDs []int64 `json:"token_ids"`
}

// UserFilters returns the active filter set of one user.
func (s *QualityService) UserFilters(ctx context.Context, userID string) (*UserFiltersReply, error) {
	active := s.filters.ActiveFilters(ctx, userID)
	ids := make([]int64, 0, len(active))
	for id := range active {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return &UserFiltersReply{UserID: userID, TokenIDs: ids}, nil
}

// RecordActionRequest logs one feedback action.
type RecordActionRequest struct {
	ListingID int64  `json:"listing_id"`
	Action    string `json:"action"`
}

// RecordActionReply acknowledges the logged action.
type RecordActionReply struct {
	UserID    string `json:"user_id"`
	ListingID int64  `json:"listing_id"`
	Action    string `json:"action"`
}

// RecordAction appends one feedback action to the log.
func (s *QualityService) RecordAction(ctx context.Context, userID string, req *RecordActionRequest) (*RecordActionReply, error) {
	if req.ListingID <= 0 {
		return nil, errors.BadRequest("INVALID_ARGUMENT", "listing_id is required")
	}
	kind, err := biz.ParseActionKind(req.Action)
	if err != nil {
		return nil, errors.BadRequest("INVALID_ARGUMENT", err.Error())
	}
	if err := s.stats.RecordAction(ctx, userID, req.ListingID, kind); err != nil {
		return nil, err
	}
	return &RecordActionReply{UserID: userID, ListingID: req.ListingID, Action: kind.String()}, nil
}

// SuggestionReply is one ranked filter suggestion.
type SuggestionReply struct {
	TokenID     int64   `json:"token_id"`
	HidesCount  int64   `json:"hides_count"`
	UniqueUsers int64   `json:"unique_users"`
	Strength    float64 `json:"strength"`
}

// SuggestionsReply is the ranked suggestion list.
type SuggestionsReply struct {
	Suggestions []SuggestionReply `json:"suggestions"`
}

// Suggestions returns ranked community filter suggestions.
func (s *QualityService) Suggestions(ctx context.Context, minUsers int64) (*SuggestionsReply, error) {
	rows, err := s.stats.Recommendations(ctx, minUsers)
	if err != nil {
		return nil, err
	}
	out := make([]SuggestionReply, 0, len(rows))
	for _, r := range rows {
		out = append(out, SuggestionReply{
			TokenID:     r.TokenID,
			HidesCount:  r.HidesCount,
			UniqueUsers: r.UniqueUsers,
			Strength:    r.Strength,
		})
	}
	return &SuggestionsReply{Suggestions: out}, nil
}
