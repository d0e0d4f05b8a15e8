package biz

import (
	"context"
	"fmt"
	"math"

	"jobquality/internal/pkg/match"

	"github.com/go-kratos/kratos/v2/log"
)

// maxCompanyPenalty bounds how much any single company's hide history can
// drag a score, regardless of how large the counters grow.
const maxCompanyPenalty = 2.0

const (
	reasonSalary = "salary specified"
	reasonRemote = "remote position"
)

// MatchedToken is one dictionary hit on a scored listing. Matches the user
// has not opted into are still reported (so callers can suggest enabling
// the filter) but carry Active=false and move no score.
type MatchedToken struct {
	TokenID int64
	Phrase  string
	Weight  float64
	Active  bool
}

// ScoreResult is the outcome of scoring one listing for one user.
type ScoreResult struct {
	Score   float64
	Matched []MatchedToken
	Reasons []string
}

// ScoringUsecase composes per-listing quality scores. All inputs are
// fetched up front; the score computation itself performs no I/O and is
// safe to run in tight request loops.
type ScoringUsecase struct {
	listings ListingRepo
	tokens   *TokenUsecase
	filters  *FilterUsecase
	stats    StatsRepo
	log      *log.Helper
}

// NewScoringUsecase new a scoring usecase.
func NewScoringUsecase(listings ListingRepo, tokens *TokenUsecase, filters *FilterUsecase, stats StatsRepo, logger log.Logger) *ScoringUsecase {
	return &ScoringUsecase{
		listings: listings,
		tokens:   tokens,
		filters:  filters,
		stats:    stats,
		log:      log.NewHelper(logger),
	}
}

// ScoreListing scores one listing for one user. Every degraded input
// (dictionary, company stats, active filters) defaults to neutral rather
// than failing the request; only an unknown listing is an error.
func (uc *ScoringUsecase) ScoreListing(ctx context.Context, listingID int64, userID string) (*ScoreResult, error) {
	l, err := uc.listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}

	dict, err := uc.tokens.Dictionary(ctx)
	if err != nil {
		uc.log.Warnf("scoring listing %d without dictionary: %v", listingID, err)
		dict = nil
	}

	var company *CompanyStats
	if l.Company != "" {
		company, err = uc.stats.GetCompanyStats(ctx, l.Company)
		if err != nil {
			uc.log.Warnf("company stats for %q unavailable: %v", l.Company, err)
			company = nil
		}
	}

	active := uc.filters.ActiveFilters(ctx, userID)

	res := ComputeScore(l, dict, company, active)
	return &res, nil
}

// ComputeScore composes the final score in a fixed evaluation order, which
// is part of the contract because the reasons list must be reproducible:
// salary bonus, remote bonus, opted-in toxic matches, company reputation
// penalty, rounding. The final score is rounded to one decimal with halves
// away from zero. Missing inputs are neutral; the function never fails.
func ComputeScore(l *Listing, dict *match.Dictionary, company *CompanyStats, active map[int64]struct{}) ScoreResult {
	res := ScoreResult{Matched: []MatchedToken{}, Reasons: []string{}}
	if l == nil {
		return res
	}

	score := 0.0
	if l.SalaryFrom != nil || l.SalaryTo != nil {
		score += 1.0
		res.Reasons = append(res.Reasons, reasonSalary)
	}
	if l.IsRemote != nil && *l.IsRemote {
		score += 1.0
		res.Reasons = append(res.Reasons, reasonRemote)
	}

	for _, m := range dict.Match(l.DescriptionRaw, l.DescriptionNorm, l.Tokens) {
		_, isActive := active[m.TokenID]
		res.Matched = append(res.Matched, MatchedToken{
			TokenID: m.TokenID,
			Phrase:  m.Phrase,
			Weight:  m.Weight,
			Active:  isActive,
		})
		if !isActive {
			continue
		}
		score -= m.Weight
		if m.Weight >= 0 {
			res.Reasons = append(res.Reasons, fmt.Sprintf("contains %q (penalty %.1f)", m.Phrase, m.Weight))
		} else {
			res.Reasons = append(res.Reasons, fmt.Sprintf("contains %q (bonus %.1f)", m.Phrase, -m.Weight))
		}
	}

	if company != nil && company.UniqueUsers > 0 {
		penalty := math.Min(maxCompanyPenalty, math.Log10(1+float64(company.HidesCount)))
		score -= penalty
		res.Reasons = append(res.Reasons, fmt.Sprintf("company %q reputation penalty %.2f", l.Company, penalty))
	}

	res.Score = math.Round(score*10) / 10
	return res
}
