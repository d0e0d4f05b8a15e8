package biz

import (
	"context"
	"errors"
	"time"

	"jobquality/internal/pkg/bloom"
	"jobquality/internal/pkg/match"
	"jobquality/internal/pkg/textnorm"

	"github.com/go-kratos/kratos/v2/log"
)

// ErrListingNotFound is returned when a listing id is unknown.
var ErrListingNotFound = errors.New("listing not found")

// Listing is the scoring-relevant subset of a job listing. Normalized
// fields are set exactly once at ingestion and never recomputed.
type Listing struct {
	ID              int64
	Company         string
	DescriptionRaw  string
	DescriptionNorm string
	Tokens          []string
	SalaryFrom      *int64
	SalaryTo        *int64
	IsRemote        *bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ListingRepo is a Listing repository interface.
type ListingRepo interface {
	Get(ctx context.Context, id int64) (*Listing, error)
	UpsertDescription(ctx context.Context, l *Listing) error
	ReplaceTokenMatches(ctx context.Context, listingID int64, tokenIDs []int64) error
	// TokenMatches returns the matched token ids recorded per listing.
	TokenMatches(ctx context.Context, listingIDs []int64) (map[int64][]int64, error)
	// Companies returns the company per listing.
	Companies(ctx context.Context, listingIDs []int64) (map[int64]string, error)
}

// ListingUsecase ingests raw descriptions delivered by the upstream
// scraping pipelines: normalize once, match the dictionary, persist the
// normalized form and the matched-token records.
type ListingUsecase struct {
	repo      ListingRepo
	tokens    *TokenUsecase
	prefilter *bloom.Filter
	log       *log.Helper
}

// NewListingUsecase new a listing usecase. prefilter may be nil.
func NewListingUsecase(repo ListingRepo, tokens *TokenUsecase, prefilter *bloom.Filter, logger log.Logger) *ListingUsecase {
	return &ListingUsecase{
		repo:      repo,
		tokens:    tokens,
		prefilter: prefilter,
		log:       log.NewHelper(logger),
	}
}

// Get returns one listing.
func (uc *ListingUsecase) Get(ctx context.Context, id int64) (*Listing, error) {
	return uc.repo.Get(ctx, id)
}

// IngestDescription normalizes the raw description of l, stores the
// normalized form alongside the listing and records which dictionary
// tokens match it. Ingestion is retryable: an error leaves no partial
// token records behind the stored description.
func (uc *ListingUsecase) IngestDescription(ctx context.Context, l *Listing) error {
	res := textnorm.Normalize(l.DescriptionRaw)
	l.DescriptionNorm = res.Normalized
	l.Tokens = res.Tokens

	if err := uc.repo.UpsertDescription(ctx, l); err != nil {
		return err
	}

	dict, err := uc.tokens.Dictionary(ctx)
	if err != nil {
		return err
	}

	ids := uc.matchTokenIDs(ctx, dict, l.DescriptionRaw, res)
	if err := uc.repo.ReplaceTokenMatches(ctx, l.ID, ids); err != nil {
		return err
	}
	uc.log.Debugf("ingested listing %d: %d tokens, %d dictionary matches", l.ID, len(l.Tokens), len(ids))
	return nil
}

// matchTokenIDs runs the dictionary over one listing, skipping the full
// match when the bloom prefilter reports a definite miss for every word.
// The prefilter has no false negatives, so skipping never changes the
// match set; any prefilter error falls back to a full match.
func (uc *ListingUsecase) matchTokenIDs(ctx context.Context, dict *match.Dictionary, raw string, res textnorm.Result) []int64 {
	if uc.prefilter != nil && dict.Prefilterable() && len(res.Words) > 0 {
		hit := false
		for _, w := range res.Words {
			ok, err := uc.prefilter.Exists(ctx, []byte(w))
			if err != nil || ok {
				hit = true
				break
			}
		}
		if !hit {
			return nil
		}
	}

	ms := dict.Match(raw, res.Normalized, res.Tokens)
	ids := make([]int64, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.TokenID)
	}
	return ids
}
