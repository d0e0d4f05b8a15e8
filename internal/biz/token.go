package biz

import (
	"context"
	"sync"
	"time"

	"jobquality/internal/conf"
	"jobquality/internal/pkg/bloom"
	"jobquality/internal/pkg/match"

	"github.com/go-kratos/kratos/v2/log"
)

// ToxicToken is a weighted phrase or pattern associated with low-quality
// listings. Phrase holds the normalized phrase text, or the regular
// expression source for pattern tokens. A positive weight penalizes
// matching listings, a negative one rewards them.
type ToxicToken struct {
	ID        int64
	Phrase    string
	Kind      match.Kind
	Weight    float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TokenRepo is a ToxicToken repository interface.
type TokenRepo interface {
	Create(context.Context, *ToxicToken) (*ToxicToken, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int32) ([]*ToxicToken, error)
	ListAll(context.Context) ([]*ToxicToken, error)
	Count(context.Context) (int64, error)
}

// TokenUsecase manages the toxic token dictionary and hands out immutable,
// versioned snapshots. A snapshot is cached for a bounded TTL and rebuilt
// from the repository when stale; dictionary mutations invalidate it
// immediately. There is no ambient dictionary state anywhere else.
type TokenUsecase struct {
	repo      TokenRepo
	prefilter *bloom.Filter
	ttl       time.Duration
	log       *log.Helper

	mu      sync.Mutex
	snap    *match.Dictionary
	expires time.Time
	version uint64
}

// NewTokenUsecase new a token usecase. prefilter may be nil.
func NewTokenUsecase(repo TokenRepo, prefilter *bloom.Filter, c *conf.Engine, logger log.Logger) *TokenUsecase {
	return &TokenUsecase{
		repo:      repo,
		prefilter: prefilter,
		ttl:       c.DictionaryTTLDuration(),
		log:       log.NewHelper(logger),
	}
}

// Dictionary returns the current dictionary snapshot, rebuilding it when
// the cached one has expired. When the repository is unavailable it keeps
// serving the stale snapshot rather than failing scoring.
func (uc *TokenUsecase) Dictionary(ctx context.Context) (*match.Dictionary, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.snap != nil && time.Now().Before(uc.expires) {
		return uc.snap, nil
	}

	rows, err := uc.repo.ListAll(ctx)
	if err != nil {
		if uc.snap != nil {
			uc.log.Warnf("dictionary refresh failed, serving stale snapshot v%d: %v", uc.snap.Version(), err)
			return uc.snap, nil
		}
		return nil, err
	}

	tokens := make([]match.Token, 0, len(rows))
	for _, t := range rows {
		tokens = append(tokens, match.Token{ID: t.ID, Phrase: t.Phrase, Kind: t.Kind, Weight: t.Weight})
	}
	uc.version++
	uc.snap = match.NewDictionary(uc.version, tokens)
	uc.expires = time.Now().Add(uc.ttl)
	uc.seedPrefilter(ctx, uc.snap)
	uc.log.Infof("dictionary snapshot v%d built: %d tokens", uc.snap.Version(), uc.snap.Len())
	return uc.snap, nil
}

// seedPrefilter adds every phrase word of the snapshot to the bloom filter.
// The filter accumulates words across rebuilds, which only adds false
// positives and never hides a match.
func (uc *TokenUsecase) seedPrefilter(ctx context.Context, d *match.Dictionary) {
	if uc.prefilter == nil || !d.Prefilterable() {
		return
	}
	for _, w := range d.PhraseWords() {
		if err := uc.prefilter.Add(ctx, []byte(w)); err != nil {
			uc.log.Warnf("prefilter seed: %v", err)
			return
		}
	}
}

// Invalidate drops the cached snapshot so the next Dictionary call rebuilds it.
func (uc *TokenUsecase) Invalidate() {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.snap = nil
}

// AddToken adds a toxic token to the dictionary. A pattern token whose
// expression fails to compile is stored anyway and simply never matches.
func (uc *TokenUsecase) AddToken(ctx context.Context, phrase, kind string, weight float64) (*ToxicToken, error) {
	k, err := match.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	uc.log.Infof("AddToken: %q kind=%s weight=%.2f", phrase, k, weight)
	t, err := uc.repo.Create(ctx, &ToxicToken{Phrase: phrase, Kind: k, Weight: weight})
	if err != nil {
		return nil, err
	}
	uc.Invalidate()
	return t, nil
}

// RemoveToken removes a toxic token.
func (uc *TokenUsecase) RemoveToken(ctx context.Context, id int64) error {
	uc.log.Infof("RemoveToken: %d", id)
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.Invalidate()
	return nil
}

// ListTokens lists toxic tokens.
func (uc *TokenUsecase) ListTokens(ctx context.Context, limit, offset int32) ([]*ToxicToken, int64, error) {
	tokens, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := uc.repo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return tokens, total, nil
}
