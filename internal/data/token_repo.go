package data

import (
	"context"

	"jobquality/internal/biz"
	"jobquality/internal/pkg/match"
	"jobquality/internal/pkg/textnorm"

	"github.com/go-kratos/kratos/v2/log"
)

type tokenRepo struct {
	data *Data
	log  *log.Helper
}

// NewTokenRepo new a toxic token repo.
func NewTokenRepo(data *Data, logger log.Logger) biz.TokenRepo {
	return &tokenRepo{data: data, log: log.NewHelper(logger)}
}

// Create stores a token. Phrase tokens are keyed on their normalized form,
// so re-adding the same phrase in a different casing overwrites the weight
// instead of producing a duplicate. Pattern sources are stored as given.
func (r *tokenRepo) Create(ctx context.Context, t *biz.ToxicToken) (*biz.ToxicToken, error) {
	norm := t.Phrase
	if t.Kind == match.KindPhrase {
		norm = textnorm.Normalize(t.Phrase).Normalized
	}

	row := r.data.Pool.QueryRow(ctx, `
		INSERT INTO toxic_tokens (phrase, phrase_norm, kind, weight)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (phrase_norm, kind)
		DO UPDATE SET phrase = EXCLUDED.phrase, weight = EXCLUDED.weight, updated_at = now()
		RETURNING id, phrase_norm, kind, weight, created_at, updated_at`,
		t.Phrase, norm, t.Kind.String(), t.Weight)

	out := &biz.ToxicToken{}
	var kind string
	if err := row.Scan(&out.ID, &out.Phrase, &kind, &out.Weight, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, err
	}
	k, err := match.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	out.Kind = k
	return out, nil
}

func (r *tokenRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.data.Pool.Exec(ctx, `DELETE FROM toxic_tokens WHERE id = $1`, id)
	return err
}

func (r *tokenRepo) List(ctx context.Context, limit, offset int32) ([]*biz.ToxicToken, error) {
	rows, err := r.data.Pool.Query(ctx, `
		SELECT id, phrase_norm, kind, weight, created_at, updated_at
		FROM toxic_tokens
		ORDER BY id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTokens(rows)
}

func (r *tokenRepo) ListAll(ctx context.Context) ([]*biz.ToxicToken, error) {
	rows, err := r.data.Pool.Query(ctx, `
		SELECT id, phrase_norm, kind, weight, created_at, updated_at
		FROM toxic_tokens
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTokens(rows)
}

func (r *tokenRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.data.Pool.QueryRow(ctx, `SELECT count(*) FROM toxic_tokens`).Scan(&total)
	return total, err
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTokens(rows rowScanner) ([]*biz.ToxicToken, error) {
	var out []*biz.ToxicToken
	for rows.Next() {
		t := &biz.ToxicToken{}
		var kind string
		if err := rows.Scan(&t.ID, &t.Phrase, &kind, &t.Weight, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		k, err := match.ParseKind(kind)
		if err != nil {
			return nil, err
		}
		t.Kind = k
		out = append(out, t)
	}
	return out, rows.Err()
}
