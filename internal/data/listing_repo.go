package data

import (
	"context"
	"errors"

	"jobquality/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5"
)

type listingRepo struct {
	data *Data
	log  *log.Helper
}

// NewListingRepo new a listing repo.
func NewListingRepo(data *Data, logger log.Logger) biz.ListingRepo {
	return &listingRepo{data: data, log: log.NewHelper(logger)}
}

func (r *listingRepo) Get(ctx context.Context, id int64) (*biz.Listing, error) {
	row := r.data.Pool.QueryRow(ctx, `
		SELECT id, company, description_raw, description_norm, tokens,
		       salary_from, salary_to, is_remote, created_at, updated_at
		FROM listings
		WHERE id = $1`, id)

	l := &biz.Listing{}
	err := row.Scan(&l.ID, &l.Company, &l.DescriptionRaw, &l.DescriptionNorm, &l.Tokens,
		&l.SalaryFrom, &l.SalaryTo, &l.IsRemote, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, biz.ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *listingRepo) UpsertDescription(ctx context.Context, l *biz.Listing) error {
	_, err := r.data.Pool.Exec(ctx, `
		INSERT INTO listings (id, company, description_raw, description_norm, tokens,
		                      salary_from, salary_to, is_remote)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id)
		DO UPDATE SET company          = EXCLUDED.company,
		              description_raw  = EXCLUDED.description_raw,
		              description_norm = EXCLUDED.description_norm,
		              tokens           = EXCLUDED.tokens,
		              salary_from      = EXCLUDED.salary_from,
		              salary_to        = EXCLUDED.salary_to,
		              is_remote        = EXCLUDED.is_remote,
		              updated_at       = now()`,
		l.ID, l.Company, l.DescriptionRaw, l.DescriptionNorm, l.Tokens,
		l.SalaryFrom, l.SalaryTo, l.IsRemote)
	return err
}

// ReplaceTokenMatches swaps the matched-token records of one listing in a
// single transaction so readers never observe a partial set.
func (r *listingRepo) ReplaceTokenMatches(ctx context.Context, listingID int64, tokenIDs []int64) error {
	tx, err := r.data.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM listing_token_matches WHERE listing_id = $1`, listingID); err != nil {
		return err
	}
	if len(tokenIDs) > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO listing_token_matches (listing_id, token_id)
			SELECT $1, unnest($2::bigint[])
			ON CONFLICT DO NOTHING`, listingID, tokenIDs)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *listingRepo) TokenMatches(ctx context.Context, listingIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(listingIDs))
	if len(listingIDs) == 0 {
		return out, nil
	}
	rows, err := r.data.Pool.Query(ctx, `
		SELECT listing_id, token_id
		FROM listing_token_matches
		WHERE listing_id = ANY($1)
		ORDER BY listing_id, token_id`, listingIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var listingID, tokenID int64
		if err := rows.Scan(&listingID, &tokenID); err != nil {
			return nil, err
		}
		out[listingID] = append(out[listingID], tokenID)
	}
	return out, rows.Err()
}

func (r *listingRepo) Companies(ctx context.Context, listingIDs []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(listingIDs))
	if len(listingIDs) == 0 {
		return out, nil
	}
	rows, err := r.data.Pool.Query(ctx, `
		SELECT id, company
		FROM listings
		WHERE id = ANY($1) AND company <> ''`, listingIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var company string
		if err := rows.Scan(&id, &company); err != nil {
			return nil, err
		}
		out[id] = company
	}
	return out, rows.Err()
}
