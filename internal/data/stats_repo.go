package data

import (
	"context"
	"errors"

	"jobquality/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5"
)

type statsRepo struct {
	data *Data
	log  *log.Helper
}

// NewStatsRepo new an aggregated stats repo.
func NewStatsRepo(data *Data, logger log.Logger) biz.StatsRepo {
	return &statsRepo{data: data, log: log.NewHelper(logger)}
}

// Replace swaps the full contents of both stats tables in one transaction.
// A failed run leaves the previous snapshot untouched.
func (r *statsRepo) Replace(ctx context.Context, tokens []*biz.GlobalTokenStats, companies []*biz.CompanyStats) error {
	tx, err := r.data.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM global_token_stats`); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM company_stats`); err != nil {
		return err
	}

	for _, t := range tokens {
		_, err := tx.Exec(ctx, `
			INSERT INTO global_token_stats (token_id, hides_count, unique_users, last_used_at)
			VALUES ($1, $2, $3, $4)`,
			t.TokenID, t.HidesCount, t.UniqueUsers, t.LastUsedAt)
		if err != nil {
			return err
		}
	}
	for _, c := range companies {
		_, err := tx.Exec(ctx, `
			INSERT INTO company_stats (company, hides_count, unique_users, last_used_at)
			VALUES ($1, $2, $3, $4)`,
			c.Company, c.HidesCount, c.UniqueUsers, c.LastUsedAt)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *statsRepo) ListTokenStats(ctx context.Context) ([]*biz.GlobalTokenStats, error) {
	rows, err := r.data.Pool.Query(ctx, `
		SELECT token_id, hides_count, unique_users, last_used_at
		FROM global_token_stats
		ORDER BY hides_count DESC, token_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*biz.GlobalTokenStats
	for rows.Next() {
		s := &biz.GlobalTokenStats{}
		if err := rows.Scan(&s.TokenID, &s.HidesCount, &s.UniqueUsers, &s.LastUsedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *statsRepo) GetCompanyStats(ctx context.Context, company string) (*biz.CompanyStats, error) {
	row := r.data.Pool.QueryRow(ctx, `
		SELECT company, hides_count, unique_users, last_used_at
		FROM company_stats
		WHERE company = $1`, company)

	s := &biz.CompanyStats{}
	err := row.Scan(&s.Company, &s.HidesCount, &s.UniqueUsers, &s.LastUsedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
