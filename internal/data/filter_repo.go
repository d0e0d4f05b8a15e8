package data

import (
	"context"

	"jobquality/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
)

type filterRepo struct {
	data *Data
	log  *log.Helper
}

// NewFilterRepo new a user filter repo.
func NewFilterRepo(data *Data, logger log.Logger) biz.FilterRepo {
	return &filterRepo{data: data, log: log.NewHelper(logger)}
}

// Set and Delete are single statements, so concurrent toggles on the same
// (user, token) pair serialize on the row and the last commit wins.
func (r *filterRepo) Set(ctx context.Context, userID string, tokenID int64) error {
	_, err := r.data.Pool.Exec(ctx, `
		INSERT INTO user_filters (user_id, token_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, token_id) DO NOTHING`, userID, tokenID)
	return err
}

func (r *filterRepo) Delete(ctx context.Context, userID string, tokenID int64) error {
	_, err := r.data.Pool.Exec(ctx, `
		DELETE FROM user_filters WHERE user_id = $1 AND token_id = $2`, userID, tokenID)
	return err
}

func (r *filterRepo) ActiveTokenIDs(ctx context.Context, userID string) ([]int64, error) {
	rows, err := r.data.Pool.Query(ctx, `
		SELECT token_id FROM user_filters WHERE user_id = $1 ORDER BY token_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
