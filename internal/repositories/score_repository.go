package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// ScoreRepository persists cumulative scores.
type ScoreRepository interface {
	AddPoints(ctx context.Context, userID int, points int) (int, error)
	TotalScore(ctx context.Context, userID int) (int, error)
}

// ScoreRepo is a sqlx implementation of ScoreRepository.
type ScoreRepo struct {
	db *sqlx.DB
}

// NewScoreRepo constructs a ScoreRepo.
func NewScoreRepo(db *sqlx.DB) *ScoreRepo {
	return &ScoreRepo{db: db}
}

// AddPoints upserts the user's total atomically and returns the new total.
func (r *ScoreRepo) AddPoints(ctx context.Context, userID int, points int) (int, error) {
	var total int
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO scores (user_id, total_score) VALUES ($1, $2)
         ON CONFLICT (user_id) DO UPDATE SET total_score = scores.total_score + EXCLUDED.total_score
         RETURNING total_score`,
		userID, points).Scan(&total)
	return total, err
}

// TotalScore returns the user's cumulative score, zero when absent.
func (r *ScoreRepo) TotalScore(ctx context.Context, userID int) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COALESCE((SELECT total_score FROM scores WHERE user_id=$1), 0)`, userID)
	return total, err
}
