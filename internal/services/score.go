package services

import (
	"context"
	"errors"
	"time"

	"mentei-messaging/internal/apperror"
	"mentei-messaging/internal/models"
	"mentei-messaging/internal/repositories"
	"mentei-messaging/internal/scoring"
)

// ScoreService persists cumulative scores and derives levels from them.
// The multiplier math itself lives in the scoring package and stays pure.
type ScoreService struct {
	users  repositories.UserRepository
	scores repositories.ScoreRepository
}

// NewScoreService builds a ScoreService.
func NewScoreService(users repositories.UserRepository, scores repositories.ScoreRepository) *ScoreService {
	return &ScoreService{users: users, scores: scores}
}

// Award applies the action's points with the user's PRO and weekend
// multipliers and returns the updated state.
func (s *ScoreService) Award(ctx context.Context, userID int, points int, at time.Time) (models.ScoreState, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.ScoreState{}, apperror.NotFound("user", userID)
		}
		return models.ScoreState{}, apperror.TransientStorage("load user", err)
	}

	effective := scoring.ApplyScore(points, user.IsPro, at)
	total, err := s.scores.AddPoints(ctx, userID, effective)
	if err != nil {
		return models.ScoreState{}, apperror.TransientStorage("store score", err)
	}
	return s.state(userID, total), nil
}

// State returns the user's current score and derived level.
func (s *ScoreService) State(ctx context.Context, userID int) (models.ScoreState, error) {
	total, err := s.scores.TotalScore(ctx, userID)
	if err != nil {
		return models.ScoreState{}, apperror.TransientStorage("load score", err)
	}
	return s.state(userID, total), nil
}

func (s *ScoreService) state(userID, total int) models.ScoreState {
	level := scoring.CalculateLevel(total)
	return models.ScoreState{
		UserID:          userID,
		TotalScore:      total,
		Level:           level.Level,
		Title:           level.Title,
		ProgressPercent: level.ProgressPercent,
	}
}
