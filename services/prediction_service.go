package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/goalpool/prediction-pools/models"
	"github.com/goalpool/prediction-pools/repositories"
)

type PredictionService interface {
	// SubmitPrediction создаёт прогноз или обновляет существующий.
	// Принимается только пока матч в статусе scheduled.
	SubmitPrediction(ctx context.Context, input SubmitPredictionInput, userID int) (*models.Prediction, error)
	ListPoolPredictions(ctx context.Context, poolID, userID int) ([]*models.Prediction, error)
	ListOwnPredictions(ctx context.Context, poolID, userID int) ([]*models.Prediction, error)
}

type SubmitPredictionInput struct {
	MatchID          int  `json:"match_id"`
	PoolID           int  `json:"pool_id"`
	HomeScore        int  `json:"home_score"`
	AwayScore        int  `json:"away_score"`
	ExtraTime        bool `json:"extra_time"`
	Penalties        bool `json:"penalties"`
	HomePenaltyScore *int `json:"home_penalty_score"`
	AwayPenaltyScore *int `json:"away_penalty_score"`
}

type predictionService struct {
	predictionRepo repositories.PredictionRepository
	matchRepo      repositories.MatchRepository
	poolRepo       repositories.PoolRepository
	access         *PoolAccess
}

func NewPredictionService(
	predictionRepo repositories.PredictionRepository,
	matchRepo repositories.MatchRepository,
	poolRepo repositories.PoolRepository,
	access *PoolAccess,
) PredictionService {
	return &predictionService{
		predictionRepo: predictionRepo,
		matchRepo:      matchRepo,
		poolRepo:       poolRepo,
		access:         access,
	}
}

func (s *predictionService) SubmitPrediction(ctx context.Context, input SubmitPredictionInput, userID int) (*models.Prediction, error) {
	if input.HomeScore < 0 || input.AwayScore < 0 {
		return nil, ErrMatchInvalidScore
	}

	pool, err := s.poolRepo.GetByID(ctx, input.PoolID)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to get pool %d: %w", input.PoolID, err)
	}
	if err := s.access.ValidateAccess(ctx, pool.ID, userID, pool.CreatorID); err != nil {
		return nil, err
	}

	match, err := s.matchRepo.GetByID(ctx, input.MatchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", input.MatchID, err)
	}
	if match.TournamentID != pool.TournamentID {
		return nil, ErrMatchNotFound
	}
	if match.Status != models.MatchScheduled {
		return nil, ErrMatchNotOpenForChanges
	}

	prediction := &models.Prediction{
		MatchID:          input.MatchID,
		PoolID:           input.PoolID,
		UserID:           userID,
		HomeScore:        input.HomeScore,
		AwayScore:        input.AwayScore,
		ExtraTime:        input.ExtraTime,
		Penalties:        input.Penalties,
		HomePenaltyScore: input.HomePenaltyScore,
		AwayPenaltyScore: input.AwayPenaltyScore,
	}

	err = s.predictionRepo.Create(ctx, prediction)
	if err == nil {
		return prediction, nil
	}
	if !errors.Is(err, repositories.ErrPredictionConflict) {
		return nil, fmt.Errorf("failed to create prediction: %w", err)
	}

	// Прогноз уже существует — обновляем его, матч всё ещё scheduled
	if err := s.predictionRepo.Update(ctx, prediction); err != nil {
		return nil, fmt.Errorf("failed to update prediction: %w", err)
	}
	existing, err := s.predictionRepo.GetByMatchPoolUser(ctx, input.MatchID, input.PoolID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload prediction: %w", err)
	}
	return existing, nil
}

func (s *predictionService) ListPoolPredictions(ctx context.Context, poolID, userID int) ([]*models.Prediction, error) {
	pool, err := s.poolRepo.GetByID(ctx, poolID)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to get pool %d: %w", poolID, err)
	}
	if err := s.access.ValidateAccess(ctx, poolID, userID, pool.CreatorID); err != nil {
		return nil, err
	}
	predictions, err := s.predictionRepo.ListByPool(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions of pool %d: %w", poolID, err)
	}
	return predictions, nil
}

func (s *predictionService) ListOwnPredictions(ctx context.Context, poolID, userID int) ([]*models.Prediction, error) {
	pool, err := s.poolRepo.GetByID(ctx, poolID)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to get pool %d: %w", poolID, err)
	}
	if err := s.access.ValidateAccess(ctx, poolID, userID, pool.CreatorID); err != nil {
		return nil, err
	}
	predictions, err := s.predictionRepo.ListByPoolAndUser(ctx, poolID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list own predictions of pool %d: %w", poolID, err)
	}
	return predictions, nil
}
