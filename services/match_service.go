package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goalpool/prediction-pools/models"
	"github.com/goalpool/prediction-pools/repositories"
)

type MatchService interface {
	GetMatch(ctx context.Context, matchID int) (*models.Match, error)
	ListTournamentMatches(ctx context.Context, tournamentID int, statusFilter *models.MatchStatus) ([]*models.Match, error)
	// UpdateMatch применяет поступивший результат. Завершение матча запускает
	// пересчёт таблиц лидеров всех пулов турнира.
	UpdateMatch(ctx context.Context, matchID int, input UpdateMatchInput) (*models.Match, error)
}

type UpdateMatchInput struct {
	Status           *models.MatchStatus `json:"status"`
	HomeScore        *int                `json:"home_score"`
	AwayScore        *int                `json:"away_score"`
	ExtraTime        *bool               `json:"extra_time"`
	Penalties        *bool               `json:"penalties"`
	HomePenaltyScore *int                `json:"home_penalty_score"`
	AwayPenaltyScore *int                `json:"away_penalty_score"`
	KickoffAt        *time.Time          `json:"kickoff_at"`
	Stadium          *string             `json:"stadium"`
}

type matchService struct {
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	leaderboards   LeaderboardService
	logger         *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	leaderboards LeaderboardService,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		leaderboards:   leaderboards,
		logger:         logger,
	}
}

func (s *matchService) GetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", matchID, err)
	}
	return match, nil
}

func (s *matchService) ListTournamentMatches(ctx context.Context, tournamentID int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", tournamentID, err)
	}
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, statusFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of tournament %d: %w", tournamentID, err)
	}
	return matches, nil
}

// allowedMatchTransitions фиксирует монотонный жизненный цикл матча.
var allowedMatchTransitions = map[models.MatchStatus][]models.MatchStatus{
	models.MatchScheduled:  {models.MatchInProgress, models.MatchCompleted, models.MatchPostponed, models.MatchCancelled},
	models.MatchInProgress: {models.MatchCompleted, models.MatchPostponed, models.MatchCancelled},
	models.MatchPostponed:  {models.MatchScheduled, models.MatchCancelled},
	models.MatchCompleted:  {},
	models.MatchCancelled:  {},
}

func isValidMatchTransition(current, next models.MatchStatus) bool {
	if current == next {
		return true
	}
	for _, allowed := range allowedMatchTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

func (s *matchService) UpdateMatch(ctx context.Context, matchID int, input UpdateMatchInput) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", matchID, err)
	}

	wasCompleted := match.Status == models.MatchCompleted

	if input.Status != nil {
		if !isValidMatchTransition(match.Status, *input.Status) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrMatchInvalidTransition, match.Status, *input.Status)
		}
		match.Status = *input.Status
	}
	if input.HomeScore != nil {
		if *input.HomeScore < 0 {
			return nil, ErrMatchInvalidScore
		}
		match.HomeScore = input.HomeScore
	}
	if input.AwayScore != nil {
		if *input.AwayScore < 0 {
			return nil, ErrMatchInvalidScore
		}
		match.AwayScore = input.AwayScore
	}
	if input.ExtraTime != nil {
		match.ExtraTime = *input.ExtraTime
	}
	if input.Penalties != nil {
		match.Penalties = *input.Penalties
	}
	if input.HomePenaltyScore != nil {
		match.HomePenaltyScore = input.HomePenaltyScore
	}
	if input.AwayPenaltyScore != nil {
		match.AwayPenaltyScore = input.AwayPenaltyScore
	}
	if input.KickoffAt != nil {
		match.KickoffAt = *input.KickoffAt
	}
	if input.Stadium != nil {
		match.Stadium = input.Stadium
	}

	if match.Status == models.MatchCompleted && (match.HomeScore == nil || match.AwayScore == nil) {
		return nil, fmt.Errorf("%w: completed match requires both scores", ErrValidationFailed)
	}

	if err := s.matchRepo.Update(ctx, match); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to update match %d: %w", matchID, err)
	}

	if !wasCompleted && match.Status == models.MatchCompleted {
		if err := s.leaderboards.RecomputeTournamentPools(ctx, match.TournamentID); err != nil {
			// Результат матча сохранён; таблицы доедут при следующем пересчёте
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "leaderboard recompute failed after match completion",
					slog.Int("match_id", match.ID),
					slog.Int("tournament_id", match.TournamentID),
					slog.Any("error", err))
			}
		}
	}

	return match, nil
}
