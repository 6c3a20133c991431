package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/goalpool/prediction-pools/models"
	"github.com/goalpool/prediction-pools/repositories"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentRecomputes ограничивает параллелизм пересчёта пулов одного турнира.
const maxConcurrentRecomputes = 4

// StandingsBroadcaster доставляет обновлённую таблицу лидеров подписчикам пула.
type StandingsBroadcaster interface {
	BroadcastStandings(poolID int, entries []*models.LeaderboardEntry)
}

type LeaderboardService interface {
	GetStandings(ctx context.Context, poolID, userID int) ([]*models.LeaderboardEntry, error)
	// RecomputePool пересчитывает таблицу лидеров одного пула по завершённым матчам.
	RecomputePool(ctx context.Context, poolID int) error
	// RecomputeTournamentPools пересчитывает все пулы турнира. Вызывается после
	// завершения матча.
	RecomputeTournamentPools(ctx context.Context, tournamentID int) error
}

type leaderboardService struct {
	leaderboardRepo repositories.LeaderboardRepository
	predictionRepo  repositories.PredictionRepository
	matchRepo       repositories.MatchRepository
	poolRepo        repositories.PoolRepository
	participantRepo repositories.ParticipantRepository
	scoringRuleRepo repositories.ScoringRuleRepository
	access          *PoolAccess
	broadcaster     StandingsBroadcaster
	logger          *slog.Logger
}

func NewLeaderboardService(
	leaderboardRepo repositories.LeaderboardRepository,
	predictionRepo repositories.PredictionRepository,
	matchRepo repositories.MatchRepository,
	poolRepo repositories.PoolRepository,
	participantRepo repositories.ParticipantRepository,
	scoringRuleRepo repositories.ScoringRuleRepository,
	access *PoolAccess,
	broadcaster StandingsBroadcaster,
	logger *slog.Logger,
) LeaderboardService {
	return &leaderboardService{
		leaderboardRepo: leaderboardRepo,
		predictionRepo:  predictionRepo,
		matchRepo:       matchRepo,
		poolRepo:        poolRepo,
		participantRepo: participantRepo,
		scoringRuleRepo: scoringRuleRepo,
		access:          access,
		broadcaster:     broadcaster,
		logger:          logger,
	}
}

func (s *leaderboardService) GetStandings(ctx context.Context, poolID, userID int) ([]*models.LeaderboardEntry, error) {
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
	entries, err := s.leaderboardRepo.ListByPool(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings of pool %d: %w", poolID, err)
	}
	return entries, nil
}

func (s *leaderboardService) RecomputePool(ctx context.Context, poolID int) error {
	pool, err := s.poolRepo.GetByID(ctx, poolID)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolNotFound) {
			return ErrPoolNotFound
		}
		return fmt.Errorf("failed to get pool %d: %w", poolID, err)
	}

	rule, err := s.scoringRuleRepo.GetByPool(ctx, poolID)
	if err != nil {
		if errors.Is(err, repositories.ErrScoringRuleNotFound) {
			return ErrScoringRuleNotConfigured
		}
		return fmt.Errorf("failed to get scoring rule for pool %d: %w", poolID, err)
	}

	matches, err := s.matchRepo.ListByTournament(ctx, pool.TournamentID, statusPtr(models.MatchCompleted))
	if err != nil {
		return fmt.Errorf("failed to list completed matches for tournament %d: %w", pool.TournamentID, err)
	}
	matchByID := make(map[int]*models.Match, len(matches))
	for _, m := range matches {
		matchByID[m.ID] = m
	}

	predictions, err := s.predictionRepo.ListByPool(ctx, poolID)
	if err != nil {
		return fmt.Errorf("failed to list predictions of pool %d: %w", poolID, err)
	}

	participants, err := s.participantRepo.ListByPool(ctx, poolID)
	if err != nil {
		return fmt.Errorf("failed to list participants of pool %d: %w", poolID, err)
	}

	totals := make(map[int]*models.LeaderboardEntry, len(participants))
	for _, p := range participants {
		totals[p.UserID] = &models.LeaderboardEntry{PoolID: poolID, UserID: p.UserID}
	}

	for _, prediction := range predictions {
		match, ok := matchByID[prediction.MatchID]
		if !ok {
			continue // матч ещё не завершён
		}
		entry, ok := totals[prediction.UserID]
		if !ok {
			continue // прогноз покинувшего пул пользователя
		}
		breakdown, err := EvaluatePrediction(match, prediction, rule)
		if err != nil {
			return fmt.Errorf("failed to evaluate prediction %d: %w", prediction.ID, err)
		}
		entry.TotalPoints += breakdown.Total
		if breakdown.ExactScore {
			entry.ExactScoresCount++
		}
		if breakdown.CorrectWinner {
			entry.CorrectWinnersCount++
		}
	}

	entries := make([]*models.LeaderboardEntry, 0, len(totals))
	for _, e := range totals {
		entries = append(entries, e)
	}
	rankEntries(entries)

	if err := s.leaderboardRepo.ReplaceForPool(ctx, poolID, entries); err != nil {
		return fmt.Errorf("failed to store leaderboard of pool %d: %w", poolID, err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastStandings(poolID, entries)
	}
	return nil
}

func (s *leaderboardService) RecomputeTournamentPools(ctx context.Context, tournamentID int) error {
	poolIDs, err := s.poolRepo.ListIDsByTournament(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to list pools of tournament %d: %w", tournamentID, err)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRecomputes)
	for _, poolID := range poolIDs {
		poolID := poolID
		g.Go(func() error {
			if err := s.RecomputePool(gCtx, poolID); err != nil {
				// Пул без правил не валит пересчёт остальных
				if errors.Is(err, ErrScoringRuleNotConfigured) {
					if s.logger != nil {
						s.logger.WarnContext(gCtx, "skipping pool without scoring rule", slog.Int("pool_id", poolID))
					}
					return nil
				}
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// rankEntries сортирует по очкам (при равенстве — по точным счетам, затем по
// user_id для стабильности) и присваивает места. Равные результаты делят место.
func rankEntries(entries []*models.LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if a.ExactScoresCount != b.ExactScoresCount {
			return a.ExactScoresCount > b.ExactScoresCount
		}
		return a.UserID < b.UserID
	})

	// Плотная нумерация: после разделённого места следующее на единицу больше
	for i, e := range entries {
		if i == 0 {
			e.Rank = 1
			continue
		}
		prev := entries[i-1]
		if e.TotalPoints == prev.TotalPoints && e.ExactScoresCount == prev.ExactScoresCount {
			e.Rank = prev.Rank
			continue
		}
		e.Rank = prev.Rank + 1
	}
}

func statusPtr(s models.MatchStatus) *models.MatchStatus {
	return &s
}
