package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goalpool/prediction-pools/models"
)

var ErrLeaderboardEntryNotFound = errors.New("leaderboard entry not found")

type LeaderboardRepository interface {
	// ReplaceForPool атомарно заменяет все строки таблицы лидеров пула.
	ReplaceForPool(ctx context.Context, poolID int, entries []*models.LeaderboardEntry) error
	ListByPool(ctx context.Context, poolID int) ([]*models.LeaderboardEntry, error)
}

type postgresLeaderboardRepository struct {
	db *sql.DB
}

func NewPostgresLeaderboardRepository(db *sql.DB) LeaderboardRepository {
	return &postgresLeaderboardRepository{db: db}
}

func (r *postgresLeaderboardRepository) ReplaceForPool(ctx context.Context, poolID int, entries []*models.LeaderboardEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin leaderboard transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM leaderboard WHERE pool_id = $1`, poolID); err != nil {
		return fmt.Errorf("failed to clear leaderboard for pool %d: %w", poolID, err)
	}

	query := `
		INSERT INTO leaderboard (pool_id, user_id, total_points, exact_scores_count, correct_winners_count, rank, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, query,
			e.PoolID,
			e.UserID,
			e.TotalPoints,
			e.ExactScoresCount,
			e.CorrectWinnersCount,
			e.Rank,
		); err != nil {
			return fmt.Errorf("failed to insert leaderboard entry for user %d: %w", e.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit leaderboard transaction: %w", err)
	}
	return nil
}

func (r *postgresLeaderboardRepository) ListByPool(ctx context.Context, poolID int) ([]*models.LeaderboardEntry, error) {
	query := `
		SELECT l.pool_id, l.user_id, l.total_points, l.exact_scores_count, l.correct_winners_count,
		       l.rank, l.last_updated, u.id, u.full_name, u.profile_image_key
		FROM leaderboard l
		JOIN users u ON u.id = l.user_id
		WHERE l.pool_id = $1
		ORDER BY l.rank ASC, u.full_name ASC`

	rows, err := r.db.QueryContext(ctx, query, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard for pool: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.LeaderboardEntry, 0)
	for rows.Next() {
		e := &models.LeaderboardEntry{}
		u := &models.User{}
		if err := rows.Scan(
			&e.PoolID, &e.UserID, &e.TotalPoints, &e.ExactScoresCount, &e.CorrectWinnersCount,
			&e.Rank, &e.LastUpdated, &u.ID, &u.FullName, &u.ProfileImageKey,
		); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		e.User = u
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard rows: %w", err)
	}
	return entries, nil
}
