package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goalpool/prediction-pools/models"
	"github.com/lib/pq"
)

var (
	ErrScoringRuleNotFound    = errors.New("scoring rule not found")
	ErrScoringRulePoolInvalid = errors.New("scoring rule pool conflict or invalid")
)

type ScoringRuleRepository interface {
	// Upsert создаёт правила для пула или обновляет существующие.
	// На пул существует ровно одна запись.
	Upsert(ctx context.Context, rule *models.ScoringRule) error
	GetByPool(ctx context.Context, poolID int) (*models.ScoringRule, error)
}

type postgresScoringRuleRepository struct {
	db *sql.DB
}

func NewPostgresScoringRuleRepository(db *sql.DB) ScoringRuleRepository {
	return &postgresScoringRuleRepository{db: db}
}

func (r *postgresScoringRuleRepository) Upsert(ctx context.Context, rule *models.ScoringRule) error {
	query := `
		INSERT INTO scoring_rules (pool_id, exact_score_points, correct_winner_goal_diff_points,
			correct_winner_points, correct_draw_points, special_event_points,
			knockout_multiplier, final_multiplier)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (pool_id) DO UPDATE SET
			exact_score_points = EXCLUDED.exact_score_points,
			correct_winner_goal_diff_points = EXCLUDED.correct_winner_goal_diff_points,
			correct_winner_points = EXCLUDED.correct_winner_points,
			correct_draw_points = EXCLUDED.correct_draw_points,
			special_event_points = EXCLUDED.special_event_points,
			knockout_multiplier = EXCLUDED.knockout_multiplier,
			final_multiplier = EXCLUDED.final_multiplier
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		rule.PoolID,
		rule.ExactScorePoints,
		rule.CorrectWinnerGoalDiffPoints,
		rule.CorrectWinnerPoints,
		rule.CorrectDrawPoints,
		rule.SpecialEventPoints,
		rule.KnockoutMultiplier,
		rule.FinalMultiplier,
	).Scan(&rule.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "scoring_rules_pool_id_fkey" {
				return ErrScoringRulePoolInvalid
			}
		}
		return fmt.Errorf("failed to upsert scoring rule: %w", err)
	}
	return nil
}

func (r *postgresScoringRuleRepository) GetByPool(ctx context.Context, poolID int) (*models.ScoringRule, error) {
	query := `
		SELECT id, pool_id, exact_score_points, correct_winner_goal_diff_points,
			correct_winner_points, correct_draw_points, special_event_points,
			knockout_multiplier, final_multiplier
		FROM scoring_rules WHERE pool_id = $1`

	rule := &models.ScoringRule{}
	err := r.db.QueryRowContext(ctx, query, poolID).Scan(
		&rule.ID,
		&rule.PoolID,
		&rule.ExactScorePoints,
		&rule.CorrectWinnerGoalDiffPoints,
		&rule.CorrectWinnerPoints,
		&rule.CorrectDrawPoints,
		&rule.SpecialEventPoints,
		&rule.KnockoutMultiplier,
		&rule.FinalMultiplier,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScoringRuleNotFound
		}
		return nil, fmt.Errorf("failed to get scoring rule by pool: %w", err)
	}
	return rule, nil
}
