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
	ErrPredictionNotFound     = errors.New("prediction not found")
	ErrPredictionConflict     = errors.New("prediction already exists for this match, pool and user")
	ErrPredictionPoolInvalid  = errors.New("prediction pool conflict or invalid")
	ErrPredictionMatchInvalid = errors.New("prediction match conflict or invalid")
	ErrPredictionUserInvalid  = errors.New("prediction user conflict or invalid")
)

type PredictionRepository interface {
	Create(ctx context.Context, p *models.Prediction) error
	Update(ctx context.Context, p *models.Prediction) error
	GetByMatchPoolUser(ctx context.Context, matchID, poolID, userID int) (*models.Prediction, error)
	ListByPool(ctx context.Context, poolID int) ([]*models.Prediction, error)
	ListByPoolAndUser(ctx context.Context, poolID, userID int) ([]*models.Prediction, error)
}

type postgresPredictionRepository struct {
	db *sql.DB
}

func NewPostgresPredictionRepository(db *sql.DB) PredictionRepository {
	return &postgresPredictionRepository{db: db}
}

const predictionColumns = `id, match_id, pool_id, user_id, home_score, away_score, extra_time, penalties, home_penalty_score, away_penalty_score, created_at, updated_at`

func (r *postgresPredictionRepository) scanPrediction(row interface{ Scan(dest ...interface{}) error }, p *models.Prediction) error {
	return row.Scan(
		&p.ID,
		&p.MatchID,
		&p.PoolID,
		&p.UserID,
		&p.HomeScore,
		&p.AwayScore,
		&p.ExtraTime,
		&p.Penalties,
		&p.HomePenaltyScore,
		&p.AwayPenaltyScore,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func (r *postgresPredictionRepository) Create(ctx context.Context, p *models.Prediction) error {
	query := `
		INSERT INTO predictions (match_id, pool_id, user_id, home_score, away_score,
			extra_time, penalties, home_penalty_score, away_penalty_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.MatchID,
		p.PoolID,
		p.UserID,
		p.HomeScore,
		p.AwayScore,
		p.ExtraTime,
		p.Penalties,
		p.HomePenaltyScore,
		p.AwayPenaltyScore,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "predictions_match_id_pool_id_user_id_key" {
					return ErrPredictionConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "predictions_match_id_fkey":
					return ErrPredictionMatchInvalid
				case "predictions_pool_id_fkey":
					return ErrPredictionPoolInvalid
				case "predictions_user_id_fkey":
					return ErrPredictionUserInvalid
				}
			}
		}
		return fmt.Errorf("failed to create prediction: %w", err)
	}
	return nil
}

func (r *postgresPredictionRepository) Update(ctx context.Context, p *models.Prediction) error {
	query := `
		UPDATE predictions
		SET home_score = $1, away_score = $2, extra_time = $3, penalties = $4,
		    home_penalty_score = $5, away_penalty_score = $6, updated_at = NOW()
		WHERE match_id = $7 AND pool_id = $8 AND user_id = $9`

	result, err := r.db.ExecContext(ctx, query,
		p.HomeScore,
		p.AwayScore,
		p.ExtraTime,
		p.Penalties,
		p.HomePenaltyScore,
		p.AwayPenaltyScore,
		p.MatchID,
		p.PoolID,
		p.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update prediction: %w", err)
	}
	return checkAffectedRows(result, ErrPredictionNotFound)
}

func (r *postgresPredictionRepository) GetByMatchPoolUser(ctx context.Context, matchID, poolID, userID int) (*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE match_id = $1 AND pool_id = $2 AND user_id = $3`
	p := &models.Prediction{}
	err := r.scanPrediction(r.db.QueryRowContext(ctx, query, matchID, poolID, userID), p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPredictionNotFound
		}
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	return p, nil
}

func (r *postgresPredictionRepository) ListByPool(ctx context.Context, poolID int) ([]*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE pool_id = $1 ORDER BY match_id, user_id`
	return r.list(ctx, query, poolID)
}

func (r *postgresPredictionRepository) ListByPoolAndUser(ctx context.Context, poolID, userID int) ([]*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE pool_id = $1 AND user_id = $2 ORDER BY match_id`
	return r.list(ctx, query, poolID, userID)
}

func (r *postgresPredictionRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Prediction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	defer rows.Close()

	predictions := make([]*models.Prediction, 0)
	for rows.Next() {
		p := &models.Prediction{}
		if err := r.scanPrediction(rows, p); err != nil {
			return nil, fmt.Errorf("failed to scan prediction row: %w", err)
		}
		predictions = append(predictions, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prediction rows: %w", err)
	}
	return predictions, nil
}
