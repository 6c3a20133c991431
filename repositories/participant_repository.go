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
	ErrParticipantNotFound    = errors.New("pool participant not found")
	ErrParticipantConflict    = errors.New("user is already a participant of this pool")
	ErrParticipantPoolInvalid = errors.New("participant pool conflict or invalid")
	ErrParticipantUserInvalid = errors.New("participant user conflict or invalid")
)

type ParticipantRepository interface {
	Add(ctx context.Context, p *models.PoolParticipant) error
	Remove(ctx context.Context, poolID, userID int) error
	Exists(ctx context.Context, poolID, userID int) (bool, error)
	CountByPool(ctx context.Context, poolID int) (int, error)
	ListByPool(ctx context.Context, poolID int) ([]*models.PoolParticipant, error)
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) Add(ctx context.Context, p *models.PoolParticipant) error {
	query := `
		INSERT INTO pool_participants (pool_id, user_id)
		VALUES ($1, $2)
		RETURNING joined_at`

	err := r.db.QueryRowContext(ctx, query, p.PoolID, p.UserID).Scan(&p.JoinedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "pool_participants_pool_id_user_id_key" {
					return ErrParticipantConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "pool_participants_pool_id_fkey":
					return ErrParticipantPoolInvalid
				case "pool_participants_user_id_fkey":
					return ErrParticipantUserInvalid
				}
			}
		}
		return fmt.Errorf("failed to add pool participant: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) Remove(ctx context.Context, poolID, userID int) error {
	query := `DELETE FROM pool_participants WHERE pool_id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, poolID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove pool participant: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) Exists(ctx context.Context, poolID, userID int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM pool_participants WHERE pool_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, poolID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pool participant: %w", err)
	}
	return exists, nil
}

func (r *postgresParticipantRepository) CountByPool(ctx context.Context, poolID int) (int, error) {
	query := `SELECT COUNT(*) FROM pool_participants WHERE pool_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, poolID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pool participants: %w", err)
	}
	return count, nil
}

func (r *postgresParticipantRepository) ListByPool(ctx context.Context, poolID int) ([]*models.PoolParticipant, error) {
	query := `
		SELECT pp.pool_id, pp.user_id, pp.joined_at, u.id, u.full_name, u.email, u.profile_image_key
		FROM pool_participants pp
		JOIN users u ON u.id = pp.user_id
		WHERE pp.pool_id = $1
		ORDER BY pp.joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pool participants: %w", err)
	}
	defer rows.Close()

	participants := make([]*models.PoolParticipant, 0)
	for rows.Next() {
		p := &models.PoolParticipant{}
		u := &models.User{}
		if err := rows.Scan(&p.PoolID, &p.UserID, &p.JoinedAt, &u.ID, &u.FullName, &u.Email, &u.ProfileImageKey); err != nil {
			return nil, fmt.Errorf("failed to scan pool participant row: %w", err)
		}
		p.User = u
		participants = append(participants, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pool participant rows: %w", err)
	}
	return participants, nil
}
