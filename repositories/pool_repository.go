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
	ErrPoolNotFound           = errors.New("pool not found")
	ErrPoolNameConflict       = errors.New("pool name already in use for this tournament")
	ErrPoolInviteCodeConflict = errors.New("pool invite code already in use")
	ErrPoolTournamentInvalid  = errors.New("pool tournament conflict or invalid")
	ErrPoolCreatorInvalid     = errors.New("pool creator conflict or invalid")
)

// PoolFilter ограничивает публичный листинг пулов.
type PoolFilter struct {
	Name   string
	Limit  int
	Offset int
}

type PoolRepository interface {
	Create(ctx context.Context, pool *models.Pool) error
	GetByID(ctx context.Context, id int) (*models.Pool, error)
	GetByInviteCode(ctx context.Context, code string) (*models.Pool, error)
	ListPublic(ctx context.Context, filter PoolFilter) ([]*models.Pool, error)
	ListIDsByTournament(ctx context.Context, tournamentID int) ([]int, error)
	Update(ctx context.Context, pool *models.Pool) error
}

type postgresPoolRepository struct {
	db *sql.DB
}

func NewPostgresPoolRepository(db *sql.DB) PoolRepository {
	return &postgresPoolRepository{db: db}
}

const poolColumns = `id, name, description, tournament_id, creator_id, is_private, invite_code, max_participants, registration_deadline, created_at`

func (r *postgresPoolRepository) scanPool(row interface{ Scan(dest ...interface{}) error }, p *models.Pool) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.TournamentID,
		&p.CreatorID,
		&p.IsPrivate,
		&p.InviteCode,
		&p.MaxParticipants,
		&p.RegistrationDeadline,
		&p.CreatedAt,
	)
}

func mapPoolConstraintError(err error) error {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}
	switch pqErr.Code {
	case "23505": // unique_violation
		switch pqErr.Constraint {
		case "pools_tournament_id_name_key":
			return ErrPoolNameConflict
		case "pools_invite_code_key":
			return ErrPoolInviteCodeConflict
		}
	case "23503": // foreign_key_violation
		switch pqErr.Constraint {
		case "pools_tournament_id_fkey":
			return ErrPoolTournamentInvalid
		case "pools_creator_id_fkey":
			return ErrPoolCreatorInvalid
		}
	}
	return nil
}

func (r *postgresPoolRepository) Create(ctx context.Context, pool *models.Pool) error {
	query := `
		INSERT INTO pools (name, description, tournament_id, creator_id, is_private, invite_code, max_participants, registration_deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		pool.Name,
		pool.Description,
		pool.TournamentID,
		pool.CreatorID,
		pool.IsPrivate,
		pool.InviteCode,
		pool.MaxParticipants,
		pool.RegistrationDeadline,
	).Scan(&pool.ID, &pool.CreatedAt)

	if err != nil {
		if mapped := mapPoolConstraintError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to create pool: %w", err)
	}
	return nil
}

func (r *postgresPoolRepository) GetByID(ctx context.Context, id int) (*models.Pool, error) {
	query := `SELECT ` + poolColumns + ` FROM pools WHERE id = $1`
	p := &models.Pool{}
	err := r.scanPool(r.db.QueryRowContext(ctx, query, id), p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to get pool by id: %w", err)
	}
	return p, nil
}

func (r *postgresPoolRepository) GetByInviteCode(ctx context.Context, code string) (*models.Pool, error) {
	query := `SELECT ` + poolColumns + ` FROM pools WHERE invite_code = $1`
	p := &models.Pool{}
	err := r.scanPool(r.db.QueryRowContext(ctx, query, code), p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to get pool by invite code: %w", err)
	}
	return p, nil
}

// ListPublic возвращает только публичные пулы. Приватные не попадают в выдачу
// независимо от фильтра.
func (r *postgresPoolRepository) ListPublic(ctx context.Context, filter PoolFilter) ([]*models.Pool, error) {
	query := `SELECT ` + poolColumns + ` FROM pools WHERE is_private = FALSE`
	args := []interface{}{}
	argCounter := 1

	if filter.Name != "" {
		query += fmt.Sprintf(" AND name ILIKE $%d", argCounter)
		args = append(args, "%"+filter.Name+"%")
		argCounter++
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCounter, argCounter+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list public pools: %w", err)
	}
	defer rows.Close()

	pools := make([]*models.Pool, 0)
	for rows.Next() {
		p := &models.Pool{}
		if err := r.scanPool(rows, p); err != nil {
			return nil, fmt.Errorf("failed to scan pool row: %w", err)
		}
		pools = append(pools, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pool rows: %w", err)
	}
	return pools, nil
}

func (r *postgresPoolRepository) ListIDsByTournament(ctx context.Context, tournamentID int) ([]int, error) {
	query := `SELECT id FROM pools WHERE tournament_id = $1`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pool ids by tournament: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan pool id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pool id rows: %w", err)
	}
	return ids, nil
}

func (r *postgresPoolRepository) Update(ctx context.Context, pool *models.Pool) error {
	query := `
		UPDATE pools
		SET name = $1, description = $2, is_private = $3, invite_code = $4,
		    max_participants = $5, registration_deadline = $6
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		pool.Name,
		pool.Description,
		pool.IsPrivate,
		pool.InviteCode,
		pool.MaxParticipants,
		pool.RegistrationDeadline,
		pool.ID,
	)
	if err != nil {
		if mapped := mapPoolConstraintError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to update pool: %w", err)
	}
	return checkAffectedRows(result, ErrPoolNotFound)
}
