package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goalpool/prediction-pools/models"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.MatchStatus) ([]*models.Match, error)
	Update(ctx context.Context, match *models.Match) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `
	m.id, m.tournament_id, m.home_team_id, m.away_team_id, m.kickoff_at, m.stadium,
	m.stage, m.status, m.home_score, m.away_score, m.extra_time, m.penalties,
	m.home_penalty_score, m.away_penalty_score,
	ht.id, ht.name, ht.country_code, ht.flag_key,
	at.id, at.name, at.country_code, at.flag_key`

const matchJoins = `
	FROM matches m
	JOIN teams ht ON ht.id = m.home_team_id
	JOIN teams at ON at.id = m.away_team_id`

func (r *postgresMatchRepository) scanMatch(row interface{ Scan(dest ...interface{}) error }) (*models.Match, error) {
	m := &models.Match{}
	home := &models.Team{}
	away := &models.Team{}
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.HomeTeamID, &m.AwayTeamID, &m.KickoffAt, &m.Stadium,
		&m.Stage, &m.Status, &m.HomeScore, &m.AwayScore, &m.ExtraTime, &m.Penalties,
		&m.HomePenaltyScore, &m.AwayPenaltyScore,
		&home.ID, &home.Name, &home.CountryCode, &home.FlagKey,
		&away.ID, &away.Name, &away.CountryCode, &away.FlagKey,
	)
	if err != nil {
		return nil, err
	}
	m.HomeTeam = home
	m.AwayTeam = away
	return m, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT` + matchColumns + matchJoins + ` WHERE m.id = $1`
	m, err := r.scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match by id: %w", err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	query := `SELECT` + matchColumns + matchJoins + ` WHERE m.tournament_id = $1`
	args := []interface{}{tournamentID}
	if statusFilter != nil {
		query += ` AND m.status = $2`
		args = append(args, *statusFilter)
	}
	query += ` ORDER BY m.kickoff_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches by tournament: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, err := r.scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, match *models.Match) error {
	query := `
		UPDATE matches
		SET status = $1, home_score = $2, away_score = $3, extra_time = $4,
		    penalties = $5, home_penalty_score = $6, away_penalty_score = $7,
		    kickoff_at = $8, stadium = $9
		WHERE id = $10`

	result, err := r.db.ExecContext(ctx, query,
		match.Status,
		match.HomeScore,
		match.AwayScore,
		match.ExtraTime,
		match.Penalties,
		match.HomePenaltyScore,
		match.AwayPenaltyScore,
		match.KickoffAt,
		match.Stadium,
		match.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}
