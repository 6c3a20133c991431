package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/goalpool/prediction-pools/models"
	"github.com/goalpool/prediction-pools/repositories"
	"github.com/goalpool/prediction-pools/storage"
)

// CreateTournamentInput описывает данные нового турнира.
type CreateTournamentInput struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// UpdateTournamentInput содержит только изменяемые поля; nil означает "не менять".
type UpdateTournamentInput struct {
	Name      *string                  `json:"name"`
	StartDate *time.Time               `json:"start_date"`
	EndDate   *time.Time               `json:"end_date"`
	Status    *models.TournamentStatus `json:"status"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context, statusFilter *models.TournamentStatus) ([]*models.Tournament, error)
	UpdateTournament(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error)
	// AutoUpdateStatusesByDates переводит турниры в актуальный статус по датам.
	// Вызывается планировщиком.
	AutoUpdateStatusesByDates(ctx context.Context) error
	UploadLogo(ctx context.Context, id int, contentType string, file io.Reader) (*models.Tournament, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if !input.EndDate.After(input.StartDate) {
		return nil, fmt.Errorf("%w: end date must be after start date", ErrValidationFailed)
	}

	tournament := &models.Tournament{
		Name:      name,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Status:    statusForDates(input.StartDate, input.EndDate, time.Now()),
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return tournament, nil
}

func (s *tournamentService) UpdateTournament(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tournament name must not be empty", ErrValidationFailed)
		}
		tournament.Name = name
	}
	if input.StartDate != nil {
		tournament.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		tournament.EndDate = *input.EndDate
	}
	if !tournament.EndDate.After(tournament.StartDate) {
		return nil, fmt.Errorf("%w: end date must be after start date", ErrValidationFailed)
	}
	if input.Status != nil {
		switch *input.Status {
		case models.TournamentUpcoming, models.TournamentActive, models.TournamentCompleted:
			tournament.Status = *input.Status
		default:
			return nil, fmt.Errorf("%w: unknown tournament status %q", ErrValidationFailed, *input.Status)
		}
	}

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTournamentNotFound):
			return nil, ErrTournamentNotFound
		case errors.Is(err, repositories.ErrTournamentNameConflict):
			return nil, ErrTournamentNameConflict
		}
		return nil, fmt.Errorf("failed to update tournament %d: %w", id, err)
	}

	s.populateLogoURL(tournament)
	return tournament, nil
}

// statusForDates подбирает статус нового турнира по его датам.
func statusForDates(start, end, now time.Time) models.TournamentStatus {
	switch {
	case now.Before(start):
		return models.TournamentUpcoming
	case now.Before(end):
		return models.TournamentActive
	default:
		return models.TournamentCompleted
	}
}

func (s *tournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}

	teams, err := s.teamRepo.ListByTournament(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams of tournament %d: %w", id, err)
	}
	tournament.Teams = make([]models.Team, 0, len(teams))
	for _, t := range teams {
		s.populateTeamFlagURL(t)
		tournament.Teams = append(tournament.Teams, *t)
	}

	s.populateLogoURL(tournament)
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, statusFilter *models.TournamentStatus) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, statusFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	for _, t := range tournaments {
		s.populateLogoURL(t)
	}
	return tournaments, nil
}

func (s *tournamentService) AutoUpdateStatusesByDates(ctx context.Context) error {
	now := time.Now()
	due, err := s.tournamentRepo.ListDueForStatusChange(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list tournaments due for status change: %w", err)
	}

	for _, t := range due {
		var next models.TournamentStatus
		switch {
		case t.Status == models.TournamentUpcoming && !t.StartDate.After(now):
			next = models.TournamentActive
		case t.Status == models.TournamentActive && !t.EndDate.After(now):
			next = models.TournamentCompleted
		default:
			continue
		}
		if err := s.tournamentRepo.UpdateStatus(ctx, t.ID, next); err != nil {
			return fmt.Errorf("failed to update status of tournament %d: %w", t.ID, err)
		}
		if s.logger != nil {
			s.logger.InfoContext(ctx, "tournament status updated",
				slog.Int("tournament_id", t.ID),
				slog.String("from", string(t.Status)),
				slog.String("to", string(next)))
		}
	}
	return nil
}

func (s *tournamentService) UploadLogo(ctx context.Context, id int, contentType string, file io.Reader) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	key := fmt.Sprintf("tournaments/%d/logo%s", id, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload tournament logo: %w", err)
	}

	oldKey := tournament.LogoKey
	if err := s.tournamentRepo.UpdateLogoKey(ctx, id, &key); err != nil {
		return nil, fmt.Errorf("failed to store tournament logo key: %w", err)
	}
	if oldKey != nil && *oldKey != key {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to delete previous tournament logo",
				slog.String("key", *oldKey), slog.Any("error", err))
		}
	}

	tournament.LogoKey = &key
	s.populateLogoURL(tournament)
	return tournament, nil
}

func (s *tournamentService) populateLogoURL(t *models.Tournament) {
	if t == nil || t.LogoKey == nil || *t.LogoKey == "" || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*t.LogoKey); url != "" {
		t.LogoURL = &url
	}
}

func (s *tournamentService) populateTeamFlagURL(t *models.Team) {
	if t == nil || t.FlagKey == nil || *t.FlagKey == "" || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*t.FlagKey); url != "" {
		t.FlagURL = &url
	}
}
