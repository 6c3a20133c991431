package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goalpool/prediction-pools/models"
	"github.com/goalpool/prediction-pools/repositories"
)

const maxInviteCodeAttempts = 3

type PoolService interface {
	CreatePool(ctx context.Context, input CreatePoolInput, creatorID int) (*models.Pool, error)
	GetPool(ctx context.Context, poolID, userID int) (*models.Pool, error)
	ListPublicPools(ctx context.Context, filter repositories.PoolFilter) ([]*models.Pool, error)
	UpdatePool(ctx context.Context, poolID, userID int, input UpdatePoolInput) (*models.Pool, error)
	JoinPool(ctx context.Context, input JoinPoolInput, userID int) (models.PoolSummary, error)
	LeavePool(ctx context.Context, poolID, userID int) error
	RemoveParticipant(ctx context.Context, poolID, currentUserID, targetUserID int) error
	ListParticipants(ctx context.Context, poolID, userID int) ([]*models.PoolParticipant, error)
	ResolveInviteCode(ctx context.Context, code string) (models.PoolSummary, error)
	GetScoringRule(ctx context.Context, poolID, userID int) (*models.ScoringRule, error)
}

type CreatePoolInput struct {
	Name                 string            `json:"name"`
	Description          *string           `json:"description"`
	TournamentID         int               `json:"tournament_id"`
	IsPrivate            bool              `json:"is_private"`
	InviteCode           *string           `json:"invite_code"`
	MaxParticipants      int               `json:"max_participants"`
	RegistrationDeadline *time.Time        `json:"registration_deadline"`
	ScoringRule          *ScoringRuleInput `json:"scoring_rule"`
}

type ScoringRuleInput struct {
	ExactScorePoints            int     `json:"exact_score_points"`
	CorrectWinnerGoalDiffPoints int     `json:"correct_winner_goal_diff_points"`
	CorrectWinnerPoints         int     `json:"correct_winner_points"`
	CorrectDrawPoints           int     `json:"correct_draw_points"`
	SpecialEventPoints          int     `json:"special_event_points"`
	KnockoutMultiplier          float64 `json:"knockout_multiplier"`
	FinalMultiplier             float64 `json:"final_multiplier"`
}

type UpdatePoolInput struct {
	Name                 *string    `json:"name"`
	Description          *string    `json:"description"`
	IsPrivate            *bool      `json:"is_private"`
	MaxParticipants      *int       `json:"max_participants"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
}

// JoinPoolInput принимает хотя бы одно из полей. Если указан инвайт-код,
// пул разрешается по нему; явный pool_id тогда выступает проверкой согласованности.
type JoinPoolInput struct {
	PoolID     *int    `json:"pool_id"`
	InviteCode *string `json:"invite_code"`
}

type poolService struct {
	poolRepo        repositories.PoolRepository
	participantRepo repositories.ParticipantRepository
	scoringRuleRepo repositories.ScoringRuleRepository
	tournamentRepo  repositories.TournamentRepository
	access          *PoolAccess
	now             func() time.Time
}

func NewPoolService(
	poolRepo repositories.PoolRepository,
	participantRepo repositories.ParticipantRepository,
	scoringRuleRepo repositories.ScoringRuleRepository,
	tournamentRepo repositories.TournamentRepository,
	access *PoolAccess,
) PoolService {
	return &poolService{
		poolRepo:        poolRepo,
		participantRepo: participantRepo,
		scoringRuleRepo: scoringRuleRepo,
		tournamentRepo:  tournamentRepo,
		access:          access,
		now:             time.Now,
	}
}

// CreatePool создаёт пул, правила начисления очков и запись участника для
// создателя. Создатель всегда является участником собственного пула.
func (s *poolService) CreatePool(ctx context.Context, input CreatePoolInput, creatorID int) (*models.Pool, error) {
	if input.Name == "" {
		return nil, ErrPoolNameRequired
	}
	if input.MaxParticipants <= 0 {
		return nil, ErrPoolInvalidCapacity
	}

	if _, err := s.tournamentRepo.GetByID(ctx, input.TournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", input.TournamentID, err)
	}

	pool := &models.Pool{
		Name:                 input.Name,
		Description:          input.Description,
		TournamentID:         input.TournamentID,
		CreatorID:            creatorID,
		IsPrivate:            input.IsPrivate,
		InviteCode:           input.InviteCode,
		MaxParticipants:      input.MaxParticipants,
		RegistrationDeadline: input.RegistrationDeadline,
	}

	if err := s.createWithInviteCode(ctx, pool, input.InviteCode == nil); err != nil {
		return nil, err
	}

	rule := models.DefaultScoringRule(pool.ID)
	if in := input.ScoringRule; in != nil {
		rule = &models.ScoringRule{
			PoolID:                      pool.ID,
			ExactScorePoints:            in.ExactScorePoints,
			CorrectWinnerGoalDiffPoints: in.CorrectWinnerGoalDiffPoints,
			CorrectWinnerPoints:         in.CorrectWinnerPoints,
			CorrectDrawPoints:           in.CorrectDrawPoints,
			SpecialEventPoints:          in.SpecialEventPoints,
			KnockoutMultiplier:          in.KnockoutMultiplier,
			FinalMultiplier:             in.FinalMultiplier,
		}
	}
	if err := s.scoringRuleRepo.Upsert(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to create scoring rule for pool %d: %w", pool.ID, err)
	}

	participant := &models.PoolParticipant{PoolID: pool.ID, UserID: creatorID}
	if err := s.participantRepo.Add(ctx, participant); err != nil && !errors.Is(err, repositories.ErrParticipantConflict) {
		return nil, fmt.Errorf("failed to add creator as participant of pool %d: %w", pool.ID, err)
	}

	return pool, nil
}

// createWithInviteCode вставляет пул; для приватных пулов без явного кода
// генерирует код и повторяет вставку при конфликте уникальности.
func (s *poolService) createWithInviteCode(ctx context.Context, pool *models.Pool, generate bool) error {
	if !generate {
		err := s.poolRepo.Create(ctx, pool)
		return mapPoolCreateError(err)
	}

	if !pool.IsPrivate {
		return mapPoolCreateError(s.poolRepo.Create(ctx, pool))
	}

	for attempt := 0; attempt < maxInviteCodeAttempts; attempt++ {
		code, err := generateInviteCode()
		if err != nil {
			return err
		}
		pool.InviteCode = &code

		err = s.poolRepo.Create(ctx, pool)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repositories.ErrPoolInviteCodeConflict) {
			return mapPoolCreateError(err)
		}
		// Конфликт кода, пробуем новый
	}
	return fmt.Errorf("%w after %d attempts", ErrPoolInviteCodeConflict, maxInviteCodeAttempts)
}

func mapPoolCreateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrPoolNameConflict):
		return ErrPoolNameConflict
	case errors.Is(err, repositories.ErrPoolInviteCodeConflict):
		return ErrPoolInviteCodeConflict
	case errors.Is(err, repositories.ErrPoolTournamentInvalid):
		return ErrTournamentNotFound
	default:
		return fmt.Errorf("failed to create pool: %w", err)
	}
}

func (s *poolService) GetPool(ctx context.Context, poolID, userID int) (*models.Pool, error) {
	pool, err := s.getPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if err := s.access.ValidateAccess(ctx, poolID, userID, pool.CreatorID); err != nil {
		return nil, err
	}
	// Инвайт-код видит только создатель
	if pool.CreatorID != userID {
		pool.InviteCode = nil
	}
	return pool, nil
}

func (s *poolService) ListPublicPools(ctx context.Context, filter repositories.PoolFilter) ([]*models.Pool, error) {
	pools, err := s.poolRepo.ListPublic(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list public pools: %w", err)
	}
	for _, p := range pools {
		p.InviteCode = nil
	}
	return pools, nil
}

func (s *poolService) UpdatePool(ctx context.Context, poolID, userID int, input UpdatePoolInput) (*models.Pool, error) {
	pool, err := s.getPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if err := s.access.ValidateCreator(userID, pool.CreatorID); err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrPoolNameRequired
		}
		pool.Name = *input.Name
	}
	if input.Description != nil {
		pool.Description = input.Description
	}
	if input.IsPrivate != nil {
		pool.IsPrivate = *input.IsPrivate
	}
	if input.MaxParticipants != nil {
		if *input.MaxParticipants <= 0 {
			return nil, ErrPoolInvalidCapacity
		}
		pool.MaxParticipants = *input.MaxParticipants
	}
	if input.RegistrationDeadline != nil {
		pool.RegistrationDeadline = input.RegistrationDeadline
	}

	if err := s.poolRepo.Update(ctx, pool); err != nil {
		switch {
		case errors.Is(err, repositories.ErrPoolNotFound):
			return nil, ErrPoolNotFound
		case errors.Is(err, repositories.ErrPoolNameConflict):
			return nil, ErrPoolNameConflict
		}
		return nil, fmt.Errorf("failed to update pool %d: %w", poolID, err)
	}
	return pool, nil
}

// JoinPool разрешает запрос на вступление по pool_id и/или инвайт-коду.
// Порядок проверок: разрешение пула, приватность, вместимость, дедлайн,
// повторное участие.
func (s *poolService) JoinPool(ctx context.Context, input JoinPoolInput, userID int) (models.PoolSummary, error) {
	var none models.PoolSummary

	if input.PoolID == nil && input.InviteCode == nil {
		return none, ErrJoinTargetRequired
	}

	var pool *models.Pool
	var err error
	if input.InviteCode != nil {
		pool, err = s.poolRepo.GetByInviteCode(ctx, *input.InviteCode)
		if err != nil {
			if errors.Is(err, repositories.ErrPoolNotFound) {
				return none, ErrPoolNotFound
			}
			return none, fmt.Errorf("failed to resolve pool by invite code: %w", err)
		}
		// Несовпадение явного pool_id с пулом кода не раскрывает, какому пулу
		// принадлежит код
		if input.PoolID != nil && *input.PoolID != pool.ID {
			return none, ErrPoolNotFound
		}
	} else {
		pool, err = s.getPool(ctx, *input.PoolID)
		if err != nil {
			return none, err
		}
		if pool.IsPrivate {
			return none, ErrInviteCodeRequired
		}
	}

	count, err := s.participantRepo.CountByPool(ctx, pool.ID)
	if err != nil {
		return none, fmt.Errorf("failed to count participants of pool %d: %w", pool.ID, err)
	}
	if count >= pool.MaxParticipants {
		return none, ErrPoolFull
	}

	if pool.RegistrationDeadline != nil && s.now().After(*pool.RegistrationDeadline) {
		return none, ErrPoolDeadlinePassed
	}

	participant := &models.PoolParticipant{PoolID: pool.ID, UserID: userID}
	if err := s.participantRepo.Add(ctx, participant); err != nil {
		// Гонка двух одновременных вступлений разрешается уникальным
		// ограничением в БД
		if errors.Is(err, repositories.ErrParticipantConflict) {
			return none, ErrAlreadyParticipant
		}
		if errors.Is(err, repositories.ErrParticipantUserInvalid) {
			return none, ErrUserNotFound
		}
		return none, fmt.Errorf("failed to join pool %d: %w", pool.ID, err)
	}

	return pool.Summary(), nil
}

func (s *poolService) LeavePool(ctx context.Context, poolID, userID int) error {
	pool, err := s.getPool(ctx, poolID)
	if err != nil {
		return err
	}
	if err := s.access.ValidateCanLeave(ctx, poolID, userID, pool.CreatorID); err != nil {
		return err
	}
	if err := s.participantRepo.Remove(ctx, poolID, userID); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrNotPoolParticipant
		}
		return fmt.Errorf("failed to leave pool %d: %w", poolID, err)
	}
	return nil
}

func (s *poolService) RemoveParticipant(ctx context.Context, poolID, currentUserID, targetUserID int) error {
	pool, err := s.getPool(ctx, poolID)
	if err != nil {
		return err
	}
	if err := s.access.ValidateCreator(currentUserID, pool.CreatorID); err != nil {
		return err
	}
	// Создатель не может удалить сам себя: он всегда участник
	if targetUserID == pool.CreatorID {
		return ErrForbiddenOperation
	}
	if err := s.participantRepo.Remove(ctx, poolID, targetUserID); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrNotPoolParticipant
		}
		return fmt.Errorf("failed to remove participant %d from pool %d: %w", targetUserID, poolID, err)
	}
	return nil
}

func (s *poolService) ListParticipants(ctx context.Context, poolID, userID int) ([]*models.PoolParticipant, error) {
	pool, err := s.getPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if err := s.access.ValidateAccess(ctx, poolID, userID, pool.CreatorID); err != nil {
		return nil, err
	}
	participants, err := s.participantRepo.ListByPool(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants of pool %d: %w", poolID, err)
	}
	return participants, nil
}

func (s *poolService) ResolveInviteCode(ctx context.Context, code string) (models.PoolSummary, error) {
	pool, err := s.poolRepo.GetByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolNotFound) {
			return models.PoolSummary{}, ErrPoolNotFound
		}
		return models.PoolSummary{}, fmt.Errorf("failed to resolve invite code: %w", err)
	}
	return pool.Summary(), nil
}

func (s *poolService) GetScoringRule(ctx context.Context, poolID, userID int) (*models.ScoringRule, error) {
	pool, err := s.getPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if err := s.access.ValidateAccess(ctx, poolID, userID, pool.CreatorID); err != nil {
		return nil, err
	}

	rule, err := s.scoringRuleRepo.GetByPool(ctx, poolID)
	if err != nil {
		if errors.Is(err, repositories.ErrScoringRuleNotFound) {
			return nil, ErrScoringRuleNotConfigured
		}
		return nil, fmt.Errorf("failed to get scoring rule for pool %d: %w", poolID, err)
	}
	return rule, nil
}

func (s *poolService) getPool(ctx context.Context, poolID int) (*models.Pool, error) {
	pool, err := s.poolRepo.GetByID(ctx, poolID)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to get pool %d: %w", poolID, err)
	}
	return pool, nil
}
