package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed         = errors.New("validation failed")
	ErrPasswordTooShort         = errors.New("password is too short")
	ErrPoolNameRequired         = errors.New("pool name is required")
	ErrPoolInvalidCapacity      = errors.New("pool max participants must be positive")
	ErrPoolFull                 = errors.New("pool has reached its maximum number of participants")
	ErrPoolDeadlinePassed       = errors.New("pool registration deadline has passed")
	ErrJoinTargetRequired       = errors.New("either pool id or invite code is required to join")
	ErrMatchNotCompleted        = errors.New("match is not completed")
	ErrMatchNotOpenForChanges   = errors.New("match is no longer open for predictions")
	ErrMatchInvalidScore        = errors.New("match score must be non-negative")
	ErrMatchInvalidTransition   = errors.New("invalid match status transition")
	ErrScoringRuleNotConfigured = errors.New("pool has no scoring rule configured")

	// Ошибки конфликтов
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrTournamentNameConflict = errors.New("tournament name is already in use")
	ErrPoolNameConflict       = errors.New("pool name is already in use for this tournament")
	ErrPoolInviteCodeConflict = errors.New("invite code is already in use")
	ErrAlreadyParticipant     = errors.New("user is already a participant of this pool")

	// Ошибки аутентификации и авторизации
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInviteCodeRequired = errors.New("a valid invite code is required to join this private pool")
	ErrNotPoolParticipant = errors.New("user is not a participant of this pool")
	ErrNotPoolCreator     = errors.New("only the pool creator can perform this action")
	ErrCreatorCannotLeave = errors.New("the pool creator cannot leave their own pool")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound       = errors.New("user not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrPoolNotFound       = errors.New("pool not found")
	ErrPredictionNotFound = errors.New("prediction not found")
)
