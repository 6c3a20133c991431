package services

import (
	"context"
	"fmt"

	"github.com/goalpool/prediction-pools/repositories"
)

// PoolAccess — единая точка принятия решений о доступе к операциям над пулом.
// Доступ — чистая функция от текущего списка участников и создателя пула,
// вычисляется на каждый запрос без кеширования.
type PoolAccess struct {
	participantRepo repositories.ParticipantRepository
}

func NewPoolAccess(participantRepo repositories.ParticipantRepository) *PoolAccess {
	return &PoolAccess{participantRepo: participantRepo}
}

// AccessInfo описывает отношение пользователя к пулу.
type AccessInfo struct {
	IsCreator     bool
	IsParticipant bool
	HasAccess     bool
}

// Check возвращает отношение пользователя к пулу без побочных эффектов.
func (a *PoolAccess) Check(ctx context.Context, poolID, userID, creatorID int) (AccessInfo, error) {
	isParticipant, err := a.participantRepo.Exists(ctx, poolID, userID)
	if err != nil {
		return AccessInfo{}, fmt.Errorf("failed to check pool membership: %w", err)
	}
	info := AccessInfo{
		IsCreator:     creatorID == userID,
		IsParticipant: isParticipant,
	}
	info.HasAccess = info.IsCreator || info.IsParticipant
	return info, nil
}

// ValidateAccess возвращает ErrNotPoolParticipant, если пользователь не имеет
// доступа к пулу (не участник и не создатель). Используется для операций чтения.
func (a *PoolAccess) ValidateAccess(ctx context.Context, poolID, userID, creatorID int) error {
	info, err := a.Check(ctx, poolID, userID, creatorID)
	if err != nil {
		return err
	}
	if !info.HasAccess {
		return ErrNotPoolParticipant
	}
	return nil
}

// ValidateCreator возвращает ErrNotPoolCreator, если пользователь не является
// создателем пула. Используется для мутаций пула и удаления участников.
func (a *PoolAccess) ValidateCreator(userID, creatorID int) error {
	if userID != creatorID {
		return ErrNotPoolCreator
	}
	return nil
}

// ValidateParticipant возвращает ErrNotPoolParticipant, если в пуле нет записи
// об участии. Статус создателя здесь не учитывается.
func (a *PoolAccess) ValidateParticipant(ctx context.Context, poolID, userID int) error {
	isParticipant, err := a.participantRepo.Exists(ctx, poolID, userID)
	if err != nil {
		return fmt.Errorf("failed to check pool membership: %w", err)
	}
	if !isParticipant {
		return ErrNotPoolParticipant
	}
	return nil
}

// ValidateCanLeave требует участия в пуле и запрещает создателю покидать
// собственный пул, даже если у него есть запись участника.
func (a *PoolAccess) ValidateCanLeave(ctx context.Context, poolID, userID, creatorID int) error {
	if err := a.ValidateParticipant(ctx, poolID, userID); err != nil {
		return err
	}
	if userID == creatorID {
		return ErrCreatorCannotLeave
	}
	return nil
}
