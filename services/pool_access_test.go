package services

import (
	"context"
	"testing"

	"github.com/goalpool/prediction-pools/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolAccessCheck(t *testing.T) {
	ctx := context.Background()
	participantRepo := newMemParticipantRepo()
	access := NewPoolAccess(participantRepo)

	const poolID, creatorID, memberID, strangerID = 1, 10, 20, 30

	require.NoError(t, participantRepo.Add(ctx, &models.PoolParticipant{PoolID: poolID, UserID: creatorID}))
	require.NoError(t, participantRepo.Add(ctx, &models.PoolParticipant{PoolID: poolID, UserID: memberID}))

	creatorInfo, err := access.Check(ctx, poolID, creatorID, creatorID)
	require.NoError(t, err)
	assert.True(t, creatorInfo.IsCreator)
	assert.True(t, creatorInfo.IsParticipant)
	assert.True(t, creatorInfo.HasAccess)

	memberInfo, err := access.Check(ctx, poolID, memberID, creatorID)
	require.NoError(t, err)
	assert.False(t, memberInfo.IsCreator)
	assert.True(t, memberInfo.IsParticipant)
	assert.True(t, memberInfo.HasAccess)

	strangerInfo, err := access.Check(ctx, poolID, strangerID, creatorID)
	require.NoError(t, err)
	assert.False(t, strangerInfo.HasAccess)
}

func TestPoolAccessValidateAccess(t *testing.T) {
	ctx := context.Background()
	participantRepo := newMemParticipantRepo()
	access := NewPoolAccess(participantRepo)

	require.NoError(t, participantRepo.Add(ctx, &models.PoolParticipant{PoolID: 1, UserID: 20}))

	assert.NoError(t, access.ValidateAccess(ctx, 1, 20, 10))
	// Создатель без записи участника всё равно имеет доступ
	assert.NoError(t, access.ValidateAccess(ctx, 1, 10, 10))
	assert.ErrorIs(t, access.ValidateAccess(ctx, 1, 30, 10), ErrNotPoolParticipant)
}

func TestPoolAccessValidateCreator(t *testing.T) {
	access := NewPoolAccess(newMemParticipantRepo())

	assert.NoError(t, access.ValidateCreator(10, 10))
	assert.ErrorIs(t, access.ValidateCreator(20, 10), ErrNotPoolCreator)
}

func TestPoolAccessValidateCanLeave(t *testing.T) {
	ctx := context.Background()
	participantRepo := newMemParticipantRepo()
	access := NewPoolAccess(participantRepo)

	require.NoError(t, participantRepo.Add(ctx, &models.PoolParticipant{PoolID: 1, UserID: 10}))
	require.NoError(t, participantRepo.Add(ctx, &models.PoolParticipant{PoolID: 1, UserID: 20}))

	assert.NoError(t, access.ValidateCanLeave(ctx, 1, 20, 10))
	assert.ErrorIs(t, access.ValidateCanLeave(ctx, 1, 10, 10), ErrCreatorCannotLeave)
	assert.ErrorIs(t, access.ValidateCanLeave(ctx, 1, 30, 10), ErrNotPoolParticipant)
}
