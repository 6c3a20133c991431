package services

import (
	"context"
	"testing"
	"time"

	"github.com/goalpool/prediction-pools/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type predictionFixture struct {
	service   PredictionService
	matchRepo *memMatchRepo
	pool      *models.Pool
}

// newPredictionFixture поднимает пул (создатель 1, участник 2) и один
// запланированный матч турнира 1.
func newPredictionFixture(t *testing.T) *predictionFixture {
	t.Helper()
	ctx := context.Background()

	poolRepo := newMemPoolRepo()
	participantRepo := newMemParticipantRepo()
	matchRepo := newMemMatchRepo(&models.Match{
		ID:           100,
		TournamentID: 1,
		HomeTeamID:   1,
		AwayTeamID:   2,
		KickoffAt:    time.Now().Add(48 * time.Hour),
		Stage:        models.StageGroup,
		Status:       models.MatchScheduled,
	})

	pool := &models.Pool{Name: "Pool", TournamentID: 1, CreatorID: 1, MaxParticipants: 10}
	require.NoError(t, poolRepo.Create(ctx, pool))
	require.NoError(t, participantRepo.Add(ctx, &models.PoolParticipant{PoolID: pool.ID, UserID: 1}))
	require.NoError(t, participantRepo.Add(ctx, &models.PoolParticipant{PoolID: pool.ID, UserID: 2}))

	service := NewPredictionService(newMemPredictionRepo(), matchRepo, poolRepo, NewPoolAccess(participantRepo))
	return &predictionFixture{service: service, matchRepo: matchRepo, pool: pool}
}

func (f *predictionFixture) setMatchStatus(t *testing.T, status models.MatchStatus) {
	t.Helper()
	match, err := f.matchRepo.GetByID(context.Background(), 100)
	require.NoError(t, err)
	match.Status = status
	require.NoError(t, f.matchRepo.Update(context.Background(), match))
}

func TestSubmitPrediction(t *testing.T) {
	ctx := context.Background()

	t.Run("creates prediction for scheduled match", func(t *testing.T) {
		f := newPredictionFixture(t)

		prediction, err := f.service.SubmitPrediction(ctx, SubmitPredictionInput{
			MatchID:   100,
			PoolID:    f.pool.ID,
			HomeScore: 2,
			AwayScore: 1,
		}, 2)
		require.NoError(t, err)
		assert.NotZero(t, prediction.ID)
		assert.Equal(t, 2, prediction.HomeScore)
		assert.Equal(t, 1, prediction.AwayScore)
	})

	t.Run("resubmission overwrites previous prediction", func(t *testing.T) {
		f := newPredictionFixture(t)

		first, err := f.service.SubmitPrediction(ctx, SubmitPredictionInput{
			MatchID: 100, PoolID: f.pool.ID, HomeScore: 2, AwayScore: 1,
		}, 2)
		require.NoError(t, err)

		second, err := f.service.SubmitPrediction(ctx, SubmitPredictionInput{
			MatchID: 100, PoolID: f.pool.ID, HomeScore: 0, AwayScore: 0, ExtraTime: true,
		}, 2)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 0, second.HomeScore)
		assert.True(t, second.ExtraTime)

		own, err := f.service.ListOwnPredictions(ctx, f.pool.ID, 2)
		require.NoError(t, err)
		require.Len(t, own, 1)
	})

	t.Run("rejected once match is in progress", func(t *testing.T) {
		f := newPredictionFixture(t)
		f.setMatchStatus(t, models.MatchInProgress)

		_, err := f.service.SubmitPrediction(ctx, SubmitPredictionInput{
			MatchID: 100, PoolID: f.pool.ID, HomeScore: 1, AwayScore: 0,
		}, 2)
		assert.ErrorIs(t, err, ErrMatchNotOpenForChanges)
	})

	t.Run("rejected for completed match", func(t *testing.T) {
		f := newPredictionFixture(t)
		f.setMatchStatus(t, models.MatchCompleted)

		_, err := f.service.SubmitPrediction(ctx, SubmitPredictionInput{
			MatchID: 100, PoolID: f.pool.ID, HomeScore: 1, AwayScore: 0,
		}, 2)
		assert.ErrorIs(t, err, ErrMatchNotOpenForChanges)
	})

	t.Run("non participant has no access", func(t *testing.T) {
		f := newPredictionFixture(t)

		_, err := f.service.SubmitPrediction(ctx, SubmitPredictionInput{
			MatchID: 100, PoolID: f.pool.ID, HomeScore: 1, AwayScore: 0,
		}, 99)
		assert.ErrorIs(t, err, ErrNotPoolParticipant)
	})

	t.Run("match from another tournament is not found", func(t *testing.T) {
		f := newPredictionFixture(t)
		other := &models.Match{ID: 200, TournamentID: 2, Status: models.MatchScheduled}
		f.matchRepo.matches[other.ID] = other

		_, err := f.service.SubmitPrediction(ctx, SubmitPredictionInput{
			MatchID: 200, PoolID: f.pool.ID, HomeScore: 1, AwayScore: 0,
		}, 2)
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})

	t.Run("negative score is rejected", func(t *testing.T) {
		f := newPredictionFixture(t)

		_, err := f.service.SubmitPrediction(ctx, SubmitPredictionInput{
			MatchID: 100, PoolID: f.pool.ID, HomeScore: -1, AwayScore: 0,
		}, 2)
		assert.ErrorIs(t, err, ErrMatchInvalidScore)
	})

	t.Run("unknown pool is not found", func(t *testing.T) {
		f := newPredictionFixture(t)

		_, err := f.service.SubmitPrediction(ctx, SubmitPredictionInput{
			MatchID: 100, PoolID: 999, HomeScore: 1, AwayScore: 0,
		}, 2)
		assert.ErrorIs(t, err, ErrPoolNotFound)
	})
}

func TestListPredictions(t *testing.T) {
	ctx := context.Background()
	f := newPredictionFixture(t)

	_, err := f.service.SubmitPrediction(ctx, SubmitPredictionInput{
		MatchID: 100, PoolID: f.pool.ID, HomeScore: 2, AwayScore: 1,
	}, 1)
	require.NoError(t, err)
	_, err = f.service.SubmitPrediction(ctx, SubmitPredictionInput{
		MatchID: 100, PoolID: f.pool.ID, HomeScore: 0, AwayScore: 0,
	}, 2)
	require.NoError(t, err)

	all, err := f.service.ListPoolPredictions(ctx, f.pool.ID, 1)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := f.service.ListOwnPredictions(ctx, f.pool.ID, 2)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, 2, own[0].UserID)

	_, err = f.service.ListPoolPredictions(ctx, f.pool.ID, 99)
	assert.ErrorIs(t, err, ErrNotPoolParticipant)
}
