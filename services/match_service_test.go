package services

import (
	"context"
	"testing"
	"time"

	"github.com/goalpool/prediction-pools/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLeaderboards struct {
	recomputedTournaments []int
	err                   error
}

func (r *recordingLeaderboards) GetStandings(context.Context, int, int) ([]*models.LeaderboardEntry, error) {
	return nil, nil
}

func (r *recordingLeaderboards) RecomputePool(context.Context, int) error {
	return r.err
}

func (r *recordingLeaderboards) RecomputeTournamentPools(_ context.Context, tournamentID int) error {
	r.recomputedTournaments = append(r.recomputedTournaments, tournamentID)
	return r.err
}

type matchFixture struct {
	service      MatchService
	matchRepo    *memMatchRepo
	leaderboards *recordingLeaderboards
}

func newMatchFixture(t *testing.T, status models.MatchStatus) *matchFixture {
	t.Helper()
	matchRepo := newMemMatchRepo(&models.Match{
		ID:           100,
		TournamentID: 1,
		HomeTeamID:   1,
		AwayTeamID:   2,
		KickoffAt:    time.Now(),
		Stage:        models.StageGroup,
		Status:       status,
	})
	tournamentRepo := newMemTournamentRepo(&models.Tournament{ID: 1, Status: models.TournamentActive})
	leaderboards := &recordingLeaderboards{}
	service := NewMatchService(matchRepo, tournamentRepo, leaderboards, testLogger())
	return &matchFixture{service: service, matchRepo: matchRepo, leaderboards: leaderboards}
}

func TestUpdateMatchTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("scheduled to in progress", func(t *testing.T) {
		f := newMatchFixture(t, models.MatchScheduled)
		match, err := f.service.UpdateMatch(ctx, 100, UpdateMatchInput{
			Status: statusPtr(models.MatchInProgress),
		})
		require.NoError(t, err)
		assert.Equal(t, models.MatchInProgress, match.Status)
		assert.Empty(t, f.leaderboards.recomputedTournaments)
	})

	t.Run("completion requires both scores", func(t *testing.T) {
		f := newMatchFixture(t, models.MatchInProgress)
		_, err := f.service.UpdateMatch(ctx, 100, UpdateMatchInput{
			Status:    statusPtr(models.MatchCompleted),
			HomeScore: intPtr(2),
		})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("completion triggers leaderboard recompute", func(t *testing.T) {
		f := newMatchFixture(t, models.MatchInProgress)
		match, err := f.service.UpdateMatch(ctx, 100, UpdateMatchInput{
			Status:    statusPtr(models.MatchCompleted),
			HomeScore: intPtr(2),
			AwayScore: intPtr(1),
		})
		require.NoError(t, err)
		assert.Equal(t, models.MatchCompleted, match.Status)
		assert.Equal(t, []int{1}, f.leaderboards.recomputedTournaments)
	})

	t.Run("score update on completed match does not retrigger recompute", func(t *testing.T) {
		f := newMatchFixture(t, models.MatchInProgress)
		_, err := f.service.UpdateMatch(ctx, 100, UpdateMatchInput{
			Status:    statusPtr(models.MatchCompleted),
			HomeScore: intPtr(2),
			AwayScore: intPtr(1),
		})
		require.NoError(t, err)
		_, err = f.service.UpdateMatch(ctx, 100, UpdateMatchInput{ExtraTime: boolPtr(true)})
		require.NoError(t, err)
		assert.Len(t, f.leaderboards.recomputedTournaments, 1)
	})

	t.Run("completed match cannot be reopened", func(t *testing.T) {
		f := newMatchFixture(t, models.MatchCompleted)
		_, err := f.service.UpdateMatch(ctx, 100, UpdateMatchInput{
			Status: statusPtr(models.MatchScheduled),
		})
		assert.ErrorIs(t, err, ErrMatchInvalidTransition)
	})

	t.Run("postponed match can be rescheduled", func(t *testing.T) {
		f := newMatchFixture(t, models.MatchPostponed)
		match, err := f.service.UpdateMatch(ctx, 100, UpdateMatchInput{
			Status:    statusPtr(models.MatchScheduled),
			KickoffAt: timePtr(time.Now().Add(72 * time.Hour)),
		})
		require.NoError(t, err)
		assert.Equal(t, models.MatchScheduled, match.Status)
	})

	t.Run("cancelled match is terminal", func(t *testing.T) {
		f := newMatchFixture(t, models.MatchCancelled)
		_, err := f.service.UpdateMatch(ctx, 100, UpdateMatchInput{
			Status: statusPtr(models.MatchInProgress),
		})
		assert.ErrorIs(t, err, ErrMatchInvalidTransition)
	})

	t.Run("negative score is rejected", func(t *testing.T) {
		f := newMatchFixture(t, models.MatchInProgress)
		_, err := f.service.UpdateMatch(ctx, 100, UpdateMatchInput{HomeScore: intPtr(-1)})
		assert.ErrorIs(t, err, ErrMatchInvalidScore)
	})

	t.Run("recompute failure does not fail the update", func(t *testing.T) {
		f := newMatchFixture(t, models.MatchInProgress)
		f.leaderboards.err = assert.AnError
		match, err := f.service.UpdateMatch(ctx, 100, UpdateMatchInput{
			Status:    statusPtr(models.MatchCompleted),
			HomeScore: intPtr(1),
			AwayScore: intPtr(0),
		})
		require.NoError(t, err)
		assert.Equal(t, models.MatchCompleted, match.Status)
	})

	t.Run("unknown match", func(t *testing.T) {
		f := newMatchFixture(t, models.MatchScheduled)
		_, err := f.service.UpdateMatch(ctx, 999, UpdateMatchInput{})
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})
}

func TestGetMatch(t *testing.T) {
	ctx := context.Background()
	f := newMatchFixture(t, models.MatchScheduled)

	match, err := f.service.GetMatch(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, match.ID)

	_, err = f.service.GetMatch(ctx, 999)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestListTournamentMatches(t *testing.T) {
	ctx := context.Background()
	f := newMatchFixture(t, models.MatchScheduled)
	f.matchRepo.matches[101] = &models.Match{ID: 101, TournamentID: 1, Status: models.MatchCompleted}

	all, err := f.service.ListTournamentMatches(ctx, 1, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	completed, err := f.service.ListTournamentMatches(ctx, 1, statusPtr(models.MatchCompleted))
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, 101, completed[0].ID)

	_, err = f.service.ListTournamentMatches(ctx, 99, nil)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}
