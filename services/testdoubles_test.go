package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goalpool/prediction-pools/models"
	"github.com/goalpool/prediction-pools/repositories"
	"github.com/goalpool/prediction-pools/storage"
)

// In-memory реализации репозиториев для тестов сервисного слоя.
// Повторяют контракт postgres-реализаций, включая sentinel-ошибки конфликтов.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(n int) *int              { return &n }
func strPtr(s string) *string        { return &s }
func timePtr(t time.Time) *time.Time { return &t }
func boolPtr(b bool) *bool           { return &b }

type memUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int]*models.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *memUserRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	for _, u := range r.users {
		if u.ID != user.ID && u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) UpdateProfileImageKey(_ context.Context, id int, key *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.ProfileImageKey = key
	return nil
}

type memTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[int]*models.Tournament
}

func newMemTournamentRepo(tournaments ...*models.Tournament) *memTournamentRepo {
	r := &memTournamentRepo{tournaments: make(map[int]*models.Tournament)}
	for _, t := range tournaments {
		clone := *t
		r.tournaments[t.ID] = &clone
	}
	return r
}

func (r *memTournamentRepo) Create(_ context.Context, tournament *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tournaments {
		if t.Name == tournament.Name {
			return repositories.ErrTournamentNameConflict
		}
	}
	maxID := 0
	for id := range r.tournaments {
		if id > maxID {
			maxID = id
		}
	}
	tournament.ID = maxID + 1
	tournament.CreatedAt = time.Now()
	clone := *tournament
	r.tournaments[tournament.ID] = &clone
	return nil
}

func (r *memTournamentRepo) Update(_ context.Context, tournament *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tournaments[tournament.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	for id, t := range r.tournaments {
		if id != tournament.ID && t.Name == tournament.Name {
			return repositories.ErrTournamentNameConflict
		}
	}
	clone := *tournament
	r.tournaments[tournament.ID] = &clone
	return nil
}

func (r *memTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *memTournamentRepo) List(_ context.Context, statusFilter *models.TournamentStatus) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Tournament
	for _, t := range r.tournaments {
		if statusFilter != nil && t.Status != *statusFilter {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memTournamentRepo) UpdateStatus(_ context.Context, id int, status models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *memTournamentRepo) UpdateLogoKey(_ context.Context, id int, key *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.LogoKey = key
	return nil
}

func (r *memTournamentRepo) ListDueForStatusChange(_ context.Context, now time.Time) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Tournament
	for _, t := range r.tournaments {
		due := (t.Status == models.TournamentUpcoming && !now.Before(t.StartDate)) ||
			(t.Status == models.TournamentActive && now.After(t.EndDate))
		if due {
			clone := *t
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memMatchRepo struct {
	mu      sync.Mutex
	matches map[int]*models.Match
}

func newMemMatchRepo(matches ...*models.Match) *memMatchRepo {
	r := &memMatchRepo{matches: make(map[int]*models.Match)}
	for _, m := range matches {
		clone := *m
		r.matches[m.ID] = &clone
	}
	return r
}

func (r *memMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *memMatchRepo) ListByTournament(_ context.Context, tournamentID int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Match
	for _, m := range r.matches {
		if m.TournamentID != tournamentID {
			continue
		}
		if statusFilter != nil && m.Status != *statusFilter {
			continue
		}
		clone := *m
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memMatchRepo) Update(_ context.Context, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[match.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	clone := *match
	r.matches[match.ID] = &clone
	return nil
}

type memTeamRepo struct {
	mu    sync.Mutex
	teams map[int]*models.Team
}

func newMemTeamRepo(teams ...*models.Team) *memTeamRepo {
	r := &memTeamRepo{teams: make(map[int]*models.Team)}
	for _, t := range teams {
		clone := *t
		r.teams[t.ID] = &clone
	}
	return r
}

func (r *memTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *memTeamRepo) ListByTournament(_ context.Context, _ int) ([]*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Team
	for _, t := range r.teams {
		clone := *t
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeUploader записывает загруженные и удалённые ключи без обращения к хранилищу.
type fakeUploader struct {
	mu       sync.Mutex
	uploaded []string
	deleted  []string
}

func (u *fakeUploader) Upload(_ context.Context, key string, _ string, _ io.Reader) (*storage.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploaded = append(u.uploaded, key)
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type memPoolRepo struct {
	mu     sync.Mutex
	nextID int
	pools  map[int]*models.Pool
}

func newMemPoolRepo() *memPoolRepo {
	return &memPoolRepo{pools: make(map[int]*models.Pool)}
}

func (r *memPoolRepo) Create(_ context.Context, pool *models.Pool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pools {
		if p.TournamentID == pool.TournamentID && p.Name == pool.Name {
			return repositories.ErrPoolNameConflict
		}
		if p.InviteCode != nil && pool.InviteCode != nil && *p.InviteCode == *pool.InviteCode {
			return repositories.ErrPoolInviteCodeConflict
		}
	}
	r.nextID++
	pool.ID = r.nextID
	pool.CreatedAt = time.Now()
	clone := *pool
	r.pools[pool.ID] = &clone
	return nil
}

func (r *memPoolRepo) GetByID(_ context.Context, id int) (*models.Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pools[id]
	if !ok {
		return nil, repositories.ErrPoolNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *memPoolRepo) GetByInviteCode(_ context.Context, code string) (*models.Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pools {
		if p.InviteCode != nil && *p.InviteCode == code {
			clone := *p
			return &clone, nil
		}
	}
	return nil, repositories.ErrPoolNotFound
}

func (r *memPoolRepo) ListPublic(_ context.Context, filter repositories.PoolFilter) ([]*models.Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Pool
	for _, p := range r.pools {
		if p.IsPrivate {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Name)) {
			continue
		}
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memPoolRepo) ListIDsByTournament(_ context.Context, tournamentID int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int
	for _, p := range r.pools {
		if p.TournamentID == tournamentID {
			ids = append(ids, p.ID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (r *memPoolRepo) Update(_ context.Context, pool *models.Pool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pools[pool.ID]; !ok {
		return repositories.ErrPoolNotFound
	}
	for _, p := range r.pools {
		if p.ID != pool.ID && p.TournamentID == pool.TournamentID && p.Name == pool.Name {
			return repositories.ErrPoolNameConflict
		}
	}
	clone := *pool
	r.pools[pool.ID] = &clone
	return nil
}

type memParticipantRepo struct {
	mu           sync.Mutex
	participants map[string]*models.PoolParticipant
}

func newMemParticipantRepo() *memParticipantRepo {
	return &memParticipantRepo{participants: make(map[string]*models.PoolParticipant)}
}

func participantKey(poolID, userID int) string {
	return fmt.Sprintf("%d:%d", poolID, userID)
}

func (r *memParticipantRepo) Add(_ context.Context, p *models.PoolParticipant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := participantKey(p.PoolID, p.UserID)
	if _, ok := r.participants[key]; ok {
		return repositories.ErrParticipantConflict
	}
	p.JoinedAt = time.Now()
	clone := *p
	r.participants[key] = &clone
	return nil
}

func (r *memParticipantRepo) Remove(_ context.Context, poolID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := participantKey(poolID, userID)
	if _, ok := r.participants[key]; !ok {
		return repositories.ErrParticipantNotFound
	}
	delete(r.participants, key)
	return nil
}

func (r *memParticipantRepo) Exists(_ context.Context, poolID, userID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.participants[participantKey(poolID, userID)]
	return ok, nil
}

func (r *memParticipantRepo) CountByPool(_ context.Context, poolID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, p := range r.participants {
		if p.PoolID == poolID {
			count++
		}
	}
	return count, nil
}

func (r *memParticipantRepo) ListByPool(_ context.Context, poolID int) ([]*models.PoolParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PoolParticipant
	for _, p := range r.participants {
		if p.PoolID == poolID {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

type memScoringRuleRepo struct {
	mu     sync.Mutex
	nextID int
	rules  map[int]*models.ScoringRule
}

func newMemScoringRuleRepo() *memScoringRuleRepo {
	return &memScoringRuleRepo{rules: make(map[int]*models.ScoringRule)}
}

func (r *memScoringRuleRepo) Upsert(_ context.Context, rule *models.ScoringRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.rules[rule.PoolID]; ok {
		rule.ID = existing.ID
	} else {
		r.nextID++
		rule.ID = r.nextID
	}
	clone := *rule
	r.rules[rule.PoolID] = &clone
	return nil
}

func (r *memScoringRuleRepo) GetByPool(_ context.Context, poolID int) (*models.ScoringRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[poolID]
	if !ok {
		return nil, repositories.ErrScoringRuleNotFound
	}
	clone := *rule
	return &clone, nil
}

type memPredictionRepo struct {
	mu          sync.Mutex
	nextID      int
	predictions map[string]*models.Prediction
}

func newMemPredictionRepo() *memPredictionRepo {
	return &memPredictionRepo{predictions: make(map[string]*models.Prediction)}
}

func predictionKey(matchID, poolID, userID int) string {
	return fmt.Sprintf("%d:%d:%d", matchID, poolID, userID)
}

func (r *memPredictionRepo) Create(_ context.Context, p *models.Prediction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := predictionKey(p.MatchID, p.PoolID, p.UserID)
	if _, ok := r.predictions[key]; ok {
		return repositories.ErrPredictionConflict
	}
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	clone := *p
	r.predictions[key] = &clone
	return nil
}

func (r *memPredictionRepo) Update(_ context.Context, p *models.Prediction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := predictionKey(p.MatchID, p.PoolID, p.UserID)
	existing, ok := r.predictions[key]
	if !ok {
		return repositories.ErrPredictionNotFound
	}
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()
	clone := *p
	r.predictions[key] = &clone
	return nil
}

func (r *memPredictionRepo) GetByMatchPoolUser(_ context.Context, matchID, poolID, userID int) (*models.Prediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.predictions[predictionKey(matchID, poolID, userID)]
	if !ok {
		return nil, repositories.ErrPredictionNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *memPredictionRepo) ListByPool(_ context.Context, poolID int) ([]*models.Prediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Prediction
	for _, p := range r.predictions {
		if p.PoolID == poolID {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memPredictionRepo) ListByPoolAndUser(_ context.Context, poolID, userID int) ([]*models.Prediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Prediction
	for _, p := range r.predictions {
		if p.PoolID == poolID && p.UserID == userID {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memLeaderboardRepo struct {
	mu      sync.Mutex
	entries map[int][]*models.LeaderboardEntry
}

func newMemLeaderboardRepo() *memLeaderboardRepo {
	return &memLeaderboardRepo{entries: make(map[int][]*models.LeaderboardEntry)}
}

func (r *memLeaderboardRepo) ReplaceForPool(_ context.Context, poolID int, entries []*models.LeaderboardEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]*models.LeaderboardEntry, 0, len(entries))
	now := time.Now()
	for _, e := range entries {
		clone := *e
		clone.LastUpdated = now
		stored = append(stored, &clone)
	}
	r.entries[poolID] = stored
	return nil
}

func (r *memLeaderboardRepo) ListByPool(_ context.Context, poolID int) ([]*models.LeaderboardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.entries[poolID]
	out := make([]*models.LeaderboardEntry, 0, len(stored))
	for _, e := range stored {
		clone := *e
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

type captureBroadcaster struct {
	mu      sync.Mutex
	poolIDs []int
	entries map[int][]*models.LeaderboardEntry
}

func newCaptureBroadcaster() *captureBroadcaster {
	return &captureBroadcaster{entries: make(map[int][]*models.LeaderboardEntry)}
}

func (b *captureBroadcaster) BroadcastStandings(poolID int, entries []*models.LeaderboardEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.poolIDs = append(b.poolIDs, poolID)
	b.entries[poolID] = entries
}
