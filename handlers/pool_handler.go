package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/goalpool/prediction-pools/middleware"
	"github.com/goalpool/prediction-pools/repositories"
	"github.com/goalpool/prediction-pools/services"
)

const (
	defaultPoolPageSize = 20
	maxPoolPageSize     = 100
)

type PoolHandler struct {
	poolService        services.PoolService
	leaderboardService services.LeaderboardService
}

func NewPoolHandler(poolService services.PoolService, leaderboardService services.LeaderboardService) *PoolHandler {
	return &PoolHandler{
		poolService:        poolService,
		leaderboardService: leaderboardService,
	}
}

func (h *PoolHandler) CreatePool(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.CreatePoolInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	v := map[string]string{}
	if strings.TrimSpace(input.Name) == "" {
		v["name"] = "must be provided"
	}
	if input.TournamentID <= 0 {
		v["tournament_id"] = "must be a positive integer"
	}
	if input.MaxParticipants <= 0 {
		v["max_participants"] = "must be a positive integer"
	}
	if len(v) > 0 {
		failedValidationResponse(w, r, v)
		return
	}

	pool, err := h.poolService.CreatePool(r.Context(), input, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"pool": pool}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PoolHandler) GetPool(w http.ResponseWriter, r *http.Request) {
	poolID, err := getIDFromURL(r, "poolID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	pool, err := h.poolService.GetPool(r.Context(), poolID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"pool": pool}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListPublicPools поддерживает фильтр по имени и пагинацию limit/offset.
// Приватные пулы сюда не попадают независимо от фильтров.
func (h *PoolHandler) ListPublicPools(w http.ResponseWriter, r *http.Request) {
	filter := repositories.PoolFilter{
		Name:   r.URL.Query().Get("name"),
		Limit:  defaultPoolPageSize,
		Offset: 0,
	}

	v := map[string]string{}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 || limit > maxPoolPageSize {
			v["limit"] = "must be an integer between 1 and 100"
		} else {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			v["offset"] = "must be a non-negative integer"
		} else {
			filter.Offset = offset
		}
	}
	if len(v) > 0 {
		failedValidationResponse(w, r, v)
		return
	}

	pools, err := h.poolService.ListPublicPools(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"pools": pools}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PoolHandler) UpdatePool(w http.ResponseWriter, r *http.Request) {
	poolID, err := getIDFromURL(r, "poolID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.UpdatePoolInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	pool, err := h.poolService.UpdatePool(r.Context(), poolID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"pool": pool}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PoolHandler) JoinPool(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.JoinPoolInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	summary, err := h.poolService.JoinPool(r.Context(), input, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"pool": summary}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PoolHandler) LeavePool(w http.ResponseWriter, r *http.Request) {
	poolID, err := getIDFromURL(r, "poolID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.poolService.LeavePool(r.Context(), poolID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PoolHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	poolID, err := getIDFromURL(r, "poolID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	targetUserID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.poolService.RemoveParticipant(r.Context(), poolID, currentUserID, targetUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PoolHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	poolID, err := getIDFromURL(r, "poolID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	participants, err := h.poolService.ListParticipants(r.Context(), poolID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": participants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResolveInviteCode возвращает краткую сводку пула по коду. Публичная точка
// доступа: по коду виден только минимум информации о пуле.
func (h *PoolHandler) ResolveInviteCode(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		badRequestResponse(w, r, errors.New("query parameter 'code' is required"))
		return
	}

	summary, err := h.poolService.ResolveInviteCode(r.Context(), code)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"pool": summary}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PoolHandler) GetScoringRule(w http.ResponseWriter, r *http.Request) {
	poolID, err := getIDFromURL(r, "poolID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	rule, err := h.poolService.GetScoringRule(r.Context(), poolID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"scoring_rule": rule}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PoolHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	poolID, err := getIDFromURL(r, "poolID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	entries, err := h.leaderboardService.GetStandings(r.Context(), poolID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
