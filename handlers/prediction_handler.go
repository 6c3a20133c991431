package handlers

import (
	"net/http"

	"github.com/goalpool/prediction-pools/middleware"
	"github.com/goalpool/prediction-pools/services"
)

type PredictionHandler struct {
	predictionService services.PredictionService
}

func NewPredictionHandler(predictionService services.PredictionService) *PredictionHandler {
	return &PredictionHandler{predictionService: predictionService}
}

// SubmitPrediction принимает прогноз на матч. Повторная отправка до начала
// матча перезаписывает предыдущий прогноз.
func (h *PredictionHandler) SubmitPrediction(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.SubmitPredictionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	v := map[string]string{}
	if input.MatchID <= 0 {
		v["match_id"] = "must be a positive integer"
	}
	if input.PoolID <= 0 {
		v["pool_id"] = "must be a positive integer"
	}
	if input.HomeScore < 0 {
		v["home_score"] = "must be non-negative"
	}
	if input.AwayScore < 0 {
		v["away_score"] = "must be non-negative"
	}
	if len(v) > 0 {
		failedValidationResponse(w, r, v)
		return
	}

	prediction, err := h.predictionService.SubmitPrediction(r.Context(), input, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"prediction": prediction}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PredictionHandler) ListPoolPredictions(w http.ResponseWriter, r *http.Request) {
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

	predictions, err := h.predictionService.ListPoolPredictions(r.Context(), poolID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"predictions": predictions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PredictionHandler) ListOwnPredictions(w http.ResponseWriter, r *http.Request) {
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

	predictions, err := h.predictionService.ListOwnPredictions(r.Context(), poolID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"predictions": predictions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
