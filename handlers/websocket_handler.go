package handlers

import (
	"log/slog"
	"net/http"

	"github.com/goalpool/prediction-pools/live"
	"github.com/goalpool/prediction-pools/middleware"
	"github.com/goalpool/prediction-pools/services"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub         *live.Hub
	poolService services.PoolService
	logger      *slog.Logger
	upgrader    websocket.Upgrader
}

func NewWebSocketHandler(hub *live.Hub, poolService services.PoolService, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		poolService: poolService,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// CORS для HTTP-запросов настраивается на роутере; origin
			// WebSocket-а проверяется там же на уровне прокси
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// SubscribePoolStandings апгрейдит соединение и подписывает клиента на
// обновления таблицы лидеров пула. Доступ тот же, что и у GET standings.
func (h *WebSocketHandler) SubscribePoolStandings(w http.ResponseWriter, r *http.Request) {
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

	// Проверка участия до апгрейда: после него статус ответить уже нельзя
	if _, err := h.poolService.GetPool(r.Context(), poolID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.Int("pool_id", poolID), slog.Any("error", err))
		return
	}

	client := live.NewClient(h.hub, conn, poolID)
	go client.WritePump()
	go client.ReadPump()
}
