package live

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/goalpool/prediction-pools/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Message — конверт для сообщений, рассылаемых подписчикам комнаты пула.
type Message struct {
	Type    string      `json:"type"`
	PoolID  int         `json:"pool_id"`
	Payload interface{} `json:"payload"`
}

const TypeStandingsUpdated = "STANDINGS_UPDATED"

// Hub рассылает обновления таблиц лидеров по комнатам. Одна комната — один пул.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	mu         sync.RWMutex
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.mu.Unlock()
			h.logger.Info("websocket client registered", slog.String("room", client.room))

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.room]; ok {
				if _, okClient := clients[client]; okClient {
					client.close()
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.rooms, client.room)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Info("websocket client unregistered", slog.String("room", client.room))
		}
	}
}

// BroadcastStandings реализует services.StandingsBroadcaster.
func (h *Hub) BroadcastStandings(poolID int, entries []*models.LeaderboardEntry) {
	h.broadcastToRoom(poolRoom(poolID), Message{
		Type:    TypeStandingsUpdated,
		PoolID:  poolID,
		Payload: entries,
	})
}

func (h *Hub) broadcastToRoom(room string, message Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.rooms[room]
	if !ok {
		return // некому рассылать
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal websocket message", slog.String("room", room), slog.Any("error", err))
		return
	}

	for client := range clients {
		select {
		case client.send <- messageBytes:
		default:
			// Канал клиента переполнен; клиент отстал и будет отключён
			// своим write pump
			h.logger.Warn("websocket client send buffer full, skipping", slog.String("room", room))
		}
	}
}

func poolRoom(poolID int) string {
	return "pool_" + strconv.Itoa(poolID)
}
