package socket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/senyabanana/loadboard-service/internal/services"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Hub хранит websocket-соединения пользователей и рассылает им события.
// У одного пользователя может быть несколько открытых соединений.
type Hub struct {
	clients map[string]map[*websocket.Conn]struct{}
	// mu защищает clients и сериализует запись в соединения.
	mu     sync.Mutex
	logger *slog.Logger
}

// NewHub создает новый Hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[string]map[*websocket.Conn]struct{}),
		logger:  logger,
	}
}

// Register добавляет соединение пользователя.
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*websocket.Conn]struct{})
	}
	h.clients[userID][conn] = struct{}{}
	h.logger.Debug("websocket client registered", "user", userID)
}

// Unregister удаляет соединение пользователя.
func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[userID]
	if !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.clients, userID)
	}
	h.logger.Debug("websocket client unregistered", "user", userID)
}

// Connections возвращает количество открытых соединений пользователя.
func (h *Hub) Connections(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}

// Send отправляет сообщение во все соединения пользователя.
// Отсутствие соединений ошибкой не считается.
func (h *Hub) Send(userID string, message []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var firstErr error
	for conn := range h.clients[userID] {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Notify рассылает событие всем его получателям.
func (h *Hub) Notify(_ context.Context, event services.Event) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event", "type", event.Type, "error", err)
		return
	}
	for _, userID := range event.Recipients {
		if err := h.Send(userID, message); err != nil {
			h.logger.Warn("failed to deliver event", "type", event.Type, "user", userID, "error", err)
		}
	}
}
