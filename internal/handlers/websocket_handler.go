package handlers

import (
	"net/http"
	"time"

	"github.com/senyabanana/loadboard-service/internal/socket"

	"github.com/gorilla/websocket"
)

// Время ожидания сообщения от клиента.
const pongWait = 60 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler подключает пользователей к рассылке событий.
type WebSocketHandler struct {
	Handler
	Hub *socket.Hub
}

// NewWebSocketHandler создает новый экземпляр WebSocketHandler.
func NewWebSocketHandler(h Handler, hub *socket.Hub) *WebSocketHandler {
	return &WebSocketHandler{Handler: h, Hub: hub}
}

// ServeWs обрабатывает подключение по websocket. Пользователь уже проверен Authenticate.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warn("failed to upgrade connection", "user", actor.ID, "error", err)
		return
	}

	h.Hub.Register(actor.ID, conn)
	defer func() {
		h.Hub.Unregister(actor.ID, conn)
		conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.Logger.Warn("unexpected websocket close", "user", actor.ID, "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}
