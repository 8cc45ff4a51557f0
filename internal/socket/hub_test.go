package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/senyabanana/loadboard-service/internal/services"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(userID, conn)
		defer func() {
			hub.Unregister(userID, conn)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?user=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestHub_NotifyDeliversToRecipients(t *testing.T) {
	hub := NewHub(nil)
	server := newTestServer(t, hub)

	shipper := dial(t, server, "shipper-1")
	defer shipper.Close()
	other := dial(t, server, "shipper-2")
	defer other.Close()

	require.Eventually(t, func() bool {
		return hub.Connections("shipper-1") == 1 && hub.Connections("shipper-2") == 1
	}, time.Second, 10*time.Millisecond)

	hub.Notify(context.Background(), services.Event{
		Type:       services.BidPlaced,
		Recipients: []string{"shipper-1"},
		Payload:    map[string]string{"id": "bid-1"},
	})

	require.NoError(t, shipper.SetReadDeadline(time.Now().Add(time.Second)))
	_, message, err := shipper.ReadMessage()
	require.NoError(t, err)

	var got struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(message, &got))
	assert.Equal(t, "bid.placed", got.Type)
	assert.Equal(t, "bid-1", got.Data["id"])

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = other.ReadMessage()
	assert.Error(t, err)
}

func TestHub_UnregisterOnClose(t *testing.T) {
	hub := NewHub(nil)
	server := newTestServer(t, hub)

	conn := dial(t, server, "trucker-1")
	require.Eventually(t, func() bool { return hub.Connections("trucker-1") == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Connections("trucker-1") == 0 }, time.Second, 10*time.Millisecond)

	assert.NoError(t, hub.Send("trucker-1", []byte("{}")))
}
