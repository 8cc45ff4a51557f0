package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/senyabanana/loadboard-service/internal/auth"
	"github.com/senyabanana/loadboard-service/internal/handlers"
	"github.com/senyabanana/loadboard-service/internal/metrics"
	"github.com/senyabanana/loadboard-service/internal/models"
	"github.com/senyabanana/loadboard-service/internal/repository"
	"github.com/senyabanana/loadboard-service/internal/services"
	"github.com/senyabanana/loadboard-service/internal/socket"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Count   *int            `json:"count"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	srv    *httptest.Server
	tokens *auth.TokenManager
	hub    *socket.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewMemoryStore()
	collector := metrics.NewCollector()
	hub := socket.NewHub(logger)
	notifier := services.MultiNotifier{collector, hub}

	loads := services.NewLoadService(store, notifier)
	bids := services.NewBidService(store, notifier)
	assignment := services.NewAssignmentService(store, notifier)
	lifecycle := services.NewLifecycleService(store, notifier)

	base := handlers.Handler{Logger: logger, Timeout: 5 * time.Second}
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	mux := InitRoutes(tokens, collector, Handlers{
		Loads:     handlers.NewLoadHandler(base, loads, assignment, lifecycle),
		Bids:      handlers.NewBidHandler(base, bids, assignment),
		Tracking:  handlers.NewTrackingHandler(base, lifecycle),
		Admin:     handlers.NewAdminHandler(base, loads),
		WebSocket: handlers.NewWebSocketHandler(base, hub),
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv, tokens: tokens, hub: hub}
}

func newActor(role models.Role) models.Actor {
	return models.Actor{ID: uuid.NewString(), Role: role}
}

func (s *testServer) token(actor models.Actor) string {
	s.t.Helper()
	token, err := s.tokens.GenerateToken(actor)
	require.NoError(s.t, err)
	return token
}

// do отправляет запрос от имени actor. Пустой actor.ID означает запрос без токена.
func (s *testServer) do(actor models.Actor, method, path string, body any) (int, envelope) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, reader)
	require.NoError(s.t, err)
	if actor.ID != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(actor))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(s.t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func loadBody() map[string]any {
	now := time.Now().UTC()
	return map[string]any{
		"title":            "Frozen produce",
		"description":      "Two pallets, keep at -18C",
		"pickupLocation":   map[string]any{"address": "Fresno, CA", "coordinates": []float64{-119.8, 36.7}},
		"deliveryLocation": map[string]any{"address": "Denver, CO"},
		"pickupDate":       now.Add(48 * time.Hour),
		"deliveryDate":     now.Add(72 * time.Hour),
		"weight":           1200,
		"loadType":         "reefer",
		"budget":           1800,
		"biddingDeadline":  now.Add(24 * time.Hour),
		"status":           "open",
	}
}

func TestPingAndAuth(t *testing.T) {
	s := newTestServer(t)

	resp, err := http.Get(s.srv.URL + "/api/ping")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	code, env := s.do(models.Actor{}, http.MethodGet, "/api/loads", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)

	code, env = s.do(newActor(models.TruckerRole), http.MethodPost, "/api/loads", loadBody())
	assert.Equal(t, http.StatusForbidden, code)
	assert.False(t, env.Success)

	code, _ = s.do(newActor(models.ShipperRole), http.MethodGet, "/api/admin/stats/loads", nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestLoadBoardFlow(t *testing.T) {
	s := newTestServer(t)
	shipper := newActor(models.ShipperRole)
	trucker := newActor(models.TruckerRole)
	rival := newActor(models.TruckerRole)
	admin := newActor(models.AdminRole)

	code, env := s.do(shipper, http.MethodPost, "/api/loads", map[string]any{"title": ""})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)

	code, env = s.do(shipper, http.MethodPost, "/api/loads", loadBody())
	require.Equal(t, http.StatusCreated, code, env.Error)
	load := decode[models.Load](t, env)
	assert.Equal(t, models.OpenLoad, load.Status)
	assert.Equal(t, shipper.ID, load.ShipperId)

	code, _ = s.do(shipper, http.MethodGet, "/api/loads/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(shipper, http.MethodGet, "/api/loads/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(trucker, http.MethodGet, "/api/loads/available?loadType=reefer", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)

	bidBody := map[string]any{"load": load.ID, "amount": 1650, "notes": "Team drivers"}
	code, env = s.do(trucker, http.MethodPost, "/api/bids", bidBody)
	require.Equal(t, http.StatusCreated, code, env.Error)
	bid := decode[models.Bid](t, env)
	assert.Equal(t, models.PendingBid, bid.Status)

	code, env = s.do(trucker, http.MethodPost, "/api/bids", bidBody)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)

	code, env = s.do(rival, http.MethodPost, "/api/bids", map[string]any{"load": load.ID, "amount": 1700})
	require.Equal(t, http.StatusCreated, code, env.Error)
	rivalBid := decode[models.Bid](t, env)

	code, env = s.do(shipper, http.MethodGet, "/api/bids/load/"+load.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, *env.Count)
	code, env = s.do(rival, http.MethodGet, "/api/bids/load/"+load.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, *env.Count)

	code, env = s.do(shipper, http.MethodPut, "/api/loads/"+load.ID+"/assign", map[string]any{"bidId": bid.ID})
	require.Equal(t, http.StatusOK, code, env.Error)
	assigned := decode[models.Load](t, env)
	assert.Equal(t, models.AssignedLoad, assigned.Status)
	require.NotNil(t, assigned.AssignedTrucker)
	assert.Equal(t, trucker.ID, *assigned.AssignedTrucker)

	code, env = s.do(rival, http.MethodGet, "/api/bids/"+rivalBid.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.RejectedBid, decode[models.Bid](t, env).Status)

	code, env = s.do(shipper, http.MethodGet, "/api/tracking/load/"+load.ID+"/latest", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "null", string(env.Data))

	code, _ = s.do(rival, http.MethodPost, "/api/tracking", map[string]any{
		"load": load.ID, "status": "picked_up", "location": map[string]any{"address": "Fresno, CA"},
	})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(trucker, http.MethodPost, "/api/tracking", map[string]any{
		"load": load.ID, "status": "picked_up", "location": map[string]any{"address": "Fresno, CA"},
	})
	require.Equal(t, http.StatusCreated, code, env.Error)

	code, env = s.do(trucker, http.MethodPost, "/api/tracking/load/"+load.ID+"/issue", map[string]any{
		"location": map[string]any{"address": "I-70, Grand Junction"}, "notes": "reefer unit alarm",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)

	code, env = s.do(shipper, http.MethodGet, "/api/tracking/load/"+load.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, *env.Count)

	code, _ = s.do(shipper, http.MethodPut, "/api/loads/"+load.ID+"/complete", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(trucker, http.MethodPut, "/api/loads/"+load.ID+"/deliver", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, models.DeliveredLoad, decode[models.Load](t, env).Status)

	code, env = s.do(shipper, http.MethodPut, "/api/loads/"+load.ID+"/complete", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, models.CompletedLoad, decode[models.Load](t, env).Status)

	code, _ = s.do(shipper, http.MethodPut, "/api/loads/"+load.ID+"/cancel", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(admin, http.MethodGet, "/api/admin/stats/loads", nil)
	require.Equal(t, http.StatusOK, code)
	stats := decode[map[models.LoadStatus]int](t, env)
	assert.Equal(t, 1, stats[models.CompletedLoad])

	resp, err := http.Get(s.srv.URL + "/metrics")
	require.NoError(t, err)
	metricsBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(metricsBody), `loadboard_events_total{type="bid.accepted"} 1`)
	assert.Contains(t, string(metricsBody), "loadboard_http_request_duration_seconds")
}

func TestDeleteLoad(t *testing.T) {
	s := newTestServer(t)
	shipper := newActor(models.ShipperRole)

	code, env := s.do(shipper, http.MethodPost, "/api/loads", loadBody())
	require.Equal(t, http.StatusCreated, code, env.Error)
	load := decode[models.Load](t, env)

	code, _ = s.do(newActor(models.ShipperRole), http.MethodDelete, "/api/loads/"+load.ID, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(shipper, http.MethodDelete, "/api/loads/"+load.ID, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.True(t, env.Success)

	code, _ = s.do(shipper, http.MethodGet, "/api/loads/"+load.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestWebSocketEvents(t *testing.T) {
	s := newTestServer(t)
	shipper := newActor(models.ShipperRole)
	trucker := newActor(models.TruckerRole)

	code, env := s.do(shipper, http.MethodPost, "/api/loads", loadBody())
	require.Equal(t, http.StatusCreated, code, env.Error)
	load := decode[models.Load](t, env)

	wsURL := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/api/ws?token=" + s.token(shipper)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.hub.Connections(shipper.ID) == 1 }, time.Second, 10*time.Millisecond)

	code, env = s.do(trucker, http.MethodPost, "/api/bids", map[string]any{"load": load.ID, "amount": 1500})
	require.Equal(t, http.StatusCreated, code, env.Error)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event struct {
		Type string     `json:"type"`
		Data models.Bid `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "bid.placed", event.Type)
	assert.Equal(t, load.ID, event.Data.LoadId)
	assert.Equal(t, trucker.ID, event.Data.TruckerId)

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.srv.URL, "http")+"/api/ws", nil)
	assert.ErrorIs(t, err, websocket.ErrBadHandshake)
}
