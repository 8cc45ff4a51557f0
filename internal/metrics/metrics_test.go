package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/senyabanana/loadboard-service/internal/services"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_CountsEvents(t *testing.T) {
	c := NewCollector()
	c.Notify(context.Background(), services.Event{Type: services.BidPlaced})
	c.Notify(context.Background(), services.Event{Type: services.BidPlaced})
	c.Notify(context.Background(), services.Event{Type: services.LoadCancelled})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.events.WithLabelValues(string(services.BidPlaced))))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.events.WithLabelValues(string(services.LoadCancelled))))
}

func TestCollector_InstrumentAndExpose(t *testing.T) {
	c := NewCollector()
	handler := c.Instrument("GET /api/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, 1, testutil.CollectAndCount(c.requestDuration))

	server := httptest.NewServer(c.Handler())
	defer server.Close()
	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `loadboard_http_request_duration_seconds_count{code="418",method="GET",route="GET /api/ping"} 1`)
}
