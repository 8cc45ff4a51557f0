package router

import (
	"net/http"

	"github.com/senyabanana/loadboard-service/internal/auth"
	"github.com/senyabanana/loadboard-service/internal/handlers"
	"github.com/senyabanana/loadboard-service/internal/metrics"
	"github.com/senyabanana/loadboard-service/internal/models"
)

// Handlers - обработчики, которые подключаются к маршрутам.
type Handlers struct {
	Loads     *handlers.LoadHandler
	Bids      *handlers.BidHandler
	Tracking  *handlers.TrackingHandler
	Admin     *handlers.AdminHandler
	WebSocket *handlers.WebSocketHandler
}

var (
	shipper = auth.Authorize(models.ShipperRole)
	trucker = auth.Authorize(models.TruckerRole)
	admin   = auth.Authorize(models.AdminRole)
	anyRole = auth.Authorize(models.ShipperRole, models.TruckerRole, models.AdminRole)
)

func InitRoutes(tokens *auth.TokenManager, collector *metrics.Collector, h Handlers) http.Handler {
	mux := http.NewServeMux()

	public := func(pattern string, handler http.HandlerFunc) {
		mux.Handle(pattern, collector.Instrument(pattern, handler))
	}
	private := func(pattern string, handler http.HandlerFunc) {
		mux.Handle(pattern, collector.Instrument(pattern, tokens.Authenticate(handler)))
	}

	public("GET /api/ping", handlers.PingHandler)
	mux.Handle("GET /metrics", collector.Handler())

	private("POST /api/loads", shipper(h.Loads.CreateLoad))
	private("GET /api/loads", anyRole(h.Loads.GetLoads))
	private("GET /api/loads/shipper/me", shipper(h.Loads.GetShipperLoads))
	private("GET /api/loads/available", trucker(h.Loads.GetAvailableLoads))
	private("GET /api/loads/{id}", anyRole(h.Loads.GetLoad))
	private("PUT /api/loads/{id}", shipper(h.Loads.UpdateLoad))
	private("DELETE /api/loads/{id}", shipper(h.Loads.DeleteLoad))
	private("PUT /api/loads/{id}/assign", shipper(h.Loads.AssignLoad))
	private("PUT /api/loads/{id}/deliver", trucker(h.Loads.MarkDelivered))
	private("PUT /api/loads/{id}/complete", shipper(h.Loads.MarkCompleted))
	private("PUT /api/loads/{id}/cancel", shipper(h.Loads.CancelLoad))

	private("POST /api/bids", trucker(h.Bids.CreateBid))
	private("GET /api/bids/trucker/me", trucker(h.Bids.GetTruckerBids))
	private("GET /api/bids/load/{loadId}", anyRole(h.Bids.GetLoadBids))
	private("GET /api/bids/{id}", anyRole(h.Bids.GetBid))
	private("PUT /api/bids/{id}", trucker(h.Bids.UpdateBid))
	private("PUT /api/bids/{id}/withdraw", trucker(h.Bids.WithdrawBid))
	private("PUT /api/bids/{id}/accept", shipper(h.Bids.AcceptBid))
	private("PUT /api/bids/{id}/reject", shipper(h.Bids.RejectBid))

	private("POST /api/tracking", trucker(h.Tracking.CreateTrackingUpdate))
	private("GET /api/tracking/load/{loadId}", anyRole(h.Tracking.GetLoadTracking))
	private("GET /api/tracking/load/{loadId}/latest", anyRole(h.Tracking.GetLatestTracking))
	private("POST /api/tracking/load/{loadId}/issue", trucker(h.Tracking.ReportIssue))

	private("GET /api/admin/stats/loads", admin(h.Admin.LoadStats))

	private("GET /api/ws", anyRole(h.WebSocket.ServeWs))

	return mux
}
