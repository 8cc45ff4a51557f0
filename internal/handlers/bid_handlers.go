package handlers

import (
	"net/http"

	"github.com/senyabanana/loadboard-service/internal/models"
	"github.com/senyabanana/loadboard-service/internal/services"
	"github.com/senyabanana/loadboard-service/internal/utils"
)

// BidHandler - структура для обработки HTTP-запросов по предложениям.
type BidHandler struct {
	Handler
	Bids       *services.BidService
	Assignment *services.AssignmentService
}

// NewBidHandler создает новый экземпляр BidHandler.
func NewBidHandler(h Handler, bids *services.BidService, assignment *services.AssignmentService) *BidHandler {
	return &BidHandler{Handler: h, Bids: bids, Assignment: assignment}
}

// CreateBid обрабатывает запросы для создания предложения.
func (h *BidHandler) CreateBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var bidReq models.BidRequest
	if err := decodeBody(r, &bidReq); err != nil {
		h.fail(w, r, err, "")
		return
	}

	bid, err := h.Bids.PlaceBid(ctx, actorFrom(r), bidReq)
	if err != nil {
		h.fail(w, r, err, "failed to create bid")
		return
	}
	utils.SendSuccessResponse(w, http.StatusCreated, bid)
}

// UpdateBid обрабатывает запросы для изменения предложения.
func (h *BidHandler) UpdateBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var upd models.BidUpdate
	if err := decodeBody(r, &upd); err != nil {
		h.fail(w, r, err, "")
		return
	}

	bid, err := h.Bids.UpdateBid(ctx, actorFrom(r), r.PathValue("id"), upd)
	if err != nil {
		h.fail(w, r, err, "failed to update bid")
		return
	}
	utils.SendSuccessResponse(w, http.StatusOK, bid)
}

// WithdrawBid обрабатывает запросы для отзыва предложения.
func (h *BidHandler) WithdrawBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	bid, err := h.Bids.WithdrawBid(ctx, actorFrom(r), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "failed to withdraw bid")
		return
	}
	utils.SendSuccessResponse(w, http.StatusOK, bid)
}

// AcceptBid обрабатывает запросы для принятия предложения.
func (h *BidHandler) AcceptBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	bid, err := h.Assignment.AcceptBid(ctx, actorFrom(r), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "failed to accept bid")
		return
	}
	utils.SendSuccessResponse(w, http.StatusOK, bid)
}

// RejectBid обрабатывает запросы для отклонения предложения.
func (h *BidHandler) RejectBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	bid, err := h.Assignment.RejectBid(ctx, actorFrom(r), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "failed to reject bid")
		return
	}
	utils.SendSuccessResponse(w, http.StatusOK, bid)
}

// GetBid обрабатывает запросы для получения предложения.
func (h *BidHandler) GetBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	bid, err := h.Bids.GetBid(ctx, actorFrom(r), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "failed to retrieve bid")
		return
	}
	utils.SendSuccessResponse(w, http.StatusOK, bid)
}

// GetLoadBids обрабатывает запросы для получения предложений по грузу.
func (h *BidHandler) GetLoadBids(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	bids, err := h.Bids.GetLoadBids(ctx, actorFrom(r), r.PathValue("loadId"))
	if err != nil {
		h.fail(w, r, err, "failed to retrieve bids")
		return
	}
	utils.SendListResponse(w, bids)
}

// GetTruckerBids обрабатывает запросы для получения предложений текущего перевозчика.
func (h *BidHandler) GetTruckerBids(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	limit, offset, err := pagination(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	bids, err := h.Bids.GetTruckerBids(ctx, actorFrom(r), limit, offset)
	if err != nil {
		h.fail(w, r, err, "failed to retrieve bids")
		return
	}
	utils.SendListResponse(w, bids)
}
