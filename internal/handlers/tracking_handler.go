package handlers

import (
	"net/http"

	"github.com/senyabanana/loadboard-service/internal/models"
	"github.com/senyabanana/loadboard-service/internal/services"
	"github.com/senyabanana/loadboard-service/internal/utils"
)

// TrackingHandler - структура для обработки HTTP-запросов по отметкам перевозки.
type TrackingHandler struct {
	Handler
	Lifecycle *services.LifecycleService
}

// NewTrackingHandler создает новый экземпляр TrackingHandler.
func NewTrackingHandler(h Handler, lifecycle *services.LifecycleService) *TrackingHandler {
	return &TrackingHandler{Handler: h, Lifecycle: lifecycle}
}

type issueRequest struct {
	Location models.Location `json:"location"`
	Notes    string          `json:"notes"`
}

// CreateTrackingUpdate обрабатывает запросы перевозчика на создание отметки.
func (h *TrackingHandler) CreateTrackingUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var req models.TrackingRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err, "")
		return
	}

	update, err := h.Lifecycle.ApplyTrackingUpdate(ctx, actorFrom(r), req)
	if err != nil {
		h.fail(w, r, err, "failed to create tracking update")
		return
	}
	utils.SendSuccessResponse(w, http.StatusCreated, update)
}

// ReportIssue обрабатывает сообщения перевозчика о проблеме с грузом.
func (h *TrackingHandler) ReportIssue(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var req issueRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err, "")
		return
	}

	update, err := h.Lifecycle.ReportIssue(ctx, actorFrom(r), r.PathValue("loadId"), req.Location, req.Notes)
	if err != nil {
		h.fail(w, r, err, "failed to report issue")
		return
	}
	utils.SendSuccessResponse(w, http.StatusCreated, update)
}

// GetLoadTracking обрабатывает запросы истории отметок по грузу.
func (h *TrackingHandler) GetLoadTracking(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	limit, offset, err := pagination(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	updates, err := h.Lifecycle.GetLoadTracking(ctx, actorFrom(r), r.PathValue("loadId"), limit, offset)
	if err != nil {
		h.fail(w, r, err, "failed to retrieve tracking updates")
		return
	}
	utils.SendListResponse(w, updates)
}

// GetLatestTracking обрабатывает запросы последней отметки по грузу.
func (h *TrackingHandler) GetLatestTracking(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	update, err := h.Lifecycle.GetLatestTracking(ctx, actorFrom(r), r.PathValue("loadId"))
	if err != nil {
		h.fail(w, r, err, "failed to retrieve tracking update")
		return
	}
	utils.SendSuccessResponse(w, http.StatusOK, update)
}
