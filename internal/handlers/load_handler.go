package handlers

import (
	"net/http"
	"strings"

	"github.com/senyabanana/loadboard-service/internal/models"
	"github.com/senyabanana/loadboard-service/internal/services"
	"github.com/senyabanana/loadboard-service/internal/utils"

	"github.com/samber/lo"
)

// LoadHandler - структура для обработки HTTP-запросов по грузам.
type LoadHandler struct {
	Handler
	Loads      *services.LoadService
	Assignment *services.AssignmentService
	Lifecycle  *services.LifecycleService
}

// NewLoadHandler создает новый экземпляр LoadHandler.
func NewLoadHandler(h Handler, loads *services.LoadService, assignment *services.AssignmentService, lifecycle *services.LifecycleService) *LoadHandler {
	return &LoadHandler{Handler: h, Loads: loads, Assignment: assignment, Lifecycle: lifecycle}
}

// assignRequest - тело запроса на назначение груза.
type assignRequest struct {
	BidId string `json:"bidId"`
}

// CreateLoad обрабатывает запросы для публикации груза.
func (h *LoadHandler) CreateLoad(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var loadReq models.LoadRequest
	if err := decodeBody(r, &loadReq); err != nil {
		h.fail(w, r, err, "")
		return
	}

	load, err := h.Loads.CreateLoad(ctx, actorFrom(r), loadReq)
	if err != nil {
		h.fail(w, r, err, "failed to create load")
		return
	}
	utils.SendSuccessResponse(w, http.StatusCreated, load)
}

// GetLoads обрабатывает запросы для получения списка грузов.
// Параметры: status (через запятую), loadType, limit, offset.
func (h *LoadHandler) GetLoads(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	limit, offset, err := pagination(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	filter := models.LoadFilter{
		LoadType: r.URL.Query().Get("loadType"),
		Limit:    limit,
		Offset:   offset,
	}
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		filter.Statuses = lo.Map(strings.Split(statusStr, ","), func(s string, _ int) models.LoadStatus {
			return models.LoadStatus(strings.TrimSpace(s))
		})
	}

	loads, err := h.Loads.GetLoads(ctx, filter)
	if err != nil {
		h.fail(w, r, err, "failed to retrieve loads")
		return
	}
	utils.SendListResponse(w, loads)
}

// GetLoad обрабатывает запросы для получения груза.
func (h *LoadHandler) GetLoad(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	load, err := h.Loads.GetLoad(ctx, r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "failed to retrieve load")
		return
	}
	utils.SendSuccessResponse(w, http.StatusOK, load)
}

// UpdateLoad обрабатывает запросы для изменения груза.
func (h *LoadHandler) UpdateLoad(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var upd models.LoadUpdate
	if err := decodeBody(r, &upd); err != nil {
		h.fail(w, r, err, "")
		return
	}

	load, err := h.Loads.UpdateLoad(ctx, actorFrom(r), r.PathValue("id"), upd)
	if err != nil {
		h.fail(w, r, err, "failed to update load")
		return
	}
	utils.SendSuccessResponse(w, http.StatusOK, load)
}

// DeleteLoad обрабатывает запросы для удаления груза.
func (h *LoadHandler) DeleteLoad(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	if err := h.Loads.DeleteLoad(ctx, actorFrom(r), r.PathValue("id")); err != nil {
		h.fail(w, r, err, "failed to delete load")
		return
	}
	utils.SendSuccessResponse(w, http.StatusOK, struct{}{})
}

// GetShipperLoads обрабатывает запросы для получения грузов текущего грузоотправителя.
func (h *LoadHandler) GetShipperLoads(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	limit, offset, err := pagination(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	loads, err := h.Loads.GetShipperLoads(ctx, actorFrom(r), limit, offset)
	if err != nil {
		h.fail(w, r, err, "failed to retrieve loads")
		return
	}
	utils.SendListResponse(w, loads)
}

// GetAvailableLoads обрабатывает запросы перевозчика на получение доступных грузов.
func (h *LoadHandler) GetAvailableLoads(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	limit, offset, err := pagination(r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	loads, err := h.Loads.GetAvailableLoads(ctx, actorFrom(r), r.URL.Query().Get("loadType"), limit, offset)
	if err != nil {
		h.fail(w, r, err, "failed to retrieve loads")
		return
	}
	utils.SendListResponse(w, loads)
}

// AssignLoad обрабатывает запросы для назначения груза по предложению.
func (h *LoadHandler) AssignLoad(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var req assignRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err, "")
		return
	}

	load, err := h.Assignment.AssignLoad(ctx, actorFrom(r), r.PathValue("id"), req.BidId)
	if err != nil {
		h.fail(w, r, err, "failed to assign load")
		return
	}
	utils.SendSuccessResponse(w, http.StatusOK, load)
}

// MarkDelivered обрабатывает запросы перевозчика об окончании доставки.
func (h *LoadHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	load, err := h.Lifecycle.MarkDelivered(ctx, actorFrom(r), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "failed to update load")
		return
	}
	utils.SendSuccessResponse(w, http.StatusOK, load)
}

// MarkCompleted обрабатывает запросы грузоотправителя о завершении перевозки.
func (h *LoadHandler) MarkCompleted(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	load, err := h.Lifecycle.MarkCompleted(ctx, actorFrom(r), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "failed to update load")
		return
	}
	utils.SendSuccessResponse(w, http.StatusOK, load)
}

// CancelLoad обрабатывает запросы для отмены груза.
func (h *LoadHandler) CancelLoad(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	load, err := h.Lifecycle.Cancel(ctx, actorFrom(r), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "failed to cancel load")
		return
	}
	utils.SendSuccessResponse(w, http.StatusOK, load)
}
