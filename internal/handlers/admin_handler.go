package handlers

import (
	"net/http"

	"github.com/senyabanana/loadboard-service/internal/services"
	"github.com/senyabanana/loadboard-service/internal/utils"
)

// AdminHandler обрабатывает запросы администратора.
type AdminHandler struct {
	Handler
	Loads *services.LoadService
}

// NewAdminHandler создает новый экземпляр AdminHandler.
func NewAdminHandler(h Handler, loads *services.LoadService) *AdminHandler {
	return &AdminHandler{Handler: h, Loads: loads}
}

// LoadStats возвращает количество грузов в каждом статусе.
func (h *AdminHandler) LoadStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	stats, err := h.Loads.LoadStats(ctx, actorFrom(r))
	if err != nil {
		h.fail(w, r, err, "failed to retrieve load statistics")
		return
	}
	utils.SendSuccessResponse(w, http.StatusOK, stats)
}
