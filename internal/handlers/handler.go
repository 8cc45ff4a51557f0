package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/senyabanana/loadboard-service/internal/auth"
	"github.com/senyabanana/loadboard-service/internal/models"
	"github.com/senyabanana/loadboard-service/internal/utils"
)

// Handler - общие зависимости HTTP-обработчиков.
type Handler struct {
	Logger  *slog.Logger
	Timeout time.Duration
}

func (h Handler) context(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.Timeout)
}

// fail отправляет ошибку сервиса клиенту. Внутренние ошибки логируются и скрываются за fallback.
func (h Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var errorResponse *models.ErrorResponse
	if errors.As(err, &errorResponse) {
		h.Logger.Info("request rejected",
			"method", r.Method, "path", r.URL.Path, "kind", errorResponse.Kind, "error", errorResponse.Message)
		utils.SendErrorResponse(w, errorResponse.StatusCode, errorResponse.Message)
		return
	}
	h.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	utils.SendErrorResponse(w, http.StatusInternalServerError, fallback)
}

func actorFrom(r *http.Request) models.Actor {
	actor, _ := auth.ActorFromContext(r.Context())
	return actor
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return models.NewErrorResponse(models.ValidationError, "invalid request body")
	}
	return nil
}

func pagination(r *http.Request) (int, int, error) {
	limit, offset, err := utils.ParseLimitOffset(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	if err != nil {
		return 0, 0, models.NewErrorResponse(models.ValidationError, "%s", err.Error())
	}
	return limit, offset, nil
}
