package utils

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// successResponse - формат успешного ответа API.
type successResponse struct {
	Success bool `json:"success"`
	Count   *int `json:"count,omitempty"`
	Data    any  `json:"data"`
}

// errorResponse - формат ответа API с ошибкой.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// SendErrorResponse отправляет ошибку в формате JSON
func SendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Success: false, Error: message})
}

// SendSuccessResponse отправляет данные в формате JSON
func SendSuccessResponse(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, successResponse{Success: true, Data: data})
}

// SendListResponse отправляет список вместе с количеством элементов
func SendListResponse[T any](w http.ResponseWriter, items []T) {
	count := len(items)
	writeJSON(w, http.StatusOK, successResponse{Success: true, Count: &count, Data: items})
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// ParseLimitOffset обрабатывает limit и offset
func ParseLimitOffset(limitStr, offsetStr string) (int, int, error) {
	limit, offset := DefaultLimit, 0
	var err error

	if limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 || limit > MaxLimit {
			return 0, 0, fmt.Errorf("invalid limit parameter, must be a positive integer [1:%d]", MaxLimit)
		}
	}

	if offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset parameter, must be a non-negative integer")
		}
	}

	return limit, offset, nil
}
