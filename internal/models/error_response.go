package models

import (
	"fmt"
	"net/http"
)

type ErrorKind string // Категория ошибки

const (
	NotFoundError     ErrorKind = "NotFound"
	ForbiddenError    ErrorKind = "Forbidden"
	InvalidStateError ErrorKind = "InvalidState"
	ConflictError     ErrorKind = "Conflict"
	ValidationError   ErrorKind = "Validation"
	UnauthorizedError ErrorKind = "Unauthorized"
	InternalError     ErrorKind = "Internal"
)

var kindStatusCodes = map[ErrorKind]int{
	NotFoundError:     http.StatusNotFound,
	ForbiddenError:    http.StatusForbidden,
	InvalidStateError: http.StatusBadRequest,
	ConflictError:     http.StatusBadRequest,
	ValidationError:   http.StatusBadRequest,
	UnauthorizedError: http.StatusUnauthorized,
	InternalError:     http.StatusInternalServerError,
}

// ErrorResponse описывает ошибку с категорией, кодом и сообщением.
type ErrorResponse struct {
	Kind       ErrorKind `json:"-"`
	StatusCode int       `json:"-"`
	Message    string    `json:"error"`
}

// NewErrorResponse создает новую ошибку указанной категории.
func NewErrorResponse(kind ErrorKind, format string, args ...any) *ErrorResponse {
	code, ok := kindStatusCodes[kind]
	if !ok {
		code = http.StatusInternalServerError
	}
	return &ErrorResponse{
		Kind:       kind,
		StatusCode: code,
		Message:    fmt.Sprintf(format, args...),
	}
}

// Реализация метода Error() для удовлетворения интерфейса error.
func (e *ErrorResponse) Error() string {
	return e.Message
}

// Is позволяет сравнивать ошибки по категории через errors.Is.
func (e *ErrorResponse) Is(target error) bool {
	t, ok := target.(*ErrorResponse)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Образцы для сравнения через errors.Is.
var (
	ErrNotFound     = &ErrorResponse{Kind: NotFoundError}
	ErrForbidden    = &ErrorResponse{Kind: ForbiddenError}
	ErrInvalidState = &ErrorResponse{Kind: InvalidStateError}
	ErrConflict     = &ErrorResponse{Kind: ConflictError}
	ErrValidation   = &ErrorResponse{Kind: ValidationError}
)
