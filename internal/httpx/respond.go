// Package httpx holds the JSON response helpers shared by the API handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/joao-fontenele/marketplace/internal/domain"
)

func WriteJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func WriteError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	WriteJSON(w, logger, status, map[string]string{"error": message})
}

// StatusFor maps a service error onto an HTTP status. Errors outside the
// domain taxonomy map to 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAccessDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// WriteServiceError writes err using its domain message, or a generic 500
// after logging msg when err is not a domain error.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, msg string, args ...any) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), msg, append([]any{"error", err}, args...)...)
		WriteError(w, logger, status, "internal server error")
		return
	}

	var derr *domain.Error
	message := err.Error()
	if errors.As(err, &derr) {
		message = derr.Message
	}
	logger.InfoContext(r.Context(), msg, append([]any{"error", message, "status", status}, args...)...)
	WriteError(w, logger, status, message)
}

// DecodeJSON decodes the request body into v.
func DecodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// ParsePageRequest reads the optional page and size query parameters.
// Clamping is left to domain.PageRequest.Normalize.
func ParsePageRequest(r *http.Request) (domain.PageRequest, error) {
	var req domain.PageRequest
	q := r.URL.Query()

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("invalid page: %s", v)
		}
		req.Page = page
	}
	if v := q.Get("size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("invalid size: %s", v)
		}
		req.Size = size
	}
	return req, nil
}
