// Package email is a stand-in mail relay. It accepts messages over HTTP and
// logs them instead of delivering.
package email

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/joao-fontenele/marketplace/internal/httpx"
)

type Handler struct {
	latency time.Duration
	logger  *slog.Logger
}

// NewHandler returns a handler that waits latency before accepting each
// message, to make downstream spans visible in traces.
func NewHandler(latency time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		latency: latency,
		logger:  logger,
	}
}

type sendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type sendResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := mail.ParseAddress(req.To); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid recipient")
		return
	}
	if strings.TrimSpace(req.Subject) == "" {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "missing subject")
		return
	}

	if h.latency > 0 {
		select {
		case <-time.After(h.latency):
		case <-r.Context().Done():
			return
		}
	}

	h.logger.InfoContext(r.Context(), "email sent", "to", req.To, "subject", req.Subject)

	httpx.WriteJSON(w, h.logger, http.StatusOK, sendResponse{Status: "sent"})
}
