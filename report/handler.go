package report

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/invoicely/invoicely/internal/platform/httpx"
)

// Handler exposes document-service health.
type Handler struct {
	client *Client
	logger *slog.Logger
}

// NewHandler creates a report handler.
func NewHandler(client *Client, logger *slog.Logger) *Handler {
	return &Handler{client: client, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Document service unavailable", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
