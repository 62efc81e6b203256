package balance

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mercurio-erp/mercurio-erp/internal/platform/httpx"
)

// Handler exposes the balance read surface.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the balance route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.GetBalance)
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetBalance(r.Context())
	if err != nil {
		h.logger.Error("get balance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}
