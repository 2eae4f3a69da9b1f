package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cvdesk/cvdesk/internal/authz"
	"github.com/cvdesk/cvdesk/internal/shared"
	"github.com/cvdesk/cvdesk/internal/view"
)

// Handler serves the landing dashboard.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	renderer *view.Renderer
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, renderer *view.Renderer) *Handler {
	return &Handler{logger: logger, service: service, renderer: renderer}
}

// MountRoutes registers the dashboard route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	if principal == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	summary, err := h.service.Summarize(r.Context(), principal)
	if err != nil {
		h.logger.Error("dashboard summary", slog.Any("error", err))
		h.renderer.Page(w, r, "pages/dashboard.html", "dashboard", map[string]any{"Errors": map[string]string{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.renderer.Page(w, r, "pages/dashboard.html", "dashboard", map[string]any{
		"Summary":  summary,
		"ShowTeam": h.renderer.Guard.Can(principal, authz.CapViewAll),
	}, http.StatusOK)
}
