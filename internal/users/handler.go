package users

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/cvdesk/cvdesk/internal/authz"
	"github.com/cvdesk/cvdesk/internal/shared"
	"github.com/cvdesk/cvdesk/internal/view"
)

// Handler serves the profile page and the admin user management pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	renderer  *view.Renderer
	audit     *shared.AuditLogger
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, renderer *view.Renderer, audit *shared.AuditLogger) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		renderer:  renderer,
		audit:     audit,
		validator: validator.New(),
	}
}

// MountProfileRoutes registers the self-service profile routes.
func (h *Handler) MountProfileRoutes(r chi.Router) {
	r.Get("/", h.showProfile)
	r.Post("/", h.updateProfile)
}

// MountAdminRoutes registers the user management routes. The routing
// guard already restricts the mount point to manage_users.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Post("/{id}/role", h.changeRole)
	r.Post("/{id}/active", h.setActive)
}

type formErrors map[string]string

func (h *Handler) showProfile(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	if principal == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	user, err := h.service.Get(r.Context(), principal.ID)
	if err != nil {
		h.logger.Error("load profile", slog.Any("error", err))
		h.renderer.Page(w, r, "pages/profile.html", "profile", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.renderer.Page(w, r, "pages/profile.html", "profile", map[string]any{"User": user, "Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	if principal == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	upd := ProfileUpdate{
		Name:       r.PostFormValue("name"),
		Status:     r.PostFormValue("status"),
		Workplace:  r.PostFormValue("workplace"),
		Phone:      r.PostFormValue("phone"),
		Department: r.PostFormValue("department"),
		AvatarURL:  r.PostFormValue("avatar_url"),
	}
	errs := make(formErrors)
	if err := h.validator.Struct(upd); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs[fe.Field()] = fe.Error()
			}
		}
	}
	if len(errs) > 0 {
		user, _ := h.service.Get(r.Context(), principal.ID)
		h.renderer.Page(w, r, "pages/profile.html", "profile", map[string]any{"User": user, "Errors": errs}, http.StatusBadRequest)
		return
	}
	if err := h.service.UpdateProfile(r.Context(), principal.ID, upd); err != nil {
		h.logger.Error("update profile", slog.Any("error", err))
		h.renderer.RedirectWithFlash(w, r, "/profile", "error", shared.UserSafeMessage(err))
		return
	}
	h.renderer.RedirectWithFlash(w, r, "/profile", "success", "Profile updated")
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		h.renderer.Page(w, r, "pages/users.html", "users", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.renderer.Page(w, r, "pages/users.html", "users", map[string]any{"Users": users, "Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	role := authz.Role(r.PostFormValue("role"))
	if err := h.service.ChangeRole(r.Context(), id, role); err != nil {
		h.logger.Error("change role", slog.String("user_id", id), slog.Any("error", err))
		h.renderer.RedirectWithFlash(w, r, "/users", "error", shared.UserSafeMessage(err))
		return
	}
	h.recordAudit(r, "user.role_changed", id, map[string]any{"role": string(role)})
	h.renderer.RedirectWithFlash(w, r, "/users", "success", "Role updated")
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	active := r.PostFormValue("active") == "true"
	if err := h.service.SetActive(r.Context(), id, active); err != nil {
		h.logger.Error("set active", slog.String("user_id", id), slog.Any("error", err))
		h.renderer.RedirectWithFlash(w, r, "/users", "error", shared.UserSafeMessage(err))
		return
	}
	h.recordAudit(r, "user.active_changed", id, map[string]any{"active": active})
	h.renderer.RedirectWithFlash(w, r, "/users", "success", "Account updated")
}

func (h *Handler) recordAudit(r *http.Request, action, entityID string, meta map[string]any) {
	if h.audit == nil {
		return
	}
	actorID := ""
	if principal := authz.PrincipalFromContext(r.Context()); principal != nil {
		actorID = principal.ID
	}
	if err := h.audit.Record(r.Context(), shared.AuditLog{ActorID: actorID, Action: action, Entity: "user", EntityID: entityID, Meta: meta}); err != nil {
		h.logger.Warn("audit record", slog.Any("error", err))
	}
}
