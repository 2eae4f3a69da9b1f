package accounts

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

// Handler serves the credential-store pages. The mount point is guarded
// by view_accounts; mutations additionally require edit_all.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	renderer  *view.Renderer
	authzMW   authz.Middleware
	audit     *shared.AuditLogger
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, renderer *view.Renderer, authzMW authz.Middleware, audit *shared.AuditLogger) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		renderer:  renderer,
		authzMW:   authzMW,
		audit:     audit,
		validator: validator.New(),
	}
}

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Group(func(r chi.Router) {
		r.Use(h.authzMW.RequireCapability(authz.CapEditAll))
		r.Post("/", h.create)
		r.Post("/{id}", h.update)
		r.Post("/{id}/delete", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		h.renderer.Page(w, r, "pages/accounts.html", "accounts", map[string]any{"Errors": map[string]string{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	principal := authz.PrincipalFromContext(r.Context())
	h.renderer.Page(w, r, "pages/accounts.html", "accounts", map[string]any{
		"Accounts": list,
		"CanEdit":  h.authzMW.Guard.Can(principal, authz.CapEditAll),
		"Errors":   map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	form, errs := h.parseForm(r)
	if len(errs) > 0 {
		h.renderer.RedirectWithFlash(w, r, "/accounts", "error", "Please fill all required fields")
		return
	}
	account, err := h.service.Create(r.Context(), form)
	if err != nil {
		h.logger.Error("create account", slog.Any("error", err))
		h.renderer.RedirectWithFlash(w, r, "/accounts", "error", shared.UserSafeMessage(err))
		return
	}
	h.recordAudit(r, "account.created", account.ID, map[string]any{"service": account.ServiceName})
	h.renderer.RedirectWithFlash(w, r, "/accounts", "success", "Account added")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	form, errs := h.parseForm(r)
	if len(errs) > 0 {
		h.renderer.RedirectWithFlash(w, r, "/accounts", "error", "Please fill all required fields")
		return
	}
	if err := h.service.Update(r.Context(), id, form); err != nil {
		h.logger.Error("update account", slog.String("account_id", id), slog.Any("error", err))
		h.renderer.RedirectWithFlash(w, r, "/accounts", "error", shared.UserSafeMessage(err))
		return
	}
	h.recordAudit(r, "account.updated", id, nil)
	h.renderer.RedirectWithFlash(w, r, "/accounts", "success", "Account updated")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete account", slog.String("account_id", id), slog.Any("error", err))
		h.renderer.RedirectWithFlash(w, r, "/accounts", "error", shared.UserSafeMessage(err))
		return
	}
	h.recordAudit(r, "account.deleted", id, nil)
	h.renderer.RedirectWithFlash(w, r, "/accounts", "success", "Account deleted")
}

func (h *Handler) parseForm(r *http.Request) (Form, map[string]string) {
	errs := make(map[string]string)
	if err := r.ParseForm(); err != nil {
		errs["general"] = "invalid form"
		return Form{}, errs
	}
	form := Form{
		ServiceName: r.PostFormValue("service_name"),
		Username:    r.PostFormValue("username"),
		Password:    r.PostFormValue("password"),
		Notes:       r.PostFormValue("notes"),
		LoginURL:    r.PostFormValue("login_url"),
	}
	if err := h.validator.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs[fe.Field()] = fe.Error()
			}
		}
	}
	return form, errs
}

func (h *Handler) recordAudit(r *http.Request, action, entityID string, meta map[string]any) {
	if h.audit == nil {
		return
	}
	actorID := ""
	if principal := authz.PrincipalFromContext(r.Context()); principal != nil {
		actorID = principal.ID
	}
	if err := h.audit.Record(r.Context(), shared.AuditLog{ActorID: actorID, Action: action, Entity: "service_account", EntityID: entityID, Meta: meta}); err != nil {
		h.logger.Warn("audit record", slog.Any("error", err))
	}
}
