package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/cvdesk/cvdesk/internal/shared"
	"github.com/cvdesk/cvdesk/internal/view"
)

// Handler wires HTTP endpoints for the sign-in and sign-out flows. The
// guard redirects already-authenticated users away from /login before
// these handlers run.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	renderer       *view.Renderer
	sessionManager *shared.SessionManager
	audit          *shared.AuditLogger
	validator      *validator.Validate
	defaultLanding string
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, renderer *view.Renderer, sessions *shared.SessionManager, audit *shared.AuditLogger, defaultLanding string) *Handler {
	if defaultLanding == "" {
		defaultLanding = "/dashboard"
	}
	return &Handler{
		logger:         logger,
		service:        service,
		renderer:       renderer,
		sessionManager: sessions,
		audit:          audit,
		validator:      validator.New(),
		defaultLanding: defaultLanding,
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

type loginPageData struct {
	Form   loginForm
	Next   string
	Errors map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	data := loginPageData{Next: sanitizeNext(r.URL.Query().Get("next")), Errors: map[string]string{}}
	h.renderer.Page(w, r, "pages/login.html", "login", data, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	next := sanitizeNext(r.PostFormValue("next"))

	form := loginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	formErrs := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				formErrs[fe.Field()] = fe.Error()
			}
		}
	}

	if len(formErrs) == 0 {
		creds, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
		if err != nil {
			formErrs["general"] = shared.UserSafeMessage(shared.ErrInvalidCredentials)
		} else {
			if sess == nil {
				h.logger.Error("session missing during login")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			sess.SetUser(creds.UserID)
			sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Welcome back"})
			expiresAt := time.Now().Add(h.sessionManager.TTL())
			if err := h.service.RegisterSession(r.Context(), sess.ID, creds.UserID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
				h.logger.Warn("register session", slog.Any("error", err))
			}
			h.recordAudit(r, creds.UserID, "auth.login")
			target := h.defaultLanding
			if next != "" {
				target = next
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
	}

	form.Password = ""
	data := loginPageData{Form: form, Next: next, Errors: formErrs}
	h.renderer.Page(w, r, "pages/login.html", "login", data, http.StatusBadRequest)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if userID := sess.User(); userID != "" {
			h.recordAudit(r, userID, "auth.logout")
		}
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) recordAudit(r *http.Request, userID, action string) {
	if h.audit == nil {
		return
	}
	if err := h.audit.Record(r.Context(), shared.AuditLog{ActorID: userID, Action: action, Entity: "session", EntityID: userID}); err != nil {
		h.logger.Warn("audit record", slog.Any("error", err))
	}
}

// sanitizeNext keeps return targets on-site. Absolute URLs and
// protocol-relative paths are discarded.
func sanitizeNext(next string) string {
	return shared.LocalPath(next, "")
}

// ShowLoginForTest exposes the GET handler for tests.
func (h *Handler) ShowLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.showLogin(w, r)
}

// HandleLoginForTest exposes the POST handler for tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}
