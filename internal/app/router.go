package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/cvdesk/cvdesk/internal/accounts"
	"github.com/cvdesk/cvdesk/internal/auth"
	"github.com/cvdesk/cvdesk/internal/authz"
	"github.com/cvdesk/cvdesk/internal/dashboard"
	"github.com/cvdesk/cvdesk/internal/i18n"
	"github.com/cvdesk/cvdesk/internal/observability"
	"github.com/cvdesk/cvdesk/internal/shared"
	"github.com/cvdesk/cvdesk/internal/tasks"
	"github.com/cvdesk/cvdesk/internal/uploads"
	"github.com/cvdesk/cvdesk/internal/users"
	"github.com/cvdesk/cvdesk/internal/view"
	"github.com/cvdesk/cvdesk/jobs"
	"github.com/cvdesk/cvdesk/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Renderer       *view.Renderer
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthzMW        authz.Middleware

	AuthHandler      *auth.Handler
	DashboardHandler *dashboard.Handler
	TasksHandler     *tasks.Handler
	AccountsHandler  *accounts.Handler
	UsersHandler     *users.Handler
	UploadsHandler   *uploads.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Get("/lang", i18n.SwitchHandler)

	// Every page below passes through the routing guard. Public pages
	// are allowed straight through; everything else needs a resolved
	// principal, and admin prefixes need the matching capability.
	r.Group(func(r chi.Router) {
		r.Use(params.AuthzMW.Handler)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess != nil && sess.User() != "" {
				http.Redirect(w, r, params.AuthzMW.Guard.DefaultLanding(), http.StatusSeeOther)
				return
			}
			params.Renderer.Page(w, r, "pages/landing.html", "appName", nil, http.StatusOK)
		})

		r.Get("/unauthorized", func(w http.ResponseWriter, r *http.Request) {
			params.Renderer.Page(w, r, "pages/unauthorized.html", "accessDenied", nil, http.StatusForbidden)
		})

		params.AuthHandler.MountRoutes(r)

		r.Route("/dashboard", params.DashboardHandler.MountRoutes)
		r.Route("/tasks", params.TasksHandler.MountMyRoutes)
		r.Route("/all-tasks", params.TasksHandler.MountAllRoutes)
		r.Route("/accounts", params.AccountsHandler.MountRoutes)
		r.Route("/users", params.UsersHandler.MountAdminRoutes)
		r.Route("/profile", params.UsersHandler.MountProfileRoutes)
		r.Route("/uploads", params.UploadsHandler.MountRoutes)
	})

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
