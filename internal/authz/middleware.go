package authz

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cvdesk/cvdesk/internal/shared"
)

type principalContextKey struct{}

// ContextWithPrincipal stores the resolved principal in the context. The
// principal travels with the request explicitly; there is no ambient
// current-user global.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal, or nil when the request is
// unauthenticated or the route was public.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}

// Middleware enforces the guard at the routing boundary.
type Middleware struct {
	Guard  *Guard
	Logger *slog.Logger
	// Observe, when set, records each decision for metrics.
	Observe func(class Class, allowed bool)
}

// Handler runs Authorize once per request before any page logic. Denied
// requests are redirected; allowed requests continue with the principal
// attached to the context.
func (m Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		evidence := ""
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			evidence = sess.User()
		}
		rule := m.Guard.classifier.Classify(r.URL.Path)
		decision, principal := m.Guard.authorize(r.Context(), r.URL.Path, evidence)
		if m.Observe != nil {
			m.Observe(rule.Class, decision.Allow)
		}
		if !decision.Allow {
			if m.Logger != nil {
				m.Logger.Info("request denied",
					slog.String("path", r.URL.Path),
					slog.String("class", rule.Class.String()),
					slog.String("redirect", decision.RedirectTarget),
				)
			}
			http.Redirect(w, r, decision.RedirectTarget, http.StatusSeeOther)
			return
		}
		if principal != nil {
			r = r.WithContext(ContextWithPrincipal(r.Context(), principal))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCapability guards a route group on a capability beyond its
// protection class, e.g. mutations under an admin-only listing. The
// routing guard has already resolved the principal; a missing one means
// the group was mounted under a public route by mistake, which denies.
func (m Middleware) RequireCapability(capability Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if principal == nil {
				http.Redirect(w, r, m.Guard.loginRedirect(r.URL.Path), http.StatusSeeOther)
				return
			}
			if !m.Guard.Can(principal, capability) {
				http.Redirect(w, r, m.Guard.UnauthorizedPath(), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
