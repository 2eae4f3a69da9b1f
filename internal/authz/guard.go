package authz

import (
	"context"
	"net/url"
	"strings"
)

// Decision is the outcome of an authorization check. It is binary: a
// denied decision always carries a redirect target.
type Decision struct {
	Allow          bool
	RedirectTarget string
}

// GuardConfig collects the surfaces the guard redirects to.
type GuardConfig struct {
	Table      *RoleTable
	Classifier *Classifier
	Resolver   *Resolver

	LoginPath        string
	UnauthorizedPath string
	DefaultLanding   string
}

// Guard evaluates incoming requests against the route table and role
// grants. It is the authoritative check at the routing boundary; any
// in-template capability check is advisory only.
type Guard struct {
	table      *RoleTable
	classifier *Classifier
	resolver   *Resolver

	loginPath        string
	unauthorizedPath string
	defaultLanding   string
}

// NewGuard constructs a Guard. Zero-value paths fall back to the
// application defaults.
func NewGuard(cfg GuardConfig) *Guard {
	g := &Guard{
		table:            cfg.Table,
		classifier:       cfg.Classifier,
		resolver:         cfg.Resolver,
		loginPath:        cfg.LoginPath,
		unauthorizedPath: cfg.UnauthorizedPath,
		defaultLanding:   cfg.DefaultLanding,
	}
	if g.loginPath == "" {
		g.loginPath = "/login"
	}
	if g.unauthorizedPath == "" {
		g.unauthorizedPath = "/unauthorized"
	}
	if g.defaultLanding == "" {
		g.defaultLanding = "/dashboard"
	}
	return g
}

// Authorize decides whether a request for path with the given session
// evidence may proceed. It is a total function: every input ends in a
// decision, never a panic or an error.
func (g *Guard) Authorize(ctx context.Context, path, evidence string) Decision {
	decision, _ := g.authorize(ctx, path, evidence)
	return decision
}

// authorize additionally returns the resolved principal so the HTTP
// middleware can attach it to the request context without a second
// identity lookup.
func (g *Guard) authorize(ctx context.Context, path, evidence string) (Decision, *Principal) {
	rule := g.classifier.Classify(path)

	// A signed-in user never re-enters the sign-in flow.
	if g.isLoginSurface(path) {
		if principal := g.resolver.Resolve(ctx, evidence); principal != nil {
			return Decision{RedirectTarget: g.defaultLanding}, principal
		}
		return Decision{Allow: true}, nil
	}

	if rule.Class == ClassPublic {
		// The principal is irrelevant; skip resolution entirely.
		return Decision{Allow: true}, nil
	}

	principal := g.resolver.Resolve(ctx, evidence)
	if principal == nil {
		return Decision{RedirectTarget: g.loginRedirect(path)}, nil
	}

	if rule.Class == ClassAdminOnly && !g.table.HasCapability(principal.Role, rule.Capability) {
		return Decision{RedirectTarget: g.unauthorizedPath}, principal
	}
	return Decision{Allow: true}, principal
}

// Can reports whether the principal's role grants the capability. It
// consults the same table as Authorize, so navigation and button
// affordances can never drift from what the router enforces.
func (g *Guard) Can(principal *Principal, capability Capability) bool {
	if g == nil || principal == nil {
		return false
	}
	return g.table.HasCapability(principal.Role, capability)
}

// LoginPath returns the configured sign-in surface.
func (g *Guard) LoginPath() string { return g.loginPath }

// DefaultLanding returns the post-login landing page.
func (g *Guard) DefaultLanding() string { return g.defaultLanding }

// UnauthorizedPath returns the "you may not do this" surface, distinct
// from the login surface.
func (g *Guard) UnauthorizedPath() string { return g.unauthorizedPath }

func (g *Guard) isLoginSurface(path string) bool {
	return path == g.loginPath || strings.HasPrefix(path, g.loginPath+"/")
}

func (g *Guard) loginRedirect(requested string) string {
	if requested == "" || requested == "/" {
		return g.loginPath
	}
	return g.loginPath + "?next=" + url.QueryEscape(requested)
}
