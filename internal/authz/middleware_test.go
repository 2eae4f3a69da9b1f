package authz_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvdesk/cvdesk/internal/authz"
	"github.com/cvdesk/cvdesk/internal/shared"
)

func sessionWithUser(t *testing.T, userID string) *shared.Session {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	manager := shared.NewSessionManager(client, "test_session", time.Hour, false)
	sess, err := manager.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	if userID != "" {
		sess.SetUser(userID)
	}
	return sess
}

func TestMiddlewareAttachesPrincipal(t *testing.T) {
	mw := authz.Middleware{Guard: newGuard(testStore())}

	var seen *authz.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = authz.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	sess := sessionWithUser(t, "sess-admin")
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	res := httptest.NewRecorder()

	mw.Handler(next).ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "u1", seen.ID)
	assert.Equal(t, authz.RoleAdmin, seen.Role)
}

func TestMiddlewareRedirectsUnauthenticated(t *testing.T) {
	observed := make(map[string]bool)
	mw := authz.Middleware{
		Guard: newGuard(testStore()),
		Observe: func(class authz.Class, allowed bool) {
			observed[class.String()] = allowed
		},
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for denied requests")
	})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	res := httptest.NewRecorder()

	mw.Handler(next).ServeHTTP(res, req)

	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/login?next=%2Fdashboard", res.Header().Get("Location"))
	allowed, ok := observed["authenticated"]
	assert.True(t, ok)
	assert.False(t, allowed)
}

func TestRequireCapability(t *testing.T) {
	mw := authz.Middleware{Guard: newGuard(testStore())}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	protected := mw.RequireCapability(authz.CapEditAll)(next)

	// Principal with the capability passes through.
	req := httptest.NewRequest(http.MethodPost, "/all-tasks/1/delete", nil)
	ctx := authz.ContextWithPrincipal(req.Context(), &authz.Principal{ID: "u1", Role: authz.RoleAdmin})
	res := httptest.NewRecorder()
	protected.ServeHTTP(res, req.WithContext(ctx))
	assert.Equal(t, http.StatusNoContent, res.Code)

	// Principal without it is sent to the unauthorized page.
	req = httptest.NewRequest(http.MethodPost, "/all-tasks/1/delete", nil)
	ctx = authz.ContextWithPrincipal(req.Context(), &authz.Principal{ID: "u2", Role: authz.RoleReviewer})
	res = httptest.NewRecorder()
	protected.ServeHTTP(res, req.WithContext(ctx))
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/unauthorized", res.Header().Get("Location"))

	// No principal at all means back to sign in.
	req = httptest.NewRequest(http.MethodPost, "/all-tasks/1/delete", nil)
	res = httptest.NewRecorder()
	protected.ServeHTTP(res, req)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Contains(t, res.Header().Get("Location"), "/login")
}
