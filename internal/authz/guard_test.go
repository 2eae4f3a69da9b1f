package authz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cvdesk/cvdesk/internal/authz"
)

type stubStore struct {
	principals map[string]*authz.Principal
	err        error
}

func (s *stubStore) LookupBySession(ctx context.Context, evidence string) (*authz.Principal, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.principals[evidence], nil
}

func newGuard(store authz.IdentityStore) *authz.Guard {
	return authz.NewGuard(authz.GuardConfig{
		Table:      authz.DefaultRoleTable(),
		Classifier: authz.NewClassifier(authz.DefaultRules()),
		Resolver:   authz.NewResolver(store, nil),
	})
}

func testStore() *stubStore {
	return &stubStore{principals: map[string]*authz.Principal{
		"sess-admin":    {ID: "u1", DisplayName: "Admin", Role: authz.RoleAdmin},
		"sess-designer": {ID: "u2", DisplayName: "Designer", Role: authz.RoleDesigner},
		"sess-manager":  {ID: "u3", DisplayName: "Manager", Role: authz.RoleManager},
	}}
}

func TestAuthorizeScenarios(t *testing.T) {
	guard := newGuard(testStore())
	ctx := context.Background()

	cases := []struct {
		name         string
		path         string
		evidence     string
		wantAllow    bool
		wantRedirect string
	}{
		{"public no session", "/", "", true, ""},
		{"unauthorized page no session", "/unauthorized", "", true, ""},
		{"login page no session", "/login", "", true, ""},
		{"login page with session", "/login", "sess-designer", false, "/dashboard"},
		{"dashboard no session", "/dashboard", "", false, "/login?next=%2Fdashboard"},
		{"dashboard stale session", "/dashboard", "sess-gone", false, "/login?next=%2Fdashboard"},
		{"dashboard designer", "/dashboard", "sess-designer", true, ""},
		{"task detail no session", "/tasks/42", "", false, "/login?next=%2Ftasks%2F42"},
		{"task detail designer", "/tasks/42", "sess-designer", true, ""},
		{"all tasks designer", "/all-tasks", "sess-designer", false, "/unauthorized"},
		{"all tasks manager", "/all-tasks", "sess-manager", true, ""},
		{"accounts manager", "/accounts", "sess-manager", false, "/unauthorized"},
		{"accounts admin", "/accounts", "sess-admin", true, ""},
		{"users manager", "/users", "sess-manager", false, "/unauthorized"},
		{"users admin", "/users", "sess-admin", true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := guard.Authorize(ctx, tc.path, tc.evidence)
			assert.Equal(t, tc.wantAllow, decision.Allow)
			assert.Equal(t, tc.wantRedirect, decision.RedirectTarget)
		})
	}
}

func TestAuthorizeFailsClosedOnStoreError(t *testing.T) {
	guard := newGuard(&stubStore{err: errors.New("connection refused")})

	decision := guard.Authorize(context.Background(), "/dashboard", "sess-admin")
	assert.False(t, decision.Allow)
	assert.Equal(t, "/login?next=%2Fdashboard", decision.RedirectTarget)

	// Public routes never consult the store, so an outage cannot block them.
	decision = guard.Authorize(context.Background(), "/", "sess-admin")
	assert.True(t, decision.Allow)
}

func TestAuthorizeIsIdempotent(t *testing.T) {
	guard := newGuard(testStore())
	ctx := context.Background()

	first := guard.Authorize(ctx, "/all-tasks", "sess-designer")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, guard.Authorize(ctx, "/all-tasks", "sess-designer"))
	}
}

func TestAuthorizeLoginRedirectPreservesTarget(t *testing.T) {
	guard := newGuard(testStore())

	decision := guard.Authorize(context.Background(), "/tasks/42?tab=notes", "")
	assert.False(t, decision.Allow)
	assert.Equal(t, "/login?next="+"%2Ftasks%2F42%3Ftab%3Dnotes", decision.RedirectTarget)
}

func TestCan(t *testing.T) {
	guard := newGuard(testStore())

	admin := &authz.Principal{ID: "u1", Role: authz.RoleAdmin}
	designer := &authz.Principal{ID: "u2", Role: authz.RoleDesigner}

	assert.True(t, guard.Can(admin, authz.CapManageUsers))
	assert.False(t, guard.Can(designer, authz.CapEditAll))
	assert.False(t, guard.Can(nil, authz.CapViewAll))
}

func TestResolveFailClosed(t *testing.T) {
	store := testStore()
	resolver := authz.NewResolver(store, nil)
	ctx := context.Background()

	assert.Nil(t, resolver.Resolve(ctx, ""))
	assert.Nil(t, resolver.Resolve(ctx, "unknown"))
	assert.NotNil(t, resolver.Resolve(ctx, "sess-admin"))

	// A record with no ID never becomes a principal.
	store.principals["sess-broken"] = &authz.Principal{DisplayName: "Ghost"}
	assert.Nil(t, resolver.Resolve(ctx, "sess-broken"))

	var nilResolver *authz.Resolver
	assert.Nil(t, nilResolver.Resolve(ctx, "sess-admin"))
}
