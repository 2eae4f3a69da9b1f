package auth_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cvdesk/cvdesk/internal/auth"
	"github.com/cvdesk/cvdesk/internal/authz"
	"github.com/cvdesk/cvdesk/internal/shared"
	"github.com/cvdesk/cvdesk/internal/view"
	_ "github.com/cvdesk/cvdesk/testing"
)

type stubRepo struct {
	creds *auth.Credentials
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.Credentials, error) {
	if s.creds == nil || s.creds.Email != email {
		return nil, shared.ErrInvalidCredentials
	}
	return s.creds, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

func newAuthHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(client, "test_session", time.Hour, false)

	templates, err := view.NewEngine()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	renderer := &view.Renderer{
		Logger:    logger,
		Templates: templates,
		CSRF:      shared.NewCSRFManager("csrfsecret"),
		Guard: authz.NewGuard(authz.GuardConfig{
			Table:      authz.DefaultRoleTable(),
			Classifier: authz.NewClassifier(authz.DefaultRules()),
			Resolver:   authz.NewResolver(nil, nil),
		}),
	}
	handler := auth.NewHandler(logger, auth.NewService(repo), renderer, sessionManager, nil, "")
	return handler, sessionManager
}

func withSession(t *testing.T, manager *shared.SessionManager, req *http.Request) (*http.Request, *shared.Session) {
	t.Helper()
	sess, err := manager.Load(context.Background(), req)
	require.NoError(t, err)
	return req.WithContext(shared.ContextWithSession(req.Context(), sess)), sess
}

func TestLoginPage(t *testing.T) {
	handler, manager := newAuthHandler(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req, _ = withSession(t, manager, req)
	res := httptest.NewRecorder()

	handler.ShowLoginForTest(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "<form")
	assert.Contains(t, res.Body.String(), `name="email"`)
}

func TestLoginSuccessRedirects(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	handler, manager := newAuthHandler(t, &stubRepo{creds: &auth.Credentials{
		UserID:       "u1",
		Email:        "user@test.local",
		PasswordHash: string(hashed),
		IsActive:     true,
	}})

	form := url.Values{}
	form.Set("email", "user@test.local")
	form.Set("password", "correct-horse")

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req, sess := withSession(t, manager, req)
	res := httptest.NewRecorder()

	handler.HandleLoginForTest(res, req)

	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/dashboard", res.Header().Get("Location"))
	assert.Equal(t, "u1", sess.User())
}

func TestLoginHonoursNextTarget(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	handler, manager := newAuthHandler(t, &stubRepo{creds: &auth.Credentials{
		UserID:       "u1",
		Email:        "user@test.local",
		PasswordHash: string(hashed),
		IsActive:     true,
	}})

	cases := []struct {
		next string
		want string
	}{
		{"/tasks/42", "/tasks/42"},
		// Off-site and malformed targets fall back to the landing page.
		{"https://evil.example/", "/dashboard"},
		{"//evil.example", "/dashboard"},
		{"relative/path", "/dashboard"},
	}
	for _, tc := range cases {
		form := url.Values{}
		form.Set("email", "user@test.local")
		form.Set("password", "correct-horse")
		form.Set("next", tc.next)

		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req, _ = withSession(t, manager, req)
		res := httptest.NewRecorder()

		handler.HandleLoginForTest(res, req)

		assert.Equal(t, http.StatusSeeOther, res.Code, "next=%q", tc.next)
		assert.Equal(t, tc.want, res.Header().Get("Location"), "next=%q", tc.next)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	handler, manager := newAuthHandler(t, &stubRepo{creds: &auth.Credentials{
		UserID:       "u1",
		Email:        "user@test.local",
		PasswordHash: string(hashed),
		IsActive:     true,
	}})

	form := url.Values{}
	form.Set("email", "user@test.local")
	form.Set("password", "wrong-password")

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req, sess := withSession(t, manager, req)
	res := httptest.NewRecorder()

	handler.HandleLoginForTest(res, req)

	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Empty(t, sess.User())
}

func TestLoginInactiveAccount(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	handler, manager := newAuthHandler(t, &stubRepo{creds: &auth.Credentials{
		UserID:       "u1",
		Email:        "user@test.local",
		PasswordHash: string(hashed),
		IsActive:     false,
	}})

	form := url.Values{}
	form.Set("email", "user@test.local")
	form.Set("password", "correct-horse")

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req, sess := withSession(t, manager, req)
	res := httptest.NewRecorder()

	handler.HandleLoginForTest(res, req)

	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Empty(t, sess.User())
}
