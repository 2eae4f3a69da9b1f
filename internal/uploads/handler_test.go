package uploads_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvdesk/cvdesk/internal/authz"
	"github.com/cvdesk/cvdesk/internal/shared"
	"github.com/cvdesk/cvdesk/internal/uploads"
)

type fakeAttacher struct {
	attached  map[string][]string
	detached  map[string][]string
	attachErr error
}

func newFakeAttacher() *fakeAttacher {
	return &fakeAttacher{
		attached: map[string][]string{},
		detached: map[string][]string{},
	}
}

func (f *fakeAttacher) AttachFile(_ context.Context, _ *authz.Principal, taskID, key string) error {
	f.attached[taskID] = append(f.attached[taskID], key)
	return f.attachErr
}

func (f *fakeAttacher) DetachFile(_ context.Context, _ *authz.Principal, taskID, key string) error {
	f.detached[taskID] = append(f.detached[taskID], key)
	return nil
}

func uploadRouter(t *testing.T, attacher uploads.Attacher) (chi.Router, *uploads.Store) {
	t.Helper()

	store, err := uploads.NewStore(t.TempDir())
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	r.Route("/uploads", uploads.NewHandler(logger, store, attacher).MountRoutes)
	return r, store
}

func multipartUpload(t *testing.T, taskID, filename string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("task_id", taskID))
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/uploads", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func asPrincipal(r *http.Request, id string) *http.Request {
	p := &authz.Principal{ID: id, Role: authz.RoleDesigner}
	return r.WithContext(authz.ContextWithPrincipal(r.Context(), p))
}

func TestUploadAttachesFileToTask(t *testing.T) {
	attacher := newFakeAttacher()
	router, store := uploadRouter(t, attacher)

	req := asPrincipal(multipartUpload(t, "t1", "huda-cv.pdf", []byte("%PDF")), "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/tasks/t1", rec.Header().Get("Location"))

	require.Len(t, attacher.attached["t1"], 1)
	key := attacher.attached["t1"][0]
	assert.True(t, strings.HasPrefix(key, "u1/"))

	f, err := store.Open(key)
	require.NoError(t, err)
	f.Close()
}

func TestUploadWithoutPrincipalIsForbidden(t *testing.T) {
	router, _ := uploadRouter(t, newFakeAttacher())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartUpload(t, "t1", "cv.pdf", []byte("x")))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUploadWithoutTaskIsRejected(t *testing.T) {
	router, _ := uploadRouter(t, newFakeAttacher())

	req := asPrincipal(multipartUpload(t, "", "cv.pdf", []byte("x")), "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRemovesFileWhenAttachFails(t *testing.T) {
	attacher := newFakeAttacher()
	attacher.attachErr = shared.ErrNotFound
	router, store := uploadRouter(t, attacher)

	req := asPrincipal(multipartUpload(t, "gone", "cv.pdf", []byte("x")), "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Len(t, attacher.attached["gone"], 1)
	_, err := store.Open(attacher.attached["gone"][0])
	assert.Error(t, err, "failed attach should not leave the file behind")
}

func TestRemoveDetachesFileFromTask(t *testing.T) {
	attacher := newFakeAttacher()
	router, store := uploadRouter(t, attacher)

	key, err := store.Save("u1", fileHeader(t, "cv.pdf", []byte("x")))
	require.NoError(t, err)

	form := url.Values{"task_id": {"t1"}}
	req := httptest.NewRequest(http.MethodPost, "/uploads/"+key+"/delete", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = asPrincipal(req, "u1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/tasks/t1", rec.Header().Get("Location"))
	assert.Equal(t, []string{key}, attacher.detached["t1"])

	_, err = store.Open(key)
	assert.Error(t, err)
}

func TestRemoveIgnoresOffSiteReferer(t *testing.T) {
	attacher := newFakeAttacher()
	router, store := uploadRouter(t, attacher)

	key, err := store.Save("u1", fileHeader(t, "cv.pdf", []byte("x")))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/uploads/"+key+"/delete", nil)
	req.Header.Set("Referer", "https://evil.example/phish")
	req = asPrincipal(req, "u1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/tasks", rec.Header().Get("Location"))
}
