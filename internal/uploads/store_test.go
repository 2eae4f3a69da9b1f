package uploads_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvdesk/cvdesk/internal/uploads"
	_ "github.com/cvdesk/cvdesk/internal/testing/guard"
)

// fileHeader builds a real multipart.FileHeader the way the HTTP layer
// would hand it to the store.
func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r := httptest.NewRequest(http.MethodPost, "/", &buf)
	r.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, r.ParseMultipartForm(32<<20))
	return r.MultipartForm.File["file"][0]
}

func TestSaveAndOpen(t *testing.T) {
	store, err := uploads.NewStore(t.TempDir())
	require.NoError(t, err)

	key, err := store.Save("u1", fileHeader(t, "Huda CV.pdf", []byte("%PDF-1.7 fake")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "u1/"), "key %q should live under the owner", key)
	assert.True(t, strings.HasSuffix(key, ".pdf"))

	f, err := store.Open(key)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 fake", string(data))
}

func TestSaveKeysNeverCollide(t *testing.T) {
	store, err := uploads.NewStore(t.TempDir())
	require.NoError(t, err)

	first, err := store.Save("u1", fileHeader(t, "cv.pdf", []byte("a")))
	require.NoError(t, err)
	second, err := store.Save("u1", fileHeader(t, "cv.pdf", []byte("b")))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestSaveRejectsBadExtension(t *testing.T) {
	store, err := uploads.NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("u1", fileHeader(t, "payload.exe", []byte("MZ")))
	assert.ErrorIs(t, err, uploads.ErrBadExtension)

	_, err = store.Save("u1", fileHeader(t, "noextension", []byte("x")))
	assert.ErrorIs(t, err, uploads.ErrBadExtension)
}

func TestSaveRejectsOversizedFile(t *testing.T) {
	store, err := uploads.NewStore(t.TempDir())
	require.NoError(t, err)

	// The declared size is client supplied and checked first.
	header := &multipart.FileHeader{Filename: "big.pdf", Size: uploads.MaxFileSize + 1}
	_, err = store.Save("u1", header)
	assert.ErrorIs(t, err, uploads.ErrTooLarge)
}

func TestDeleteEnforcesOwnership(t *testing.T) {
	store, err := uploads.NewStore(t.TempDir())
	require.NoError(t, err)

	key, err := store.Save("u1", fileHeader(t, "cv.pdf", []byte("x")))
	require.NoError(t, err)

	assert.ErrorIs(t, store.Delete("u2", key), uploads.ErrNotOwner)
	assert.ErrorIs(t, store.Delete("u1", "orphan-key"), uploads.ErrNotOwner)

	require.NoError(t, store.Delete("u1", key))
	_, err = store.Open(key)
	assert.Error(t, err, "deleted file should be gone")
}

func TestOpenRejectsTraversal(t *testing.T) {
	store, err := uploads.NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open("../../etc/passwd")
	assert.Error(t, err)

	err = store.Delete("u1", "u1/../../../etc/passwd")
	assert.Error(t, err)
}
