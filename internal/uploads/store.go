package uploads

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// MaxFileSize caps attachment uploads at 10 MiB.
const MaxFileSize = 10 << 20

var (
	// ErrTooLarge is returned when a file exceeds MaxFileSize.
	ErrTooLarge = errors.New("uploads: file too large")
	// ErrBadExtension is returned for disallowed file types.
	ErrBadExtension = errors.New("uploads: file type not allowed")
	// ErrNotOwner is returned when a delete targets another user's file.
	ErrNotOwner = errors.New("uploads: not the file owner")
)

var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".webp": {},
	".doc":  {},
	".docx": {},
}

// Store keeps attachments on local disk under root, one directory per
// uploading user. Stored names are opaque so two uploads never collide.
type Store struct {
	root string
}

// NewStore creates the root directory if needed and returns a Store.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("uploads: create root: %w", err)
	}
	return &Store{root: root}, nil
}

// Save streams the uploaded file to disk and returns its relative key,
// userID/timestamp-random.ext. The caller records the key on the task.
func (s *Store) Save(userID string, header *multipart.FileHeader) (string, error) {
	if header.Size > MaxFileSize {
		return "", ErrTooLarge
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", ErrBadExtension
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("uploads: open upload: %w", err)
	}
	defer src.Close()

	key := path.Join(userID, fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), randomSuffix(), ext))
	dst := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("uploads: create user dir: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("uploads: create file: %w", err)
	}
	defer out.Close()

	// The size header is client supplied, so enforce the cap on the
	// actual bytes as well.
	n, err := io.Copy(out, io.LimitReader(src, MaxFileSize+1))
	if err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("uploads: write file: %w", err)
	}
	if n > MaxFileSize {
		os.Remove(dst)
		return "", ErrTooLarge
	}
	return key, nil
}

// Open returns the stored file for serving. The key must resolve inside
// the store root.
func (s *Store) Open(key string) (*os.File, error) {
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// Delete removes a file. Only the owner may delete; ownership is the
// leading path segment of the key.
func (s *Store) Delete(userID, key string) error {
	owner, _, found := strings.Cut(key, "/")
	if !found || owner != userID {
		return ErrNotOwner
	}
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	return os.Remove(full)
}

// resolve joins key under root and rejects traversal outside it.
func (s *Store) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	full := filepath.Join(s.root, filepath.FromSlash(clean))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("uploads: invalid key %q", key)
	}
	return full, nil
}

func randomSuffix() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
