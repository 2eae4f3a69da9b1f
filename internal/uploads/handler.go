package uploads

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cvdesk/cvdesk/internal/authz"
	"github.com/cvdesk/cvdesk/internal/shared"
)

// Attacher links stored files to the record they belong to. The tasks
// service implements it; the indirection keeps this package free of task
// semantics.
type Attacher interface {
	AttachFile(ctx context.Context, principal *authz.Principal, taskID, key string) error
	DetachFile(ctx context.Context, principal *authz.Principal, taskID, key string) error
}

// Handler serves, accepts and deletes stored attachments. The mount
// point sits behind the authenticated class, so every caller has a
// principal.
type Handler struct {
	logger   *slog.Logger
	store    *Store
	attacher Attacher
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, store *Store, attacher Attacher) *Handler {
	return &Handler{logger: logger, store: store, attacher: attacher}
}

// MountRoutes registers upload routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.upload)
	r.Get("/{owner}/{name}", h.serve)
	r.Post("/{owner}/{name}/delete", h.remove)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	if principal == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	if err := r.ParseMultipartForm(MaxFileSize + 1<<20); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	taskID := r.PostFormValue("task_id")
	files := r.MultipartForm.File["file"]
	if taskID == "" || len(files) == 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	key, err := h.store.Save(principal.ID, files[0])
	if err != nil {
		switch {
		case errors.Is(err, ErrTooLarge), errors.Is(err, ErrBadExtension):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("save upload", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	if err := h.attacher.AttachFile(r.Context(), principal, taskID, key); err != nil {
		// The file has no record to hang off; do not leave it behind.
		if delErr := h.store.Delete(principal.ID, key); delErr != nil {
			h.logger.Warn("cleanup orphaned upload", slog.String("key", key), slog.Any("error", delErr))
		}
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	http.Redirect(w, r, "/tasks/"+taskID, http.StatusSeeOther)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name")
	file, err := h.store.Open(key)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer file.Close()
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := io.Copy(w, file); err != nil {
		h.logger.Warn("serve upload", slog.String("key", key), slog.Any("error", err))
	}
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	if principal == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	key := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name")
	if err := h.store.Delete(principal.ID, key); err != nil {
		if errors.Is(err, ErrNotOwner) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		h.logger.Warn("delete upload", slog.String("key", key), slog.Any("error", err))
		http.NotFound(w, r)
		return
	}
	back := "/tasks"
	if taskID := r.PostFormValue("task_id"); taskID != "" {
		if err := h.attacher.DetachFile(r.Context(), principal, taskID, key); err != nil {
			h.logger.Warn("detach upload", slog.String("key", key), slog.Any("error", err))
		}
		back = "/tasks/" + taskID
	}
	http.Redirect(w, r, shared.LocalPath(r.Referer(), back), http.StatusSeeOther)
}
