package tasks

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/cvdesk/cvdesk/internal/authz"
	"github.com/cvdesk/cvdesk/internal/shared"
	"github.com/cvdesk/cvdesk/internal/view"
)

// Handler serves the task pages: my-tasks, all-tasks, detail, create and
// the CSV export.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	renderer  *view.Renderer
	guard     *authz.Guard
	audit     *shared.AuditLogger
	authzMW   authz.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, renderer *view.Renderer, guard *authz.Guard, authzMW authz.Middleware, audit *shared.AuditLogger) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		renderer:  renderer,
		guard:     guard,
		audit:     audit,
		authzMW:   authzMW,
		validator: validator.New(),
	}
}

// MountMyRoutes registers the assignment-scoped routes under /tasks.
func (h *Handler) MountMyRoutes(r chi.Router) {
	r.Get("/", h.listMine)
	r.Group(func(r chi.Router) {
		r.Use(h.authzMW.RequireCapability(authz.CapEditAll))
		r.Get("/new", h.showCreateForm)
		r.Post("/", h.create)
	})
	r.Get("/{id}", h.showDetail)
	r.Post("/{id}", h.update)
}

// MountAllRoutes registers the cross-team routes under /all-tasks. The
// routing guard already requires view_all here.
func (h *Handler) MountAllRoutes(r chi.Router) {
	r.Get("/", h.listAll)
	r.Get("/export", h.exportCSV)
	r.Group(func(r chi.Router) {
		r.Use(h.authzMW.RequireCapability(authz.CapEditAll))
		r.Post("/{id}/delete", h.delete)
	})
}

// allTasksPerPage bounds the team-wide listing to one screenful.
const allTasksPerPage = 25

type taskForm struct {
	ClientName string `validate:"required,min=2,max=200"`
	Status     string `validate:"omitempty,oneof=pending in_progress in_review completed"`
	Payment    string `validate:"omitempty,oneof=paid pending unpaid"`
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	if principal == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	filter := filterFromQuery(r)
	list, err := h.service.ListMine(r.Context(), principal, filter)
	if err != nil {
		h.logger.Error("list my tasks", slog.Any("error", err))
		h.renderer.Page(w, r, "pages/tasks.html", "myTasks", map[string]any{"Errors": map[string]string{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.renderer.Page(w, r, "pages/tasks.html", "myTasks", map[string]any{
		"Tasks":  list,
		"Filter": filter,
	}, http.StatusOK)
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)
	list, err := h.service.ListAll(r.Context(), filter)
	if err != nil {
		h.logger.Error("list all tasks", slog.Any("error", err))
		h.renderer.Page(w, r, "pages/all_tasks.html", "allTasks", map[string]any{"Errors": map[string]string{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	page := shared.NewPagination(atoiDefault(r.URL.Query().Get("page")), allTasksPerPage, len(list))
	start := min(page.Offset(), len(list))
	end := min(start+page.PerPage, len(list))
	h.renderer.Page(w, r, "pages/all_tasks.html", "allTasks", map[string]any{
		"Tasks":      list[start:end],
		"Filter":     filter,
		"Designers":  Designers(list),
		"Pagination": page,
	}, http.StatusOK)
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListAll(r.Context(), filterFromQuery(r))
	if err != nil {
		h.logger.Error("export tasks", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="tasks-export.csv"`)
	if err := h.service.ExportCSV(w, list); err != nil {
		h.logger.Error("write csv", slog.Any("error", err))
	}
}

func (h *Handler) showDetail(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	task, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.notFoundOrError(w, r, err)
		return
	}
	h.renderer.Page(w, r, "pages/task_detail.html", "myTasks", map[string]any{
		"Task":     task,
		"CanEdit":  h.service.CanEdit(principal, task),
		"FullEdit": h.guard.Can(principal, authz.CapEditAll),
	}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Page(w, r, "pages/task_form.html", "newTask", map[string]any{"Errors": map[string]string{}}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := editFormFromRequest(r)
	if errs := h.validateForm(form); len(errs) > 0 {
		h.renderer.Page(w, r, "pages/task_form.html", "newTask", map[string]any{"Form": form, "Errors": errs}, http.StatusBadRequest)
		return
	}
	task, err := h.service.Create(r.Context(), form)
	if err != nil {
		h.logger.Error("create task", slog.Any("error", err))
		h.renderer.Page(w, r, "pages/task_form.html", "newTask", map[string]any{"Form": form, "Errors": map[string]string{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.recordAudit(r, "task.created", task.ID, map[string]any{"client": task.ClientName})
	h.renderer.RedirectWithFlash(w, r, "/tasks/"+task.ID, "success", "Task created")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	task, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.notFoundOrError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := editFormFromRequest(r)
	if err := h.service.ApplyEdit(r.Context(), principal, task, form); err != nil {
		if errors.Is(err, ErrNotEditable) {
			http.Redirect(w, r, h.guard.UnauthorizedPath(), http.StatusSeeOther)
			return
		}
		h.logger.Error("update task", slog.String("task_id", task.ID), slog.Any("error", err))
		h.renderer.RedirectWithFlash(w, r, "/tasks/"+task.ID, "error", shared.UserSafeMessage(err))
		return
	}
	h.recordAudit(r, "task.updated", task.ID, nil)
	h.renderer.RedirectWithFlash(w, r, "/tasks/"+task.ID, "success", "Task updated")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete task", slog.String("task_id", id), slog.Any("error", err))
		h.renderer.RedirectWithFlash(w, r, "/all-tasks", "error", shared.UserSafeMessage(err))
		return
	}
	h.recordAudit(r, "task.deleted", id, nil)
	h.renderer.RedirectWithFlash(w, r, "/all-tasks", "success", "Task deleted")
}

func (h *Handler) validateForm(form EditForm) map[string]string {
	errs := make(map[string]string)
	checked := taskForm{ClientName: form.ClientName, Status: form.Status, Payment: form.PaymentStatus}
	if err := h.validator.Struct(checked); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs[fe.Field()] = fe.Error()
			}
		}
	}
	return errs
}

func (h *Handler) notFoundOrError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	h.logger.Error("load task", slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) recordAudit(r *http.Request, action, entityID string, meta map[string]any) {
	if h.audit == nil {
		return
	}
	actorID := ""
	if principal := authz.PrincipalFromContext(r.Context()); principal != nil {
		actorID = principal.ID
	}
	if err := h.audit.Record(r.Context(), shared.AuditLog{ActorID: actorID, Action: action, Entity: "task", EntityID: entityID, Meta: meta}); err != nil {
		h.logger.Warn("audit record", slog.Any("error", err))
	}
}

func editFormFromRequest(r *http.Request) EditForm {
	services := r.PostForm["required_services"]
	if len(services) == 1 && strings.Contains(services[0], ",") {
		services = strings.Split(services[0], ",")
		for i := range services {
			services[i] = strings.TrimSpace(services[i])
		}
	}
	return EditForm{
		ClientName:       r.PostFormValue("client_name"),
		Birthdate:        r.PostFormValue("birthdate"),
		ContactInfo:      r.PostFormValue("contact_info"),
		Address:          r.PostFormValue("address"),
		JobTitle:         r.PostFormValue("job_title"),
		Education:        r.PostFormValue("education"),
		ExperienceYears:  atoiDefault(r.PostFormValue("experience_years")),
		Skills:           r.PostFormValue("skills"),
		RequiredServices: services,
		DesignerNotes:    r.PostFormValue("designer_notes"),
		ReviewerNotes:    r.PostFormValue("reviewer_notes"),
		PaymentStatus:    r.PostFormValue("payment_status"),
		Status:           r.PostFormValue("status"),
		AssignedDesigner: r.PostFormValue("assigned_designer"),
		AssignedReviewer: r.PostFormValue("assigned_reviewer"),
		DesignerRating:   atoiDefault(r.PostFormValue("designer_rating")),
		ReviewerRating:   atoiDefault(r.PostFormValue("reviewer_rating")),
		DesignerFeedback: r.PostFormValue("designer_feedback"),
		ReviewerFeedback: r.PostFormValue("reviewer_feedback"),
	}
}

func filterFromQuery(r *http.Request) Filter {
	status := r.URL.Query().Get("status")
	if !ValidStatus(status) {
		status = ""
	}
	return Filter{
		Search:     strings.TrimSpace(r.URL.Query().Get("q")),
		Status:     status,
		DesignerID: r.URL.Query().Get("designer"),
	}
}

func atoiDefault(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
