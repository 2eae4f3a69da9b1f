package tasks

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/cvdesk/cvdesk/internal/authz"
)

// ErrNotEditable is returned when a principal may not edit a task.
var ErrNotEditable = errors.New("tasks: not editable by this user")

// RepositoryPort defines data access methods for tasks.
type RepositoryPort interface {
	Get(ctx context.Context, id string) (*Task, error)
	ListForAssignee(ctx context.Context, userID string, filter Filter) ([]Task, error)
	ListAll(ctx context.Context, filter Filter) ([]Task, error)
	Create(ctx context.Context, task *Task) (*Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id string) error
}

// Notifier announces assignment changes. The production implementation
// enqueues a background job; tests use a recording stub.
type Notifier interface {
	NotifyAssignment(ctx context.Context, taskID, assigneeID, role string) error
}

// Service handles task business logic.
type Service struct {
	repo     RepositoryPort
	table    *authz.RoleTable
	notifier Notifier
	logger   *slog.Logger
}

// NewService builds a Service instance. The notifier may be nil.
func NewService(repo RepositoryPort, table *authz.RoleTable, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, table: table, notifier: notifier, logger: logger}
}

// Get fetches one task.
func (s *Service) Get(ctx context.Context, id string) (*Task, error) {
	return s.repo.Get(ctx, id)
}

// ListMine returns the tasks assigned to the principal.
func (s *Service) ListMine(ctx context.Context, principal *authz.Principal, filter Filter) ([]Task, error) {
	return s.repo.ListForAssignee(ctx, principal.ID, filter)
}

// ListAll returns every task. The routing guard has already required
// view_all for the pages calling this.
func (s *Service) ListAll(ctx context.Context, filter Filter) ([]Task, error) {
	return s.repo.ListAll(ctx, filter)
}

// CanEdit reports whether the principal may edit the task at all: holders
// of edit_all may, as may the assigned designer and reviewer.
func (s *Service) CanEdit(principal *authz.Principal, task *Task) bool {
	if principal == nil || task == nil {
		return false
	}
	if s.table.HasCapability(principal.Role, authz.CapEditAll) {
		return true
	}
	switch principal.Role {
	case authz.RoleDesigner:
		return task.AssignedDesignerID == principal.ID
	case authz.RoleReviewer:
		return task.AssignedReviewerID == principal.ID
	}
	return false
}

// EditForm carries the mutable task fields from the detail page.
type EditForm struct {
	ClientName       string
	Birthdate        string
	ContactInfo      string
	Address          string
	JobTitle         string
	Education        string
	ExperienceYears  int
	Skills           string
	RequiredServices []string
	DesignerNotes    string
	ReviewerNotes    string
	PaymentStatus    string
	Status           string
	AssignedDesigner string
	AssignedReviewer string
	DesignerRating   int
	ReviewerRating   int
	DesignerFeedback string
	ReviewerFeedback string
}

// ApplyEdit merges the form into the task according to the principal's
// rights and saves it. Assignment changes trigger notifications.
// Field-level rules: the assigned designer edits designer notes and may
// move status forward; the assigned reviewer edits reviewer notes,
// feedback and ratings; edit_all edits everything including assignment
// and payment.
func (s *Service) ApplyEdit(ctx context.Context, principal *authz.Principal, task *Task, form EditForm) error {
	if !s.CanEdit(principal, task) {
		return ErrNotEditable
	}

	full := s.table.HasCapability(principal.Role, authz.CapEditAll)
	prevDesigner := task.AssignedDesignerID
	prevReviewer := task.AssignedReviewerID

	if full {
		task.ClientName = strings.TrimSpace(form.ClientName)
		if form.Birthdate != "" {
			if bd, err := time.Parse("2006-01-02", form.Birthdate); err == nil {
				task.Birthdate = bd
			}
		}
		task.ContactInfo = form.ContactInfo
		task.Address = form.Address
		task.JobTitle = form.JobTitle
		task.Education = form.Education
		task.ExperienceYears = form.ExperienceYears
		task.Skills = form.Skills
		task.RequiredServices = form.RequiredServices
		if ValidPaymentStatus(form.PaymentStatus) {
			task.PaymentStatus = form.PaymentStatus
		}
		task.AssignedDesignerID = form.AssignedDesigner
		task.AssignedReviewerID = form.AssignedReviewer
		task.DesignerRating = clampRating(form.DesignerRating)
		task.ReviewerRating = clampRating(form.ReviewerRating)
		task.DesignerFeedback = form.DesignerFeedback
		task.ReviewerFeedback = form.ReviewerFeedback
		task.DesignerNotes = form.DesignerNotes
		task.ReviewerNotes = form.ReviewerNotes
	} else {
		switch principal.Role {
		case authz.RoleDesigner:
			task.DesignerNotes = form.DesignerNotes
		case authz.RoleReviewer:
			task.ReviewerNotes = form.ReviewerNotes
			task.ReviewerFeedback = form.ReviewerFeedback
			task.DesignerRating = clampRating(form.DesignerRating)
		}
	}
	if ValidStatus(form.Status) {
		task.Status = form.Status
	}

	if err := s.repo.Update(ctx, task); err != nil {
		return err
	}
	if full {
		s.notifyIfReassigned(ctx, task, prevDesigner, prevReviewer)
	}
	return nil
}

// Create validates and inserts a new task, then notifies assignees.
func (s *Service) Create(ctx context.Context, form EditForm) (*Task, error) {
	clientName := strings.TrimSpace(form.ClientName)
	if clientName == "" {
		return nil, errors.New("tasks: client name required")
	}
	status := form.Status
	if !ValidStatus(status) {
		status = StatusPending
	}
	payment := form.PaymentStatus
	if !ValidPaymentStatus(payment) {
		payment = PaymentUnpaid
	}
	var birthdate time.Time
	if form.Birthdate != "" {
		if bd, err := time.Parse("2006-01-02", form.Birthdate); err == nil {
			birthdate = bd
		}
	}
	task := &Task{
		ClientName:         clientName,
		Birthdate:          birthdate,
		ContactInfo:        form.ContactInfo,
		Address:            form.Address,
		JobTitle:           form.JobTitle,
		Education:          form.Education,
		ExperienceYears:    form.ExperienceYears,
		Skills:             form.Skills,
		RequiredServices:   form.RequiredServices,
		DesignerNotes:      form.DesignerNotes,
		PaymentStatus:      payment,
		Status:             status,
		AssignedDesignerID: form.AssignedDesigner,
		AssignedReviewerID: form.AssignedReviewer,
	}
	created, err := s.repo.Create(ctx, task)
	if err != nil {
		return nil, err
	}
	s.notifyIfReassigned(ctx, created, "", "")
	return created, nil
}

// Delete removes a task.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// AttachFile records an uploaded attachment key on the task. The caller
// must be allowed to edit the task.
func (s *Service) AttachFile(ctx context.Context, principal *authz.Principal, taskID, key string) error {
	task, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if !s.CanEdit(principal, task) {
		return ErrNotEditable
	}
	task.Attachments = append(task.Attachments, key)
	return s.repo.Update(ctx, task)
}

// DetachFile removes an attachment key from the task.
func (s *Service) DetachFile(ctx context.Context, principal *authz.Principal, taskID, key string) error {
	task, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if !s.CanEdit(principal, task) {
		return ErrNotEditable
	}
	task.Attachments = lo.Without(task.Attachments, key)
	return s.repo.Update(ctx, task)
}

// Designers returns the distinct assigned designers present in the task
// list, for the all-tasks filter dropdown.
func Designers(list []Task) []Task {
	return lo.UniqBy(
		lo.Filter(list, func(t Task, _ int) bool { return t.AssignedDesignerID != "" }),
		func(t Task) string { return t.AssignedDesignerID },
	)
}

var csvHeader = []string{"Client Name", "Services", "Status", "Designer", "Reviewer", "Date", "Payment"}

// ExportCSV writes the task list in the shape the coordination team
// imports into their sheets.
func (s *Service) ExportCSV(w io.Writer, list []Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	records := lo.Map(list, func(t Task, _ int) []string {
		return []string{
			t.ClientName,
			strings.Join(t.RequiredServices, ";"),
			t.Status,
			t.AssignedDesignerName,
			t.AssignedReviewerName,
			t.CreatedAt.Format("2006-01-02"),
			t.PaymentStatus,
		}
	})
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func (s *Service) notifyIfReassigned(ctx context.Context, task *Task, prevDesigner, prevReviewer string) {
	if s.notifier == nil {
		return
	}
	if task.AssignedDesignerID != "" && task.AssignedDesignerID != prevDesigner {
		if err := s.notifier.NotifyAssignment(ctx, task.ID, task.AssignedDesignerID, "designer"); err != nil && s.logger != nil {
			s.logger.Warn("notify designer", slog.Any("error", err))
		}
	}
	if task.AssignedReviewerID != "" && task.AssignedReviewerID != prevReviewer {
		if err := s.notifier.NotifyAssignment(ctx, task.ID, task.AssignedReviewerID, "reviewer"); err != nil && s.logger != nil {
			s.logger.Warn("notify reviewer", slog.Any("error", err))
		}
	}
}

func clampRating(r int) int {
	if r < 0 {
		return 0
	}
	if r > 5 {
		return 5
	}
	return r
}
