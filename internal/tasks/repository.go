package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cvdesk/cvdesk/internal/shared"
)

const taskColumns = `t.id, t.client_name, t.birthdate, t.contact_info, t.address, t.job_title,
	t.education, t.experience_years, t.skills, t.required_services,
	t.designer_notes, t.reviewer_notes, t.payment_status, t.status,
	t.assigned_designer_id, COALESCE(d.name, ''), t.assigned_reviewer_id, COALESCE(rv.name, ''),
	t.designer_rating, t.reviewer_rating, t.designer_feedback, t.reviewer_feedback,
	t.attachments, t.created_at, t.updated_at`

const taskJoins = ` FROM tasks t
	LEFT JOIN users d ON d.id = t.assigned_designer_id
	LEFT JOIN users rv ON rv.id = t.assigned_reviewer_id`

// Repository provides PostgreSQL backed persistence for tasks.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get fetches one task with assignee names joined in.
func (r *Repository) Get(ctx context.Context, id string) (*Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+taskJoins+` WHERE t.id = $1`, id)
	return scanTask(row)
}

// ListForAssignee returns tasks assigned to the given user as designer or
// reviewer, newest first.
func (r *Repository) ListForAssignee(ctx context.Context, userID string, filter Filter) ([]Task, error) {
	query := `SELECT ` + taskColumns + taskJoins + ` WHERE (t.assigned_designer_id = $1 OR t.assigned_reviewer_id = $1)`
	args := []any{userID}
	query, args = applyFilter(query, args, filter)
	query += ` ORDER BY t.created_at DESC`
	return r.list(ctx, query, args)
}

// ListAll returns every task, newest first.
func (r *Repository) ListAll(ctx context.Context, filter Filter) ([]Task, error) {
	query := `SELECT ` + taskColumns + taskJoins + ` WHERE TRUE`
	var args []any
	query, args = applyFilter(query, args, filter)
	query += ` ORDER BY t.created_at DESC`
	return r.list(ctx, query, args)
}

// Create inserts a task and returns it with the generated ID.
func (r *Repository) Create(ctx context.Context, task *Task) (*Task, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO tasks (
			id, client_name, birthdate, contact_info, address, job_title,
			education, experience_years, skills, required_services,
			designer_notes, reviewer_notes, payment_status, status,
			assigned_designer_id, assigned_reviewer_id,
			designer_rating, reviewer_rating, designer_feedback, reviewer_feedback,
			attachments, created_at, updated_at
		) VALUES ($1, $2, NULLIF($3, '0001-01-01'::date), $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, NULLIF($15, ''), NULLIF($16, ''), $17, $18, $19, $20, $21, NOW(), NOW())`,
		task.ID, task.ClientName, task.Birthdate, task.ContactInfo, task.Address, task.JobTitle,
		task.Education, task.ExperienceYears, task.Skills, task.RequiredServices,
		task.DesignerNotes, task.ReviewerNotes, task.PaymentStatus, task.Status,
		task.AssignedDesignerID, task.AssignedReviewerID,
		task.DesignerRating, task.ReviewerRating, task.DesignerFeedback, task.ReviewerFeedback,
		task.Attachments)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, task.ID)
}

// Update persists every mutable field of the task.
func (r *Repository) Update(ctx context.Context, task *Task) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tasks SET
			client_name = $2, birthdate = NULLIF($3, '0001-01-01'::date), contact_info = $4, address = $5,
			job_title = $6, education = $7, experience_years = $8, skills = $9, required_services = $10,
			designer_notes = $11, reviewer_notes = $12, payment_status = $13, status = $14,
			assigned_designer_id = NULLIF($15, ''), assigned_reviewer_id = NULLIF($16, ''),
			designer_rating = $17, reviewer_rating = $18, designer_feedback = $19, reviewer_feedback = $20,
			attachments = $21, updated_at = NOW()
		WHERE id = $1`,
		task.ID, task.ClientName, task.Birthdate, task.ContactInfo, task.Address,
		task.JobTitle, task.Education, task.ExperienceYears, task.Skills, task.RequiredServices,
		task.DesignerNotes, task.ReviewerNotes, task.PaymentStatus, task.Status,
		task.AssignedDesignerID, task.AssignedReviewerID,
		task.DesignerRating, task.ReviewerRating, task.DesignerFeedback, task.ReviewerFeedback,
		task.Attachments)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a task.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) list(ctx context.Context, query string, args []any) ([]Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *task)
	}
	return result, rows.Err()
}

func applyFilter(query string, args []any, filter Filter) (string, []any) {
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		query += fmt.Sprintf(" AND (t.client_name ILIKE $%d OR COALESCE(d.name, '') ILIKE $%d)", len(args), len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND t.status = $%d", len(args))
	}
	if filter.DesignerID != "" {
		args = append(args, filter.DesignerID)
		query += fmt.Sprintf(" AND t.assigned_designer_id = $%d", len(args))
	}
	return query, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var task Task
	var designerID, reviewerID *string
	var bd *time.Time
	err := row.Scan(&task.ID, &task.ClientName, &bd, &task.ContactInfo, &task.Address, &task.JobTitle,
		&task.Education, &task.ExperienceYears, &task.Skills, &task.RequiredServices,
		&task.DesignerNotes, &task.ReviewerNotes, &task.PaymentStatus, &task.Status,
		&designerID, &task.AssignedDesignerName, &reviewerID, &task.AssignedReviewerName,
		&task.DesignerRating, &task.ReviewerRating, &task.DesignerFeedback, &task.ReviewerFeedback,
		&task.Attachments, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if bd != nil {
		task.Birthdate = *bd
	}
	if designerID != nil {
		task.AssignedDesignerID = *designerID
	}
	if reviewerID != nil {
		task.AssignedReviewerID = *reviewerID
	}
	return &task, nil
}
