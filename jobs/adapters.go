package jobs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AssignmentNotifier queues an email whenever a task changes hands. It
// satisfies the task service's Notifier interface.
type AssignmentNotifier struct {
	Client *Client
}

// NotifyAssignment enqueues the notification task.
func (n AssignmentNotifier) NotifyAssignment(ctx context.Context, taskID, assigneeID, role string) error {
	_, err := n.Client.EnqueueNotifyAssignment(ctx, NotifyAssignmentPayload{
		TaskID:     taskID,
		AssigneeID: assigneeID,
		Role:       role,
	})
	return err
}

// PgDirectory resolves recipients straight from the users table. The
// worker binary carries no user service, just a pool.
type PgDirectory struct {
	Pool *pgxpool.Pool
}

// Recipient returns name and email for a user ID.
func (d PgDirectory) Recipient(ctx context.Context, userID string) (Recipient, error) {
	var r Recipient
	err := d.Pool.QueryRow(ctx,
		`SELECT name, email FROM users WHERE id = $1`, userID).Scan(&r.Name, &r.Email)
	if err != nil {
		return Recipient{}, fmt.Errorf("jobs: lookup user %s: %w", userID, err)
	}
	return r, nil
}

// PgTaskSource reads task rows for the worker.
type PgTaskSource struct {
	Pool *pgxpool.Pool
}

// Summary returns the fields the notification email mentions.
func (s PgTaskSource) Summary(ctx context.Context, taskID string) (TaskSummary, error) {
	var t TaskSummary
	err := s.Pool.QueryRow(ctx,
		`SELECT id, client_name, status FROM tasks WHERE id = $1`, taskID).Scan(&t.ID, &t.ClientName, &t.Status)
	if err != nil {
		return TaskSummary{}, fmt.Errorf("jobs: lookup task %s: %w", taskID, err)
	}
	return t, nil
}

// CountStale counts pending tasks untouched for the cutoff window.
func (s PgTaskSource) CountStale(ctx context.Context, cutoffDays int) (int, error) {
	var count int
	err := s.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tasks WHERE status = 'pending' AND updated_at < NOW() - ($1 || ' days')::interval`,
		cutoffDays).Scan(&count)
	return count, err
}
