package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Mailer sends plain-text notification email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Recipient is the slice of a user the worker needs for addressing.
type Recipient struct {
	Name  string
	Email string
}

// Directory resolves user IDs to recipients.
type Directory interface {
	Recipient(ctx context.Context, userID string) (Recipient, error)
}

// TaskSummary is the slice of a task the worker puts into email.
type TaskSummary struct {
	ID         string
	ClientName string
	Status     string
}

// TaskSource exposes the task data the worker reads.
type TaskSource interface {
	Summary(ctx context.Context, taskID string) (TaskSummary, error)
	CountStale(ctx context.Context, cutoffDays int) (int, error)
}

// NewNotifyAssignmentHandler processes TaskTypeNotifyAssignment tasks.
func NewNotifyAssignmentHandler(logger *slog.Logger, mailer Mailer, directory Directory, source TaskSource) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload NotifyAssignmentPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		recipient, err := directory.Recipient(ctx, payload.AssigneeID)
		if err != nil {
			return fmt.Errorf("jobs: resolve recipient: %w", err)
		}
		summary, err := source.Summary(ctx, payload.TaskID)
		if err != nil {
			return fmt.Errorf("jobs: resolve task: %w", err)
		}
		subject := fmt.Sprintf("New %s assignment: %s", payload.Role, summary.ClientName)
		body := fmt.Sprintf("Hello %s,\n\nYou have been assigned as %s on the CV task for %s (status: %s).\n",
			recipient.Name, payload.Role, summary.ClientName, summary.Status)
		if err := mailer.Send(ctx, recipient.Email, subject, body); err != nil {
			return fmt.Errorf("jobs: send mail: %w", err)
		}
		logger.Info("assignment notification sent",
			slog.String("task_id", payload.TaskID),
			slog.String("assignee_id", payload.AssigneeID),
		)
		return nil
	}
}

// NewStaleScanHandler processes the nightly stale-task scan. Tasks not
// updated for the cutoff window are counted and logged for follow up.
func NewStaleScanHandler(logger *slog.Logger, source TaskSource, cutoffDays int) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		count, err := source.CountStale(ctx, cutoffDays)
		if err != nil {
			return fmt.Errorf("jobs: stale scan: %w", err)
		}
		logger.Info("stale task scan",
			slog.Int("cutoff_days", cutoffDays),
			slog.Int("stale", count),
		)
		return nil
	}
}
