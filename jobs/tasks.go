package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeNotifyAssignment is the task type for assignment emails.
	TaskTypeNotifyAssignment = "task:notify_assignment"
	// TaskTypeStaleScan is the task type for the nightly stale-task scan.
	TaskTypeStaleScan = "task:stale_scan"
)

// NotifyAssignmentPayload identifies who was assigned to which task.
type NotifyAssignmentPayload struct {
	TaskID     string `json:"task_id"`
	AssigneeID string `json:"assignee_id"`
	Role       string `json:"role"`
}

// NewNotifyAssignmentTask constructs an Asynq task.
func NewNotifyAssignmentTask(payload NotifyAssignmentPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotifyAssignment, data), nil
}

// NewStaleScanTask constructs the scheduled stale-task scan task.
func NewStaleScanTask() *asynq.Task {
	return asynq.NewTask(TaskTypeStaleScan, nil)
}
