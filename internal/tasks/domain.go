package tasks

import "time"

// Task statuses, matching the workflow board columns.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusInReview   = "in_review"
	StatusCompleted  = "completed"
)

// Payment statuses.
const (
	PaymentPaid    = "paid"
	PaymentPending = "pending"
	PaymentUnpaid  = "unpaid"
)

// Task is one CV engagement for a client, carried from intake through
// design and review.
type Task struct {
	ID               string
	ClientName       string
	Birthdate        time.Time
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

	AssignedDesignerID   string
	AssignedDesignerName string
	AssignedReviewerID   string
	AssignedReviewerName string

	DesignerRating   int
	ReviewerRating   int
	DesignerFeedback string
	ReviewerFeedback string

	Attachments []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidStatus reports whether s is a known workflow status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusInReview, StatusCompleted:
		return true
	}
	return false
}

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentPaid, PaymentPending, PaymentUnpaid:
		return true
	}
	return false
}

// Filter narrows task listings.
type Filter struct {
	Search     string
	Status     string
	DesignerID string
}
