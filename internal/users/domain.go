package users

import (
	"time"

	"github.com/cvdesk/cvdesk/internal/authz"
)

// User is a team member profile. Role drives authorization; Status is a
// free-form availability label and never affects access.
type User struct {
	ID         string
	Name       string
	Email      string
	Role       authz.Role
	Status     string
	Workplace  string
	Phone      string
	Department string
	AvatarURL  string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Availability labels shown on profiles.
const (
	StatusAvailable = "Available"
	StatusBusy      = "Busy"
	StatusOnLeave   = "On Leave"
)
