package users

import (
	"context"
	"errors"
	"strings"

	"github.com/cvdesk/cvdesk/internal/authz"
	"github.com/cvdesk/cvdesk/internal/shared"
)

// RepositoryPort defines data access methods for user profiles.
type RepositoryPort interface {
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]User, error)
	UpdateProfile(ctx context.Context, id string, name, status, workplace, phone, department, avatarURL string) error
	UpdateRole(ctx context.Context, id string, role string) error
	SetActive(ctx context.Context, id string, active bool) error
}

// Service handles user profile business logic. It also serves as the
// identity store the session resolver consults: session evidence is the
// user ID the login flow bound to the session.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// LookupBySession resolves session evidence to a principal. Disabled
// accounts resolve to nothing, which the caller treats as
// unauthenticated.
func (s *Service) LookupBySession(ctx context.Context, evidence string) (*authz.Principal, error) {
	user, err := s.repo.GetByID(ctx, evidence)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, nil
	}
	return &authz.Principal{
		ID:          user.ID,
		DisplayName: user.Name,
		Role:        user.Role,
		Status:      user.Status,
	}, nil
}

// Get fetches a single profile.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all profiles.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// ProfileUpdate carries the self-editable profile fields.
type ProfileUpdate struct {
	Name       string `validate:"required,min=2,max=120"`
	Status     string `validate:"max=60"`
	Workplace  string `validate:"max=120"`
	Phone      string `validate:"max=40"`
	Department string `validate:"max=120"`
	AvatarURL  string `validate:"omitempty,url"`
}

// UpdateProfile applies a profile edit for the given user.
func (s *Service) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) error {
	return s.repo.UpdateProfile(ctx, id,
		strings.TrimSpace(upd.Name), strings.TrimSpace(upd.Status),
		strings.TrimSpace(upd.Workplace), strings.TrimSpace(upd.Phone),
		strings.TrimSpace(upd.Department), strings.TrimSpace(upd.AvatarURL))
}

var validRoles = map[authz.Role]struct{}{
	authz.RoleAdmin:    {},
	authz.RoleManager:  {},
	authz.RoleDesigner: {},
	authz.RoleReviewer: {},
}

// ChangeRole updates a user's role after validating it against the closed
// role set.
func (s *Service) ChangeRole(ctx context.Context, id string, role authz.Role) error {
	if _, ok := validRoles[role]; !ok {
		return errors.New("users: unknown role " + string(role))
	}
	return s.repo.UpdateRole(ctx, id, string(role))
}

// SetActive enables or disables an account.
func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}
