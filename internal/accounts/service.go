package accounts

import (
	"context"
	"strings"
)

// RepositoryPort defines data access methods for service accounts.
type RepositoryPort interface {
	List(ctx context.Context) ([]Account, error)
	Get(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, a *Account) (*Account, error)
	Update(ctx context.Context, a *Account) error
	Delete(ctx context.Context, id string) error
}

// Service handles credential-store business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns all stored accounts.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

// Get fetches one account.
func (s *Service) Get(ctx context.Context, id string) (*Account, error) {
	return s.repo.Get(ctx, id)
}

// Form carries account fields from the accounts page.
type Form struct {
	ServiceName string `validate:"required,min=2,max=120"`
	Username    string `validate:"required,max=200"`
	Password    string `validate:"required,max=200"`
	Notes       string `validate:"max=500"`
	LoginURL    string `validate:"omitempty,url"`
}

// Create inserts a new account from the form.
func (s *Service) Create(ctx context.Context, form Form) (*Account, error) {
	return s.repo.Create(ctx, &Account{
		ServiceName: strings.TrimSpace(form.ServiceName),
		Username:    strings.TrimSpace(form.Username),
		Password:    form.Password,
		Notes:       strings.TrimSpace(form.Notes),
		LoginURL:    strings.TrimSpace(form.LoginURL),
	})
}

// Update applies the form to an existing account.
func (s *Service) Update(ctx context.Context, id string, form Form) error {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	account.ServiceName = strings.TrimSpace(form.ServiceName)
	account.Username = strings.TrimSpace(form.Username)
	account.Password = form.Password
	account.Notes = strings.TrimSpace(form.Notes)
	account.LoginURL = strings.TrimSpace(form.LoginURL)
	return s.repo.Update(ctx, account)
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
