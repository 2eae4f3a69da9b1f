package users_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvdesk/cvdesk/internal/authz"
	"github.com/cvdesk/cvdesk/internal/shared"
	"github.com/cvdesk/cvdesk/internal/users"
	_ "github.com/cvdesk/cvdesk/internal/testing/guard"
)

type mockRepo struct {
	byID       map[string]*users.User
	err        error
	lastRole   string
	lastActive *bool
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	user, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (m *mockRepo) List(ctx context.Context) ([]users.User, error) { return nil, m.err }

func (m *mockRepo) UpdateProfile(ctx context.Context, id string, name, status, workplace, phone, department, avatarURL string) error {
	return m.err
}

func (m *mockRepo) UpdateRole(ctx context.Context, id string, role string) error {
	m.lastRole = role
	return m.err
}

func (m *mockRepo) SetActive(ctx context.Context, id string, active bool) error {
	m.lastActive = &active
	return m.err
}

func TestLookupBySessionResolvesActiveUser(t *testing.T) {
	repo := &mockRepo{byID: map[string]*users.User{
		"u1": {ID: "u1", Name: "Aya", Role: authz.RoleDesigner, Status: "Available", IsActive: true},
	}}
	svc := users.NewService(repo)

	principal, err := svc.LookupBySession(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, principal)
	assert.Equal(t, "u1", principal.ID)
	assert.Equal(t, "Aya", principal.DisplayName)
	assert.Equal(t, authz.RoleDesigner, principal.Role)
}

func TestLookupBySessionUnknownUser(t *testing.T) {
	svc := users.NewService(&mockRepo{byID: map[string]*users.User{}})

	principal, err := svc.LookupBySession(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, principal)
}

func TestLookupBySessionDisabledUser(t *testing.T) {
	repo := &mockRepo{byID: map[string]*users.User{
		"u1": {ID: "u1", Name: "Aya", Role: authz.RoleDesigner, IsActive: false},
	}}
	svc := users.NewService(repo)

	principal, err := svc.LookupBySession(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Nil(t, principal)
}

func TestLookupBySessionPropagatesStoreFailure(t *testing.T) {
	svc := users.NewService(&mockRepo{err: errors.New("db down")})

	principal, err := svc.LookupBySession(context.Background(), "u1")
	assert.Error(t, err)
	assert.Nil(t, principal)
}

func TestChangeRoleValidatesRole(t *testing.T) {
	repo := &mockRepo{}
	svc := users.NewService(repo)

	require.NoError(t, svc.ChangeRole(context.Background(), "u1", authz.RoleManager))
	assert.Equal(t, "manager", repo.lastRole)

	err := svc.ChangeRole(context.Background(), "u1", "superuser")
	assert.Error(t, err)
}

func TestSetActive(t *testing.T) {
	repo := &mockRepo{}
	svc := users.NewService(repo)

	require.NoError(t, svc.SetActive(context.Background(), "u1", false))
	require.NotNil(t, repo.lastActive)
	assert.False(t, *repo.lastActive)
}
