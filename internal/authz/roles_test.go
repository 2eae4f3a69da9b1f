package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvdesk/cvdesk/internal/authz"
	_ "github.com/cvdesk/cvdesk/internal/testing/guard"
)

func TestDefaultRoleTableGrants(t *testing.T) {
	table := authz.DefaultRoleTable()

	cases := []struct {
		role       authz.Role
		capability authz.Capability
		want       bool
	}{
		{authz.RoleAdmin, authz.CapViewAll, true},
		{authz.RoleAdmin, authz.CapEditAll, true},
		{authz.RoleAdmin, authz.CapViewAccounts, true},
		{authz.RoleAdmin, authz.CapManageUsers, true},
		{authz.RoleManager, authz.CapViewAll, true},
		{authz.RoleManager, authz.CapEditAll, true},
		{authz.RoleManager, authz.CapViewAccounts, false},
		{authz.RoleManager, authz.CapManageUsers, false},
		{authz.RoleDesigner, authz.CapViewAll, false},
		{authz.RoleDesigner, authz.CapEditAll, false},
		{authz.RoleReviewer, authz.CapViewAll, false},
		{authz.RoleReviewer, authz.CapManageUsers, false},
	}
	for _, tc := range cases {
		got := table.HasCapability(tc.role, tc.capability)
		assert.Equal(t, tc.want, got, "%s has %s", tc.role, tc.capability)
	}
}

func TestHasCapabilityUnknownInputs(t *testing.T) {
	table := authz.DefaultRoleTable()

	assert.False(t, table.HasCapability("intern", authz.CapViewAll))
	assert.False(t, table.HasCapability(authz.RoleAdmin, "fly"))
	assert.False(t, table.HasCapability("", ""))

	var nilTable *authz.RoleTable
	assert.False(t, nilTable.HasCapability(authz.RoleAdmin, authz.CapViewAll))
}

func TestNewRoleTableRejectsUnknownCapability(t *testing.T) {
	_, err := authz.NewRoleTable(map[authz.Role][]authz.Capability{
		authz.RoleAdmin: {authz.CapViewAll, "launch_missiles"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "launch_missiles")
}

func TestCapabilitiesAdvisoryList(t *testing.T) {
	table := authz.DefaultRoleTable()

	assert.ElementsMatch(t,
		[]authz.Capability{authz.CapViewAll, authz.CapEditAll},
		table.Capabilities(authz.RoleManager))
	assert.Empty(t, table.Capabilities(authz.RoleDesigner))
	assert.Nil(t, table.Capabilities("ghost"))
}
