package authz

import (
	"fmt"
	"strings"
)

// Role identifies one of the closed set of account roles.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleDesigner Role = "designer"
	RoleReviewer Role = "reviewer"
)

// Capability names a single permission a role may hold. Capabilities are
// compared by exact equality; there is no hierarchy or wildcard.
type Capability string

const (
	CapViewAccounts Capability = "view_accounts"
	CapEditAll      Capability = "edit_all"
	CapViewAll      Capability = "view_all"
	CapManageUsers  Capability = "manage_users"
)

var knownCapabilities = map[Capability]struct{}{
	CapViewAccounts: {},
	CapEditAll:      {},
	CapViewAll:      {},
	CapManageUsers:  {},
}

// RoleTable is the immutable role-to-capability mapping. It is built once
// at startup and is safe for unsynchronized concurrent reads.
type RoleTable struct {
	grants map[Role]map[Capability]struct{}
}

// NewRoleTable validates the declared grants and builds the table. A grant
// naming an unknown capability is rejected so a typo fails at startup
// instead of silently denying (or granting) at request time.
func NewRoleTable(grants map[Role][]Capability) (*RoleTable, error) {
	table := &RoleTable{grants: make(map[Role]map[Capability]struct{}, len(grants))}
	for role, caps := range grants {
		set := make(map[Capability]struct{}, len(caps))
		for _, c := range caps {
			c = Capability(strings.TrimSpace(string(c)))
			if _, ok := knownCapabilities[c]; !ok {
				return nil, fmt.Errorf("authz: role %q grants unknown capability %q", role, c)
			}
			set[c] = struct{}{}
		}
		table.grants[role] = set
	}
	return table, nil
}

// DefaultRoleTable returns the grants used by the application.
func DefaultRoleTable() *RoleTable {
	table, err := NewRoleTable(map[Role][]Capability{
		RoleAdmin:    {CapViewAll, CapEditAll, CapViewAccounts, CapManageUsers},
		RoleManager:  {CapViewAll, CapEditAll},
		RoleDesigner: {},
		RoleReviewer: {},
	})
	if err != nil {
		// Grants above only use declared constants.
		panic(err)
	}
	return table
}

// HasCapability reports whether role holds capability. Unknown roles and
// unknown capabilities both yield false, never an error.
func (t *RoleTable) HasCapability(role Role, capability Capability) bool {
	if t == nil {
		return false
	}
	set, ok := t.grants[role]
	if !ok {
		return false
	}
	_, ok = set[capability]
	return ok
}

// Capabilities returns the granted set for a role, for advisory UI use
// such as filtering navigation entries. Unknown roles yield nil.
func (t *RoleTable) Capabilities(role Role) []Capability {
	if t == nil {
		return nil
	}
	set, ok := t.grants[role]
	if !ok {
		return nil
	}
	caps := make([]Capability, 0, len(set))
	for c := range set {
		caps = append(caps, c)
	}
	return caps
}
