package model

import "fmt"

// Role is a semantic column role. The pipeline speaks only in roles;
// source column names are resolved exactly once at ingestion.
type Role string

const (
	RoleDate     Role = "date"
	RoleValue    Role = "value"
	RoleQuantity Role = "quantity"
	RoleTonnage  Role = "tonnage"
	RoleProduct  Role = "product"
	RoleLine     Role = "line"
	RoleCustomer Role = "customer"
	RoleL1       Role = "l1" // director
	RoleL2       Role = "l2" // regional manager
	RoleL3       Role = "l3" // manager
	RoleL4       Role = "l4" // supervisor
	RoleL5       Role = "l5" // coordinator
	RoleL6       Role = "l6" // consultant
	RoleL7       Role = "l7" // salesperson
)

// RequiredRoles must be bound for ingestion to proceed.
var RequiredRoles = []Role{RoleDate, RoleValue}

// AllRoles lists every semantic role in declaration order.
var AllRoles = []Role{
	RoleDate, RoleValue, RoleQuantity, RoleTonnage,
	RoleProduct, RoleLine, RoleCustomer,
	RoleL1, RoleL2, RoleL3, RoleL4, RoleL5, RoleL6, RoleL7,
}

// OrgRoles lists the seven org-hierarchy roles, top to bottom.
var OrgRoles = []Role{RoleL1, RoleL2, RoleL3, RoleL4, RoleL5, RoleL6, RoleL7}

// OrgIndex returns the 0-based org slot for an org role, or -1.
func (r Role) OrgIndex() int {
	switch r {
	case RoleL1:
		return 0
	case RoleL2:
		return 1
	case RoleL3:
		return 2
	case RoleL4:
		return 3
	case RoleL5:
		return 4
	case RoleL6:
		return 5
	case RoleL7:
		return 6
	}
	return -1
}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	for _, r := range AllRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Binding maps semantic roles to source column names. A role absent from
// Columns is unbound; binding a role to the empty string is invalid.
type Binding struct {
	Columns map[Role]string `json:"columns"`
}

// Column returns the bound column for a role.
func (b Binding) Column(r Role) (string, bool) {
	col, ok := b.Columns[r]
	return col, ok
}

// Bound reports whether a role is bound.
func (b Binding) Bound(r Role) bool {
	_, ok := b.Columns[r]
	return ok
}
