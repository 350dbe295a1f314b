package entity

import (
	"fmt"
	"strings"
)

// Role is an ordered privilege level. Higher values grant strictly more.
type Role uint8

const (
	RoleBasic Role = iota + 1
	RoleModerator
	RoleAdmin
	RoleSuperAdmin
)

// MinRole is the role every self-registered account receives.
const MinRole = RoleBasic

var roleNames = map[Role]string{
	RoleBasic:      "basic",
	RoleModerator:  "moderator",
	RoleAdmin:      "admin",
	RoleSuperAdmin: "superadmin",
}

// Roles lists every valid role in ascending order.
func Roles() []Role {
	return []Role{RoleBasic, RoleModerator, RoleAdmin, RoleSuperAdmin}
}

func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// AtLeast reports whether r grants the privileges of required.
// Invalid roles never satisfy anything.
func (r Role) AtLeast(required Role) bool {
	if !r.Valid() || !required.Valid() {
		return false
	}
	return r >= required
}

// ParseRole accepts a role name ("admin") or its numeric level ("3").
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for r, name := range roleNames {
		if s == name || s == fmt.Sprintf("%d", uint8(r)) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}
