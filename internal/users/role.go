package users

import (
	"fmt"

	"github.com/PabloPavan/bookshelf_api/internal/identity"
)

type UserRole string

const (
	RoleStudent    UserRole = identity.RoleStudent
	RoleAdmin      UserRole = identity.RoleAdmin
	RoleSuperAdmin UserRole = identity.RoleSuperAdmin
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

func ParseUserRole(s string) (UserRole, error) {
	r := UserRole(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role: %q", s)
	}
	return r, nil
}
