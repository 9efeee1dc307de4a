package users

import "github.com/PabloPavan/bookshelf_api/internal/apperrors"

// rolePolicy describes what a requester holding a role may do to other accounts.
type rolePolicy struct {
	modifiable map[UserRole]bool // target roles the requester may change
	assignable map[UserRole]bool // roles the requester may hand out
	selfGuard  bool              // requester may not change its own role
}

func roleSet(roles ...UserRole) map[UserRole]bool {
	out := make(map[UserRole]bool, len(roles))
	for _, r := range roles {
		out[r] = true
	}
	return out
}

var rolePolicies = map[UserRole]rolePolicy{
	RoleStudent: {},
	RoleAdmin: {
		modifiable: roleSet(RoleStudent),
		assignable: roleSet(RoleStudent, RoleAdmin),
	},
	RoleSuperAdmin: {
		modifiable: roleSet(RoleStudent, RoleAdmin, RoleSuperAdmin),
		assignable: roleSet(RoleStudent, RoleAdmin, RoleSuperAdmin),
		selfGuard:  true,
	},
}

var (
	errAccessDenied = apperrors.New(apperrors.KindForbidden, "access denied")
	errInvalidRole  = apperrors.New(apperrors.KindInvalidRole, "invalid role")
)

// RoleChange is a request by one account to set the role of another.
type RoleChange struct {
	RequesterID   string
	RequesterRole string
	TargetID      string
	TargetRole    string
	Requested     string
}

// AuthorizeRoleChange decides a role change and returns the role to persist.
// It has no side effects.
func AuthorizeRoleChange(c RoleChange) (UserRole, error) {
	p, ok := rolePolicies[UserRole(c.RequesterRole)]
	if !ok || len(p.modifiable) == 0 {
		return "", errAccessDenied
	}

	if p.selfGuard && c.RequesterID == c.TargetID {
		return "", errAccessDenied
	}
	if !p.modifiable[UserRole(c.TargetRole)] {
		return "", errAccessDenied
	}

	requested := UserRole(c.Requested)
	if !requested.Valid() {
		return "", errInvalidRole
	}
	if !p.assignable[requested] {
		return "", errAccessDenied
	}
	return requested, nil
}

// AuthorizeProfileRole decides the role an account may set on itself through
// a profile update.
func AuthorizeProfileRole(current string, requested string) (UserRole, error) {
	cur := UserRole(current)
	p, ok := rolePolicies[cur]
	if !ok || len(p.assignable) == 0 {
		return "", errAccessDenied
	}

	want := UserRole(requested)
	if p.selfGuard {
		if want != cur {
			return "", errAccessDenied
		}
		return cur, nil
	}
	if !want.Valid() {
		return "", errInvalidRole
	}
	if !p.assignable[want] {
		return "", errAccessDenied
	}
	return want, nil
}
