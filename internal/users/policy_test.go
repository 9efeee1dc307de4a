package users

import (
	"testing"

	"github.com/PabloPavan/bookshelf_api/internal/apperrors"
)

func TestAuthorizeRoleChange(t *testing.T) {
	cases := []struct {
		name   string
		change RoleChange
		want   UserRole
		kind   apperrors.Kind
	}{
		{
			name:   "student cannot change anything",
			change: RoleChange{RequesterID: "u1", RequesterRole: "student", TargetID: "u2", TargetRole: "student", Requested: "student"},
			kind:   apperrors.KindForbidden,
		},
		{
			name:   "student rejected before role validation",
			change: RoleChange{RequesterID: "u1", RequesterRole: "student", TargetID: "u2", TargetRole: "student", Requested: "wizard"},
			kind:   apperrors.KindForbidden,
		},
		{
			name:   "unknown requester role",
			change: RoleChange{RequesterID: "u1", RequesterRole: "owner", TargetID: "u2", TargetRole: "student", Requested: "admin"},
			kind:   apperrors.KindForbidden,
		},
		{
			name:   "admin promotes student",
			change: RoleChange{RequesterID: "u1", RequesterRole: "admin", TargetID: "u2", TargetRole: "student", Requested: "admin"},
			want:   RoleAdmin,
		},
		{
			name:   "admin keeps student",
			change: RoleChange{RequesterID: "u1", RequesterRole: "admin", TargetID: "u2", TargetRole: "student", Requested: "student"},
			want:   RoleStudent,
		},
		{
			name:   "admin cannot modify admin",
			change: RoleChange{RequesterID: "u1", RequesterRole: "admin", TargetID: "u2", TargetRole: "admin", Requested: "student"},
			kind:   apperrors.KindForbidden,
		},
		{
			name:   "admin cannot modify super admin",
			change: RoleChange{RequesterID: "u1", RequesterRole: "admin", TargetID: "u2", TargetRole: "super_admin", Requested: "student"},
			kind:   apperrors.KindForbidden,
		},
		{
			name:   "admin cannot assign super admin",
			change: RoleChange{RequesterID: "u1", RequesterRole: "admin", TargetID: "u2", TargetRole: "student", Requested: "super_admin"},
			kind:   apperrors.KindForbidden,
		},
		{
			name:   "admin requests unknown role for student",
			change: RoleChange{RequesterID: "u1", RequesterRole: "admin", TargetID: "u2", TargetRole: "student", Requested: "wizard"},
			kind:   apperrors.KindInvalidRole,
		},
		{
			name:   "admin requests unknown role for admin",
			change: RoleChange{RequesterID: "u1", RequesterRole: "admin", TargetID: "u2", TargetRole: "admin", Requested: "wizard"},
			kind:   apperrors.KindForbidden,
		},
		{
			name:   "super admin demotes admin",
			change: RoleChange{RequesterID: "u1", RequesterRole: "super_admin", TargetID: "u2", TargetRole: "admin", Requested: "student"},
			want:   RoleStudent,
		},
		{
			name:   "super admin promotes to super admin",
			change: RoleChange{RequesterID: "u1", RequesterRole: "super_admin", TargetID: "u2", TargetRole: "student", Requested: "super_admin"},
			want:   RoleSuperAdmin,
		},
		{
			name:   "super admin cannot change itself",
			change: RoleChange{RequesterID: "u1", RequesterRole: "super_admin", TargetID: "u1", TargetRole: "super_admin", Requested: "admin"},
			kind:   apperrors.KindForbidden,
		},
		{
			name:   "super admin cannot reassign itself the same role",
			change: RoleChange{RequesterID: "u1", RequesterRole: "super_admin", TargetID: "u1", TargetRole: "super_admin", Requested: "super_admin"},
			kind:   apperrors.KindForbidden,
		},
		{
			name:   "super admin requests unknown role for itself",
			change: RoleChange{RequesterID: "u1", RequesterRole: "super_admin", TargetID: "u1", TargetRole: "super_admin", Requested: "wizard"},
			kind:   apperrors.KindForbidden,
		},
		{
			name:   "super admin requests empty role",
			change: RoleChange{RequesterID: "u1", RequesterRole: "super_admin", TargetID: "u2", TargetRole: "student", Requested: ""},
			kind:   apperrors.KindInvalidRole,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AuthorizeRoleChange(tc.change)
			if tc.kind != "" {
				assertKind(t, err, tc.kind)
				if got != "" {
					t.Fatalf("denied change returned role %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("unexpected role: %s", got)
			}
		})
	}
}

func TestAuthorizeRoleChangeHierarchy(t *testing.T) {
	roles := []UserRole{RoleStudent, RoleAdmin, RoleSuperAdmin}
	for _, requester := range roles {
		for _, target := range roles {
			for _, requested := range roles {
				got, err := AuthorizeRoleChange(RoleChange{
					RequesterID:   "req",
					RequesterRole: string(requester),
					TargetID:      "tgt",
					TargetRole:    string(target),
					Requested:     string(requested),
				})
				if err != nil {
					continue
				}
				if got != requested {
					t.Fatalf("%s changing %s to %s returned %s", requester, target, requested, got)
				}
				if requester == RoleStudent {
					t.Fatalf("student allowed to change %s to %s", target, requested)
				}
				if requester == RoleAdmin && (target != RoleStudent || requested == RoleSuperAdmin) {
					t.Fatalf("admin allowed to change %s to %s", target, requested)
				}
			}
		}
	}
}

func TestAuthorizeProfileRole(t *testing.T) {
	cases := []struct {
		name      string
		current   string
		requested string
		want      UserRole
		kind      apperrors.Kind
	}{
		{name: "student same role", current: "student", requested: "student", kind: apperrors.KindForbidden},
		{name: "student promotes itself", current: "student", requested: "admin", kind: apperrors.KindForbidden},
		{name: "admin steps down", current: "admin", requested: "student", want: RoleStudent},
		{name: "admin keeps role", current: "admin", requested: "admin", want: RoleAdmin},
		{name: "admin to super admin", current: "admin", requested: "super_admin", kind: apperrors.KindForbidden},
		{name: "admin unknown role", current: "admin", requested: "root", kind: apperrors.KindInvalidRole},
		{name: "super admin unknown role", current: "super_admin", requested: "root", kind: apperrors.KindForbidden},
		{name: "super admin keeps role", current: "super_admin", requested: "super_admin", want: RoleSuperAdmin},
		{name: "super admin steps down", current: "super_admin", requested: "admin", kind: apperrors.KindForbidden},
		{name: "unknown current role", current: "guest", requested: "student", kind: apperrors.KindForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AuthorizeProfileRole(tc.current, tc.requested)
			if tc.kind != "" {
				assertKind(t, err, tc.kind)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("unexpected role: %s", got)
			}
		})
	}
}
