package identity

import "context"

type ctxKey string

const (
	ctxUserIDKey ctxKey = "user_id"
	ctxRoleKey   ctxKey = "role"
)

// Role names as carried in sessions and tokens. The users package owns the typed enum.
const (
	RoleStudent    = "student"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

func WithUser(ctx context.Context, userID string, role string) context.Context {
	ctx = context.WithValue(ctx, ctxUserIDKey, userID)
	ctx = context.WithValue(ctx, ctxRoleKey, role)
	return ctx
}

func UserID(ctx context.Context) (string, bool) {
	v := ctx.Value(ctxUserIDKey)
	id, ok := v.(string)
	return id, ok
}

func Role(ctx context.Context) (string, bool) {
	v := ctx.Value(ctxRoleKey)
	role, ok := v.(string)
	return role, ok
}

// IsAdmin is true for admin and super_admin callers.
func IsAdmin(ctx context.Context) bool {
	role, _ := Role(ctx)
	return role == RoleAdmin || role == RoleSuperAdmin
}
