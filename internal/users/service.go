package users

import (
	"context"
	"strings"

	"github.com/PabloPavan/bookshelf_api/internal"
	"github.com/PabloPavan/bookshelf_api/internal/apperrors"
	"github.com/PabloPavan/bookshelf_api/internal/identity"
)

type Store interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, f UserFilter) ([]*User, error)
	UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*User, error)
	UpdateRole(ctx context.Context, id string, role UserRole) (*User, error)
}

type Service struct {
	Store          Store
	PasswordHasher func(plain string) (string, error)
	IDGenerator    func() string
}

type UpdateProfileInput struct {
	Username *string
	Email    *string
	Role     *string
}

// Create registers a new account. New accounts always start as students.
func (s *Service) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "users store not configured")
	}

	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(strings.ToLower(req.Email))
	password := strings.TrimSpace(req.Password)
	if username == "" || email == "" || password == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "username, email and password are required")
	}

	hasher := s.PasswordHasher
	if hasher == nil {
		hasher = internal.DefaultPasswordHasher
	}

	hash, err := hasher(password)
	if err != nil {
		return nil, apperrors.New(apperrors.KindInternal, "failed to process password")
	}

	idGen := s.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return "usr_" + internal.RandomHex(12)
		}
	}

	u := &User{
		ID:           idGen(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         RoleStudent,
	}

	if err := s.Store.Create(ctx, u); err != nil {
		switch UniqueViolationField(err) {
		case "email":
			return nil, apperrors.New(apperrors.KindConflict, "email already exists")
		case "username":
			return nil, apperrors.New(apperrors.KindConflict, "username already exists")
		}
		return nil, apperrors.Storage("failed to create user", err)
	}

	return u, nil
}

func (s *Service) GetByID(ctx context.Context, userID string) (*User, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "users store not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "user id is required")
	}
	return s.load(ctx, userID)
}

func (s *Service) Me(ctx context.Context) (*User, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "users store not configured")
	}
	userID, ok := identity.UserID(ctx)
	if !ok || strings.TrimSpace(userID) == "" {
		return nil, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}
	return s.load(ctx, userID)
}

func (s *Service) List(ctx context.Context, f UserFilter) ([]*User, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "users store not configured")
	}
	requesterID, ok := identity.UserID(ctx)
	if !ok || strings.TrimSpace(requesterID) == "" {
		return nil, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}
	if !identity.IsAdmin(ctx) {
		return nil, apperrors.New(apperrors.KindForbidden, "access denied")
	}

	limit := 100
	if f.Limit > 0 {
		limit = min(f.Limit, 1000)
	}
	offset := 0
	if f.Offset > 0 {
		offset = f.Offset
	}
	f.Limit = limit
	f.Offset = offset

	list, err := s.Store.List(ctx, f)
	if err != nil {
		return nil, apperrors.Storage("failed to list users", err)
	}
	return list, nil
}

// UpdateProfile changes the caller's own username, email and, within the
// limits of its current role, its role.
func (s *Service) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*User, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "users store not configured")
	}
	requesterID, ok := identity.UserID(ctx)
	if !ok || strings.TrimSpace(requesterID) == "" {
		return nil, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}

	current, err := s.load(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	req := UpdateProfileRequest{ID: current.ID}

	if input.Role != nil {
		role, err := AuthorizeProfileRole(string(current.Role), strings.TrimSpace(*input.Role))
		if err != nil {
			return nil, err
		}
		if role != current.Role {
			req.Role = role
		}
	}
	if input.Username != nil {
		req.Username = strings.TrimSpace(*input.Username)
	}
	if input.Email != nil {
		req.Email = strings.TrimSpace(strings.ToLower(*input.Email))
	}

	if req.Username == "" && req.Email == "" && !req.Role.Valid() {
		return current, nil
	}

	updated, err := s.Store.UpdateProfile(ctx, &req)
	if err != nil {
		if IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindNotFound, "user not found")
		}
		switch UniqueViolationField(err) {
		case "email":
			return nil, apperrors.New(apperrors.KindConflict, "email already exists")
		case "username":
			return nil, apperrors.New(apperrors.KindConflict, "username already exists")
		}
		return nil, apperrors.Storage("failed to update profile", err)
	}
	return updated, nil
}

// ChangeRole sets the role of targetID on behalf of the caller. The caller's
// role is read from storage, not from its credentials.
func (s *Service) ChangeRole(ctx context.Context, targetID string, requested string) (*User, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "users store not configured")
	}
	requesterID, ok := identity.UserID(ctx)
	if !ok || strings.TrimSpace(requesterID) == "" {
		return nil, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "id is required")
	}

	target, err := s.load(ctx, targetID)
	if err != nil {
		return nil, err
	}

	requester, err := s.Store.GetByID(ctx, requesterID)
	if err != nil {
		if IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
		}
		return nil, apperrors.Storage("failed to load user", err)
	}

	role, err := AuthorizeRoleChange(RoleChange{
		RequesterID:   requester.ID,
		RequesterRole: string(requester.Role),
		TargetID:      target.ID,
		TargetRole:    string(target.Role),
		Requested:     strings.TrimSpace(requested),
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.Store.UpdateRole(ctx, target.ID, role)
	if err != nil {
		if IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindNotFound, "user not found")
		}
		return nil, apperrors.Storage("failed to update role", err)
	}
	return updated, nil
}

func (s *Service) load(ctx context.Context, id string) (*User, error) {
	u, err := s.Store.GetByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindNotFound, "user not found")
		}
		return nil, apperrors.Storage("failed to load user", err)
	}
	return u, nil
}
