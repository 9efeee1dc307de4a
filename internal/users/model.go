package users

import "time"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

type CreateUserRequest struct {
	Username string
	Email    string
	Password string
}

// UpdateProfileRequest carries the columns to change. Empty values are left alone.
type UpdateProfileRequest struct {
	ID       string
	Username string
	Email    string
	Role     UserRole
}

type UserFilter struct {
	Query  string
	Limit  int
	Offset int
}
