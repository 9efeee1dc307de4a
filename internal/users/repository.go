package users

import (
	"context"
	"strconv"
	"strings"

	"github.com/PabloPavan/bookshelf_api/internal/db"
)

type Repository struct {
	base *db.Base
}

func NewRepository(base *db.Base) *Repository {
	return &Repository{base: base}
}

const userColumns = `id, username, email, password_hash, role, created_at`

const (
	sqlUserInsert = `INSERT INTO users (id, username, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	sqlUserList = `SELECT ` + userColumns + `
		FROM users
		WHERE username ILIKE $1 OR email ILIKE $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	sqlUserGetByEmail = `SELECT ` + userColumns + `
		FROM users
		WHERE email = $1`

	sqlUserGetByID = `SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`

	sqlUserUpdateBase = `UPDATE users
		SET %s
		WHERE id = $1
		RETURNING ` + userColumns

	sqlUserUpdateRole = `UPDATE users
		SET role = $2
		WHERE id = $1
		RETURNING ` + userColumns

	sqlUserCount = `SELECT count(*) FROM users`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) Create(ctx context.Context, u *User) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	row := r.base.Q().QueryRow(ctx, sqlUserInsert, u.ID, u.Username, u.Email, u.PasswordHash, u.Role)
	return row.Scan(&u.CreatedAt)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (User, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	u, err := scanUser(r.base.Q().QueryRow(ctx, sqlUserGetByEmail, email))
	if IsNotFound(err) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return *u, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	u, err := scanUser(r.base.Q().QueryRow(ctx, sqlUserGetByID, id))
	if IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) List(ctx context.Context, f UserFilter) ([]*User, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	q := "%"
	if strings.TrimSpace(f.Query) != "" {
		q = "%" + strings.ReplaceAll(f.Query, "%", "\\%") + "%"
	}

	rows, err := r.base.Q().Query(ctx, sqlUserList, q, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*User, error) {
	set := make([]string, 0, 3)
	args := make([]any, 0, 4)

	args = append(args, req.ID)
	argPos := 2

	if req.Username != "" {
		set = append(set, "username = $"+strconv.Itoa(argPos))
		args = append(args, req.Username)
		argPos++
	}
	if req.Email != "" {
		set = append(set, "email = $"+strconv.Itoa(argPos))
		args = append(args, req.Email)
		argPos++
	}
	if req.Role.Valid() {
		set = append(set, "role = $"+strconv.Itoa(argPos))
		args = append(args, req.Role)
	}

	if len(set) == 0 {
		return r.GetByID(ctx, req.ID)
	}

	query := strings.Replace(sqlUserUpdateBase, "%s", strings.Join(set, ", "), 1)

	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	u, err := scanUser(r.base.Q().QueryRow(ctx, query, args...))
	if IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) UpdateRole(ctx context.Context, id string, role UserRole) (*User, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	u, err := scanUser(r.base.Q().QueryRow(ctx, sqlUserUpdateRole, id, role))
	if IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	var n int64
	err := r.base.Q().QueryRow(ctx, sqlUserCount).Scan(&n)
	return n, err
}
