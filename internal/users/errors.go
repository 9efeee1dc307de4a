package users

import (
	"errors"

	"github.com/PabloPavan/bookshelf_api/internal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = internal.ErrNotFound

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, internal.ErrNotFound)
}

// UniqueViolationField returns "email" or "username" when err is a unique
// violation on that column, and "" otherwise.
func UniqueViolationField(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ""
	}

	// 23505 = unique_violation
	if pgErr.Code != "23505" {
		return ""
	}

	switch {
	case pgErr.ConstraintName == "users_email_key" || pgErr.ColumnName == "email":
		return "email"
	case pgErr.ConstraintName == "users_username_key" || pgErr.ColumnName == "username":
		return "username"
	}
	return ""
}
