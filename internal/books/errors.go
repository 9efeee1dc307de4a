package books

import (
	"errors"

	"github.com/PabloPavan/bookshelf_api/internal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound    = internal.ErrNotFound
	ErrDuplicateID = errors.New("book id already exists")
)

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, internal.ErrNotFound)
}

// IsForeignKeyViolation is true when the owner referenced by a book does not exist.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23503" // foreign_key_violation
}

func IsUniqueViolationID(err error) bool {
	if errors.Is(err, ErrDuplicateID) {
		return true
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != "23505" { // unique_violation
		return false
	}
	return pgErr.ConstraintName == "books_pkey" || pgErr.ColumnName == "id"
}
