package wishlist

import (
	"context"

	"github.com/PabloPavan/bookshelf_api/internal/books"
	"github.com/PabloPavan/bookshelf_api/internal/db"
)

type Repository struct {
	base *db.Base
}

func NewRepository(base *db.Base) *Repository {
	return &Repository{base: base}
}

// user_wishlist shares no column names with books, so the book columns need no alias.
// Books the user cannot see (private and owned by someone else) are left out.
const sqlWishlistBooks = `SELECT ` + books.SelectColumns + `
		FROM user_wishlist w
		JOIN books ON books.id = w.book_id
		WHERE w.user_id = $1
		  AND (books.is_public OR books.added_by = $1)
		ORDER BY w.added_at ASC, w.book_id ASC`

const (
	sqlWishlistIDs = `SELECT w.book_id
		FROM user_wishlist w
		JOIN books b ON b.id = w.book_id
		WHERE w.user_id = $1
		  AND (b.is_public OR b.added_by = $1)
		ORDER BY w.added_at ASC, w.book_id ASC`

	sqlWishlistRemove = `DELETE FROM user_wishlist
		WHERE user_id = $1 AND book_id = $2`

	sqlWishlistAdd = `INSERT INTO user_wishlist (user_id, book_id)
		SELECT $1, id FROM books
		WHERE id = $2 AND (is_public OR added_by = $1)
		ON CONFLICT DO NOTHING`

	sqlWishlistAddMany = `INSERT INTO user_wishlist (user_id, book_id)
		SELECT $1, b.id
		FROM unnest($2::text[]) WITH ORDINALITY AS req(id, pos)
		JOIN books b ON b.id = req.id
		WHERE b.is_public OR b.added_by = $1
		ORDER BY req.pos
		ON CONFLICT DO NOTHING`

	sqlWishlistRemoveMany = `DELETE FROM user_wishlist
		WHERE user_id = $1 AND book_id = ANY($2)`
)

func (r *Repository) Books(ctx context.Context, userID string) ([]*books.Book, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(ctx, sqlWishlistBooks, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*books.Book, 0, 16)
	for rows.Next() {
		b, err := books.ScanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) IDs(ctx context.Context, userID string) ([]string, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(ctx, sqlWishlistIDs, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0, 16)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Toggle removes bookID when present and adds it otherwise. It reports
// whether the book ended up on the wishlist.
func (r *Repository) Toggle(ctx context.Context, userID, bookID string) (bool, error) {
	var added bool
	err := r.base.WithTx(ctx, func(ctx context.Context, q db.Queryer) error {
		tag, err := q.Exec(ctx, sqlWishlistRemove, userID, bookID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			return nil
		}

		tag, err = q.Exec(ctx, sqlWishlistAdd, userID, bookID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return books.ErrNotFound
		}
		added = true
		return nil
	})
	return added, err
}

func (r *Repository) AddMany(ctx context.Context, userID string, bookIDs []string) (int64, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	tag, err := r.base.Q().Exec(ctx, sqlWishlistAddMany, userID, bookIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) RemoveMany(ctx context.Context, userID string, bookIDs []string) (int64, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	tag, err := r.base.Q().Exec(ctx, sqlWishlistRemoveMany, userID, bookIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
