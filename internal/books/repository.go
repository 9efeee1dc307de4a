package books

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PabloPavan/bookshelf_api/internal/db"
)

type Repository struct {
	base *db.Base
}

func NewRepository(base *db.Base) *Repository {
	return &Repository{base: base}
}

// SelectColumns is the column list ScanBook expects, in order.
const SelectColumns = `id, added_by, title, author, COALESCE(year, 0), COALESCE(genre, ''),
	description, tags, rating, status, is_public, COALESCE(google_id, ''), COALESCE(isbn, ''),
	cover_url, info_link, created_at, updated_at`

const (
	sqlBookInsert = `INSERT INTO books (id, added_by, title, author, year, genre, description, tags,
		rating, status, is_public, google_id, isbn, cover_url, info_link)
		VALUES ($1, $2, $3, $4, NULLIF($5, 0), NULLIF($6, ''), $7, $8, $9, $10, $11,
		NULLIF($12, ''), NULLIF($13, ''), $14, $15)
		RETURNING created_at, updated_at`

	sqlBookSelectByID = `SELECT ` + SelectColumns + `
		FROM books
		WHERE id = $1`

	sqlBookUpdate = `UPDATE books
		SET title = $3, author = $4, year = NULLIF($5, 0), genre = NULLIF($6, ''),
			description = $7, tags = $8, rating = $9, status = $10, is_public = $11,
			isbn = NULLIF($12, ''), cover_url = $13, updated_at = now()
		WHERE id = $1 AND added_by = $2
		RETURNING updated_at`

	sqlBookDelete = `DELETE FROM books
		WHERE id = $1 AND added_by = $2`

	sqlBookDeleteMany = `DELETE FROM books
		WHERE added_by = $1 AND id = ANY($2)`

	sqlBookDeleteByOwner = `DELETE FROM books
		WHERE added_by = $1`

	sqlBookListBase = `SELECT ` + SelectColumns + `
		FROM books
		WHERE %s
		ORDER BY %s`

	sqlBookCountBase = `SELECT count(*)
		FROM books
		WHERE %s`

	sqlBookExploreBase = `WITH keyed AS (
			SELECT CASE WHEN btrim(COALESCE(google_id, '')) <> '' THEN 'g:' || google_id
				ELSE 'b:' || id END AS group_key,
				id, title, author, cover_url, COALESCE(genre, '') AS genre,
				COALESCE(google_id, '') AS google_id, created_at
			FROM books
			WHERE %s
		), firsts AS (
			SELECT DISTINCT ON (group_key) group_key, id, title, author, cover_url, genre, google_id
			FROM keyed
			ORDER BY group_key, created_at ASC, id ASC
		)
		SELECT group_key, id, title, author, cover_url, genre, google_id
		FROM firsts
		ORDER BY group_key DESC
		LIMIT $%d OFFSET $%d`

	sqlBookStatusCounts = `SELECT status, count(*)
		FROM books
		WHERE added_by = $1
		GROUP BY status`

	sqlBookGenreCounts = `SELECT COALESCE(genre, ''), count(*)
		FROM books
		WHERE added_by = $1
		GROUP BY 1`

	sqlBookMonthCounts = `SELECT EXTRACT(YEAR FROM created_at AT TIME ZONE 'UTC')::int,
			EXTRACT(MONTH FROM created_at AT TIME ZONE 'UTC')::int,
			count(*)
		FROM books
		WHERE added_by = $1 AND created_at >= $2
		GROUP BY 1, 2`

	sqlBookCountAll = `SELECT count(*) FROM books`
)

type rowScanner interface {
	Scan(dest ...any) error
}

// ScanBook reads one row selected with SelectColumns.
func ScanBook(row rowScanner) (*Book, error) {
	var b Book
	var status string
	if err := row.Scan(
		&b.ID,
		&b.AddedBy,
		&b.Title,
		&b.Author,
		&b.Year,
		&b.Genre,
		&b.Description,
		&b.Tags,
		&b.Rating,
		&status,
		&b.IsPublic,
		&b.GoogleID,
		&b.ISBN,
		&b.CoverURL,
		&b.InfoLink,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.Status = Status(status)
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return &b, nil
}

func insertArgs(b *Book) []any {
	return []any{
		b.ID,
		b.AddedBy,
		b.Title,
		b.Author,
		b.Year,
		b.Genre,
		b.Description,
		b.Tags,
		b.Rating,
		string(b.Status),
		b.IsPublic,
		b.GoogleID,
		b.ISBN,
		b.CoverURL,
		b.InfoLink,
	}
}

func (r *Repository) Create(ctx context.Context, b *Book) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	return r.base.Q().QueryRow(ctx, sqlBookInsert, insertArgs(b)...).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// InsertMany stores list in one transaction.
func (r *Repository) InsertMany(ctx context.Context, list []*Book) error {
	return r.base.WithTx(ctx, func(ctx context.Context, q db.Queryer) error {
		for _, b := range list {
			if err := q.QueryRow(ctx, sqlBookInsert, insertArgs(b)...).Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
				return fmt.Errorf("insert %q: %w", b.Title, err)
			}
		}
		return nil
	})
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Book, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	b, err := ScanBook(r.base.Q().QueryRow(ctx, sqlBookSelectByID, id))
	if IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *Repository) Update(ctx context.Context, b *Book) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	err := r.base.Q().QueryRow(ctx, sqlBookUpdate,
		b.ID,
		b.AddedBy,
		b.Title,
		b.Author,
		b.Year,
		b.Genre,
		b.Description,
		b.Tags,
		b.Rating,
		string(b.Status),
		b.IsPublic,
		b.ISBN,
		b.CoverURL,
	).Scan(&b.UpdatedAt)
	if IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

func (r *Repository) Delete(ctx context.Context, id string, ownerID string) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	tag, err := r.base.Q().Exec(ctx, sqlBookDelete, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteMany(ctx context.Context, ownerID string, ids []string) (int64, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	tag, err := r.base.Q().Exec(ctx, sqlBookDeleteMany, ownerID, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	tag, err := r.base.Q().Exec(ctx, sqlBookDeleteByOwner, ownerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) List(ctx context.Context, q QuerySpec) ([]*Book, error) {
	where, args := whereClause(q)
	query := fmt.Sprintf(sqlBookListBase, where, orderBy(q.Sort))
	if q.Window.Limit > 0 {
		args = append(args, q.Window.Limit, q.Window.Skip)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Book, 0, min(max(q.Window.Limit, 16), 128))
	for rows.Next() {
		b, err := ScanBook(rows)
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

func (r *Repository) Count(ctx context.Context, q QuerySpec) (int64, error) {
	where, args := whereClause(q)

	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	var n int64
	err := r.base.Q().QueryRow(ctx, fmt.Sprintf(sqlBookCountBase, where), args...).Scan(&n)
	return n, err
}

func (r *Repository) CountAll(ctx context.Context) (int64, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	var n int64
	err := r.base.Q().QueryRow(ctx, sqlBookCountAll).Scan(&n)
	return n, err
}

func (r *Repository) Explore(ctx context.Context, q QuerySpec) ([]ExploreItem, error) {
	where, args := whereClause(q)
	limit := q.Window.Limit
	if limit <= 0 {
		limit = ExploreLimit
	}
	args = append(args, limit, q.Window.Skip)
	query := fmt.Sprintf(sqlBookExploreBase, where, len(args)-1, len(args))

	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ExploreItem, 0, limit)
	for rows.Next() {
		var it ExploreItem
		if err := rows.Scan(&it.Key, &it.ID, &it.Title, &it.Author, &it.CoverURL, &it.Genre, &it.GoogleID); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) StatusCounts(ctx context.Context, ownerID string) (map[Status]int64, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(ctx, sqlBookStatusCounts, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[Status]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[Status(status)] = n
	}
	return out, rows.Err()
}

func (r *Repository) Aggregates(ctx context.Context, ownerID string, since time.Time) (Aggregates, error) {
	agg := Aggregates{
		GenreCounts: make(map[string]int64),
		MonthCounts: make(map[MonthKey]int64),
	}

	statuses, err := r.StatusCounts(ctx, ownerID)
	if err != nil {
		return Aggregates{}, err
	}
	agg.StatusCounts = statuses
	for _, n := range statuses {
		agg.Total += n
	}

	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(ctx, sqlBookGenreCounts, ownerID)
	if err != nil {
		return Aggregates{}, err
	}
	for rows.Next() {
		var genre string
		var n int64
		if err := rows.Scan(&genre, &n); err != nil {
			rows.Close()
			return Aggregates{}, err
		}
		agg.GenreCounts[genre] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Aggregates{}, err
	}

	rows, err = r.base.Q().Query(ctx, sqlBookMonthCounts, ownerID, since.UTC())
	if err != nil {
		return Aggregates{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var year, month int
		var n int64
		if err := rows.Scan(&year, &month, &n); err != nil {
			return Aggregates{}, err
		}
		agg.MonthCounts[MonthKey{Year: year, Month: time.Month(month)}] = n
	}
	if err := rows.Err(); err != nil {
		return Aggregates{}, err
	}
	return agg, nil
}

func whereClause(q QuerySpec) (string, []any) {
	where := []string{"1=1"}
	args := make([]any, 0, 6)

	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if q.OwnerID != "" {
		add("added_by = $%d", q.OwnerID)
	}
	if q.PublicOnly {
		where = append(where, "is_public")
	}
	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		n := len(args)
		cond := fmt.Sprintf("(title ILIKE $%d OR author ILIKE $%d", n, n)
		if q.SearchISBN {
			cond += fmt.Sprintf(" OR isbn ILIKE $%d", n)
		}
		where = append(where, cond+")")
	}
	if q.Genre != "" {
		add("genre = $%d", q.Genre)
	}
	switch q.Status.Mode {
	case StatusExcludeWishlist:
		add("status <> $%d", string(StatusWishlist))
	case StatusExact:
		add("status = $%d", string(q.Status.Value))
	}
	if len(q.Tags) > 0 {
		add("tags && $%d", q.Tags)
	}

	return strings.Join(where, " AND "), args
}

func orderBy(k SortKey) string {
	switch k {
	case SortTitleAsc:
		return "title ASC, created_at DESC"
	case SortTitleDesc:
		return "title DESC, created_at DESC"
	case SortYearDesc:
		return "year DESC NULLS LAST, created_at DESC"
	default:
		return "created_at DESC"
	}
}
