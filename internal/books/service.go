package books

import (
	"context"
	"strings"
	"time"

	"github.com/PabloPavan/bookshelf_api/internal/apperrors"
	"github.com/PabloPavan/bookshelf_api/internal/identity"
)

type Store interface {
	Create(ctx context.Context, b *Book) error
	GetByID(ctx context.Context, id string) (*Book, error)
	Update(ctx context.Context, b *Book) error
	Delete(ctx context.Context, id string, ownerID string) error
	DeleteMany(ctx context.Context, ownerID string, ids []string) (int64, error)
	List(ctx context.Context, q QuerySpec) ([]*Book, error)
	Count(ctx context.Context, q QuerySpec) (int64, error)
	Explore(ctx context.Context, q QuerySpec) ([]ExploreItem, error)
	StatusCounts(ctx context.Context, ownerID string) (map[Status]int64, error)
	Aggregates(ctx context.Context, ownerID string, since time.Time) (Aggregates, error)
}

type Service struct {
	Store       Store
	Cache       ExploreCache
	ExploreTTL  time.Duration
	PageLimit   int
	IDGenerator func() string
	Now         func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) owner(ctx context.Context) (string, error) {
	if s.Store == nil {
		return "", apperrors.New(apperrors.KindInternal, "books store not configured")
	}
	ownerID, ok := identity.UserID(ctx)
	if !ok || strings.TrimSpace(ownerID) == "" {
		return "", apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}
	return ownerID, nil
}

func (s *Service) invalidateExplore(ctx context.Context) {
	if s.Cache != nil {
		_ = s.Cache.Invalidate(ctx)
	}
}

// ListOwn returns every book of the caller, newest first.
func (s *Service) ListOwn(ctx context.Context) ([]*Book, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.Store.List(ctx, OwnerQuery(ownerID, FilterInput{Status: "all"}, Window{}))
	if err != nil {
		return nil, apperrors.Storage("failed to list books", err)
	}
	return list, nil
}

func (s *Service) Create(ctx context.Context, req CreateBookRequest) (*Book, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}

	idGen := s.IDGenerator
	if idGen == nil {
		idGen = newBookID
	}
	b, err := buildBook(req, ownerID, s.now(), idGen())
	if err != nil {
		return nil, err
	}

	if err := s.Store.Create(ctx, b); err != nil {
		if IsUniqueViolationID(err) {
			return nil, apperrors.New(apperrors.KindConflict, "book already exists")
		}
		if IsForeignKeyViolation(err) {
			return nil, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
		}
		return nil, apperrors.Storage("failed to create book", err)
	}

	s.invalidateExplore(ctx)
	return b, nil
}

// Get returns a book the caller owns, or any public book.
func (s *Service) Get(ctx context.Context, id string) (*Book, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.AddedBy != ownerID && !b.IsPublic {
		return nil, apperrors.New(apperrors.KindForbidden, "access denied")
	}
	return b, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateBookInput) (*Book, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.AddedBy != ownerID {
		return nil, apperrors.New(apperrors.KindForbidden, "access denied")
	}

	if err := applyUpdate(b, in); err != nil {
		return nil, err
	}

	if err := s.Store.Update(ctx, b); err != nil {
		if IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindNotFound, "book not found")
		}
		return nil, apperrors.Storage("failed to update book", err)
	}

	s.invalidateExplore(ctx)
	return b, nil
}

func applyUpdate(b *Book, in UpdateBookInput) error {
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return apperrors.New(apperrors.KindInvalidInput, "title is required")
		}
		b.Title = t
	}
	if in.Author != nil {
		a := strings.TrimSpace(*in.Author)
		if a == "" {
			return apperrors.New(apperrors.KindInvalidInput, "author is required")
		}
		b.Author = a
	}
	if in.Status != nil {
		st := Status(strings.TrimSpace(*in.Status))
		if !st.Valid() {
			return apperrors.New(apperrors.KindInvalidInput, "invalid status")
		}
		b.Status = st
	}
	if in.Year != nil {
		b.Year = *in.Year
	}
	if in.Genre != nil {
		b.Genre = strings.TrimSpace(*in.Genre)
	}
	if in.Description != nil {
		b.Description = *in.Description
	}
	if in.Tags != nil {
		b.Tags = nonBlank(*in.Tags)
		if b.Tags == nil {
			b.Tags = []string{}
		}
	}
	if in.Rating != nil {
		b.Rating = *in.Rating
	}
	if in.IsPublic != nil {
		b.IsPublic = *in.IsPublic
	}
	if in.ISBN != nil {
		b.ISBN = strings.TrimSpace(*in.ISBN)
	}
	if in.CoverURL != nil {
		b.CoverURL = strings.TrimSpace(*in.CoverURL)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return err
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if b.AddedBy != ownerID {
		return apperrors.New(apperrors.KindForbidden, "access denied")
	}

	if err := s.Store.Delete(ctx, b.ID, ownerID); err != nil {
		if IsNotFound(err) {
			return apperrors.New(apperrors.KindNotFound, "book not found")
		}
		return apperrors.Storage("failed to delete book", err)
	}

	s.invalidateExplore(ctx)
	return nil
}

// BulkDelete removes the caller's books among ids. Ids owned by others are skipped.
func (s *Service) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return 0, err
	}
	ids = nonBlank(ids)
	if len(ids) == 0 {
		return 0, apperrors.New(apperrors.KindInvalidInput, "no book ids provided")
	}

	n, err := s.Store.DeleteMany(ctx, ownerID, ids)
	if err != nil {
		return 0, apperrors.Storage("failed to delete books", err)
	}
	if n == 0 {
		return 0, apperrors.New(apperrors.KindNotFound, "no matching books found to delete")
	}

	s.invalidateExplore(ctx)
	return n, nil
}

// Filter pages through the caller's books. page is one-based.
func (s *Service) Filter(ctx context.Context, in FilterInput, page, limit string) (FilterResult, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return FilterResult{}, err
	}

	w, current := OneBasedPage(page, limit, s.PageLimit)
	q := OwnerQuery(ownerID, in, w)

	overall, err := s.Store.Count(ctx, QuerySpec{OwnerID: ownerID, Status: StatusFilter{Mode: StatusAny}})
	if err != nil {
		return FilterResult{}, apperrors.Storage("failed to count books", err)
	}
	filtered, err := s.Store.Count(ctx, q)
	if err != nil {
		return FilterResult{}, apperrors.Storage("failed to count books", err)
	}
	counts, err := s.Store.StatusCounts(ctx, ownerID)
	if err != nil {
		return FilterResult{}, apperrors.Storage("failed to count books", err)
	}
	list, err := s.Store.List(ctx, q)
	if err != nil {
		return FilterResult{}, apperrors.Storage("failed to list books", err)
	}

	return FilterResult{
		Books:         list,
		OverallTotal:  overall,
		FilteredTotal: filtered,
		TotalPages:    TotalPages(filtered, w.Limit),
		CurrentPage:   current,
		Stats:         StatusStats(counts),
	}, nil
}

// Export returns every book matching in, in sort order, without pagination.
func (s *Service) Export(ctx context.Context, in FilterInput) ([]*Book, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.Store.List(ctx, ExportQuery(ownerID, in))
	if err != nil {
		return nil, apperrors.Storage("failed to export books", err)
	}
	return list, nil
}

// Explore lists public books of all owners, one entry per volume. page is zero-based.
func (s *Service) Explore(ctx context.Context, search, genre, page string) (ExploreResult, error) {
	if s.Store == nil {
		return ExploreResult{}, apperrors.New(apperrors.KindInternal, "books store not configured")
	}

	w, _ := ZeroBasedPage(page, ExploreLimit)
	q := ExploreQuery(search, genre, w)
	key := exploreCacheKey(q)

	if s.Cache != nil {
		if cached, ok, err := s.Cache.Get(ctx, key); err == nil && ok {
			return *cached, nil
		}
	}

	items, err := s.Store.Explore(ctx, q)
	if err != nil {
		return ExploreResult{}, apperrors.Storage("failed to explore books", err)
	}
	res := NewExploreResult(items, w.Limit)

	if s.Cache != nil && s.ExploreTTL > 0 {
		_ = s.Cache.Set(ctx, key, res, s.ExploreTTL)
	}
	return res, nil
}

func (s *Service) Stats(ctx context.Context) (StatsDetails, error) {
	ownerID, err := s.owner(ctx)
	if err != nil {
		return StatsDetails{}, err
	}

	now := s.now()
	agg, err := s.Store.Aggregates(ctx, ownerID, GrowthWindowStart(now))
	if err != nil {
		return StatsDetails{}, apperrors.Storage("failed to compute stats", err)
	}
	return BuildStatsDetails(now, agg), nil
}

func (s *Service) load(ctx context.Context, id string) (*Book, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "id is required")
	}
	b, err := s.Store.GetByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindNotFound, "book not found")
		}
		return nil, apperrors.Storage("failed to load book", err)
	}
	return b, nil
}
