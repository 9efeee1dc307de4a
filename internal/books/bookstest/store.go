// Package bookstest provides an in-process books.Store for tests.
package bookstest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/PabloPavan/bookshelf_api/internal/books"
)

// MemoryStore applies books.QuerySpec with Matches and Less, and groups explore
// results with books.Dedupe, so it answers the same questions as the Postgres
// repository.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]books.Book
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]books.Book),
		now:   time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, b *books.Book) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[b.ID]; ok {
		return books.ErrDuplicateID
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now()
	}
	b.UpdatedAt = b.CreatedAt
	s.items[b.ID] = cloneBook(b)
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*books.Book, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.items[id]
	if !ok {
		return nil, books.ErrNotFound
	}
	out := cloneBook(&b)
	return &out, nil
}

func (s *MemoryStore) Update(ctx context.Context, b *books.Book) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items[b.ID]
	if !ok || cur.AddedBy != b.AddedBy {
		return books.ErrNotFound
	}
	b.CreatedAt = cur.CreatedAt
	b.UpdatedAt = s.now()
	s.items[b.ID] = cloneBook(b)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string, ownerID string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items[id]
	if !ok || cur.AddedBy != ownerID {
		return books.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *MemoryStore) DeleteMany(ctx context.Context, ownerID string, ids []string) (int64, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, id := range ids {
		if cur, ok := s.items[id]; ok && cur.AddedBy == ownerID {
			delete(s.items, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) List(ctx context.Context, q books.QuerySpec) ([]*books.Book, error) {
	list := s.matching(q)
	sort.SliceStable(list, func(i, j int) bool { return q.Less(list[i], list[j]) })

	w := q.Window
	if w.Skip >= len(list) {
		return []*books.Book{}, nil
	}
	list = list[w.Skip:]
	if w.Limit > 0 && len(list) > w.Limit {
		list = list[:w.Limit]
	}
	return list, nil
}

func (s *MemoryStore) Count(ctx context.Context, q books.QuerySpec) (int64, error) {
	return int64(len(s.matching(q))), nil
}

func (s *MemoryStore) Explore(ctx context.Context, q books.QuerySpec) ([]books.ExploreItem, error) {
	w := q.Window
	if w.Limit <= 0 {
		w.Limit = books.ExploreLimit
	}
	return books.Page(books.Dedupe(s.matching(q)), w).Books, nil
}

func (s *MemoryStore) StatusCounts(ctx context.Context, ownerID string) (map[books.Status]int64, error) {
	out := make(map[books.Status]int64)
	for _, b := range s.matching(books.QuerySpec{OwnerID: ownerID, Status: books.StatusFilter{Mode: books.StatusAny}}) {
		out[b.Status]++
	}
	return out, nil
}

func (s *MemoryStore) Aggregates(ctx context.Context, ownerID string, since time.Time) (books.Aggregates, error) {
	agg := books.Aggregates{
		StatusCounts: make(map[books.Status]int64),
		GenreCounts:  make(map[string]int64),
		MonthCounts:  make(map[books.MonthKey]int64),
	}
	for _, b := range s.matching(books.QuerySpec{OwnerID: ownerID, Status: books.StatusFilter{Mode: books.StatusAny}}) {
		agg.Total++
		agg.StatusCounts[b.Status]++
		agg.GenreCounts[b.Genre]++
		if !b.CreatedAt.Before(since) {
			agg.MonthCounts[books.MonthOf(b.CreatedAt)]++
		}
	}
	return agg, nil
}

func (s *MemoryStore) matching(q books.QuerySpec) []*books.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*books.Book, 0, len(s.items))
	for _, b := range s.items {
		if q.Matches(&b) {
			cp := cloneBook(&b)
			out = append(out, &cp)
		}
	}
	return out
}

func cloneBook(b *books.Book) books.Book {
	out := *b
	out.Tags = append([]string{}, b.Tags...)
	return out
}
