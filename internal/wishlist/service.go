package wishlist

import (
	"context"
	"strings"

	"github.com/PabloPavan/bookshelf_api/internal/apperrors"
	"github.com/PabloPavan/bookshelf_api/internal/books"
	"github.com/PabloPavan/bookshelf_api/internal/identity"
)

type Store interface {
	Books(ctx context.Context, userID string) ([]*books.Book, error)
	IDs(ctx context.Context, userID string) ([]string, error)
	Toggle(ctx context.Context, userID, bookID string) (bool, error)
	AddMany(ctx context.Context, userID string, bookIDs []string) (int64, error)
	RemoveMany(ctx context.Context, userID string, bookIDs []string) (int64, error)
}

type Service struct {
	Store Store
}

type ToggleResult struct {
	Added    bool
	Wishlist []string
}

func (s *Service) user(ctx context.Context) (string, error) {
	if s.Store == nil {
		return "", apperrors.New(apperrors.KindInternal, "wishlist store not configured")
	}
	userID, ok := identity.UserID(ctx)
	if !ok || strings.TrimSpace(userID) == "" {
		return "", apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}
	return userID, nil
}

// List returns the caller's wishlisted books in the order they were added.
func (s *Service) List(ctx context.Context) ([]*books.Book, error) {
	userID, err := s.user(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.Store.Books(ctx, userID)
	if err != nil {
		return nil, apperrors.Storage("failed to load wishlist", err)
	}
	return list, nil
}

// IDs returns the ids of the caller's wishlisted books in the order they were added.
func (s *Service) IDs(ctx context.Context) ([]string, error) {
	userID, err := s.user(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := s.Store.IDs(ctx, userID)
	if err != nil {
		return nil, apperrors.Storage("failed to load wishlist", err)
	}
	return ids, nil
}

func (s *Service) Toggle(ctx context.Context, bookID string) (ToggleResult, error) {
	userID, err := s.user(ctx)
	if err != nil {
		return ToggleResult{}, err
	}
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return ToggleResult{}, apperrors.New(apperrors.KindInvalidInput, "book id is required")
	}

	added, err := s.Store.Toggle(ctx, userID, bookID)
	if err != nil {
		if books.IsNotFound(err) {
			return ToggleResult{}, apperrors.New(apperrors.KindNotFound, "book not found")
		}
		return ToggleResult{}, apperrors.Storage("failed to update wishlist", err)
	}

	ids, err := s.Store.IDs(ctx, userID)
	if err != nil {
		return ToggleResult{}, apperrors.Storage("failed to load wishlist", err)
	}
	return ToggleResult{Added: added, Wishlist: ids}, nil
}

// AddMany adds every book among bookIDs the caller may see. Unknown ids,
// private books of other users and books already on the wishlist are skipped.
func (s *Service) AddMany(ctx context.Context, bookIDs []string) (int64, error) {
	userID, err := s.user(ctx)
	if err != nil {
		return 0, err
	}
	bookIDs = dedupe(bookIDs)
	if len(bookIDs) == 0 {
		return 0, apperrors.New(apperrors.KindInvalidInput, "no book ids provided")
	}

	n, err := s.Store.AddMany(ctx, userID, bookIDs)
	if err != nil {
		return 0, apperrors.Storage("failed to update wishlist", err)
	}
	return n, nil
}

func (s *Service) RemoveMany(ctx context.Context, bookIDs []string) (int64, error) {
	userID, err := s.user(ctx)
	if err != nil {
		return 0, err
	}
	bookIDs = dedupe(bookIDs)
	if len(bookIDs) == 0 {
		return 0, apperrors.New(apperrors.KindInvalidInput, "no book ids provided")
	}

	n, err := s.Store.RemoveMany(ctx, userID, bookIDs)
	if err != nil {
		return 0, apperrors.Storage("failed to update wishlist", err)
	}
	return n, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
