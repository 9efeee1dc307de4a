package wishlist

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/PabloPavan/bookshelf_api/internal/apperrors"
	"github.com/PabloPavan/bookshelf_api/internal/books"
	"github.com/PabloPavan/bookshelf_api/internal/identity"
)

// memoryStore models user_wishlist: an ordered set per user over a fixed catalog.
// Like the SQL, it only admits and returns books that are public or owned by the user.
type memoryStore struct {
	catalog map[string]*books.Book
	lists   map[string][]string
	fail    error
}

func newMemoryStore(ids ...string) *memoryStore {
	m := &memoryStore{catalog: map[string]*books.Book{}, lists: map[string][]string{}}
	for _, id := range ids {
		m.catalog[id] = &books.Book{ID: id, Title: "title " + id, AddedBy: "usr_owner", IsPublic: true}
	}
	return m
}

func (m *memoryStore) visible(userID, bookID string) bool {
	b, ok := m.catalog[bookID]
	return ok && (b.IsPublic || b.AddedBy == userID)
}

func (m *memoryStore) Books(ctx context.Context, userID string) ([]*books.Book, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	var out []*books.Book
	for _, id := range m.lists[userID] {
		if m.visible(userID, id) {
			out = append(out, m.catalog[id])
		}
	}
	return out, nil
}

func (m *memoryStore) IDs(ctx context.Context, userID string) ([]string, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	out := []string{}
	for _, id := range m.lists[userID] {
		if m.visible(userID, id) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *memoryStore) Toggle(ctx context.Context, userID, bookID string) (bool, error) {
	if i := slices.Index(m.lists[userID], bookID); i >= 0 {
		m.lists[userID] = slices.Delete(m.lists[userID], i, i+1)
		return false, nil
	}
	if !m.visible(userID, bookID) {
		return false, books.ErrNotFound
	}
	m.lists[userID] = append(m.lists[userID], bookID)
	return true, nil
}

func (m *memoryStore) AddMany(ctx context.Context, userID string, bookIDs []string) (int64, error) {
	var n int64
	for _, id := range bookIDs {
		if !m.visible(userID, id) || slices.Contains(m.lists[userID], id) {
			continue
		}
		m.lists[userID] = append(m.lists[userID], id)
		n++
	}
	return n, nil
}

func (m *memoryStore) RemoveMany(ctx context.Context, userID string, bookIDs []string) (int64, error) {
	before := len(m.lists[userID])
	m.lists[userID] = slices.DeleteFunc(m.lists[userID], func(id string) bool {
		return slices.Contains(bookIDs, id)
	})
	return int64(before - len(m.lists[userID])), nil
}

func userCtx() context.Context {
	return identity.WithUser(context.Background(), "usr_1", "student")
}

func TestServiceToggle(t *testing.T) {
	store := newMemoryStore("bk_1", "bk_2")
	svc := &Service{Store: store}

	res, err := svc.Toggle(userCtx(), "bk_1")
	if err != nil {
		t.Fatalf("toggle error: %v", err)
	}
	if !res.Added || !slices.Equal(res.Wishlist, []string{"bk_1"}) {
		t.Fatalf("unexpected result: %+v", res)
	}

	res, err = svc.Toggle(userCtx(), "bk_1")
	if err != nil {
		t.Fatalf("toggle error: %v", err)
	}
	if res.Added || len(res.Wishlist) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestServiceToggleUnknownBook(t *testing.T) {
	svc := &Service{Store: newMemoryStore()}

	_, err := svc.Toggle(userCtx(), "bk_missing")
	assertKind(t, err, apperrors.KindNotFound)
}

func TestServiceTogglePrivateBookOfOtherUser(t *testing.T) {
	store := newMemoryStore("bk_secret", "bk_mine")
	store.catalog["bk_secret"].IsPublic = false
	store.catalog["bk_mine"].IsPublic = false
	store.catalog["bk_mine"].AddedBy = "usr_1"
	svc := &Service{Store: store}

	_, err := svc.Toggle(userCtx(), "bk_secret")
	assertKind(t, err, apperrors.KindNotFound)

	res, err := svc.Toggle(userCtx(), "bk_mine")
	if err != nil {
		t.Fatalf("toggle own private book: %v", err)
	}
	if !res.Added || !slices.Equal(res.Wishlist, []string{"bk_mine"}) {
		t.Fatalf("unexpected result: %+v", res)
	}

	n, err := svc.AddMany(userCtx(), []string{"bk_secret"})
	if err != nil {
		t.Fatalf("add many error: %v", err)
	}
	if n != 0 {
		t.Fatalf("private book of another user was added")
	}
}

func TestServiceListHidesBooksMadePrivate(t *testing.T) {
	store := newMemoryStore("bk_1", "bk_2")
	svc := &Service{Store: store}

	if _, err := svc.AddMany(userCtx(), []string{"bk_1", "bk_2"}); err != nil {
		t.Fatalf("add many error: %v", err)
	}
	store.catalog["bk_1"].IsPublic = false

	list, err := svc.List(userCtx())
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(list) != 1 || list[0].ID != "bk_2" {
		t.Fatalf("unexpected wishlist: %+v", list)
	}

	ids, err := svc.IDs(userCtx())
	if err != nil {
		t.Fatalf("ids error: %v", err)
	}
	if !slices.Equal(ids, []string{"bk_2"}) {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestServiceIDsRequiresIdentity(t *testing.T) {
	svc := &Service{Store: newMemoryStore()}

	_, err := svc.IDs(context.Background())
	assertKind(t, err, apperrors.KindUnauthorized)
}

func TestServiceAddManySkipsUnknownAndDuplicates(t *testing.T) {
	store := newMemoryStore("bk_1", "bk_2", "bk_3")
	svc := &Service{Store: store}

	if _, err := svc.Toggle(userCtx(), "bk_2"); err != nil {
		t.Fatalf("toggle error: %v", err)
	}

	n, err := svc.AddMany(userCtx(), []string{"bk_3", "bk_missing", "bk_2", "bk_3", "bk_1"})
	if err != nil {
		t.Fatalf("add many error: %v", err)
	}
	if n != 2 {
		t.Fatalf("unexpected added count: %d", n)
	}

	list, err := svc.List(userCtx())
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	var ids []string
	for _, b := range list {
		ids = append(ids, b.ID)
	}
	if !slices.Equal(ids, []string{"bk_2", "bk_3", "bk_1"}) {
		t.Fatalf("unexpected order: %v", ids)
	}
}

func TestServiceRemoveMany(t *testing.T) {
	store := newMemoryStore("bk_1", "bk_2")
	svc := &Service{Store: store}

	if _, err := svc.AddMany(userCtx(), []string{"bk_1", "bk_2"}); err != nil {
		t.Fatalf("add many error: %v", err)
	}
	n, err := svc.RemoveMany(userCtx(), []string{"bk_2", "bk_other"})
	if err != nil {
		t.Fatalf("remove many error: %v", err)
	}
	if n != 1 || !slices.Equal(store.lists["usr_1"], []string{"bk_1"}) {
		t.Fatalf("unexpected state: n=%d list=%v", n, store.lists["usr_1"])
	}
}

func TestServiceBulkRequiresIDs(t *testing.T) {
	svc := &Service{Store: newMemoryStore()}

	_, err := svc.AddMany(userCtx(), []string{" ", ""})
	assertKind(t, err, apperrors.KindInvalidInput)

	_, err = svc.RemoveMany(userCtx(), nil)
	assertKind(t, err, apperrors.KindInvalidInput)
}

func TestServiceRequiresIdentity(t *testing.T) {
	svc := &Service{Store: newMemoryStore()}

	_, err := svc.List(context.Background())
	assertKind(t, err, apperrors.KindUnauthorized)
}

func TestServiceListStorageError(t *testing.T) {
	store := newMemoryStore()
	store.fail = errors.New("timeout")
	svc := &Service{Store: store}

	_, err := svc.List(userCtx())
	assertKind(t, err, apperrors.KindStorage)
}

func assertKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error kind %s", kind)
	}
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected app error, got: %v", err)
	}
	if appErr.Kind != kind {
		t.Fatalf("unexpected kind: %s", appErr.Kind)
	}
}
