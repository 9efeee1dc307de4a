package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process. Expired entries are dropped on read.
type MemoryStore struct {
	mu     sync.Mutex
	items  map[string]Session
	byUser map[string]map[string]struct{}
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:  make(map[string]Session),
		byUser: make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *MemoryStore) Set(_ context.Context, id string, sess Session, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[id] = sess
	ids, ok := s.byUser[sess.UserID]
	if !ok {
		ids = make(map[string]struct{})
		s.byUser[sess.UserID] = ids
	}
	ids[id] = struct{}{}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.clock().After(sess.ExpiresAt) {
		s.remove(id)
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(id)
	return nil
}

func (s *MemoryStore) DeleteByUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id := range s.byUser[userID] {
		if _, ok := s.items[id]; ok {
			n++
		}
		delete(s.items, id)
	}
	delete(s.byUser, userID)
	return n, nil
}

// Len is the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *MemoryStore) remove(id string) {
	sess, ok := s.items[id]
	if !ok {
		return
	}
	delete(s.items, id)
	if ids := s.byUser[sess.UserID]; ids != nil {
		delete(ids, id)
		if len(ids) == 0 {
			delete(s.byUser, sess.UserID)
		}
	}
}
