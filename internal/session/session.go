package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PabloPavan/bookshelf_api/internal"
)

var (
	ErrNotFound       = errors.New("session not found")
	ErrNotConfigured  = errors.New("session store not configured")
	errMissingSession = errors.New("session not provided")
)

// idPrefix marks session ids; stores may rely on it to tell sessions from
// their own bookkeeping keys.
const idPrefix = "ses_"

type Session struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Role            string    `json:"role"`
	CSRFToken       string    `json:"csrf_token"`
	CreatedAt       time.Time `json:"created_at"`
	LastRefreshedAt time.Time `json:"last_refreshed_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

type Store interface {
	Set(ctx context.Context, id string, s Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteByUser removes every session of userID and reports how many went.
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

// Manager issues sliding sessions. A session lives TTL past its last refresh
// but never longer than MaxAge after creation.
type Manager struct {
	Store         Store
	TTL           time.Duration
	MaxAge        time.Duration
	RefreshBefore time.Duration
	IDBytes       int

	now func() time.Time
}

func (m *Manager) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}

func (m *Manager) Create(ctx context.Context, userID, role string) (*Session, error) {
	if m.Store == nil {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("session user is required")
	}

	idBytes := m.IDBytes
	if idBytes <= 0 {
		idBytes = 32
	}

	now := m.clock()
	s := Session{
		ID:              idPrefix + internal.RandomHex(idBytes),
		UserID:          userID,
		Role:            role,
		CSRFToken:       internal.RandomHex(16),
		CreatedAt:       now,
		LastRefreshedAt: now,
		ExpiresAt:       now.Add(m.TTL),
	}

	if err := m.Store.Set(ctx, s.ID, s, m.TTL); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if m.Store == nil {
		return nil, ErrNotConfigured
	}
	sess, err := m.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := m.clock()
	m.backfill(sess, now)
	if m.tooOld(sess, now) {
		_ = m.Store.Delete(ctx, id)
		return nil, ErrNotFound
	}
	return sess, nil
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	if m.Store == nil {
		return ErrNotConfigured
	}
	return m.Store.Delete(ctx, id)
}

// RevokeUser logs userID out everywhere.
func (m *Manager) RevokeUser(ctx context.Context, userID string) (int, error) {
	if m.Store == nil {
		return 0, ErrNotConfigured
	}
	return m.Store.DeleteByUser(ctx, userID)
}

// Refresh extends sess when it is within RefreshBefore of expiring. The bool
// reports whether the expiry moved.
func (m *Manager) Refresh(ctx context.Context, sess *Session) (*Session, bool, error) {
	if m.Store == nil {
		return nil, false, ErrNotConfigured
	}
	if sess == nil {
		return nil, false, errMissingSession
	}
	if m.TTL <= 0 {
		return sess, false, nil
	}

	now := m.clock()
	m.backfill(sess, now)
	if m.tooOld(sess, now) {
		_ = m.Store.Delete(ctx, sess.ID)
		return nil, false, ErrNotFound
	}

	if m.RefreshBefore > 0 && sess.ExpiresAt.Sub(now) > m.RefreshBefore {
		return sess, false, nil
	}

	exp := now.Add(m.TTL)
	if m.MaxAge > 0 {
		if hard := sess.CreatedAt.Add(m.MaxAge); exp.After(hard) {
			exp = hard
		}
	}
	sess.ExpiresAt = exp
	sess.LastRefreshedAt = now

	if err := m.Store.Set(ctx, sess.ID, *sess, exp.Sub(now)); err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

func (m *Manager) tooOld(sess *Session, now time.Time) bool {
	return m.MaxAge > 0 && now.After(sess.CreatedAt.Add(m.MaxAge))
}

// backfill fills timestamps missing from sessions written by older builds.
func (m *Manager) backfill(sess *Session, now time.Time) {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
		if m.TTL > 0 && !sess.ExpiresAt.IsZero() {
			if created := sess.ExpiresAt.Add(-m.TTL); created.Before(now) {
				sess.CreatedAt = created
			}
		}
	}
	if sess.LastRefreshedAt.IsZero() {
		sess.LastRefreshedAt = sess.CreatedAt
	}
}
