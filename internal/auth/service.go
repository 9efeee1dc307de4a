package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PabloPavan/bookshelf_api/internal/apperrors"
	"github.com/PabloPavan/bookshelf_api/internal/session"
	"github.com/PabloPavan/bookshelf_api/internal/users"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (users.User, error)
}

type SessionManager interface {
	Create(ctx context.Context, userID, role string) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	Refresh(ctx context.Context, sess *session.Session) (*session.Session, bool, error)
	Delete(ctx context.Context, id string) error
}

type TokenService interface {
	Issue(userID, role string) (string, time.Time, error)
	Parse(raw string) (*Claims, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

type Service struct {
	Users            UserStore
	Sessions         SessionManager
	Tokens           TokenService
	LoginLimiter     RateLimiter
	PasswordVerifier func(hashed, plain string) error
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	ClientIP string `json:"-"`
}

type SessionInfo struct {
	ID        string
	UserID    string
	Role      string
	CSRFToken string
	ExpiresAt time.Time
}

type LoginResult struct {
	UserID         string
	UserEmail      string
	UserRole       string
	Token          string
	TokenExpiresAt time.Time
	Session        SessionInfo
}

type Principal struct {
	UserID string
	Role   string
}

func (s *Service) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	if s.Users == nil || s.Sessions == nil {
		return LoginResult{}, apperrors.New(apperrors.KindInternal, "auth not configured")
	}

	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := strings.TrimSpace(input.Password)
	if email == "" || password == "" {
		return LoginResult{}, apperrors.New(apperrors.KindInvalidInput, "email and password are required")
	}
	if !strings.Contains(email, "@") {
		return LoginResult{}, apperrors.New(apperrors.KindInvalidInput, "invalid email")
	}

	if err := s.checkRate(ctx, input.ClientIP, email); err != nil {
		return LoginResult{}, err
	}

	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if users.IsNotFound(err) {
			return LoginResult{}, apperrors.New(apperrors.KindUnauthorized, "invalid credentials")
		}
		return LoginResult{}, apperrors.Storage("failed to load user", err)
	}

	verifier := s.PasswordVerifier
	if verifier == nil {
		verifier = func(hashed, plain string) error {
			return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
		}
	}

	if err := verifier(u.PasswordHash, password); err != nil {
		return LoginResult{}, apperrors.New(apperrors.KindUnauthorized, "invalid credentials")
	}

	sess, err := s.Sessions.Create(ctx, u.ID, string(u.Role))
	if err != nil {
		return LoginResult{}, apperrors.New(apperrors.KindInternal, "failed to create session")
	}

	res := LoginResult{
		UserID:    u.ID,
		UserEmail: u.Email,
		UserRole:  string(u.Role),
		Session: SessionInfo{
			ID:        sess.ID,
			UserID:    sess.UserID,
			Role:      sess.Role,
			CSRFToken: sess.CSRFToken,
			ExpiresAt: sess.ExpiresAt,
		},
	}

	if s.Tokens != nil {
		token, exp, err := s.Tokens.Issue(u.ID, string(u.Role))
		if err != nil {
			return LoginResult{}, apperrors.New(apperrors.KindInternal, "failed to issue token")
		}
		res.Token = token
		res.TokenExpiresAt = exp
	}

	return res, nil
}

func (s *Service) checkRate(ctx context.Context, clientIP, email string) error {
	if s.LoginLimiter == nil {
		return nil
	}

	keys := []string{"login:email:" + email}
	if ip := strings.TrimSpace(clientIP); ip != "" {
		keys = append([]string{"login:ip:" + ip}, keys...)
	}

	for _, key := range keys {
		allowed, retryAfter, err := s.LoginLimiter.Allow(ctx, key)
		if err != nil {
			return apperrors.New(apperrors.KindInternal, "rate limit error")
		}
		if !allowed {
			return apperrors.RateLimit("too many requests", retryAfter)
		}
	}
	return nil
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if s.Sessions == nil {
		return apperrors.New(apperrors.KindInternal, "auth not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	if err := s.Sessions.Delete(ctx, sessionID); err != nil {
		return apperrors.New(apperrors.KindInternal, "failed to logout")
	}
	return nil
}

// AuthenticateToken verifies a bearer token. Bearer callers are not subject to CSRF checks.
func (s *Service) AuthenticateToken(ctx context.Context, token string) (Principal, error) {
	_ = ctx
	if strings.TrimSpace(token) == "" || s.Tokens == nil {
		return Principal{}, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}

	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return Principal{}, apperrors.New(apperrors.KindUnauthorized, "invalid token")
	}
	if !users.UserRole(claims.Role).Valid() {
		return Principal{}, apperrors.New(apperrors.KindUnauthorized, "invalid token")
	}

	return Principal{UserID: claims.UserID, Role: claims.Role}, nil
}

func (s *Service) AuthenticateSession(ctx context.Context, sessionID, csrfToken, method string) (SessionInfo, bool, error) {
	if s.Sessions == nil {
		return SessionInfo{}, false, apperrors.New(apperrors.KindInternal, "auth not configured")
	}
	if strings.TrimSpace(sessionID) == "" {
		return SessionInfo{}, false, apperrors.New(apperrors.KindUnauthorized, "missing session")
	}

	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return SessionInfo{}, false, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}

	if requiresCSRFToken(method) {
		if csrfToken == "" || csrfToken != sess.CSRFToken {
			return SessionInfo{}, false, apperrors.New(apperrors.KindForbidden, "invalid csrf token")
		}
	}

	refreshed := false
	sess, refreshed, err = s.Sessions.Refresh(ctx, sess)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return SessionInfo{}, false, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
		}
		return SessionInfo{}, false, apperrors.New(apperrors.KindInternal, "failed to refresh session")
	}

	info := SessionInfo{
		ID:        sess.ID,
		UserID:    sess.UserID,
		Role:      sess.Role,
		CSRFToken: sess.CSRFToken,
		ExpiresAt: sess.ExpiresAt,
	}
	return info, refreshed, nil
}

func requiresCSRFToken(method string) bool {
	switch method {
	case "GET", "HEAD", "OPTIONS":
		return false
	default:
		return true
	}
}
