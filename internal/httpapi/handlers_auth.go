package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PabloPavan/bookshelf_api/internal/auth"
	"github.com/PabloPavan/bookshelf_api/internal/session"
	"github.com/PabloPavan/bookshelf_api/internal/telemetry"
	"github.com/PabloPavan/bookshelf_api/internal/users"
	"go.opentelemetry.io/otel/attribute"
)

type AuthService interface {
	Login(ctx context.Context, input auth.LoginInput) (auth.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
}

type SignupService interface {
	Create(ctx context.Context, req users.CreateUserRequest) (*users.User, error)
}

type AuthHandler struct {
	Service  AuthService
	Accounts SignupService
	Cookie   session.CookieConfig
}

type SignupResponse struct {
	Message string      `json:"message"`
	User    *users.User `json:"user"`
}

type LoginResponse struct {
	Message          string `json:"message"`
	Token            string `json:"token,omitempty"`
	Role             string `json:"role"`
	CSRFToken        string `json:"csrfToken"`
	SessionExpiresAt string `json:"sessionExpiresAt"` // RFC3339
}

// Signup Auth
// @Summary Register a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param body body SignupDTO true "account"
// @Success 201 {object} SignupResponse
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if h.Accounts == nil {
		writeError(w, http.StatusInternalServerError, "auth not configured")
		return
	}

	var req SignupDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, span := telemetry.StartSpan(r.Context(), "users.signup",
		attribute.String("user.email", strings.ToLower(strings.TrimSpace(req.Email))),
	)
	u, err := h.Accounts.Create(ctx, users.CreateUserRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	telemetry.EndSpan(span, err)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	telemetry.LogInfo(r.Context(), "user created",
		telemetry.LogString("event", "user.created"),
		telemetry.LogString("user.id", u.ID),
		telemetry.LogString("user.role", string(u.Role)),
	)

	writeJSON(w, http.StatusCreated, SignupResponse{Message: "User registered successfully", User: u})
}

// Login Auth
// @Summary Login
// @Description Sets the session cookie and returns a bearer token valid for two hours.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginDTO true "credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Failure 429 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "auth not configured")
		return
	}

	var req LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	res, err := h.Service.Login(r.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		ClientIP: clientIP(r),
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	h.Cookie.Write(w, res.Session.ID, res.Session.ExpiresAt)

	telemetry.LogInfo(r.Context(), "user login",
		telemetry.LogString("event", "user.login"),
		telemetry.LogString("user.id", res.UserID),
		telemetry.LogString("user.role", res.UserRole),
	)

	writeJSON(w, http.StatusOK, LoginResponse{
		Message:          "Login successful",
		Token:            res.Token,
		Role:             res.UserRole,
		CSRFToken:        res.Session.CSRFToken,
		SessionExpiresAt: res.Session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Logout Auth
// @Summary Logout
// @Tags auth
// @Success 204
// @Failure 500 {object} errorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "auth not configured")
		return
	}

	if cookie, err := r.Cookie(h.Cookie.CookieName()); err == nil && cookie.Value != "" {
		if err := h.Service.Logout(r.Context(), cookie.Value); err != nil {
			writeAppError(w, r, err)
			return
		}
	}

	h.Cookie.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
