package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/PabloPavan/bookshelf_api/internal/identity"
	"github.com/PabloPavan/bookshelf_api/internal/telemetry"
	"github.com/PabloPavan/bookshelf_api/internal/users"
	"github.com/go-chi/chi/v5"
)

type UsersService interface {
	Me(ctx context.Context) (*users.User, error)
	List(ctx context.Context, f users.UserFilter) ([]*users.User, error)
	UpdateProfile(ctx context.Context, input users.UpdateProfileInput) (*users.User, error)
	ChangeRole(ctx context.Context, targetID string, requested string) (*users.User, error)
}

// SessionRevoker ends every session of a user. Used after a role change so the
// new role applies on the next login.
type SessionRevoker interface {
	RevokeUser(ctx context.Context, userID string) (int, error)
}

// WishlistIDs lists the caller's wishlisted book ids.
type WishlistIDs interface {
	IDs(ctx context.Context) ([]string, error)
}

type UsersHandler struct {
	Service  UsersService
	Sessions SessionRevoker
	Wishlist WishlistIDs
}

// ProfileDetails is the caller's account plus the ids on its wishlist.
type ProfileDetails struct {
	*users.User
	Wishlist []string `json:"wishlist"`
}

type ProfileResponse struct {
	Username string         `json:"username"`
	Email    string         `json:"email"`
	Role     users.UserRole `json:"role"`
}

type RoleChangeUser struct {
	ID       string         `json:"id"`
	Username string         `json:"username"`
	Role     users.UserRole `json:"role"`
}

type RoleChangeResponse struct {
	Message     string         `json:"message"`
	UpdatedUser RoleChangeUser `json:"updatedUser"`
}

// List Users
// @Summary List users (admin)
// @Tags users
// @Produce json
// @Security BearerAuth
// @Security SessionAuth
// @Param q query string false "search by username or email"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Success 200 {array} users.User
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /users [get]
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	list, err := h.Service.List(r.Context(), users.UserFilter{
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
		Limit:  limit,
		Offset: max(offset, 0),
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// Profile User
// @Summary Current user's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Security SessionAuth
// @Success 200 {object} ProfileDetails
// @Failure 401 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /users/profile [get]
func (h *UsersHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.Me(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	ids := []string{}
	if h.Wishlist != nil {
		ids, err = h.Wishlist.IDs(r.Context())
		if err != nil {
			writeAppError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, ProfileDetails{User: u, Wishlist: ids})
}

// UpdateProfile User
// @Summary Update username, email or own role
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Security SessionAuth
// @Param body body ProfileUpdateDTO true "changes"
// @Param X-CSRF-Token header string false "CSRF token (required for SessionAuth)"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /users/profile [put]
func (h *UsersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.Service.UpdateProfile(r.Context(), users.UpdateProfileInput{
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{Username: u.Username, Email: u.Email, Role: u.Role})
}

// UpdateRole User
// @Summary Change another user's role
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Security SessionAuth
// @Param id path string true "user id"
// @Param body body RoleUpdateDTO true "new role"
// @Param X-CSRF-Token header string false "CSRF token (required for SessionAuth)"
// @Success 200 {object} RoleChangeResponse
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /users/{id}/role [put]
func (h *UsersHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	targetID := strings.TrimSpace(chi.URLParam(r, "id"))

	var req RoleUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.Service.ChangeRole(r.Context(), targetID, req.Role)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	revoked := 0
	if h.Sessions != nil {
		n, err := h.Sessions.RevokeUser(r.Context(), u.ID)
		if err != nil {
			telemetry.LogWarn(r.Context(), "session revoke failed",
				telemetry.LogString("user.id", u.ID),
				telemetry.LogErr(err),
			)
		}
		revoked = n
	}

	requesterID, _ := identity.UserID(r.Context())
	telemetry.LogInfo(r.Context(), "user role changed",
		telemetry.LogString("event", "user.role_changed"),
		telemetry.LogString("user.id", u.ID),
		telemetry.LogString("user.role", string(u.Role)),
		telemetry.LogString("requester.id", requesterID),
		telemetry.LogInt("sessions.revoked", revoked),
	)

	writeJSON(w, http.StatusOK, RoleChangeResponse{
		Message: "Role updated successfully",
		UpdatedUser: RoleChangeUser{
			ID:       u.ID,
			Username: u.Username,
			Role:     u.Role,
		},
	})
}
