package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/PabloPavan/bookshelf_api/internal/books"
	"github.com/PabloPavan/bookshelf_api/internal/wishlist"
)

type WishlistService interface {
	List(ctx context.Context) ([]*books.Book, error)
	Toggle(ctx context.Context, bookID string) (wishlist.ToggleResult, error)
	AddMany(ctx context.Context, bookIDs []string) (int64, error)
	RemoveMany(ctx context.Context, bookIDs []string) (int64, error)
}

type WishlistHandler struct {
	Service WishlistService
}

type ToggleResponse struct {
	Message  string   `json:"message"`
	Added    bool     `json:"added"`
	Wishlist []string `json:"wishlist"`
}

type WishlistBulkResponse struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

// List Wishlist
// @Summary Wishlisted books, oldest addition first
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Security SessionAuth
// @Success 200 {array} books.Book
// @Failure 401 {object} errorResponse
// @Router /users/wishlist [get]
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Toggle Wishlist
// @Summary Add a book to the wishlist, or remove it when already present
// @Tags wishlist
// @Produce json
// @Security BearerAuth
// @Security SessionAuth
// @Param bookId path string true "book id"
// @Param X-CSRF-Token header string false "CSRF token (required for SessionAuth)"
// @Success 200 {object} ToggleResponse
// @Failure 404 {object} errorResponse
// @Router /users/wishlist/toggle/{bookId} [post]
func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.Toggle(r.Context(), strings.TrimSpace(chi.URLParam(r, "bookId")))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ToggleResponse{
		Message:  "Wishlist updated",
		Added:    res.Added,
		Wishlist: res.Wishlist,
	})
}

// AddMany Wishlist
// @Summary Add several books to the wishlist
// @Tags wishlist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Security SessionAuth
// @Param body body WishlistBulkDTO true "book ids"
// @Param X-CSRF-Token header string false "CSRF token (required for SessionAuth)"
// @Success 200 {object} WishlistBulkResponse
// @Failure 400 {object} errorResponse
// @Router /users/wishlist/bulk [post]
func (h *WishlistHandler) AddMany(w http.ResponseWriter, r *http.Request) {
	var req WishlistBulkDTO
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	n, err := h.Service.AddMany(r.Context(), req.BookIDs)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, WishlistBulkResponse{Message: "Books added to wishlist successfully", Count: n})
}

// RemoveMany Wishlist
// @Summary Remove several books from the wishlist
// @Tags wishlist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Security SessionAuth
// @Param body body WishlistBulkDTO true "book ids"
// @Param X-CSRF-Token header string false "CSRF token (required for SessionAuth)"
// @Success 200 {object} WishlistBulkResponse
// @Failure 400 {object} errorResponse
// @Router /users/wishlist/bulk-remove [post]
func (h *WishlistHandler) RemoveMany(w http.ResponseWriter, r *http.Request) {
	var req WishlistBulkDTO
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	n, err := h.Service.RemoveMany(r.Context(), req.BookIDs)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, WishlistBulkResponse{Message: "Books removed from wishlist", Count: n})
}
