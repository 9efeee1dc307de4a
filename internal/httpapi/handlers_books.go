package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/PabloPavan/bookshelf_api/internal/books"
	"github.com/PabloPavan/bookshelf_api/internal/identity"
	"github.com/PabloPavan/bookshelf_api/internal/telemetry"
)

type BooksService interface {
	ListOwn(ctx context.Context) ([]*books.Book, error)
	Create(ctx context.Context, req books.CreateBookRequest) (*books.Book, error)
	Get(ctx context.Context, id string) (*books.Book, error)
	Update(ctx context.Context, id string, in books.UpdateBookInput) (*books.Book, error)
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) (int64, error)
	Filter(ctx context.Context, in books.FilterInput, page, limit string) (books.FilterResult, error)
	Export(ctx context.Context, in books.FilterInput) ([]*books.Book, error)
	Explore(ctx context.Context, search, genre, page string) (books.ExploreResult, error)
	Stats(ctx context.Context) (books.StatsDetails, error)
}

type BooksHandler struct {
	Service BooksService
}

type BulkDeleteResponse struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

// decodeOptional decodes a JSON body that may be absent.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// List Books
// @Summary List own books, newest first
// @Tags books
// @Produce json
// @Security BearerAuth
// @Security SessionAuth
// @Success 200 {array} books.Book
// @Failure 401 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /books [get]
func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListOwn(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Create Book
// @Summary Add a book to the own library
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Security SessionAuth
// @Param body body BookCreateDTO true "book"
// @Param X-CSRF-Token header string false "CSRF token (required for SessionAuth)"
// @Success 201 {object} books.Book
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /books [post]
func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req BookCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.Service.Create(r.Context(), req.toRequest())
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	telemetry.LogInfo(r.Context(), "book created",
		telemetry.LogString("event", "book.created"),
		telemetry.LogString("book.id", b.ID),
		telemetry.LogString("user.id", b.AddedBy),
	)

	writeJSON(w, http.StatusCreated, b)
}

// GetByID Book
// @Summary Get a book by id
// @Description Owners see their own books; anyone else only public ones.
// @Tags books
// @Produce json
// @Security BearerAuth
// @Security SessionAuth
// @Param id path string true "book id"
// @Success 200 {object} books.Book
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /books/{id} [get]
func (h *BooksHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	b, err := h.Service.Get(r.Context(), strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Update Book
// @Summary Partially update an own book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Security SessionAuth
// @Param id path string true "book id"
// @Param body body BookUpdateDTO true "changes"
// @Param X-CSRF-Token header string false "CSRF token (required for SessionAuth)"
// @Success 200 {object} books.Book
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /books/{id} [put]
func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var req BookUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.Service.Update(r.Context(), id, req.toInput())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Delete Book
// @Summary Delete an own book
// @Tags books
// @Produce json
// @Security BearerAuth
// @Security SessionAuth
// @Param id path string true "book id"
// @Param X-CSRF-Token header string false "CSRF token (required for SessionAuth)"
// @Success 200 {object} messageResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /books/{id} [delete]
func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeAppError(w, r, err)
		return
	}

	userID, _ := identity.UserID(r.Context())
	telemetry.LogInfo(r.Context(), "book deleted",
		telemetry.LogString("event", "book.deleted"),
		telemetry.LogString("book.id", id),
		telemetry.LogString("user.id", userID),
	)

	writeJSON(w, http.StatusOK, messageResponse{Message: "Book deleted successfully"})
}

// BulkDelete Books
// @Summary Delete several own books
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Security SessionAuth
// @Param body body BulkDeleteDTO true "ids"
// @Param X-CSRF-Token header string false "CSRF token (required for SessionAuth)"
// @Success 200 {object} BulkDeleteResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /books/bulk-delete [delete]
func (h *BooksHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteDTO
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	n, err := h.Service.BulkDelete(r.Context(), req.IDs)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	userID, _ := identity.UserID(r.Context())
	telemetry.LogInfo(r.Context(), "books deleted",
		telemetry.LogString("event", "book.deleted"),
		telemetry.LogInt64("books.count", n),
		telemetry.LogString("user.id", userID),
	)

	writeJSON(w, http.StatusOK, BulkDeleteResponse{Message: "Books deleted successfully", Count: n})
}

// Filter Books
// @Summary Filter, sort and page own books
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Security SessionAuth
// @Param page query int false "one-based page"
// @Param limit query int false "page size"
// @Param body body books.FilterInput false "filters"
// @Param X-CSRF-Token header string false "CSRF token (required for SessionAuth)"
// @Success 200 {object} books.FilterResult
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Router /books/filter [post]
func (h *BooksHandler) Filter(w http.ResponseWriter, r *http.Request) {
	var in books.FilterInput
	if err := decodeOptional(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	q := r.URL.Query()
	res, err := h.Service.Filter(r.Context(), in, q.Get("page"), q.Get("limit"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Export Books
// @Summary Export own books matching the filters as CSV
// @Tags books
// @Accept json
// @Produce text/csv
// @Security BearerAuth
// @Security SessionAuth
// @Param body body books.FilterInput false "filters"
// @Param X-CSRF-Token header string false "CSRF token (required for SessionAuth)"
// @Success 200 {string} string
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /books/export [post]
func (h *BooksHandler) Export(w http.ResponseWriter, r *http.Request) {
	var in books.FilterInput
	if err := decodeOptional(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	list, err := h.Service.Export(r.Context(), in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	_, span := telemetry.StartSpan(r.Context(), "books.export_csv",
		attribute.Int("books.count", len(list)),
	)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+books.ExportFilename)
	w.WriteHeader(http.StatusOK)
	err = books.WriteCSV(w, list)
	telemetry.EndSpan(span, err)
	if err != nil {
		return
	}

	userID, _ := identity.UserID(r.Context())
	telemetry.LogInfo(r.Context(), "books exported",
		telemetry.LogString("event", "books.exported"),
		telemetry.LogInt("books.count", len(list)),
		telemetry.LogString("user.id", userID),
	)
}

// Explore Books
// @Summary Browse public books of all readers
// @Tags books
// @Produce json
// @Param q query string false "title or author"
// @Param genre query string false "genre, or all"
// @Param page query int false "zero-based page"
// @Success 200 {object} books.ExploreResult
// @Failure 500 {object} errorResponse
// @Router /books/explore [get]
func (h *BooksHandler) Explore(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.Service.Explore(r.Context(), q.Get("q"), q.Get("genre"), q.Get("page"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Stats Books
// @Summary Library analytics
// @Tags books
// @Produce json
// @Security BearerAuth
// @Security SessionAuth
// @Success 200 {object} books.StatsDetails
// @Failure 401 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /books/stats/details [get]
func (h *BooksHandler) Stats(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.Stats(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
