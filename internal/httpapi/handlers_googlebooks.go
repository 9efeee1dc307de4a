package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PabloPavan/bookshelf_api/internal/googlebooks"
)

type VolumeSearcher interface {
	Search(ctx context.Context, query string, startIndex string) (*googlebooks.VolumesResponse, error)
	ByISBN(ctx context.Context, isbn string) (*googlebooks.VolumesResponse, error)
}

type GoogleBooksHandler struct {
	Client VolumeSearcher
}

// Search GoogleBooks
// @Summary Search the Google Books catalogue
// @Tags google-books
// @Produce json
// @Param q query string true "query"
// @Param startIndex query int false "offset of the first result"
// @Success 200 {object} googlebooks.VolumesResponse
// @Failure 400 {object} errorResponse
// @Failure 502 {object} errorResponse
// @Router /google-books/search [get]
func (h *GoogleBooksHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.Client.Search(r.Context(), q.Get("q"), q.Get("startIndex"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ByISBN GoogleBooks
// @Summary Look up a volume by ISBN
// @Tags google-books
// @Produce json
// @Param isbn path string true "ISBN-10 or ISBN-13"
// @Success 200 {object} googlebooks.VolumesResponse
// @Failure 400 {object} errorResponse
// @Failure 502 {object} errorResponse
// @Router /google-books/isbn/{isbn} [get]
func (h *GoogleBooksHandler) ByISBN(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Client.ByISBN(r.Context(), chi.URLParam(r, "isbn"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
