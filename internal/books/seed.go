package books

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PabloPavan/bookshelf_api/internal"
	"github.com/PabloPavan/bookshelf_api/internal/apperrors"
)

func newBookID() string {
	return "bk_" + internal.RandomHex(12)
}

// buildBook applies the creation defaults to req.
func buildBook(req CreateBookRequest, ownerID string, now time.Time, id string) (*Book, error) {
	title := strings.TrimSpace(req.Title)
	author := strings.TrimSpace(req.Author)
	if title == "" || author == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "title and author are required")
	}

	status := StatusUnread
	if st := strings.TrimSpace(req.Status); st != "" {
		status = Status(st)
		if !status.Valid() {
			return nil, apperrors.New(apperrors.KindInvalidInput, "invalid status")
		}
	}

	year := now.Year()
	if req.Year != nil && *req.Year != 0 {
		year = *req.Year
	}
	genre := strings.TrimSpace(req.Genre)
	if genre == "" {
		genre = DefaultGenre
	}
	tags := nonBlank(req.Tags)
	if tags == nil {
		tags = []string{}
	}
	var rating float64
	if req.Rating != nil {
		rating = *req.Rating
	}
	if rating < 0 || rating > 5 {
		return nil, apperrors.New(apperrors.KindInvalidInput, "rating must be between 0 and 5")
	}

	return &Book{
		ID:          id,
		AddedBy:     ownerID,
		Title:       title,
		Author:      author,
		Year:        year,
		Genre:       genre,
		Description: strings.TrimSpace(req.Description),
		Tags:        tags,
		Rating:      rating,
		Status:      status,
		IsPublic:    true,
		GoogleID:    strings.TrimSpace(req.GoogleID),
		ISBN:        strings.TrimSpace(req.ISBN),
		CoverURL:    strings.TrimSpace(req.CoverURL),
		InfoLink:    strings.TrimSpace(req.InfoLink),
	}, nil
}

// SeedRecord is one entry of a seed file.
type SeedRecord struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Year        *int     `json:"year"`
	Genre       string   `json:"genre"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Rating      *float64 `json:"rating"`
	Status      string   `json:"status"`
	IsPublic    *bool    `json:"isPublic"`
	GoogleID    string   `json:"googleId"`
	ISBN        string   `json:"isbn"`
	CoverURL    string   `json:"coverUrl"`
	InfoLink    string   `json:"infoLink"`
}

// DecodeSeed reads a JSON array of books and assigns them to ownerID.
// newID may be nil.
func DecodeSeed(r io.Reader, ownerID string, now time.Time, newID func() string) ([]*Book, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "owner is required")
	}
	if newID == nil {
		newID = newBookID
	}

	var records []SeedRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidInput, "invalid seed file", err)
	}

	out := make([]*Book, 0, len(records))
	for i, rec := range records {
		b, err := buildBook(CreateBookRequest{
			Title:       rec.Title,
			Author:      rec.Author,
			Year:        rec.Year,
			Genre:       rec.Genre,
			Description: rec.Description,
			Tags:        rec.Tags,
			Rating:      rec.Rating,
			Status:      rec.Status,
			GoogleID:    rec.GoogleID,
			ISBN:        rec.ISBN,
			CoverURL:    rec.CoverURL,
			InfoLink:    rec.InfoLink,
		}, ownerID, now, newID())
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if rec.IsPublic != nil {
			b.IsPublic = *rec.IsPublic
		}
		out = append(out, b)
	}
	return out, nil
}
