package books

import "time"

type Status string

const (
	StatusUnread    Status = "unread"
	StatusReading   Status = "reading"
	StatusCompleted Status = "completed"
	StatusWishlist  Status = "wishlist"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUnread, StatusReading, StatusCompleted, StatusWishlist:
		return true
	default:
		return false
	}
}

const DefaultGenre = "General"

type Book struct {
	ID          string    `json:"id"`
	AddedBy     string    `json:"addedBy"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Year        int       `json:"year,omitempty"`
	Genre       string    `json:"genre"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Rating      float64   `json:"rating"`
	Status      Status    `json:"status"`
	IsPublic    bool      `json:"isPublic"`
	GoogleID    string    `json:"googleId,omitempty"`
	ISBN        string    `json:"isbn,omitempty"`
	CoverURL    string    `json:"coverUrl"`
	InfoLink    string    `json:"infoLink"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateBookRequest struct {
	Title       string
	Author      string
	Year        *int
	Genre       string
	Description string
	Tags        []string
	Rating      *float64
	Status      string
	GoogleID    string
	ISBN        string
	CoverURL    string
	InfoLink    string
}

// UpdateBookInput is a partial update. Nil fields keep their stored value.
type UpdateBookInput struct {
	Title       *string
	Author      *string
	Year        *int
	Genre       *string
	Description *string
	Tags        *[]string
	Rating      *float64
	Status      *string
	IsPublic    *bool
	ISBN        *string
	CoverURL    *string
}

// FilterResult is one page of the owner's filtered books plus the counters
// the library view shows next to it.
type FilterResult struct {
	Books         []*Book          `json:"books"`
	OverallTotal  int64            `json:"overallTotal"`
	FilteredTotal int64            `json:"filteredTotal"`
	TotalPages    int              `json:"totalPages"`
	CurrentPage   int              `json:"currentPage"`
	Stats         map[string]int64 `json:"stats"`
}

type ExploreResult struct {
	Books   []ExploreItem `json:"books"`
	HasMore bool          `json:"hasMore"`
}
