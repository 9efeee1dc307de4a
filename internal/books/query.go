package books

import (
	"strconv"
	"strings"
)

const (
	DefaultPageLimit = 12
	ExploreLimit     = 15
	MaxLimit         = 100
)

type SortKey string

const (
	SortTitleAsc    SortKey = "title_asc"
	SortTitleDesc   SortKey = "title_desc"
	SortYearDesc    SortKey = "year_desc"
	SortCreatedDesc SortKey = "created_desc"
)

// ParseSort maps raw input to a sort key. Unknown values fall back to newest first.
func ParseSort(s string) SortKey {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case SortTitleAsc, SortTitleDesc, SortYearDesc, SortCreatedDesc:
		return k
	default:
		return SortCreatedDesc
	}
}

type StatusMode int

const (
	// StatusExcludeWishlist hides wishlist entries from library views.
	StatusExcludeWishlist StatusMode = iota
	StatusAny
	StatusExact
)

type StatusFilter struct {
	Mode  StatusMode
	Value Status
}

// ParseStatusFilter: empty hides the wishlist, "all" matches everything,
// anything else is an exact match.
func ParseStatusFilter(s string) StatusFilter {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return StatusFilter{Mode: StatusExcludeWishlist}
	case "all":
		return StatusFilter{Mode: StatusAny}
	default:
		return StatusFilter{Mode: StatusExact, Value: Status(s)}
	}
}

// Window is a skip/limit pair. A zero Limit means no pagination.
type Window struct {
	Skip  int
	Limit int
}

// FilterInput is the raw filter body shared by listing, filtering and export.
type FilterInput struct {
	Search string   `json:"search"`
	Genre  string   `json:"genre"`
	Status string   `json:"status"`
	Sort   string   `json:"sort"`
	Tags   []string `json:"tags"`
}

// QuerySpec is the normalized form of a book query.
type QuerySpec struct {
	OwnerID    string
	PublicOnly bool
	Search     string
	SearchISBN bool
	Genre      string
	Status     StatusFilter
	Tags       []string
	Sort       SortKey
	Window     Window
}

func normalizeGenre(g string) string {
	g = strings.TrimSpace(g)
	if strings.EqualFold(g, "all") {
		return ""
	}
	return g
}

func nonBlank(tags []string) []string {
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func compose(ownerID string, in FilterInput) QuerySpec {
	return QuerySpec{
		OwnerID: ownerID,
		Search:  strings.TrimSpace(in.Search),
		Genre:   normalizeGenre(in.Genre),
		Status:  ParseStatusFilter(in.Status),
		Tags:    nonBlank(in.Tags),
		Sort:    ParseSort(in.Sort),
	}
}

// OwnerQuery scopes a filter to one owner's books and pages it.
func OwnerQuery(ownerID string, in FilterInput, w Window) QuerySpec {
	q := compose(ownerID, in)
	q.Window = w
	return q
}

// ExportQuery is OwnerQuery without pagination. Search also covers the ISBN.
func ExportQuery(ownerID string, in FilterInput) QuerySpec {
	q := compose(ownerID, in)
	q.SearchISBN = true
	return q
}

// ExploreQuery matches public books of every owner, regardless of status.
func ExploreQuery(search, genre string, w Window) QuerySpec {
	return QuerySpec{
		PublicOnly: true,
		Search:     strings.TrimSpace(search),
		Genre:      normalizeGenre(genre),
		Status:     StatusFilter{Mode: StatusAny},
		Window:     w,
	}
}

func parseNonNegative(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return def
	}
	return n
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		limit = def
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	return min(limit, MaxLimit)
}

// OneBasedPage parses page/limit query values where the first page is 1.
// It returns the window and the page actually used.
func OneBasedPage(page, limit string, defaultLimit int) (Window, int) {
	l := clampLimit(parseNonNegative(limit, 0), defaultLimit)
	p := parseNonNegative(page, 1)
	if p < 1 {
		p = 1
	}
	return Window{Skip: (p - 1) * l, Limit: l}, p
}

// ZeroBasedPage parses a page value where the first page is 0.
func ZeroBasedPage(page string, limit int) (Window, int) {
	l := clampLimit(limit, ExploreLimit)
	p := parseNonNegative(page, 0)
	return Window{Skip: p * l, Limit: l}, p
}

// TotalPages is ceil(total/limit).
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// Matches reports whether b satisfies the predicate part of q.
func (q QuerySpec) Matches(b *Book) bool {
	if q.OwnerID != "" && b.AddedBy != q.OwnerID {
		return false
	}
	if q.PublicOnly && !b.IsPublic {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		hit := strings.Contains(strings.ToLower(b.Title), needle) ||
			strings.Contains(strings.ToLower(b.Author), needle) ||
			(q.SearchISBN && strings.Contains(strings.ToLower(b.ISBN), needle))
		if !hit {
			return false
		}
	}
	if q.Genre != "" && b.Genre != q.Genre {
		return false
	}
	switch q.Status.Mode {
	case StatusExcludeWishlist:
		if b.Status == StatusWishlist {
			return false
		}
	case StatusExact:
		if b.Status != q.Status.Value {
			return false
		}
	}
	if len(q.Tags) > 0 && !overlaps(b.Tags, q.Tags) {
		return false
	}
	return true
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// Less orders two books by q.Sort. Ties keep newest first.
func (q QuerySpec) Less(a, b *Book) bool {
	switch q.Sort {
	case SortTitleAsc:
		if a.Title != b.Title {
			return a.Title < b.Title
		}
	case SortTitleDesc:
		if a.Title != b.Title {
			return a.Title > b.Title
		}
	case SortYearDesc:
		if a.Year != b.Year {
			return a.Year > b.Year
		}
	}
	return a.CreatedAt.After(b.CreatedAt)
}

// escapeLike makes s safe inside an ILIKE pattern with the default escape character.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
