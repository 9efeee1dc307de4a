package books

import (
	"sort"
	"strings"
)

// ExploreItem is one deduplicated entry of the public catalog. Display
// fields come from the earliest added copy of the group.
type ExploreItem struct {
	Key      string `json:"key"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	CoverURL string `json:"coverUrl"`
	Genre    string `json:"genre"`
	GoogleID string `json:"googleId,omitempty"`
}

// ExploreKey groups copies of the same Google Books volume together. Books
// without a volume id stand alone. The prefixes keep the two spaces apart.
func ExploreKey(b *Book) string {
	if strings.TrimSpace(b.GoogleID) != "" {
		return "g:" + b.GoogleID
	}
	return "b:" + b.ID
}

// Dedupe collapses books by ExploreKey and orders the groups by key, descending.
func Dedupe(list []*Book) []ExploreItem {
	first := make(map[string]*Book, len(list))
	for _, b := range list {
		key := ExploreKey(b)
		cur, ok := first[key]
		if !ok || b.CreatedAt.Before(cur.CreatedAt) ||
			(b.CreatedAt.Equal(cur.CreatedAt) && b.ID < cur.ID) {
			first[key] = b
		}
	}

	out := make([]ExploreItem, 0, len(first))
	for key, b := range first {
		out = append(out, ExploreItem{
			Key:      key,
			ID:       b.ID,
			Title:    b.Title,
			Author:   b.Author,
			CoverURL: b.CoverURL,
			Genre:    b.Genre,
			GoogleID: b.GoogleID,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key > out[j].Key })
	return out
}

// Page applies w to items and reports whether the page came back full.
func Page(items []ExploreItem, w Window) ExploreResult {
	if w.Skip >= len(items) {
		return ExploreResult{Books: []ExploreItem{}, HasMore: false}
	}
	items = items[w.Skip:]
	if w.Limit > 0 && len(items) > w.Limit {
		items = items[:w.Limit]
	}
	return NewExploreResult(items, w.Limit)
}

func NewExploreResult(items []ExploreItem, limit int) ExploreResult {
	if items == nil {
		items = []ExploreItem{}
	}
	return ExploreResult{Books: items, HasMore: limit > 0 && len(items) == limit}
}
