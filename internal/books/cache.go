package books

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// ExploreCache holds rendered explore pages. Invalidate drops every page at once.
type ExploreCache interface {
	Get(ctx context.Context, key string) (*ExploreResult, bool, error)
	Set(ctx context.Context, key string, res ExploreResult, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

func exploreCacheKey(q QuerySpec) string {
	v := url.Values{}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.Genre != "" {
		v.Set("genre", q.Genre)
	}
	v.Set("skip", strconv.Itoa(q.Window.Skip))
	v.Set("limit", strconv.Itoa(q.Window.Limit))
	return v.Encode()
}
