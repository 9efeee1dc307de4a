package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PabloPavan/bookshelf_api/internal/apperrors"
	"github.com/PabloPavan/bookshelf_api/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/books/v1"
	searchPageSize = 15
)

// Client queries the Google Books volumes API. Calls are rate limited per process.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	apiKey      string
}

type Config struct {
	BaseURL string
	APIKey  string
	// Requests per second with a burst of five. Zero means 5/s.
	RPS float64
}

func NewClient(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 5),
		baseURL:     base,
		apiKey:      strings.TrimSpace(cfg.APIKey),
	}
}

// Search runs a free text volume search starting at startIndex.
func (c *Client) Search(ctx context.Context, query string, startIndex string) (*VolumesResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "query is required")
	}

	start, err := strconv.Atoi(strings.TrimSpace(startIndex))
	if err != nil || start < 0 {
		start = 0
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("startIndex", strconv.Itoa(start))
	params.Set("maxResults", strconv.Itoa(searchPageSize))

	resp, err := c.volumes(ctx, "googlebooks.search", params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstream, "failed to fetch books", err)
	}
	return resp, nil
}

// ByISBN looks up volumes carrying isbn.
func (c *Client) ByISBN(ctx context.Context, isbn string) (*VolumesResponse, error) {
	isbn = strings.ReplaceAll(strings.TrimSpace(isbn), "-", "")
	if isbn == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "isbn is required")
	}

	params := url.Values{}
	params.Set("q", "isbn:"+isbn)

	resp, err := c.volumes(ctx, "googlebooks.isbn", params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstream, "failed to fetch isbn details", err)
	}
	return resp, nil
}

func (c *Client) volumes(ctx context.Context, spanName string, params url.Values) (_ *VolumesResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, spanName,
		attribute.String("googlebooks.query", params.Get("q")),
	)
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.LogWarn(ctx, "google books request failed",
				telemetry.LogString("event", spanName+".failed"),
				telemetry.LogErr(err),
			)
		}
	}()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		span.SetStatus(codes.Error, "rate_limit")
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	reqURL := c.baseURL + "/volumes?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request_failed")
		return nil, fmt.Errorf("volumes request: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, "bad_status")
		return nil, fmt.Errorf("volumes request failed: status %d", resp.StatusCode)
	}

	var out VolumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		span.SetStatus(codes.Error, "decode_failed")
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if out.Items == nil {
		out.Items = []Volume{}
	}
	return &out, nil
}
