package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otelLog "go.opentelemetry.io/otel/log"
)

func TestHTTPMiddlewarePassesResponseThrough(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMiddleware("test"))
	r.Get("/books/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books/bk_1", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}

func TestStatusWriterTracksStatusAndBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec, status: http.StatusOK}

	_, err := sw.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = sw.Write([]byte("de"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, sw.status)
	assert.Equal(t, 5, sw.bytes)
	assert.Same(t, rec, sw.Unwrap())
}

func TestRoutePatternFallsBack(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	assert.Equal(t, unknownRoute, routePattern(req))

	var seen string
	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		r.Get("/books/{id}", func(w http.ResponseWriter, r *http.Request) {
			seen = routePattern(r)
		})
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/books/bk_9", nil))
	assert.Equal(t, "/v1/books/{id}", seen)
}

func TestSeverityForStatus(t *testing.T) {
	cases := []struct {
		status int
		want   string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNoContent, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusTooManyRequests, "WARN"},
		{http.StatusBadGateway, "ERROR"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, severityText(severityForStatus(tc.status)), "status %d", tc.status)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT", " logs:4317 ")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "false")
	t.Setenv("OTEL_SDK_DISABLED", "true")

	cfg := ConfigFromEnv("svc")

	assert.Equal(t, "svc", cfg.ServiceName)
	assert.Equal(t, "collector:4317", cfg.endpoint(cfg.TracesEndpoint))
	assert.Equal(t, "logs:4317", cfg.endpoint(cfg.LogsEndpoint))
	assert.False(t, cfg.Insecure)
	assert.True(t, cfg.Disabled)

	assert.Equal(t, defaultEndpoint, Config{}.endpoint(""))
}

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{ServiceName: "svc", Disabled: true})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.True(t, httpInstruments.enabled)
}

func TestLogErr(t *testing.T) {
	kv := LogErr(errors.New("boom"))
	assert.Equal(t, "error", kv.Key)
	assert.Equal(t, otelLog.KindString, kv.Value.Kind())
	assert.Equal(t, "boom", kv.Value.AsString())

	assert.Empty(t, LogErr(nil).Value.AsString())
}

func TestTraceIDWithoutSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))

	ctx, span := StartSpan(context.Background(), "noop")
	defer EndSpan(span, nil)
	// The global provider is a no-op here, so the span context is invalid.
	assert.Empty(t, TraceID(ctx))
}
