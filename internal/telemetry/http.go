package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelLog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
)

const unknownRoute = "unknown_route"

var httpInstruments struct {
	enabled  bool
	requests metric.Int64Counter
	duration metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
}

func initHTTPInstruments(serviceName string) {
	meter := otel.Meter(serviceName)

	var err error
	httpInstruments.requests, err = meter.Int64Counter(
		"bookshelf_http_requests_total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return
	}
	httpInstruments.duration, err = meter.Float64Histogram(
		"bookshelf_http_request_duration_seconds",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return
	}
	httpInstruments.inFlight, err = meter.Int64UpDownCounter(
		"bookshelf_http_requests_in_flight",
		metric.WithDescription("Requests currently being served"),
	)
	if err != nil {
		return
	}
	httpInstruments.enabled = true
}

// statusWriter remembers the status code and body size of a response.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// routePattern is only complete once chi has finished routing, so it must be
// read after the handler returns.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if rp := rc.RoutePattern(); rp != "" {
			return rp
		}
	}
	return unknownRoute
}

// HTTPMiddleware traces, measures and logs every request. Incoming W3C
// trace headers are honoured.
func HTTPMiddleware(serviceName string) func(http.Handler) http.Handler {
	tracer := otel.Tracer(serviceName)
	logger := global.Logger(serviceName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, "HTTP "+r.Method+" "+r.URL.Path)
			defer span.End()
			span.SetAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			)

			if httpInstruments.enabled {
				httpInstruments.inFlight.Add(ctx, 1)
				defer httpInstruments.inFlight.Add(context.WithoutCancel(ctx), -1)
			}

			next.ServeHTTP(sw, r.WithContext(ctx))

			route := routePattern(r)
			elapsed := time.Since(start)

			span.SetName("HTTP " + r.Method + " " + route)
			span.SetAttributes(
				attribute.String("http.route", route),
				attribute.Int("http.status_code", sw.status),
			)
			if sw.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, "server_error")
			}

			if httpInstruments.enabled {
				attrs := metric.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.route", route),
					attribute.Int("http.status_code", sw.status),
				)
				httpInstruments.requests.Add(ctx, 1, attrs)
				httpInstruments.duration.Record(ctx, elapsed.Seconds(), attrs)
			}

			severity := severityForStatus(sw.status)
			var rec otelLog.Record
			rec.SetEventName("http.request")
			rec.SetTimestamp(time.Now())
			rec.SetSeverity(severity)
			rec.SetSeverityText(severityText(severity))
			rec.SetBody(otelLog.StringValue("request completed"))
			rec.AddAttributes(
				otelLog.String("http.method", r.Method),
				otelLog.String("http.route", route),
				otelLog.String("http.target", r.URL.Path),
				otelLog.Int("http.status_code", sw.status),
				otelLog.Int("http.response_bytes", sw.bytes),
				otelLog.Int64("http.duration_ms", elapsed.Milliseconds()),
				otelLog.String("http.request_id", middleware.GetReqID(r.Context())),
			)
			logger.Emit(ctx, rec)
		})
	}
}

func severityForStatus(status int) otelLog.Severity {
	switch {
	case status >= http.StatusInternalServerError:
		return otelLog.SeverityError
	case status >= http.StatusBadRequest:
		return otelLog.SeverityWarn
	default:
		return otelLog.SeverityInfo
	}
}
