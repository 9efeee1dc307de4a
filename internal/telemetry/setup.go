package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

const defaultEndpoint = "localhost:4317"

// Config selects where the three OTLP signals are shipped. An empty
// per-signal endpoint falls back to Endpoint.
type Config struct {
	ServiceName     string
	Endpoint        string
	TracesEndpoint  string
	MetricsEndpoint string
	LogsEndpoint    string
	Insecure        bool
	Disabled        bool
}

// ConfigFromEnv reads the standard OTEL_* variables.
func ConfigFromEnv(serviceName string) Config {
	cfg := Config{
		ServiceName:     serviceName,
		Endpoint:        envTrim("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TracesEndpoint:  envTrim("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"),
		MetricsEndpoint: envTrim("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"),
		LogsEndpoint:    envTrim("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT"),
		Insecure:        true,
	}
	if v, err := strconv.ParseBool(envTrim("OTEL_EXPORTER_OTLP_INSECURE")); err == nil {
		cfg.Insecure = v
	}
	if v, err := strconv.ParseBool(envTrim("OTEL_SDK_DISABLED")); err == nil {
		cfg.Disabled = v
	}
	return cfg
}

func envTrim(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func (c Config) endpoint(signal string) string {
	if signal != "" {
		return signal
	}
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return defaultEndpoint
}

// Setup installs the global tracer, meter and logger providers. The
// returned function flushes and stops all of them. With Disabled set the
// globals stay no-op and the HTTP instruments are still registered.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultScope
	}
	if cfg.Disabled {
		initHTTPInstruments(cfg.ServiceName)
		return func(context.Context) error { return nil }, nil
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
	)

	var shutdowns []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}

	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.endpoint(cfg.TracesEndpoint))}
	if cfg.Insecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
	}
	traceExp, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return shutdown, fmt.Errorf("trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	shutdowns = append(shutdowns, tp.Shutdown)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.endpoint(cfg.MetricsEndpoint))}
	if cfg.Insecure {
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
	}
	metricExp, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		return shutdown, fmt.Errorf("metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)
	shutdowns = append(shutdowns, mp.Shutdown)
	otel.SetMeterProvider(mp)

	logOpts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.endpoint(cfg.LogsEndpoint))}
	if cfg.Insecure {
		logOpts = append(logOpts, otlploggrpc.WithInsecure())
	}
	logExp, err := otlploggrpc.New(ctx, logOpts...)
	if err != nil {
		return shutdown, fmt.Errorf("log exporter: %w", err)
	}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)),
		sdklog.WithResource(res),
	)
	shutdowns = append(shutdowns, lp.Shutdown)
	global.SetLoggerProvider(lp)

	initHTTPInstruments(cfg.ServiceName)
	return shutdown, nil
}
