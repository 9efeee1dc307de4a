package telemetry

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const appMetricsTimeout = 2 * time.Second

// InitAppMetrics registers gauges observed on every collection cycle:
// library size, account count, active sessions and pgx pool usage.
// sessionPattern is a SCAN MATCH pattern selecting session keys.
func InitAppMetrics(serviceName string, pool *pgxpool.Pool, rdb *redis.Client, sessionPattern string) {
	if pool == nil {
		return
	}
	meter := otel.Meter(serviceName + "/app")

	books, err := meter.Int64ObservableGauge("bookshelf_books_total",
		metric.WithDescription("Books stored across all libraries"))
	if err != nil {
		log.Printf("app metrics: %v", err)
		return
	}
	usersTotal, err := meter.Int64ObservableGauge("bookshelf_users_total",
		metric.WithDescription("Registered accounts"))
	if err != nil {
		log.Printf("app metrics: %v", err)
		return
	}
	sessions, err := meter.Int64ObservableGauge("bookshelf_active_sessions",
		metric.WithDescription("Sessions present in redis"))
	if err != nil {
		log.Printf("app metrics: %v", err)
		return
	}
	acquired, err := meter.Int64ObservableGauge("bookshelf_db_pool_acquired_conns",
		metric.WithDescription("Connections currently checked out of the pool"))
	if err != nil {
		log.Printf("app metrics: %v", err)
		return
	}
	idle, err := meter.Int64ObservableGauge("bookshelf_db_pool_idle_conns",
		metric.WithDescription("Idle connections in the pool"))
	if err != nil {
		log.Printf("app metrics: %v", err)
		return
	}

	_, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		ctx, cancel := context.WithTimeout(ctx, appMetricsTimeout)
		defer cancel()

		var n int64
		if err := pool.QueryRow(ctx, "SELECT count(*) FROM books").Scan(&n); err == nil {
			o.ObserveInt64(books, n)
		}
		if err := pool.QueryRow(ctx, "SELECT count(*) FROM users").Scan(&n); err == nil {
			o.ObserveInt64(usersTotal, n)
		}
		if rdb != nil && sessionPattern != "" {
			if count, err := countKeys(ctx, rdb, sessionPattern); err == nil {
				o.ObserveInt64(sessions, count)
			}
		}

		stat := pool.Stat()
		o.ObserveInt64(acquired, int64(stat.AcquiredConns()))
		o.ObserveInt64(idle, int64(stat.IdleConns()))
		return nil
	}, books, usersTotal, sessions, acquired, idle)
	if err != nil {
		log.Printf("app metrics: %v", err)
	}
}

func countKeys(ctx context.Context, rdb *redis.Client, pattern string) (int64, error) {
	var count int64
	iter := rdb.Scan(ctx, 0, pattern, 500).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count, iter.Err()
}
