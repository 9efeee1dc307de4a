package main

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	_ "github.com/PabloPavan/bookshelf_api/docs"
	"github.com/PabloPavan/bookshelf_api/internal"
	"github.com/PabloPavan/bookshelf_api/internal/auth"
	"github.com/PabloPavan/bookshelf_api/internal/books"
	"github.com/PabloPavan/bookshelf_api/internal/db"
	"github.com/PabloPavan/bookshelf_api/internal/googlebooks"
	"github.com/PabloPavan/bookshelf_api/internal/httpapi"
	"github.com/PabloPavan/bookshelf_api/internal/ratelimit"
	"github.com/PabloPavan/bookshelf_api/internal/session"
	"github.com/PabloPavan/bookshelf_api/internal/telemetry"
	"github.com/PabloPavan/bookshelf_api/internal/users"
	"github.com/PabloPavan/bookshelf_api/internal/wishlist"
	"github.com/redis/go-redis/v9"
)

const serviceName = "bookshelf-api"

func main() {
	port := internal.Env("APP_PORT", "8080")
	databaseURL := internal.MustEnv("DATABASE_URL")
	redisURL := internal.MustEnv("REDIS_URL")
	jwtSecret := internal.MustEnv("JWT_SECRET")

	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.ConfigFromEnv(serviceName))
	if err != nil {
		log.Fatalf("telemetry setup error: %v", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Printf("telemetry shutdown error: %v", err)
		}
	}()
	db.InitTelemetry(serviceName)

	d, err := db.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	defer d.Close()

	if parseBoolEnv("DB_MIGRATE", true) {
		if err := d.Migrate(ctx); err != nil {
			log.Fatalf("db migrate error: %v", err)
		}
	}

	redisOpt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("redis url error: %v", err)
	}
	redisClient := redis.NewClient(redisOpt)
	defer redisClient.Close()

	dbBase := db.NewBase(d.Pool, parseDurationEnv("DB_TIMEOUT", 3*time.Second))
	usrRepo := users.NewRepository(dbBase)
	bookRepo := books.NewRepository(dbBase)
	wishRepo := wishlist.NewRepository(dbBase)

	sessionStore := session.NewRedisStore(redisClient, internal.Env("SESSION_REDIS_PREFIX", session.DefaultRedisPrefix))
	sessionManager := &session.Manager{
		Store:         sessionStore,
		TTL:           parseDurationEnv("SESSION_TTL", 7*24*time.Hour),
		MaxAge:        parseDurationEnv("SESSION_MAX_AGE", 30*24*time.Hour),
		RefreshBefore: parseDurationEnv("SESSION_REFRESH_BEFORE", 24*time.Hour),
		IDBytes:       32,
	}

	cookie := session.CookieConfig{
		Name:     internal.Env("SESSION_COOKIE_NAME", session.DefaultCookieName),
		Path:     internal.Env("SESSION_COOKIE_PATH", "/"),
		Domain:   internal.Env("SESSION_COOKIE_DOMAIN", ""),
		Secure:   parseBoolEnv("SESSION_COOKIE_SECURE", true),
		SameSite: parseSameSiteEnv("SESSION_COOKIE_SAMESITE", http.SameSiteLaxMode),
	}

	loginLimit := parseIntEnv("LOGIN_RATE_LIMIT", 5)
	loginWindow := parseDurationEnv("LOGIN_RATE_WINDOW", time.Minute)
	var loginLimiter auth.RateLimiter
	switch backend := strings.ToLower(internal.Env("LOGIN_RATE_BACKEND", "redis")); backend {
	case "local":
		loginLimiter = ratelimit.NewLocalLimiter(loginLimit, loginWindow)
	default:
		if backend != "redis" {
			log.Printf("invalid LOGIN_RATE_BACKEND: %q, using redis", backend)
		}
		loginLimiter = &ratelimit.RedisLimiter{
			Client:   redisClient,
			Prefix:   "bookshelf:ratelimit:",
			Limit:    loginLimit,
			Window:   loginWindow,
			FailOpen: parseBoolEnv("LOGIN_RATE_FAIL_OPEN", false),
		}
	}

	authSvc := &auth.Service{
		Users:        usrRepo,
		Sessions:     sessionManager,
		Tokens:       auth.NewTokenIssuer(jwtSecret, parseDurationEnv("JWT_TTL", auth.DefaultTokenTTL)),
		LoginLimiter: loginLimiter,
	}
	usersSvc := &users.Service{Store: usrRepo}
	booksSvc := &books.Service{
		Store:      bookRepo,
		Cache:      books.NewRedisCache(redisClient, "bookshelf:cache:"),
		ExploreTTL: parseDurationEnv("EXPLORE_CACHE_TTL", 30*time.Second),
		PageLimit:  parseIntEnv("BOOKS_PAGE_LIMIT", books.DefaultPageLimit),
	}
	wishlistSvc := &wishlist.Service{Store: wishRepo}
	googleClient := googlebooks.NewClient(googlebooks.Config{
		BaseURL: internal.Env("GOOGLE_BOOKS_BASE_URL", ""),
		APIKey:  internal.Env("GOOGLE_BOOKS_KEY", ""),
		RPS:     parseFloatEnv("GOOGLE_BOOKS_RPS", 5),
	})

	telemetry.InitAppMetrics(serviceName, d.Pool, redisClient, sessionStore.SessionPattern())

	app := &httpapi.App{
		ServiceName:    serviceName,
		AllowedOrigins: parseListEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		Health: &httpapi.HealthHandler{
			DB:    dbBase,
			Redis: httpapi.RedisPinger(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
		},
		Auth:          &httpapi.AuthHandler{Service: authSvc, Accounts: usersSvc, Cookie: cookie},
		Users:         &httpapi.UsersHandler{Service: usersSvc, Sessions: sessionManager, Wishlist: wishlistSvc},
		Books:         &httpapi.BooksHandler{Service: booksSvc},
		Wishlist:      &httpapi.WishlistHandler{Service: wishlistSvc},
		GoogleBooks:   &httpapi.GoogleBooksHandler{Client: googleClient},
		Authenticator: authSvc,
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpapi.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("api listening on :%s", port)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func parseDurationEnv(key string, def time.Duration) time.Duration {
	val := strings.TrimSpace(internal.Env(key, ""))
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("invalid %s: %q, using default", key, val)
		return def
	}
	return d
}

func parseIntEnv(key string, def int) int {
	val := strings.TrimSpace(internal.Env(key, ""))
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("invalid %s: %q, using default", key, val)
		return def
	}
	return n
}

func parseFloatEnv(key string, def float64) float64 {
	val := strings.TrimSpace(internal.Env(key, ""))
	if val == "" {
		return def
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		log.Printf("invalid %s: %q, using default", key, val)
		return def
	}
	return f
}

func parseBoolEnv(key string, def bool) bool {
	val := strings.TrimSpace(internal.Env(key, ""))
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		log.Printf("invalid %s: %q, using default", key, val)
		return def
	}
	return b
}

func parseListEnv(key string, def []string) []string {
	val := strings.TrimSpace(internal.Env(key, ""))
	if val == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func parseSameSiteEnv(key string, def http.SameSite) http.SameSite {
	val := strings.ToLower(strings.TrimSpace(internal.Env(key, "")))
	switch val {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	case "":
		return def
	default:
		log.Printf("invalid %s: %q, using default", key, val)
		return def
	}
}
