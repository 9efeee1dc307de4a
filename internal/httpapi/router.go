package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/PabloPavan/bookshelf_api/internal/telemetry"
)

type App struct {
	ServiceName    string
	AllowedOrigins []string

	Health      *HealthHandler
	Auth        *AuthHandler
	Users       *UsersHandler
	Books       *BooksHandler
	Wishlist    *WishlistHandler
	GoogleBooks *GoogleBooksHandler

	Authenticator Authenticator
}

func NewRouter(app *App) http.Handler {
	serviceName := app.ServiceName
	if serviceName == "" {
		serviceName = "bookshelf-api"
	}
	origins := app.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(telemetry.HTTPMiddleware(serviceName))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if app.Health != nil {
		r.Get("/health", app.Health.Get)
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	requireAuth := AuthMiddleware(app.Authenticator, AuthOptions{
		AllowToken:   true,
		AllowSession: true,
		Cookie:       app.Auth.Cookie,
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", app.Auth.Signup)
			r.Post("/login", app.Auth.Login)
			r.Post("/logout", app.Auth.Logout)
		})

		r.Route("/books", func(r chi.Router) {
			// Public
			r.Get("/explore", app.Books.Explore)

			// Protected
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/", app.Books.List)
				r.Post("/", app.Books.Create)
				r.Post("/filter", app.Books.Filter)
				r.Post("/export", app.Books.Export)
				r.Delete("/bulk-delete", app.Books.BulkDelete)
				r.Get("/stats/details", app.Books.Stats)
				r.Get("/{id}", app.Books.GetByID)
				r.Put("/{id}", app.Books.Update)
				r.Delete("/{id}", app.Books.Delete)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/", app.Users.List)
			r.Get("/profile", app.Users.Profile)
			r.Put("/profile", app.Users.UpdateProfile)
			r.Put("/{id}/role", app.Users.UpdateRole)

			r.Get("/wishlist", app.Wishlist.List)
			r.Post("/wishlist/toggle/{bookId}", app.Wishlist.Toggle)
			r.Post("/wishlist/bulk", app.Wishlist.AddMany)
			r.Post("/wishlist/bulk-remove", app.Wishlist.RemoveMany)
		})

		r.Route("/google-books", func(r chi.Router) {
			r.Get("/search", app.GoogleBooks.Search)
			r.Get("/isbn/{isbn}", app.GoogleBooks.ByISBN)
		})
	})
	return r
}
