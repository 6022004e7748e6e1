package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/profilehub/profilehub/internal/api/auth"
	"github.com/profilehub/profilehub/internal/api/bookmarks"
	"github.com/profilehub/profilehub/internal/api/messages"
	"github.com/profilehub/profilehub/internal/api/profiles"
)

// Config carries the handlers and middleware the router wires together.
// Server-wide middleware (requestID, recoverer, logging) is applied before
// mounting this router in main.go.
type Config struct {
	AuthHandler      *auth.HandlerImpl
	ProfilesHandler  *profiles.HandlerImpl
	MessagesHandler  *messages.HandlerImpl
	BookmarksHandler *bookmarks.HandlerImpl

	// Authenticate rejects requests without a valid token. OptionalAuthenticate
	// lets anonymous requests through but still rejects bad tokens.
	Authenticate         func(http.Handler) http.Handler
	OptionalAuthenticate func(http.Handler) http.Handler
}

// SetupRouter initializes and configures the main application router.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// Public auth routes
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
		})

		// Directory browsing: anonymous sees public entries, a valid token
		// additionally surfaces the caller's own private rows.
		r.Group(func(r chi.Router) {
			r.Use(cfg.OptionalAuthenticate)

			r.Get("/profiles", cfg.ProfilesHandler.ListProfiles)
			r.Get("/profiles/search", cfg.ProfilesHandler.SearchProfiles)
			r.Get("/profiles/{profileID}", cfg.ProfilesHandler.GetProfile)
		})

		// Everything below requires a verified session.
		r.Group(func(r chi.Router) {
			r.Use(cfg.Authenticate)

			r.Get("/profile", cfg.AuthHandler.GetMe)
			r.Put("/auth/settings", cfg.AuthHandler.UpdateSettings)
			r.Put("/auth/password", cfg.AuthHandler.UpdatePassword)
			r.Delete("/auth/account", cfg.AuthHandler.DeleteAccount)

			r.Get("/profiles/user", cfg.ProfilesHandler.GetOwnProfile)
			r.Put("/profiles/user", cfg.ProfilesHandler.UpdateOwnProfile)
			r.Post("/profiles", cfg.ProfilesHandler.CreateProfile)
			r.Put("/profiles/{profileID}", cfg.ProfilesHandler.UpdateProfile)
			r.Delete("/profiles/{profileID}", cfg.ProfilesHandler.DeleteProfile)
			r.Post("/request-access", cfg.MessagesHandler.RequestAccess)

			r.Post("/messages", cfg.MessagesHandler.SendMessage)
			r.Get("/messages", cfg.MessagesHandler.ListMessages)

			r.Post("/bookmarks/{profileID}", cfg.BookmarksHandler.BookmarkProfile)
			r.Delete("/bookmarks/{profileID}", cfg.BookmarksHandler.RemoveBookmark)
			r.Get("/bookmarks", cfg.BookmarksHandler.ListBookmarkedProfiles)
		})
	})

	return r
}
