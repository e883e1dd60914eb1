package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"chatTracker/internal/auth"
	"chatTracker/internal/logging"
)

func NewRouter(h *Handler, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	for _, mw := range logging.Middleware(log) {
		r.Use(mw)
	}
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// Public pages and account actions
	r.Get("/", h.LoginPage)
	r.Get("/login", h.LoginPage)
	r.Get("/signup", h.SignupPage)
	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.Get("/logout", h.Logout)
	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(h.secret, h.tokens))

		r.Group(func(r chi.Router) {
			r.Use(h.requireRegular)

			r.Get("/chats", h.ListChats)
			r.Post("/chats", h.CreateChat)
			r.Get("/chats/{chatID}", h.GetChat)
			r.Put("/chats/{chatID}", h.UpdateChat)
			r.Delete("/chats/{chatID}", h.DeleteChat)
			r.Post("/chats/{chatID}/toggle", h.ToggleChat)
			r.Post("/chats/{chatID}/categories", h.AddCategory)
			r.Get("/stats", h.Stats)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.requireAdmin)

			r.Get("/me", h.AdminProfile)
			r.Get("/chats", h.SearchChats)
			r.Get("/users", h.SearchUsers)
			r.Put("/users/{userID}/active", h.SetUserActive)
		})
	})

	return r
}
