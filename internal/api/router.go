package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mcarreter/catalogo-be/internal/api/handlers"
	"github.com/mcarreter/catalogo-be/internal/auth"
	"github.com/mcarreter/catalogo-be/internal/client"
	"github.com/mcarreter/catalogo-be/internal/services"
	"github.com/mcarreter/catalogo-be/internal/websocket"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	DB             *sql.DB
	Hub            *websocket.Hub
	AuthService    services.AuthServiceProvider
	ProfileService services.ProfileServiceProvider
	CommentService services.CommentServiceProvider
	EventService   services.EventServiceProvider
	PublicBaseURL  string
	AllowedOrigins []string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for the catalog page
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "apikey"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.EventService, deps.Hub, deps.PublicBaseURL)
	commentHandler := handlers.NewCommentHandler(deps.CommentService, deps.Hub)
	tableHandler := handlers.NewTableHandler(deps.DB, deps.ProfileService, deps.CommentService, deps.Hub)
	eventHandler := handlers.NewEventHandler(deps.EventService)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket connection endpoints
		r.Get("/ws", wsHandler.Serve)
		r.Get("/ws/items/{itemID}", wsHandler.Serve)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/magiclink", authHandler.MagicLink)
			r.Get("/verify", authHandler.Verify)
			r.Group(func(r chi.Router) {
				r.Use(auth.JWTMiddleware())
				r.Post("/logout", authHandler.Logout)
				r.Get("/session", authHandler.Session)
			})
		})

		r.Route("/items/{itemID}/comments", func(r chi.Router) {
			r.Get("/", commentHandler.List)
			r.Group(func(r chi.Router) {
				r.Use(auth.JWTMiddleware())
				r.Post("/", commentHandler.Create)
			})
		})

		// Generic table boundary consumed by the page glue's client
		r.Route("/db/{table}", func(r chi.Router) {
			r.Get("/", tableHandler.Select)
			r.Group(func(r chi.Router) {
				r.Use(auth.JWTMiddleware())
				r.Post("/", tableHandler.Insert)
			})
		})

		r.Get("/events/recent", eventHandler.GetRecent)
	})

	// Stylesheet for the rendered comment section
	r.Get("/static/comments.css", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Write([]byte(client.StyleSheet))
	})

	return r
}
