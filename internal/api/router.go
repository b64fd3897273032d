package api

import (
	"net/http"

	"github.com/dom/shared-lists/internal/api/handlers"
	"github.com/dom/shared-lists/internal/api/middleware"
	"github.com/dom/shared-lists/internal/config"
	"github.com/dom/shared-lists/internal/service"
	"github.com/dom/shared-lists/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type healthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	Rooms       int    `json:"rooms"`
}

func NewRouter(services *service.Services, hub *websocket.Hub, cfg *config.Config, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteJSON(w, http.StatusOK, healthResponse{
			Status:      "ok",
			Connections: hub.ConnectionCount(),
			Rooms:       hub.RoomCount(),
		})
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, logger)
	listHandler := handlers.NewListHandler(services.Lists, logger)
	itemHandler := handlers.NewItemHandler(services.Items, logger)
	wsHandler := handlers.NewWebSocketHandler(hub, services.Auth, cfg.WSSendBuffer, logger)

	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimitRPM)
	requireAuth := middleware.Auth(services.Auth, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/status", authHandler.Status)

			// Credential endpoints are rate limited per client IP.
			r.Group(func(r chi.Router) {
				r.Use(authLimiter.Handler)
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
				r.Post("/refresh", authHandler.Refresh)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.Me)
				r.Post("/logout", authHandler.Logout)
				r.Post("/change-password", authHandler.ChangePassword)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/shopping-lists", func(r chi.Router) {
				r.Get("/", listHandler.GetAll)
				r.Post("/", listHandler.Create)
				r.Get("/{id}", listHandler.Get)
				r.Patch("/{id}", listHandler.Update)
				r.Delete("/{id}", listHandler.Delete)
				r.Post("/{id}/items", listHandler.AddItem)
				r.Patch("/{id}/items/{itemId}", listHandler.UpdateItem)
				r.Delete("/{id}/items/{itemId}", listHandler.RemoveItem)
			})

			r.Get("/items/suggestions", itemHandler.Suggestions)
		})

		// The handshake authenticates itself from the token query parameter.
		r.Get("/ws", wsHandler.Handle)
	})

	return r
}
