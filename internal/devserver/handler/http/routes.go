package http

import (
	"net/http"

	"github.com/avetrov/DevConnect/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
)

// NewRouter constructs the dev server's HTTP handler, mounting the auth,
// user and connection endpoints under /api.
//
// Routes:
//
//	POST   /api/auth/login               → authHandler.Login
//	POST   /api/auth/refresh-token       → authHandler.RefreshToken
//	POST   /api/auth/logout              → authHandler.Logout
//	GET    /api/users/profile            → usersHandler.Profile        (protected)
//	PATCH  /api/users/profile            → usersHandler.UpdateProfile  (protected)
//	GET    /api/users/suggestions        → usersHandler.Suggestions    (protected)
//	GET    /api/users/{id}               → usersHandler.GetByID        (protected)
//	GET    /api/connections              → conns.ListMutual            (protected)
//	GET    /api/connections/received     → conns.ListReceived          (protected)
//	GET    /api/connections/sent         → conns.ListSent              (protected)
//	GET    /api/connections/blocked      → conns.ListBlocked           (protected)
//	POST   /api/connections/{userID}     → conns.Send                  (protected)
//	POST   /api/connections/{userID}/block → conns.Block               (protected)
//	PATCH  /api/connections/{id}/accept  → conns.Accept                (protected)
//	PATCH  /api/connections/{id}/reject  → conns.Reject                (protected)
//	PATCH  /api/connections/{id}/cancel  → conns.Cancel                (protected)
//	DELETE /api/connections/{id}         → conns.Disconnect            (protected)
//	DELETE /api/connections/{id}/block   → conns.Unblock               (protected)
func NewRouter(
	authHandler *AuthHandler,
	usersHandler *UsersHandler,
	connectionsHandler *ConnectionsHandler,
	verifier middleware.TokenVerifier,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/refresh-token", authHandler.RefreshToken)
			r.Post("/logout", authHandler.Logout)
		})

		// Protected group: requires a valid bearer token
		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(verifier))

			r.Route("/users", func(r chi.Router) {
				r.Get("/profile", usersHandler.Profile)
				r.Patch("/profile", usersHandler.UpdateProfile)
				r.Get("/suggestions", usersHandler.Suggestions)
				r.Get("/{id}", usersHandler.GetByID)
			})

			r.Route("/connections", func(r chi.Router) {
				r.Get("/", connectionsHandler.ListMutual)
				r.Get("/received", connectionsHandler.ListReceived)
				r.Get("/sent", connectionsHandler.ListSent)
				r.Get("/blocked", connectionsHandler.ListBlocked)
				r.Post("/{userID}", connectionsHandler.Send)
				r.Post("/{userID}/block", connectionsHandler.Block)
				r.Patch("/{id}/accept", connectionsHandler.Accept)
				r.Patch("/{id}/reject", connectionsHandler.Reject)
				r.Patch("/{id}/cancel", connectionsHandler.Cancel)
				r.Delete("/{id}", connectionsHandler.Disconnect)
				r.Delete("/{id}/block", connectionsHandler.Unblock)
			})
		})
	})

	return r
}
