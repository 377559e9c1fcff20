// Package main starts the DevConnect dev server: an in-memory
// implementation of the backend API used for local development and
// integration testing.
package main

import (
	"cmp"
	"fmt"
	"time"

	nethttp "net/http"

	"github.com/avetrov/DevConnect/internal/config"
	"github.com/avetrov/DevConnect/internal/devserver/handler/http"
	"github.com/avetrov/DevConnect/internal/devserver/store"
	"github.com/avetrov/DevConnect/internal/devserver/token"
	"github.com/avetrov/DevConnect/internal/logger"
	"github.com/avetrov/DevConnect/internal/models"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// seedUsers gives a fresh dev server a few members to play with.
func seedUsers(s *store.Store, log *zap.Logger) {
	demo := []struct {
		user     models.User
		password string
	}{
		{models.User{FirstName: "Ada", LastName: "Lovelace", Username: "ada", Email: "ada@example.com", Skills: []string{"go", "math"}}, "ada12345"},
		{models.User{FirstName: "Grace", LastName: "Hopper", Username: "grace", Email: "grace@example.com", Skills: []string{"compilers"}}, "grace12345"},
		{models.User{FirstName: "Linus", LastName: "T", Username: "linus", Email: "linus@example.com", Skills: []string{"kernels"}}, "linus12345"},
	}
	for _, d := range demo {
		if _, err := s.CreateUser(d.user, d.password); err != nil {
			log.Warn("failed to seed user", zap.String("email", d.user.Email), zap.Error(err))
		}
	}
}

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		panic(err)
	}
	defer func() { _ = log.Log.Sync() }()
	zapLogger := log.Log

	// Initialize the in-memory state and demo users.
	st := store.New()
	seedUsers(st, zapLogger)

	// Token manager for access tokens.
	ttl, err := time.ParseDuration(options.TokenTTL)
	if err != nil {
		zapLogger.Warn("invalid token ttl, using 15m", zap.String("ttl", options.TokenTTL))
		ttl = 15 * time.Minute
	}
	tokens := token.New(options.JWTSecret, ttl)

	// Create HTTP handlers for the auth, user and connection endpoints.
	authHandler := &http.AuthHandler{Users: st, Refresh: st, Tokens: tokens}
	usersHandler := &http.UsersHandler{Users: st}
	connectionsHandler := &http.ConnectionsHandler{Connections: st}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, usersHandler, connectionsHandler, tokens, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Addr,
		Handler: router,
	}

	zapLogger.Info("starting dev server", zap.String("addr", options.Addr))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start dev server", zap.Error(err))
	}
}
