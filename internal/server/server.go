/*
Package server implements the application's network transport layer.
It initializes the HTTP server, configures timeouts, and manages
core service dependencies like the database and router.
*/
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/glucodiary/glucodiary/internal/config"
	"github.com/glucodiary/glucodiary/internal/database"
)

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	// cfg holds the loaded application configuration.
	cfg *config.Config

	// db provides access to the database service and connection pool.
	db database.Service
}

// NewServer initializes a new Server instance and returns a configured
// *http.Server with production-ready network timeouts.
func NewServer(cfg *config.Config, db database.Service) *http.Server {
	newApp := &Server{
		cfg: cfg,
		db:  db,
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      newApp.RegisterRoutes(),
		IdleTimeout:  time.Minute,      // Time to wait for the next request on keep-alive connections.
		ReadTimeout:  10 * time.Second, // Maximum duration for reading the entire request.
		WriteTimeout: 30 * time.Second, // Maximum duration before timing out writes of the response.
	}

	return server
}
