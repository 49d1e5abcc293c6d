/*
main.go - HTTP server entry point

PURPOSE:
  Initializes and starts the Sparagne ledger server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load configuration (file, environment, defaults)
  3. Open the SQLite store
  4. Create the engine and API handler
  5. Start the HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Config file path (default: sparagne.yaml if present)
  -addr    Listen address, overrides config (e.g. :3000)
  -db      SQLite database path, overrides config
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the database connection
  4. Exit

EXAMPLES:
  # Run with a file database
  ./server -db="./data/sparagne.db"

  # Run with an in-memory database
  ./server -db=":memory:"

  # Run on a different address
  ./server -addr=":3000"

SEE ALSO:
  - config/config.go: configuration loading
  - api/server.go: router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: database implementation
*/
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Oghma/sparagne/api"
	"github.com/Oghma/sparagne/config"
	"github.com/Oghma/sparagne/engine"
	"github.com/Oghma/sparagne/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "config file path")
	addr := flag.String("addr", "", "listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Wire engine and handler
	handler := api.NewHandler(engine.New(store))
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Addr)
		log.Printf("API available under %s/api/v1", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
