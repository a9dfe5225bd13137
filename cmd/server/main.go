/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the workspace booking engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store (optionally seed demo data)
  3. Pick the classifier (HTTP inference endpoint or local heuristic)
  4. Create API handler and background lifecycle sweeper
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port         HTTP server port (default: 8080)
  -db           SQLite database path (default: workspaces.db)
                Use ":memory:" for an in-memory database
  -classifier   URL of the suitability inference service; empty means
                the built-in heuristic classifier
  -fanout       Max concurrent classifier calls per suggestion
  -sweep        Lifecycle sweep interval (default: 1m)
  -seed         Load demo workspaces/users into an empty database
  -admin        Comma-separated user ids allowed to cancel any booking

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sweeper and close the database
  4. Exit

EXAMPLES:
  # Run with the local heuristic classifier and demo data
  ./server -db=":memory:" -seed

  # Run against a hosted model
  ./server -classifier="http://ml.internal:9000/classify"

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/warp/workspace-engine/allocation"
	"github.com/warp/workspace-engine/api"
	"github.com/warp/workspace-engine/classify"
	"github.com/warp/workspace-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "workspaces.db", "SQLite database path")
	classifierURL := flag.String("classifier", "", "suitability inference endpoint (empty = built-in heuristic)")
	fanOut := flag.Int("fanout", allocation.DefaultFanOut, "max concurrent classifier calls per suggestion")
	sweepInterval := flag.Duration("sweep", time.Minute, "lifecycle sweep interval")
	seed := flag.Bool("seed", false, "load demo data into an empty database")
	admins := flag.String("admin", "", "comma-separated user ids with admin cancellation rights")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	if *seed {
		if err := api.SeedDemoData(context.Background(), store); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
	}

	// Pick classifier
	var classifier allocation.Classifier = classify.Heuristic{}
	if *classifierURL != "" {
		classifier = classify.NewHTTPClassifier(*classifierURL)
		log.Printf("Using inference endpoint %s", *classifierURL)
	} else {
		log.Printf("No inference endpoint configured, using heuristic classifier")
	}

	// Initialize handler
	handler := api.NewHandler(store, classifier)
	handler.Ranker.FanOut = *fanOut
	for _, id := range strings.Split(*admins, ",") {
		if id = strings.TrimSpace(id); id != "" {
			handler.AdminUsers[allocation.UserID(id)] = true
		}
	}

	// Background lifecycle advancement
	sweeper := api.NewLifecycleSweeper(handler.Manager)
	sweeper.CheckInterval = *sweepInterval
	sweeper.Start()
	defer sweeper.Stop()

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
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
