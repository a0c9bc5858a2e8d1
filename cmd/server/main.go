package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/rpattn/signalcat/internal/api"
	"github.com/rpattn/signalcat/internal/auth"
	"github.com/rpattn/signalcat/internal/catalog"
	"github.com/rpattn/signalcat/internal/config"
	"github.com/rpattn/signalcat/internal/db"
	"github.com/rpattn/signalcat/internal/export"
	"github.com/rpattn/signalcat/internal/repository"
	"github.com/rpattn/signalcat/internal/versioning"
)

func main() {
	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration (config.yaml plus env overrides)
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Database, cfg.Server.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create repositories for the read side
	signalRepo := repository.NewSignalRepository(conn.Pool)
	assetRepo := repository.NewAssetRepository(conn.Pool)
	versionRepo := repository.NewVersionRepository(conn.Pool)

	// Create the versioning coordinator for the write side. It runs every
	// mutation through conn.WithTx, and the change interceptor records the
	// mutation in the version ledger inside the same transaction.
	coordinator := versioning.NewCoordinator(conn, repository.NewTxStores, versioning.NewChangeInterceptor())

	// Create the catalog service and its REST surface
	service := catalog.NewService(coordinator, signalRepo, assetRepo, versionRepo)
	exporter := export.NewService(service)
	tokens := auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	handler := api.NewHandler(service, tokens, map[string]string{
		"test_user": "test_pass",
	})
	router := api.NewRouter(handler, exporter, tokens)

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting catalog server on %s", cfg.Server.Addr)
		log.Printf("REST API available under http://localhost%s/api", cfg.Server.Addr)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
