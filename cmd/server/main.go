package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/api"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/compiler"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/config"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/db"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/export"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/middleware"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/modules"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/registry"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/repository"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/views"
)

func main() {
	// Local overrides before viper reads the environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, continuing with process environment")
	}

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Catalogues are loaded once and shared read-only across requests.
	properties, err := registry.LoadPropertyRegistry(cfg.PropertyCatalogDir)
	if err != nil {
		log.Fatalf("Failed to load property catalogues: %v", err)
	}
	operators := registry.NewOperatorRegistry()

	catalog, err := modules.LoadCatalog(cfg.ModuleConfigDir, properties)
	if err != nil {
		log.Fatalf("Failed to load module configs: %v", err)
	}

	viewRepo := repository.NewSavedViewRepository(conn)
	rowSource := repository.NewRecordSource(conn)

	store := views.NewService(viewRepo, properties, operators)
	comp := compiler.New(properties, operators)
	exporter := export.NewService(export.WithExportDirectory(cfg.ExportDir))

	handler := api.NewHandler(store, comp, catalog, rowSource, exporter)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	root := corsHandler.Handler(
		middleware.LoggingMiddleware(
			api.ScopeFromHeaders(handler.Routes()),
		),
	)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting saved view API on %s", cfg.ListenAddr)
		log.Printf("Modules loaded: %v", catalog.EntityTypes())

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
