package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"warehouse-sync-backend/config"
	"warehouse-sync-backend/internal/api"
	"warehouse-sync-backend/internal/base44"
	"warehouse-sync-backend/internal/classify"
	"warehouse-sync-backend/internal/db"
	"warehouse-sync-backend/internal/detect"
	"warehouse-sync-backend/internal/store"
	"warehouse-sync-backend/internal/sync"
)

func main() {
	logger := log.New(os.Stdout, "warehouse-backend ", log.LstdFlags)

	// Optional .env for local development overrides.
	if err := godotenv.Load(); err == nil {
		logger.Println(".env file loaded")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if cfg.Base44.APIKey == "" {
		cfg.Base44.APIKey = os.Getenv("BASE44_API_KEY")
	}
	if cfg.Base44.BaseURL == "" || cfg.Base44.AppID == "" || cfg.Base44.APIKey == "" {
		logger.Fatalf("base44 base_url, app_id and api_key must be configured")
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	vendors := make([]classify.Vendor, 0, len(cfg.Classifier.Vendors))
	for _, v := range cfg.Classifier.Vendors {
		vendors = append(vendors, classify.Vendor{Account: v.Account, Name: v.Name})
	}

	appStore := store.NewGormStore(gormDB, vendors)
	logger.Println("data store initialized")

	gateway := base44.NewClient(&cfg.Base44)

	detectPool := detect.NewWorkerPool(cfg.Detect.WorkerPoolSize, appStore)
	detectPool.Start(ctx)

	syncService := sync.NewService(cfg, appStore, gateway)
	go syncService.Run(ctx)

	router := api.NewRouter(&cfg.Server, appStore, syncService, detectPool)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
