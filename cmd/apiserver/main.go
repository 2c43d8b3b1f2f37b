// Package main runs the ASI worker's REST API server: a standalone
// process that scores submitted decklists against a bigram store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/videre-project/asi-worker/internal/api"
	"github.com/videre-project/asi-worker/internal/config"
	"github.com/videre-project/asi-worker/internal/events"
	"github.com/videre-project/asi-worker/internal/logging"
	"github.com/videre-project/asi-worker/internal/storage"
	"github.com/videre-project/asi-worker/internal/storage/seed"
)

var (
	port     = flag.Int("port", 0, "API server port (overrides config)")
	dbPath   = flag.String("db-path", "", "bigram store path (overrides config)")
	seedPath = flag.String("seed-path", "", "JSON seed artifact to load at startup (overrides config)")
)

func main() {
	flag.Parse()

	fmt.Println("ASI Worker - Archetype Similarity API")
	fmt.Println("======================================")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}
	if *seedPath != "" {
		cfg.Store.SeedPath = *seedPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := logging.New(cfg.App.DebugMode)
	fmt.Printf("Bigram store: %s\n", cfg.Store.Path)

	storeConfig := storage.DefaultConfig(cfg.Store.Path)
	storeConfig.AutoMigrate = cfg.Store.AutoMigrate
	db, err := storage.Open(storeConfig)
	if err != nil {
		log.Fatalf("failed to open bigram store: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database: %v", err)
		}
	}()

	storageService := storage.NewService(db)
	defer func() {
		if err := storageService.Close(); err != nil {
			logger.Error("error closing storage service: %v", err)
		}
	}()

	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	dispatcher := events.NewEventDispatcher()

	if cfg.Store.SeedPath != "" {
		records, err := seed.LoadFile(cfg.Store.SeedPath)
		if err != nil {
			log.Fatalf("failed to load seed artifact %s: %v", cfg.Store.SeedPath, err)
		}
		if err := seed.Apply(ctx, storageService, records); err != nil {
			log.Fatalf("failed to apply seed artifact %s: %v", cfg.Store.SeedPath, err)
		}
		logger.Info("loaded %d bigram records from %s", len(records), cfg.Store.SeedPath)
	}

	var watcher *storage.Watcher
	if cfg.Store.WatchSeed && cfg.Store.SeedPath != "" {
		watcher = storage.NewWatcher(cfg.Store.SeedPath, storageService, dispatcher, logger)
		go func() {
			if err := watcher.Start(ctx); err != nil && err != context.Canceled {
				logger.Error("seed watcher stopped: %v", err)
			}
		}()
	}

	apiConfig := &api.Config{Port: cfg.Server.Port}
	server := api.NewServer(apiConfig, cfg, storageService, logger, dispatcher)

	if err := server.Start(); err != nil {
		log.Fatalf("failed to start API server: %v", err)
	}

	fmt.Println()
	fmt.Printf("API server running at http://localhost:%d\n", cfg.Server.Port)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println()
	fmt.Println("Shutting down...")

	if watcher != nil {
		watcher.Stop()
	}
	cancelCtx()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}

	fmt.Println("API server stopped.")
}
