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

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"vidpublisher/internal/adapters/localstorage"
	"vidpublisher/internal/adapters/objectstore"
	"vidpublisher/internal/adapters/platforms"
	"vidpublisher/internal/adapters/postgres"
	"vidpublisher/internal/core/domain"
	"vidpublisher/internal/service"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Parse flags
	nowFlag := flag.String("now", "", "RFC3339 override for the sweep's current time (default: wall clock)")
	schedule := flag.String("schedule", "", "cron expression to run sweeps on; empty runs one sweep and exits")
	concurrency := flag.Int("concurrency", 1, "number of jobs processed in parallel within a batch")
	manifestDir := flag.String("manifest-dir", "./manifests", "directory for local manifest files")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received interrupt signal, cancelling")
		cancel()
	}()

	// Initialize adapters
	db, err := postgres.Connect(ctx, logger)
	if err != nil {
		logger.Fatal("failed to connect to record store", zap.Error(err))
	}
	defer db.Close()

	store := postgres.NewStore(db, logger)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to ensure schema", zap.Error(err))
	}

	objStore, err := objectstore.NewClient(logger)
	if err != nil {
		logger.Fatal("failed to initialize object store", zap.Error(err))
	}

	manifests := localstorage.NewManifestStore(*manifestDir, objStore, logger)

	registry := platforms.NewRegistry(logger)
	registry.Register(domain.PlatformWebsite, platforms.NewWebsiteAdapter())
	if yt, err := platforms.NewYouTubeAdapter(); err != nil {
		logger.Warn("youtube adapter disabled", zap.Error(err))
	} else {
		registry.Register(domain.PlatformYouTube, yt)
	}
	if fb, err := platforms.NewFacebookAdapter(); err != nil {
		logger.Warn("facebook adapter disabled", zap.Error(err))
	} else {
		registry.Register(domain.PlatformFacebook, fb)
	}
	if ig, err := platforms.NewInstagramAdapter(); err != nil {
		logger.Warn("instagram adapter disabled", zap.Error(err))
	} else {
		registry.Register(domain.PlatformInstagram, ig)
	}

	processor := service.NewProcessor(store, objStore, registry, manifests, logger, *concurrency)

	runSweep := func() error {
		now := time.Now().UTC()
		if *nowFlag != "" {
			parsed, err := time.Parse(time.RFC3339, *nowFlag)
			if err != nil {
				return fmt.Errorf("invalid -now value %q: %w", *nowFlag, err)
			}
			now = parsed
		}
		summary, err := processor.Run(ctx, now)
		if err != nil {
			return err
		}
		fmt.Println("\n=== Sweep Summary ===")
		fmt.Printf("Processed: %d\n", summary.Processed)
		fmt.Printf("Failed:    %d\n", summary.Failed)
		return nil
	}

	if *schedule == "" {
		if err := runSweep(); err != nil {
			logger.Error("publisher sweep failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	// Scheduled mode: run sweeps on the cron expression until interrupted.
	c := cron.New()
	if _, err := c.AddFunc(*schedule, func() {
		if err := runSweep(); err != nil {
			logger.Error("publisher sweep failed", zap.Error(err))
		}
	}); err != nil {
		logger.Fatal("invalid -schedule expression", zap.Error(err))
	}
	logger.Info("running on schedule", zap.String("cron", *schedule))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
}
