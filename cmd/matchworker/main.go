package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/aerovue/photomatch/internal/blob"
	"github.com/aerovue/photomatch/internal/config"
	"github.com/aerovue/photomatch/internal/database"
	"github.com/aerovue/photomatch/internal/geocode"
	"github.com/aerovue/photomatch/internal/logger"
	"github.com/aerovue/photomatch/internal/matcher"
	"github.com/aerovue/photomatch/internal/parcel"
	"github.com/aerovue/photomatch/internal/repository"
	"github.com/aerovue/photomatch/internal/scoring"
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	photoIDs, err := parsePhotoIDs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Usage: matchworker <photo-id> [<photo-id> ...]\n%v\n", err)
		os.Exit(2)
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("Starting match worker", map[string]interface{}{
		"environment":      cfg.Env,
		"photos":           len(photoIDs),
		"workers":          cfg.Worker.Count,
		"geocoder_enabled": cfg.Geocoder.Enabled(),
		"parcel_enabled":   cfg.Parcel.Enabled(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create database connection pool
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	// Optional geocode cache; nil when Redis is unconfigured
	cache := geocode.NewCache(cfg.Redis)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Warn("Geocode cache unreachable, continuing without it", map[string]interface{}{
			"addr":  cfg.Redis.Addr,
			"error": err.Error(),
		})
	}

	// External data sources; each degrades to nil when unconfigured
	geocoder := geocode.NewClient(cfg.Geocoder, cache, log)
	parcels := parcel.NewClient(cfg.Parcel, log)

	m := matcher.New(
		repository.NewPhotoRepository(db),
		repository.NewPropertyRepository(db),
		blob.NewStore(cfg.Storage.Dir),
		geocoder,
		parcels,
		scoring.NewScorer(cfg.Matching),
		cfg,
		log,
	)

	if err := m.ProcessBatch(ctx, photoIDs); err != nil {
		log.Error("Batch aborted", err, map[string]interface{}{
			"photos": len(photoIDs),
		})
	}

	// Drain queued photos before exiting
	m.Close()

	log.Info("Match worker exited", nil)
}

func parsePhotoIDs(args []string) ([]uuid.UUID, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no photo ids given")
	}

	ids := make([]uuid.UUID, 0, len(args))
	for _, arg := range args {
		id, err := uuid.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid photo id %q: %w", arg, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
