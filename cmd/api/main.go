package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/jwebster45206/pet-engine/internal/config"
	"github.com/jwebster45206/pet-engine/internal/handlers"
	"github.com/jwebster45206/pet-engine/internal/logger"
	"github.com/jwebster45206/pet-engine/internal/middleware"
	"github.com/jwebster45206/pet-engine/internal/services/events"
	internalstorage "github.com/jwebster45206/pet-engine/internal/storage"
	"github.com/jwebster45206/pet-engine/internal/worker"
	"github.com/jwebster45206/pet-engine/pkg/pet"
	"github.com/jwebster45206/pet-engine/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Pet Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"storage_backend", cfg.StorageBackend,
		"pet_id", cfg.PetID)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage: save slots in files or Redis, catalogs always from DATA_DIR
	var store storage.Storage
	var rdb *redis.Client
	switch cfg.StorageBackend {
	case config.BackendRedis:
		rs := internalstorage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
		waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Minute)
		err := rs.WaitForConnection(waitCtx)
		waitCancel()
		if err != nil {
			log.Error("Failed to connect to storage", "error", err)
			os.Exit(1)
		}
		store, rdb = rs, rs.Client()
	default:
		fs, err := internalstorage.NewFileStorage(cfg.SaveDir, cfg.DataDir, log)
		if err != nil {
			log.Error("Failed to open save directory", "error", err)
			os.Exit(1)
		}
		store = fs
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing storage connection", "error", err)
		}
	}()
	log.Info("Storage ready", "backend", cfg.StorageBackend)

	cat, err := store.LoadCatalog(ctx)
	if err != nil {
		log.Warn("Some catalogs failed to load, continuing with what was read", "error", err)
	}

	petCfg := pet.DefaultConfig()
	petCfg.Seed = cfg.RandomSeed
	p := pet.New(cfg.PetID, cat, petCfg, log)

	doc, err := store.LoadGame(ctx, p.ID())
	switch {
	case err == nil:
		p.Restore(*doc)
	case errors.Is(err, storage.ErrNotFound):
		log.Info("No save found, starting with a new pet", "pet_id", p.ID())
	default:
		log.Warn("Could not load save, starting with a new pet", "pet_id", p.ID(), "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	// Optional notification relay
	if cfg.PublishEvents {
		if rdb == nil {
			rdb = internalstorage.NewRedisClient(cfg.RedisURL)
			defer rdb.Close()
		}
		broadcaster := events.NewBroadcaster(rdb, p.ID(), 0, log.With("component", "relay"))
		p.Notifications().Subscribe(broadcaster)
		g.Go(func() error { return broadcaster.Run(gctx) })
	}

	sched := worker.New(p, store, worker.Intervals{
		Stats:    cfg.StatsInterval,
		Behavior: cfg.BehaviorInterval,
		Events:   cfg.EventInterval,
		Autosave: cfg.AutosaveInterval,
	}, log.With("component", "scheduler"))

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(store, log))
	petHandler := handlers.NewPetHandler(p, store, sched, log)
	mux.Handle("/v1/pet", petHandler)
	mux.Handle("/v1/pet/", petHandler)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(log, mux),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	g.Go(sched.Start)
	g.Go(func() error {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Server is shutting down...")
		sched.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", "error", err)
	}

	saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer saveCancel()
	if err := sched.SaveNow(saveCtx); err != nil {
		log.Error("Failed to save on shutdown", "error", err)
	} else {
		log.Info("Saved on shutdown", "pet_id", p.ID())
	}

	log.Info("Server exited")
}
