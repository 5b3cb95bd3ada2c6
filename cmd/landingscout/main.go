// Package main wires together the landingscout service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcppubsub "cloud.google.com/go/pubsub"
	gcpstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/landingscout/landingscout/internal/api"
	"github.com/landingscout/landingscout/internal/browser"
	"github.com/landingscout/landingscout/internal/clock/system"
	"github.com/landingscout/landingscout/internal/config"
	"github.com/landingscout/landingscout/internal/engine"
	"github.com/landingscout/landingscout/internal/hash/sha256"
	"github.com/landingscout/landingscout/internal/id/uuid"
	"github.com/landingscout/landingscout/internal/logging"
	"github.com/landingscout/landingscout/internal/metrics"
	"github.com/landingscout/landingscout/internal/pipeline"
	memorypublisher "github.com/landingscout/landingscout/internal/publisher/memory"
	pubsubpublisher "github.com/landingscout/landingscout/internal/publisher/pubsub"
	"github.com/landingscout/landingscout/internal/scheduler"
	"github.com/landingscout/landingscout/internal/scout"
	"github.com/landingscout/landingscout/internal/storage/gcs"
	"github.com/landingscout/landingscout/internal/storage/local"
	memorystorage "github.com/landingscout/landingscout/internal/storage/memory"
	"github.com/landingscout/landingscout/internal/storage/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		scoutStore   scout.ScoutStore
		sessionStore scout.SessionStore
		closeStores  func()
	)
	switch cfg.DB.Backend {
	case "postgres":
		pgCfg := postgres.Config{
			DSN:      cfg.DB.DSN,
			MaxConns: int32(cfg.DB.MaxConns),
			MinConns: int32(cfg.DB.MinConns),
		}
		scouts, err := postgres.NewScoutStore(ctx, pgCfg)
		if err != nil {
			logger.Fatal("connect scout store", zap.Error(err))
		}
		sessions, err := postgres.NewSessionStore(ctx, pgCfg)
		if err != nil {
			scouts.Close()
			logger.Fatal("connect session store", zap.Error(err))
		}
		scoutStore, sessionStore = scouts, sessions
		closeStores = func() {
			sessions.Close()
			scouts.Close()
		}
	default:
		scoutStore = memorystorage.NewScoutStore()
		sessionStore = memorystorage.NewSessionStore()
		closeStores = func() {}
	}
	defer closeStores()

	var (
		blobStore  scout.BlobStore
		blobReader scout.BlobReader
	)
	switch cfg.Storage.Backend {
	case "local":
		localStore, err := local.New(local.Config{BaseDir: cfg.Storage.LocalDir})
		if err != nil {
			logger.Fatal("init local blob store", zap.Error(err))
		}
		blobStore, blobReader = localStore, localStore
	case "gcs":
		client, err := gcpstorage.NewClient(ctx)
		if err != nil {
			logger.Fatal("init gcs client", zap.Error(err))
		}
		defer func() {
			if closeErr := client.Close(); closeErr != nil {
				logger.Warn("close gcs client", zap.Error(closeErr))
			}
		}()
		gcsStore, err := gcs.New(client, gcs.Config{Bucket: cfg.Storage.GCSBucket})
		if err != nil {
			logger.Fatal("init gcs blob store", zap.Error(err))
		}
		// GCS artifacts are served via signed bucket URLs, not through the
		// API, so no reader is wired here.
		blobStore = gcsStore
	default:
		memStore := memorystorage.NewBlobStore()
		blobStore, blobReader = memStore, memStore
	}

	var publisher scout.Publisher
	if cfg.PubSub.Enabled {
		client, err := gcppubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("init pubsub client", zap.Error(err))
		}
		pub := pubsubpublisher.New(client)
		defer pub.Stop()
		defer func() {
			if closeErr := client.Close(); closeErr != nil {
				logger.Warn("close pubsub client", zap.Error(closeErr))
			}
		}()
		publisher = pub
	} else {
		publisher = memorypublisher.New()
	}

	manager := browser.NewManager(browser.Config{
		UserAgent:      cfg.Browser.UserAgent,
		Headless:       cfg.Browser.Headless,
		ViewportWidth:  int64(cfg.Browser.ViewportWidth),
		ViewportHeight: int64(cfg.Browser.ViewportHeight),
		SettleTimeout:  time.Duration(cfg.Browser.SettleTimeoutMs) * time.Millisecond,
	}, logger.Named("browser"))
	defer manager.Shutdown()

	registry := pipeline.NewRegistry(pipeline.Config{
		DefaultProductSelectors: cfg.Engine.DefaultProductSelectors,
	}, logger.Named("pipeline"))
	hasher := sha256.New()
	clock := system.New()
	idGen := uuid.New()

	topic := ""
	if cfg.PubSub.Enabled {
		topic = cfg.PubSub.TopicName
	}
	eng := engine.New(
		scoutStore,
		sessionStore,
		manager,
		registry,
		blobStore,
		publisher,
		hasher,
		clock,
		idGen,
		engine.Config{
			MaxPagesDefault:     cfg.Engine.MaxPagesDefault,
			NavTimeoutDefault:   cfg.NavTimeout(),
			NavTimeoutCeiling:   time.Duration(cfg.Engine.NavTimeoutCeilingSeconds) * time.Second,
			ExtractBudget:       time.Duration(cfg.Engine.ExtractBudgetSeconds) * time.Second,
			SessionBudget:       cfg.SessionBudget(),
			DomainQPS:             cfg.Engine.DomainQPS,
			MaxConcurrentSessions: cfg.Engine.MaxConcurrentSessions,
			ScreenshotsEnabled:  cfg.Engine.ScreenshotsEnabled,
			HTMLSnapshotEnabled: cfg.Engine.HTMLSnapshotEnabled,
			ScreenshotPrefix:    cfg.Storage.ScreenshotPrefix,
			SnapshotPrefix:      cfg.Storage.SnapshotPrefix,
			Topic:               topic,
		},
		logger.Named("engine"),
	)

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(scoutStore, eng, clock, scheduler.Config{
			Interval: time.Duration(cfg.Scheduler.IntervalSeconds) * time.Second,
		}, logger.Named("scheduler"))
		go sched.Run(ctx)
	}

	apiServer := api.NewServer(scoutStore, sessionStore, eng, blobReader, idGen, clock, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
