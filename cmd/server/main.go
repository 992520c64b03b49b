package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/rig-dashboard/backend/internal/api"
	"github.com/rig-dashboard/backend/internal/config"
	"github.com/rig-dashboard/backend/internal/dashboard"
	"github.com/rig-dashboard/backend/internal/ingest"
	"github.com/rig-dashboard/backend/internal/logger"
	"github.com/rig-dashboard/backend/internal/session"
	"github.com/rig-dashboard/backend/internal/storage"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	configPath := flag.String("config", filepath.Join(filepath.Dir(exePath), config.DefaultConfigFile), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Log.Level, cfg.Log.Format)

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatal().Err(err).Msg("failed to create directories")
	}

	// Initialize storage
	fileStore, err := storage.NewLocalStore(cfg.Storage.UploadsDirectory, cfg.Storage.MaxStoredFiles)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// Initialize session manager
	sessionMgr := session.NewManager(cfg.Storage.TempDirectory, ingest.NewPipeline(nil))
	sessionMgr.SetMaxSessions(cfg.Processing.MaxSessions)
	defer sessionMgr.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background session cleanup
	go sessionMgr.RunCleanup(ctx,
		time.Duration(cfg.Processing.CleanupIntervalMinutes)*time.Minute,
		time.Duration(cfg.Processing.SessionTimeoutMinutes)*time.Minute,
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api.SetupMiddleware(e, cfg)
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Store:             fileStore,
		SessionMgr:        sessionMgr,
		Options:           dashboard.Options{Thresholds: cfg.Thresholds()},
		AllowedExtensions: cfg.AllowedExtensions(),
		AllowFileDeletion: cfg.Security.AllowFileDeletion,
		Version:           Version,
	}))

	// Configure server with settings from the config file
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	log.Info().
		Str("version", Version).
		Str("buildTime", BuildTime).
		Str("config", *configPath).
		Str("listen", cfg.GetServerAddr()).
		Str("dataDir", cfg.Storage.DataDirectory).
		Int("maxSessions", cfg.Processing.MaxSessions).
		Msg("drilling dashboard server starting")

	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
