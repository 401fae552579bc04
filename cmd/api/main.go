package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parcel-tracker/internal/app"
	"parcel-tracker/internal/core/config"
	"parcel-tracker/internal/core/logger"
	"parcel-tracker/internal/core/server"
	trackinghandler "parcel-tracker/internal/features/tracking/handler"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// @title Parcel Tracker API
// @version 1.0
// @description Resolves the carrier behind a bare tracking number and returns normalized tracking events from third-party tracking providers.
// @contact.name API Support
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	var reg prometheus.Registerer
	if cfg.MetricsEnabled {
		reg = prometheus.DefaultRegisterer
	}
	deps := app.NewDependencies(cfg, reg)
	if len(deps.Gateways) == 0 {
		l.Warn("No tracking provider configured, every lookup will fail with CONFIG_ERROR")
	} else {
		l.Info("Tracking providers enabled", zap.Strings("providers", deps.ProviderNames()))
	}

	trackingHdl := trackinghandler.NewTrackingHandler(deps.TrackingService, deps.ProviderNames())

	srv := server.New(cfg)

	// Register Routes
	srv.App.Get("/healthz", trackingHdl.Health)
	srv.App.Get("/api/track", trackingHdl.Track)
	srv.App.Get("/tracking/:number", trackingHdl.GetTracking)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		l.Info("Shutting down server")
		if err := srv.Shutdown(10 * time.Second); err != nil {
			l.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	if err := srv.Run(); err != nil {
		l.Fatal("Server failed to start", zap.Error(err))
	}
}
