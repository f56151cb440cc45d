package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/lariofin/omi-valuation/internal/adapter/geocode"
	httpadapter "github.com/lariofin/omi-valuation/internal/adapter/http"
	"github.com/lariofin/omi-valuation/internal/config"
	"github.com/lariofin/omi-valuation/internal/estimate"
	"github.com/lariofin/omi-valuation/internal/observability"
	"github.com/lariofin/omi-valuation/internal/omi"
	"github.com/lariofin/omi-valuation/internal/valuation"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// The dataset is required: without the values table no query can ever
	// succeed, so a failed load is fatal rather than a degraded start.
	store := omi.NewStore(cfg.DataDir, logger)
	if err := store.Load(); err != nil {
		logger.Error("failed to load omi dataset", "data_dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	metrics.PolygonsLoaded.Set(float64(store.PolygonCount()))
	metrics.ReferenceRows.Set(float64(store.ReferenceRowCount()))

	// Geocoding collaborator (feature-flagged via GEOCODER_ENABLED).
	var geocoder geocode.Geocoder
	if cfg.GeocoderEnabled {
		client := geocode.NewClient(cfg.GeocoderBaseURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout, logger)
		geocoder = geocode.NewCachedGeocoder(client, cfg.GeocoderCacheSize, metrics)
		logger.Info("geocoding enabled", "base_url", cfg.GeocoderBaseURL, "cache_size", cfg.GeocoderCacheSize)
	} else {
		logger.Info("geocoding disabled")
	}

	params := estimate.Params{
		MinComparables: cfg.MinComparables,
		SpreadMin:      cfg.SpreadMin,
		SpreadMax:      cfg.SpreadMax,
		OfficialFactor: cfg.OfficialFactor,
	}
	estimator := valuation.New(store, params, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, estimator, geocoder, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
