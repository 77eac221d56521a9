package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/TimurManjosov/leadgrade/internal/api"
	"github.com/TimurManjosov/leadgrade/internal/config"
	"github.com/TimurManjosov/leadgrade/internal/logging"
	"github.com/TimurManjosov/leadgrade/internal/store"
	"github.com/TimurManjosov/leadgrade/internal/telemetry"
)

func main() {
	bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("config")
	}
	if err := cfg.Validate(); err != nil {
		bootLog.Fatal().Err(err).Msg("config")
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("logging")
	}
	logger = logger.With().Str("env", cfg.AppEnv).Logger()

	telemetry.Init()

	ctx := context.Background()
	st, err := store.NewStore(ctx, store.Options{
		Type:           cfg.StoreType,
		Path:           cfg.WorkspacePath,
		Scale:          cfg.Scale(),
		Policy:         cfg.EditPolicy(),
		QualifyingTier: cfg.Tier(),
		Logger:         logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("store")
	}
	defer st.Close()

	snap, err := st.Snapshot(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("initial snapshot")
	}
	logger.Info().
		Str("store", cfg.StoreType).
		Int("leads", len(snap.Leads)).
		Str("etag", snap.ETag).
		Msg("session loaded")

	srvAPI := api.NewServer(st, api.WithLogger(logger), api.WithRateLimit(cfg.RateLimitPerIP))

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srvAPI.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metricsMux,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server")
		}
	}()
	go func() {
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShut)
	_ = metricsSrv.Shutdown(ctxShut)
	logger.Info().Msg("stopped")
}
