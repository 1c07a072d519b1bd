package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alderglen/lookout/internal/bus"
	"github.com/alderglen/lookout/internal/config"
	"github.com/alderglen/lookout/internal/export"
	"github.com/alderglen/lookout/internal/ingest"
	"github.com/alderglen/lookout/internal/metrics"
	"github.com/alderglen/lookout/internal/server"
	"github.com/alderglen/lookout/internal/store/postgres"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ingestion relay and HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("LOOKOUT_DATABASE_URL is required")
		}
		loc, err := cfg.Location()
		if err != nil {
			return err
		}

		st, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		m := metrics.New()
		buffer := ingest.NewBuffer(cfg.BufferRetention, cfg.BufferMax)
		sink := ingest.NewSink(st, logger)
		pipe := ingest.NewPipeline(ingest.NewNormalizer(loc), sink, buffer, m, logger)
		pipe.Start()

		sub := bus.NewSubscriber(cfg.BusURL(), cfg.BusUser, cfg.BusPass, logger)
		srv := server.New(cfg, st, sub, pipe, m, logger)

		// Subscribe at startup. A broker outage is non-fatal: polling
		// handlers retry the connect lazily.
		if err := srv.ConnectBus(); err != nil {
			logger.Warn("bus connect failed at startup", "err", err)
		}

		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: srv.NewHTTPHandler(),
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Start the archive export scheduler if a bucket is configured.
		var scheduler *export.Scheduler
		if cfg.ExportInterval > 0 && cfg.ExportS3Bucket != "" {
			dest, err := export.NewS3Destination(
				context.Background(),
				cfg.ExportS3Bucket,
				cfg.ExportS3Prefix,
				cfg.ExportS3Region,
				cfg.ExportS3Endpoint,
			)
			if err != nil {
				logger.Error("failed to create S3 archive destination", "err", err)
			} else {
				scheduler = export.NewScheduler(st, []export.Destination{dest}, cfg.ExportInterval, logger)
				scheduler.Start()
				logger.Info("archive export enabled",
					"bucket", cfg.ExportS3Bucket, "prefix", cfg.ExportS3Prefix, "interval", cfg.ExportInterval)
			}
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)

		if scheduler != nil {
			scheduler.Stop()
		}
		sub.Disconnect()
		pipe.Stop()
		return st.Close()
	},
}
