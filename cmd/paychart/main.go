package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"paychart/internal/app"
	"paychart/internal/backend"
	"paychart/internal/cache"
	"paychart/internal/cli"
	apphttp "paychart/internal/http"
	applog "paychart/internal/log"
	"paychart/internal/middleware/ratelimit"
	"paychart/internal/middleware/security"
	"paychart/internal/source"
)

const eventQueueSize = 256

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentApp)

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	opts := []app.PipelineOption{app.WithLogger(logger)}
	var events *app.AsyncSink
	if res.Events != nil {
		events = app.NewAsyncSink(res.Events, eventQueueSize, logger)
		opts = append(opts, app.WithEventSink(events))
	}
	pipeline := app.NewPipeline(opts...)

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit,
		CleanupInterval:   cfg.CleanupPeriod,
	})
	reporters := apphttp.NewReporterCache(cfg.MaxSessions, cfg.SessionTTL)
	detector := security.NewDetector()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Pipeline:       pipeline,
		Sessions:       res.Sessions,
		Importer:       res.Importer,
		Ready:          res.Ready,
		Loader:         source.NewFileLoader(cfg.MaxUploadBytes),
		Limiter:        limiter,
		Detector:       detector,
		Reporters:      reporters,
		Logger:         logger,
		SessionTTL:     cfg.SessionTTL,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 15 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	caches := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
	caches.Register("derived", pipeline.DerivedCache())
	caches.Register("reporters", reporters)
	caches.Register("sessions", res.Sessions)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting paychart server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"events", res.Events != nil,
			"sheets_import", res.Importer != nil,
			applog.FieldOperation, applog.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return caches.Run(gctx, cfg.CleanupPeriod) })
	g.Go(func() error { return limiter.Run(gctx) })
	if events != nil {
		g.Go(func() error { return events.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	metrics := srv.TraceMetrics()
	summary := []any{
		"requests", metrics.TotalRequests,
		"suspicious_requests", detector.SuspiciousCount(),
		applog.FieldOperation, applog.OpShutdown,
	}
	if events != nil {
		summary = append(summary, "events_dropped", events.Dropped())
	}
	logger.Info("Server stopped gracefully", summary...)
}

