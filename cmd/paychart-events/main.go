package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"paychart/internal/amqp"
	"paychart/internal/cli"
	applog "paychart/internal/log"
	"paychart/internal/worker"
)

const (
	maxSeenEvents  = 10000
	reportInterval = time.Minute
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentAMQP)

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the events consumer")
		os.Exit(1)
	}

	logger.Info("Starting paychart-events",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		applog.FieldOperation, applog.OpStartup)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	w := worker.NewEventWorker(logger, maxSeenEvents)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := client.ConsumeRenderEvents(gctx, w.HandleRenderEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error { return w.ReportEvery(gctx, reportInterval) })

	if err := g.Wait(); err != nil {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	s := w.Stats()
	logger.Info("Events consumer stopped",
		"total", s.Total,
		"failed", s.Failed,
		applog.FieldOperation, applog.OpShutdown)
}
