package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/viscloud/labeler/internal/infra/config"
	"github.com/viscloud/labeler/internal/infra/metrics"
	"github.com/viscloud/labeler/internal/infra/tracing"
	"github.com/viscloud/labeler/pkg/logger"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "labeler",
		Short: "Video review labeler",
		Long: "labeler plays a video frame by frame while a reviewer marks event and " +
			"uncertain intervals, then exports them as flat label files.",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newReviewCmd(), newLabelsCmd(), newCollectCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// app bundles what every long-running command sets up from the
// environment.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	shutdown []func(context.Context)
}

func newApp(ctx context.Context, command string) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	rt := &app{cfg: cfg, log: log}

	// Tracing (non-fatal if the collector is unavailable)
	if cfg.TracingEnabled() {
		tp, err := tracing.InitTracer(ctx, tracing.Options{
			Endpoint:    cfg.OTLPEndpoint,
			Command:     command,
			SampleRatio: cfg.TraceSampleRatio,
		})
		if err != nil {
			log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
		} else {
			rt.shutdown = append(rt.shutdown, func(ctx context.Context) { _ = tp.Shutdown(ctx) })
		}
	}

	if cfg.MetricsEnabled() {
		srv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)
		rt.shutdown = append(rt.shutdown, func(ctx context.Context) { _ = srv.Shutdown(ctx) })
	}
	return rt, nil
}

func (rt *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), rt.cfg.ExportTimeout())
	defer cancel()
	for i := len(rt.shutdown) - 1; i >= 0; i-- {
		rt.shutdown[i](ctx)
	}
	_ = rt.log.Sync()
}
