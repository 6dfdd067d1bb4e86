package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/viscloud/labeler/internal/infra/rabbitmq"
	"github.com/viscloud/labeler/internal/infra/textfile"
	"github.com/viscloud/labeler/internal/usecase"
)

func newCollectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Write announced exports into a labels directory",
		Long: "Consumes export notifications from RabbitMQ and writes each session's " +
			"intervals to <dir>/<session-id>.dat, ready for 'labeler labels vector'.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := newApp(ctx, cmd.Name())
			if err != nil {
				return err
			}
			defer rt.Close()
			cfg, log := rt.cfg, rt.log

			if cmd.Flags().Changed("dir") {
				cfg.CollectDir, _ = cmd.Flags().GetString("dir")
			}
			if !cfg.RabbitMQEnabled() {
				return fmt.Errorf("collect needs RABBITMQ_URL")
			}
			if err := os.MkdirAll(cfg.CollectDir, 0755); err != nil {
				return fmt.Errorf("create collect dir: %w", err)
			}

			uc := usecase.NewCollectExportsUseCase(textfile.NewDirSink(cfg.CollectDir), log)

			consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
				URL:         cfg.RabbitMQURL,
				Queue:       cfg.RabbitMQExportQueue,
				Exchange:    cfg.RabbitMQExchange,
				Prefetch:    cfg.RabbitMQPrefetch,
				Lanes:       cfg.CollectLanes,
				BaseDelayMs: cfg.RetryBaseDelayMs,
				MaxAttempts: cfg.CollectMaxAttempts,
			}, uc.Execute, log)
			if err != nil {
				return err
			}
			defer consumer.Close()

			log.Info("collecting exports", zap.String("dir", cfg.CollectDir))
			if err := consumer.Start(ctx); err != nil {
				log.Error("consumer error", zap.Error(err))
				return err
			}
			log.Info("collector stopped")
			return nil
		},
	}
	cmd.Flags().String("dir", "", "labels directory (overrides COLLECT_DIR)")
	return cmd
}
