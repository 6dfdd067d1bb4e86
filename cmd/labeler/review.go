package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/viscloud/labeler/internal/domain/entity"
	"github.com/viscloud/labeler/internal/domain/port"
	"github.com/viscloud/labeler/internal/infra/ffmpeg"
	miniostorage "github.com/viscloud/labeler/internal/infra/minio"
	"github.com/viscloud/labeler/internal/infra/postgres"
	"github.com/viscloud/labeler/internal/infra/rabbitmq"
	"github.com/viscloud/labeler/internal/infra/terminal"
	"github.com/viscloud/labeler/internal/infra/textfile"
	"github.com/viscloud/labeler/internal/usecase"
)

func newReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review <video> [start-frame]",
		Short: "Review a video and mark intervals",
		Long: "Plays the video and reads commands from stdin, one per line. " +
			"With --video-key the video is fetched from object storage and the only " +
			"positional argument is the optional start frame.",
		Args: cobra.RangeArgs(0, 2),
		RunE: runReview,
	}
	cmd.Flags().String("video-key", "", "object key of the video in the MinIO video bucket")
	cmd.Flags().String("output", "", "export file path (overrides LABELER_OUTPUT)")
	cmd.Flags().Int("skip-rate", 0, "initial skip rate (overrides LABELER_SKIP_RATE)")
	cmd.Flags().Int("seek-interval", 0, "initial seek interval (overrides LABELER_SEEK_INTERVAL)")
	cmd.Flags().Int("display-height", 0, "decoded frame height (overrides LABELER_DISPLAY_HEIGHT)")
	return cmd
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := newApp(ctx, cmd.Name())
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg, log := rt.cfg, rt.log

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputPath, _ = flags.GetString("output")
	}
	if flags.Changed("skip-rate") {
		cfg.SkipRate, _ = flags.GetInt("skip-rate")
	}
	if flags.Changed("seek-interval") {
		cfg.SeekInterval, _ = flags.GetInt("seek-interval")
	}
	if flags.Changed("display-height") {
		cfg.DisplayHeight, _ = flags.GetInt("display-height")
	}
	videoKey, _ := flags.GetString("video-key")

	videoPath, start, err := reviewArgs(args, videoKey != "")
	if err != nil {
		return err
	}

	var echo io.Writer
	if cfg.EchoExport {
		echo = os.Stdout
	}
	sinks := []port.ExportSink{textfile.NewSink(cfg.OutputPath, echo)}

	// MinIO
	if cfg.MinIOEnabled() {
		storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
			Endpoint:     cfg.MinIOEndpoint,
			AccessKey:    cfg.MinIOAccessKey,
			SecretKey:    cfg.MinIOSecretKey,
			UseSSL:       cfg.MinIOUseSSL,
			VideoBucket:  cfg.MinIOVideoBucket,
			LabelsBucket: cfg.MinIOLabelsBucket,
		})
		if err != nil {
			return err
		}
		if err := storage.EnsureBuckets(ctx); err != nil {
			return err
		}
		sinks = append(sinks, storage)

		if videoKey != "" {
			if videoPath, err = fetchVideo(ctx, storage, cfg.TempDir, videoKey); err != nil {
				return err
			}
			defer os.Remove(videoPath)
		}
	} else if videoKey != "" {
		return fmt.Errorf("--video-key needs MINIO_ENDPOINT")
	}

	// Database
	if cfg.PostgresEnabled() {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			log.Warn("migration warning", zap.Error(err))
		}
		sinks = append(sinks, postgres.NewIntervalRepository(pool))
	}

	// RabbitMQ export notifications
	if cfg.RabbitMQEnabled() {
		rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("connect to rabbitmq: %w", err)
		}
		defer rmqConn.Close()

		pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
		if err != nil {
			return err
		}
		exportPub, err := rabbitmq.NewExportPublisher(pub, cfg.RabbitMQExportQueue)
		if err != nil {
			return err
		}
		sinks = append(sinks, exportPub)
	}

	source, err := ffmpeg.Open(ctx, ffmpeg.SourceConfig{
		FFmpegPath:    cfg.FFmpegPath,
		FFprobePath:   cfg.FFprobePath,
		DisplayHeight: cfg.DisplayHeight,
	}, videoPath, log)
	if err != nil {
		return err
	}
	defer source.Close()

	// stdout carries the export, everything interactive goes to stderr
	display := terminal.NewDisplay(os.Stderr)
	fmt.Fprint(os.Stderr, usecase.Controls())

	session := entity.NewSession(videoPath, start)
	session.VideoKey = videoKey

	review := usecase.NewReviewSession(session, source, display, sinks, log, usecase.ReviewConfig{
		SkipRate:      cfg.SkipRate,
		SeekInterval:  cfg.SeekInterval,
		TickInterval:  cfg.TickInterval(),
		ExportTimeout: cfg.ExportTimeout(),
	})

	commands := make(chan usecase.Command)
	go terminal.NewDispatcher(os.Stdin, display, log).Run(ctx, commands)

	err = review.Run(ctx, commands)
	fmt.Fprintln(os.Stderr)
	return err
}

// reviewArgs splits the positional arguments into the video path and start
// frame. A remote video leaves only the start frame.
func reviewArgs(args []string, remote bool) (string, entity.FrameID, error) {
	var videoPath, startArg string
	switch {
	case remote && len(args) > 1:
		return "", 0, fmt.Errorf("with --video-key only the start frame may be given")
	case remote && len(args) == 1:
		startArg = args[0]
	case !remote && len(args) == 0:
		return "", 0, fmt.Errorf("usage: labeler review <video> [start-frame]")
	case !remote:
		videoPath = args[0]
		if len(args) == 2 {
			startArg = args[1]
		}
	}

	if startArg == "" {
		return videoPath, 0, nil
	}
	n, err := strconv.ParseInt(startArg, 10, 64)
	if err != nil || n < 0 {
		return "", 0, fmt.Errorf("invalid start frame %q", startArg)
	}
	return videoPath, entity.FrameID(n), nil
}

func fetchVideo(ctx context.Context, storage port.VideoStorage, tempDir, videoKey string) (string, error) {
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	dest := filepath.Join(tempDir, filepath.Base(videoKey))
	if err := storage.DownloadVideo(ctx, videoKey, dest); err != nil {
		return "", err
	}
	return dest, nil
}
