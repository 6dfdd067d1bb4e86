package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	OutputPath       string `env:"LABELER_OUTPUT"             envDefault:"labels.dat"`
	EchoExport       bool   `env:"LABELER_ECHO_EXPORT"        envDefault:"true"`
	SkipRate         int    `env:"LABELER_SKIP_RATE"          envDefault:"0"`
	SeekInterval     int    `env:"LABELER_SEEK_INTERVAL"      envDefault:"30"`
	TickIntervalMs   int    `env:"LABELER_TICK_INTERVAL_MS"   envDefault:"1"`
	ExportTimeoutSec int    `env:"LABELER_EXPORT_TIMEOUT_SEC" envDefault:"10"`
	DisplayHeight    int    `env:"LABELER_DISPLAY_HEIGHT"     envDefault:"720"`

	FFmpegPath  string `env:"FFMPEG_PATH"  envDefault:"ffmpeg"`
	FFprobePath string `env:"FFPROBE_PATH" envDefault:"ffprobe"`

	MinIOEndpoint     string `env:"MINIO_ENDPOINT"`
	MinIOAccessKey    string `env:"MINIO_ACCESS_KEY"    envDefault:"minioadmin"`
	MinIOSecretKey    string `env:"MINIO_SECRET_KEY"    envDefault:"minioadmin"`
	MinIOUseSSL       bool   `env:"MINIO_USE_SSL"       envDefault:"false"`
	MinIOVideoBucket  string `env:"MINIO_VIDEO_BUCKET"  envDefault:"uploads"`
	MinIOLabelsBucket string `env:"MINIO_LABELS_BUCKET" envDefault:"labels"`

	DatabaseURL string `env:"DATABASE_URL"`

	RabbitMQURL         string `env:"RABBITMQ_URL"`
	RabbitMQExchange    string `env:"RABBITMQ_EXCHANGE"     envDefault:"viscloud.labels"`
	RabbitMQExportQueue string `env:"RABBITMQ_EXPORT_QUEUE" envDefault:"labels.exported"`
	RabbitMQPrefetch    int    `env:"RABBITMQ_PREFETCH"     envDefault:"8"`

	CollectDir         string `env:"COLLECT_DIR"          envDefault:"labels"`
	CollectLanes       int    `env:"COLLECT_LANES"        envDefault:"4"`
	CollectMaxAttempts int    `env:"COLLECT_MAX_ATTEMPTS" envDefault:"5"`
	RetryBaseDelayMs   int    `env:"RETRY_BASE_DELAY_MS"  envDefault:"1000"`

	MetricsPort      int     `env:"METRICS_PORT"  envDefault:"0"`
	OTLPEndpoint     string  `env:"OTLP_ENDPOINT"`
	TraceSampleRatio float64 `env:"TRACE_SAMPLE_RATIO" envDefault:"1"`

	TempDir string `env:"TEMP_DIR"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.TempDir == "" {
		cfg.TempDir = filepath.Join(os.TempDir(), "labeler")
	}
	return cfg, nil
}

func (c *Config) TickInterval() time.Duration {
	if c.TickIntervalMs <= 0 {
		return time.Millisecond
	}
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

func (c *Config) ExportTimeout() time.Duration {
	if c.ExportTimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ExportTimeoutSec) * time.Second
}

func (c *Config) MinIOEnabled() bool    { return c.MinIOEndpoint != "" }
func (c *Config) PostgresEnabled() bool { return c.DatabaseURL != "" }
func (c *Config) RabbitMQEnabled() bool { return c.RabbitMQURL != "" }
func (c *Config) MetricsEnabled() bool  { return c.MetricsPort > 0 }
func (c *Config) TracingEnabled() bool  { return c.OTLPEndpoint != "" }
