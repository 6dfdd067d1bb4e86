package minio

import (
	"bytes"
	"context"
	"fmt"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/viscloud/labeler/internal/domain/entity"
	"github.com/viscloud/labeler/internal/domain/port"
	"github.com/viscloud/labeler/internal/infra/textfile"
)

// Storage fetches source videos and stores exported label files.
type Storage struct {
	client       *miniogo.Client
	videoBucket  string
	labelsBucket string
}

type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	VideoBucket  string
	LabelsBucket string
}

var (
	_ port.VideoStorage = (*Storage)(nil)
	_ port.ExportSink   = (*Storage)(nil)
)

func NewStorage(cfg StorageConfig) (*Storage, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Storage{
		client:       client,
		videoBucket:  cfg.VideoBucket,
		labelsBucket: cfg.LabelsBucket,
	}, nil
}

func (s *Storage) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.videoBucket, s.labelsBucket} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{}); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
	}
	return nil
}

func (s *Storage) DownloadVideo(ctx context.Context, objectKey string, destPath string) error {
	if err := s.client.FGetObject(ctx, s.videoBucket, objectKey, destPath, miniogo.GetObjectOptions{}); err != nil {
		return fmt.Errorf("download video %s: %w", objectKey, err)
	}
	return nil
}

func (s *Storage) Name() string { return "minio" }

// WriteExport stores the export as <session-id>.dat in the labels bucket.
func (s *Storage) WriteExport(ctx context.Context, session *entity.Session, records []entity.Record) error {
	var buf bytes.Buffer
	if err := textfile.WriteRecords(&buf, records); err != nil {
		return err
	}
	key := LabelsObjectKey(session)
	_, err := s.client.PutObject(ctx, s.labelsBucket, key, &buf, int64(buf.Len()), miniogo.PutObjectOptions{
		ContentType: "text/plain",
		UserMetadata: map[string]string{
			"video-path": session.VideoPath,
			"video-key":  session.VideoKey,
		},
	})
	if err != nil {
		return fmt.Errorf("upload labels %s: %w", key, err)
	}
	return nil
}

func LabelsObjectKey(session *entity.Session) string {
	return session.ID.String() + textfile.ExportExtension
}
