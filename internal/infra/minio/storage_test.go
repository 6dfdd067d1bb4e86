package minio

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"

	"github.com/viscloud/labeler/internal/domain/entity"
)

func TestStorageRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	minioContainer, err := tcminio.Run(ctx,
		"minio/minio:latest",
		tcminio.WithUsername("minioadmin"),
		tcminio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	defer minioContainer.Terminate(ctx)

	endpoint, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err)

	storage, err := NewStorage(StorageConfig{
		Endpoint:     endpoint,
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		VideoBucket:  "uploads",
		LabelsBucket: "labels",
	})
	require.NoError(t, err)
	require.NoError(t, storage.EnsureBuckets(ctx))
	// idempotent
	require.NoError(t, storage.EnsureBuckets(ctx))

	_, err = storage.client.PutObject(ctx, "uploads", "cams/clip.mp4", strings.NewReader("not really a video"), -1, miniogo.PutObjectOptions{})
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, storage.DownloadVideo(ctx, "cams/clip.mp4", dest))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "not really a video", string(data))

	assert.Error(t, storage.DownloadVideo(ctx, "cams/missing.mp4", filepath.Join(t.TempDir(), "x.mp4")))

	session := entity.NewSession(dest, 0)
	session.VideoKey = "cams/clip.mp4"
	records := []entity.Record{
		{Kind: entity.KindEvent, Index: 0, Interval: entity.Interval{Start: 19, End: 41}},
		{Kind: entity.KindUncertain, Index: 0, Interval: entity.Interval{Start: 64, End: 124}},
	}
	require.NoError(t, storage.WriteExport(ctx, session, records))

	obj, err := storage.client.GetObject(ctx, "labels", LabelsObjectKey(session), miniogo.GetObjectOptions{})
	require.NoError(t, err)
	defer obj.Close()
	body, err := io.ReadAll(obj)
	require.NoError(t, err)
	assert.Equal(t, "(19, 41) - Event 0\n(64, 124) - Uncertain 0\n", string(body))
}
