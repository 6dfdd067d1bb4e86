package rabbitmq

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcrabbitmq "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"go.uber.org/zap"

	"github.com/viscloud/labeler/internal/domain/entity"
	"github.com/viscloud/labeler/internal/infra/textfile"
	"github.com/viscloud/labeler/internal/usecase"
)

func startRabbit(t *testing.T, ctx context.Context) string {
	t.Helper()
	rmqContainer, err := tcrabbitmq.Run(ctx,
		"rabbitmq:3.12-management-alpine",
	)
	require.NoError(t, err)
	t.Cleanup(func() { rmqContainer.Terminate(context.Background()) })

	rmqURL, err := rmqContainer.AmqpURL(ctx)
	require.NoError(t, err)
	return rmqURL
}

func TestExportPublisherPublishesMessage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	rmqConn, err := amqp.Dial(startRabbit(t, ctx))
	require.NoError(t, err)
	defer rmqConn.Close()

	pub, err := NewPublisher(rmqConn, "viscloud.labels")
	require.NoError(t, err)
	defer pub.Close()

	exportPub, err := NewExportPublisher(pub, "labels.exported")
	require.NoError(t, err)

	session := entity.NewSession("clip.mp4", 0)
	session.MarkFinished()
	records := []entity.Record{
		{Kind: entity.KindEvent, Index: 0, Interval: entity.Interval{Start: 19, End: 41}},
	}
	require.NoError(t, exportPub.WriteExport(ctx, session, records))

	ch, err := rmqConn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	var delivery amqp.Delivery
	require.Eventually(t, func() bool {
		d, ok, err := ch.Get("labels.exported", true)
		if err != nil || !ok {
			return false
		}
		delivery = d
		return true
	}, 10*time.Second, 100*time.Millisecond)

	assert.Equal(t, "application/json", delivery.ContentType)
	assert.Equal(t, uint8(amqp.Persistent), delivery.DeliveryMode)

	var msg entity.LabelsExportedMessage
	require.NoError(t, json.Unmarshal(delivery.Body, &msg))
	assert.Equal(t, session.ID, msg.SessionID)
	assert.Equal(t, 1, msg.EventCount)
	assert.Equal(t, []entity.ExportedInterval{{Kind: "Event", Index: 0, Start: 19, End: 41}}, msg.Intervals)
}

func TestConsumerCollectsExports(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	rmqURL := startRabbit(t, ctx)
	rmqConn, err := amqp.Dial(rmqURL)
	require.NoError(t, err)
	defer rmqConn.Close()

	dir := t.TempDir()
	log := zap.NewNop()
	uc := usecase.NewCollectExportsUseCase(textfile.NewDirSink(dir), log)

	consumer, err := NewConsumer(ConsumerConfig{
		URL:         rmqURL,
		Queue:       "labels.exported",
		Exchange:    "viscloud.labels",
		Prefetch:    1,
		Lanes:       2,
		BaseDelayMs: 100,
		MaxAttempts: 3,
	}, uc.Execute, log)
	require.NoError(t, err)
	defer consumer.Close()

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	defer consumerCancel()
	go func() {
		consumer.Start(consumerCtx)
	}()

	pub, err := NewPublisher(rmqConn, "viscloud.labels")
	require.NoError(t, err)
	defer pub.Close()

	// malformed messages are dropped rather than redelivered forever
	err = pub.channel.PublishWithContext(ctx, "viscloud.labels", ExportRoutingKey, false, false,
		amqp.Publishing{ContentType: "application/json", Body: []byte(`{invalid json`)})
	require.NoError(t, err)

	exportPub, err := NewExportPublisher(pub, "labels.exported")
	require.NoError(t, err)

	session := entity.NewSession("clip.mp4", 0)
	session.MarkFinished()
	records := []entity.Record{
		{Kind: entity.KindEvent, Index: 0, Interval: entity.Interval{Start: 19, End: 41}},
		{Kind: entity.KindUncertain, Index: 0, Interval: entity.Interval{Start: 64, End: 124}},
	}
	require.NoError(t, exportPub.WriteExport(ctx, session, records[:1]))
	// a re-export of the same session lands after the first one
	require.NoError(t, exportPub.WriteExport(ctx, session, records))

	path := filepath.Join(dir, session.ID.String()+textfile.ExportExtension)
	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 30*time.Second, 100*time.Millisecond)

	require.Eventually(t, func() bool {
		got, err := textfile.ReadRecords(path)
		return err == nil && assert.ObjectsAreEqual(records, got)
	}, 30*time.Second, 100*time.Millisecond)

	// both exports and the malformed message are settled
	require.Eventually(t, func() bool {
		q, err := pub.channel.QueueDeclarePassive("labels.exported", true, false, false, false, nil)
		return err == nil && q.Messages == 0
	}, 10*time.Second, 100*time.Millisecond)

	consumerCancel()
}
