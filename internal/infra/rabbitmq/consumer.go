package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/viscloud/labeler/internal/domain/entity"
)

const maxRetryDelay = 60 * time.Second

// MessageHandler processes one delivery body. Returning an error wrapping
// entity.ErrMalformedMessage drops the message instead of retrying it.
type MessageHandler func(ctx context.Context, body []byte) error

// Consumer collects export notifications. Deliveries are spread over lanes
// keyed by session id (the message id set by ExportPublisher), so exports of
// one session are handled one at a time in queue order while different
// sessions proceed in parallel.
type Consumer struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	queue       string
	lanes       int
	laneBuffer  int
	baseDelay   time.Duration
	maxAttempts int
	handler     MessageHandler
	logger      *zap.Logger
}

type ConsumerConfig struct {
	URL         string
	Queue       string
	Exchange    string
	Prefetch    int
	Lanes       int
	BaseDelayMs int
	MaxAttempts int
}

func NewConsumer(cfg ConsumerConfig, handler MessageHandler, logger *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(ch, cfg.Exchange, cfg.Queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	prefetch := max(cfg.Prefetch, 1)
	if err := ch.Qos(prefetch, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}

	c := newConsumer(handler, logger, cfg.Lanes, prefetch, cfg.BaseDelayMs, cfg.MaxAttempts)
	c.conn, c.channel, c.queue = conn, ch, cfg.Queue
	return c, nil
}

func newConsumer(handler MessageHandler, logger *zap.Logger, lanes, laneBuffer, baseDelayMs, maxAttempts int) *Consumer {
	return &Consumer{
		lanes:       max(lanes, 1),
		laneBuffer:  max(laneBuffer, 1),
		baseDelay:   time.Duration(max(baseDelayMs, 0)) * time.Millisecond,
		maxAttempts: max(maxAttempts, 1),
		handler:     handler,
		logger:      logger,
	}
}

// Start consumes until ctx is cancelled or the broker closes the channel.
func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.channel.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	c.logger.Info("collecting from queue",
		zap.String("queue", c.queue),
		zap.Int("lanes", c.lanes),
	)
	c.dispatch(ctx, deliveries)
	c.logger.Info("collector drained")
	return nil
}

// dispatch routes deliveries to their session lane and returns once every
// lane has finished its in-flight deliveries.
func (c *Consumer) dispatch(ctx context.Context, deliveries <-chan amqp.Delivery) {
	lanes := make([]chan amqp.Delivery, c.lanes)
	var wg sync.WaitGroup
	for i := range lanes {
		lanes[i] = make(chan amqp.Delivery, c.laneBuffer)
		wg.Add(1)
		go func(id int, in <-chan amqp.Delivery) {
			defer wg.Done()
			log := c.logger.With(zap.Int("lane", id))
			for d := range in {
				c.handle(ctx, d, log)
			}
		}(i, lanes[i])
	}
	defer func() {
		for _, lane := range lanes {
			close(lane)
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			select {
			case lanes[laneFor(d.MessageId, c.lanes)] <- d:
			case <-ctx.Done():
				_ = d.Nack(false, true)
				return
			}
		}
	}
}

// handle retries a failing export in place, holding back later exports of
// the same session, and requeues it once the attempts are used up.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery, log *zap.Logger) {
	log = log.With(
		zap.String("session_id", d.MessageId),
		zap.Uint64("delivery_tag", d.DeliveryTag),
	)
	for attempt := 1; ; attempt++ {
		err := c.handler(ctx, d.Body)
		switch {
		case err == nil:
			_ = d.Ack(false)
			return
		case errors.Is(err, entity.ErrMalformedMessage):
			log.Error("dropping malformed export notification", zap.Error(err))
			_ = d.Nack(false, false)
			return
		case attempt >= c.maxAttempts:
			log.Error("export not collected, requeueing",
				zap.Error(err),
				zap.Int("attempts", attempt),
			)
			_ = d.Nack(false, true)
			return
		}

		delay := retryDelay(c.baseDelay, attempt)
		log.Warn("collecting export failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			_ = d.Nack(false, true)
			return
		}
	}
}

// laneFor maps a session id to a lane. Messages without an id share lane 0.
func laneFor(sessionID string, lanes int) int {
	if sessionID == "" || lanes <= 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return int(h.Sum32() % uint32(lanes))
}

// retryDelay doubles base per failed attempt, capped at maxRetryDelay.
func retryDelay(base time.Duration, attempt int) time.Duration {
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return min(delay, maxRetryDelay)
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
