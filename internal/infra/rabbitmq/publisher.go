package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/viscloud/labeler/internal/domain/entity"
	"github.com/viscloud/labeler/internal/domain/port"
)

// ExportRoutingKey routes export notifications on the labels exchange.
const ExportRoutingKey = "labels.exported"

type Publisher struct {
	channel  *amqp.Channel
	exchange string
}

// NewPublisher opens a channel and declares the durable topic exchange.
func NewPublisher(conn *amqp.Connection, exchange string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open publisher channel: %w", err)
	}
	if err := declareTopology(ch, exchange, ""); err != nil {
		ch.Close()
		return nil, err
	}
	return &Publisher{channel: ch, exchange: exchange}, nil
}

func (p *Publisher) Close() error {
	return p.channel.Close()
}

// ExportPublisher announces finished exports so other services can pick the
// intervals up.
type ExportPublisher struct {
	pub        *Publisher
	routingKey string
}

var _ port.ExportSink = (*ExportPublisher)(nil)

// NewExportPublisher declares queue and binds it to the export routing key so
// notifications published before any consumer starts are kept.
func NewExportPublisher(pub *Publisher, queue string) (*ExportPublisher, error) {
	if err := declareTopology(pub.channel, pub.exchange, queue); err != nil {
		return nil, err
	}
	return &ExportPublisher{pub: pub, routingKey: ExportRoutingKey}, nil
}

func (ep *ExportPublisher) Name() string { return "rabbitmq" }

func (ep *ExportPublisher) WriteExport(ctx context.Context, session *entity.Session, records []entity.Record) error {
	body, err := json.Marshal(entity.NewLabelsExportedMessage(session, records))
	if err != nil {
		return fmt.Errorf("marshal export message: %w", err)
	}
	err = ep.pub.channel.PublishWithContext(ctx,
		ep.pub.exchange,
		ep.routingKey,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			MessageId:    session.ID.String(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish export message: %w", err)
	}
	return nil
}

func declareTopology(ch *amqp.Channel, exchange, queue string) error {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if queue == "" {
		return nil
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	if err := ch.QueueBind(queue, ExportRoutingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", queue, err)
	}
	return nil
}
