package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"legischat/internal/model"
)

// IngestRunPublisher enqueues finished ingestion runs so the audit worker
// can write them to MySQL off the request path.
type IngestRunPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewIngestRunPublisher(conn *amqp.Connection, queueName string) *IngestRunPublisher {
	return &IngestRunPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *IngestRunPublisher) Publish(ctx context.Context, run model.IngestRun) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}

	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal ingest run payload failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish ingest run failed: %w", err)
	}
	return nil
}
