package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"legischat/internal/model"
	"legischat/internal/repository"
)

// IngestAuditWorker drains the ingest-run queue into MySQL. Ingestion itself
// never blocks on this write; the queue absorbs broker or DB hiccups.
type IngestAuditWorker struct {
	conn      *amqp.Connection
	repo      *repository.IngestRunRepository
	queueName string
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewIngestAuditWorker(conn *amqp.Connection, repo *repository.IngestRunRepository, queueName string, logger *slog.Logger) *IngestAuditWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestAuditWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
		logger:    logger,
	}
}

func (w *IngestAuditWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var run model.IngestRun
				if err := json.Unmarshal(d.Body, &run); err != nil {
					w.logger.Error("decode ingest run failed", "err", err)
					_ = d.Nack(false, false)
					continue
				}
				run.ID = 0

				if err := w.repo.Create(&run); err != nil {
					w.logger.Error("persist ingest run failed", "url", run.URL, "err", err)
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *IngestAuditWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
