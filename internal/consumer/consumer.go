package consumer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ilindan-dev/notification-engine/internal/config"
	"github.com/ilindan-dev/notification-engine/internal/domain/apperr"
	"github.com/ilindan-dev/notification-engine/internal/domain/model"
	repo "github.com/ilindan-dev/notification-engine/internal/domain/repository"
	"github.com/ilindan-dev/notification-engine/internal/storage/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// defaultWorkerCount is the number of worker goroutines when none is configured.
const defaultWorkerCount = 5

// outcomePublishTimeout bounds publishing the outcome once the send is done.
const outcomePublishTimeout = 5 * time.Second

// Dispatcher is the part of notifiers.Dispatcher the consumer uses.
type Dispatcher interface {
	Dispatch(ctx context.Context, n *model.Notification) (*model.Outcome, error)
}

// Consumer listens to the dispatch queue and processes messages using a pool of workers.
type Consumer struct {
	logger      zerolog.Logger
	conn        *amqp.Connection // Raw connection to create channels for each worker.
	dispatcher  Dispatcher
	queue       repo.NotificationQueue
	workerCount int
}

// New creates a new instance of Consumer.
func New(
	cfg *config.Config,
	logger *zerolog.Logger,
	conn *amqp.Connection,
	dispatcher Dispatcher,
	queue repo.NotificationQueue,
) *Consumer {
	workers := cfg.RabbitMQ.Workers
	if workers <= 0 {
		workers = defaultWorkerCount
	}
	return &Consumer{
		logger:      logger.With().Str("component", "consumer").Logger(),
		conn:        conn,
		dispatcher:  dispatcher,
		queue:       queue,
		workerCount: workers,
	}
}

// Start launches the worker pool to process messages from the queue.
// This is a blocking method that will run until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	c.logger.Info().Int("count", c.workerCount).Msg("Starting worker pool")
	var wg sync.WaitGroup

	for i := 0; i < c.workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.runWorker(ctx, workerID)
		}(i + 1)
	}

	wg.Wait()
	c.logger.Info().Msg("Consumer stopped")
}

// runWorker contains the main logic for a single worker goroutine.
func (c *Consumer) runWorker(ctx context.Context, workerID int) {
	logger := c.logger.With().Int("worker_id", workerID).Logger()

	ch, err := c.conn.Channel()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open channel for worker")
		return
	}
	defer ch.Close()

	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error().Err(err).Msg("Failed to set QoS")
		return
	}

	msgs, err := ch.Consume(
		rabbitmq.DispatchQueue,
		fmt.Sprintf("worker-%d", workerID),
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to register a consumer")
		return
	}

	logger.Info().Msg("Worker is waiting for messages")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Worker stopping due to context cancellation")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Warn().Msg("Message channel closed by RabbitMQ, worker stopping")
				return
			}
			c.handleMessage(ctx, msg, logger)
		}
	}
}

// handleMessage processes a single delivery. Every delivery is settled exactly once:
// malformed bodies are dead-lettered, everything else is acked after the outcome is published.
// A failed send is not redelivered; the outcome carries the retry decision.
func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery, logger zerolog.Logger) {
	notification, err := rabbitmq.DecodeNotification(msg.Body)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to decode message, rejecting")
		_ = msg.Nack(false, false)
		return
	}

	log := logger.With().Str("notification_id", notification.ID).Str("channel", string(notification.Channel)).Logger()
	log.Info().Bool("redelivered", msg.Redelivered).Msg("Processing notification")

	outcome, err := c.dispatcher.Dispatch(ctx, notification)
	if err != nil {
		log.Warn().Err(err).Str("kind", apperr.KindOf(err)).Bool("retryable", apperr.IsRetryable(err)).Msg("Dispatch failed")
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), outcomePublishTimeout)
	defer cancel()
	if err := c.queue.PublishOutcome(pubCtx, outcome); err != nil {
		// The send already happened. Redelivery would duplicate it, so the outcome is dropped.
		log.Error().Err(err).Str("result", string(outcome.Result)).Msg("CRITICAL: failed to publish dispatch outcome")
	}

	_ = msg.Ack(false)
}
