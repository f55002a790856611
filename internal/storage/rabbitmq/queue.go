package rabbitmq

import (
	"context"
	"fmt"

	"github.com/ilindan-dev/notification-engine/internal/domain/model"
	repo "github.com/ilindan-dev/notification-engine/internal/domain/repository"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Ensure Queue implements the repository interface at compile time.
var _ repo.NotificationQueue = (*Queue)(nil)

// Constants for our RabbitMQ topology.
const (
	DispatchExchange = "notifications.dispatch.exchange"
	OutcomesExchange = "notifications.outcomes.exchange"
	DeadExchange     = "notifications.dead.exchange"

	DispatchQueue = "notifications.dispatch.queue"
	OutcomesQueue = "notifications.outcomes.queue"
	DeadQueue     = "notifications.dead.queue"

	Direct = "direct"
)

// Publisher is the publishing half of an amqp.Channel.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Queue implements the NotificationQueue interface. It acts as a PUBLISHER for both
// the dispatch queue and the outcomes exchange.
type Queue struct {
	ch     Publisher
	closer func() error
	logger zerolog.Logger
}

// NewQueue opens a channel on the shared connection and declares the topology.
func NewQueue(conn *amqp.Connection, logger *zerolog.Logger) (*Queue, error) {
	channel, err := conn.Channel()
	if err != nil {
		logger.Error().Err(err).Msg("storage: rabbitMQ: New: Failed to open a channel")
		return nil, fmt.Errorf("storage: rabbitMQ: New: Failed to open a channel: %w", err)
	}

	if err = SetupTopology(channel); err != nil {
		_ = channel.Close()
		logger.Error().Err(err).Msg("storage: rabbitMQ: New: Failed to setup topology")
		return nil, fmt.Errorf("storage: rabbitMQ: New: Failed to setup topology: %w", err)
	}

	q := NewQueueWithPublisher(channel, logger)
	q.closer = channel.Close
	return q, nil
}

// NewQueueWithPublisher wraps an already configured publisher.
func NewQueueWithPublisher(ch Publisher, logger *zerolog.Logger) *Queue {
	return &Queue{
		ch:     ch,
		logger: logger.With().Str("component", "rabbitmq_publisher").Logger(),
	}
}

// SetupTopology declares all necessary exchanges and queues. It is idempotent.
// Rejected dispatch messages are dead-lettered for inspection.
func SetupTopology(ch *amqp.Channel) error {
	for _, ex := range []string{DispatchExchange, OutcomesExchange, DeadExchange} {
		if err := ch.ExchangeDeclare(ex, Direct, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", ex, err)
		}
	}

	queues := []struct {
		name     string
		exchange string
		args     amqp.Table
	}{
		{DispatchQueue, DispatchExchange, amqp.Table{"x-dead-letter-exchange": DeadExchange}},
		{OutcomesQueue, OutcomesExchange, nil},
		{DeadQueue, DeadExchange, nil},
	}
	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.name, true, false, false, false, q.args); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", q.name, err)
		}
		if err := ch.QueueBind(q.name, "", q.exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s to exchange %s: %w", q.name, q.exchange, err)
		}
	}
	return nil
}

// Publish enqueues a notification for asynchronous dispatch.
func (q *Queue) Publish(ctx context.Context, n *model.Notification) error {
	body, err := EncodeNotification(n)
	if err != nil {
		q.logger.Error().Err(err).Str("id", n.ID).Msg("failed to marshal notification")
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    n.ID,
	}
	if err := q.ch.PublishWithContext(ctx, DispatchExchange, "", false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq: failed to publish notification %s: %w", n.ID, err)
	}
	return nil
}

// PublishOutcome emits the result of a dispatch to the outcomes exchange.
func (q *Queue) PublishOutcome(ctx context.Context, o *model.Outcome) error {
	body, err := EncodeOutcome(o)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:   "application/json",
		Body:          body,
		DeliveryMode:  amqp.Persistent,
		CorrelationId: o.NotificationID,
		Headers: amqp.Table{
			"channel":    string(o.Channel),
			"result":     string(o.Result),
			"error_kind": o.ErrorKind,
		},
	}
	if err := q.ch.PublishWithContext(ctx, OutcomesExchange, "", false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq: failed to publish outcome %s: %w", o.NotificationID, err)
	}
	return nil
}

// Close gracefully shuts down the channel. The connection is managed by Fx.
func (q *Queue) Close() error {
	if q.closer != nil {
		return q.closer()
	}
	return nil
}
