// internal/messaging/rabbit.go
package messaging

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"support-feed/internal/metrics"
)

// ExchangeName is the fanout exchange carrying a workspace's change events.
func ExchangeName(workspaceID string) string {
	return fmt.Sprintf("workspace_%s_changes", workspaceID)
}

// DeadLetterQueueName collects change events no subscriber could decode.
func DeadLetterQueueName(workspaceID string) string {
	return fmt.Sprintf("workspace_%s_dlq", workspaceID)
}

type RabbitClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     *slog.Logger
	URL     string

	// publishes on the shared channel are serialized so that events leave in
	// the order their inserts committed
	mu sync.Mutex
}

func NewRabbitClient(url string, log *slog.Logger) (*RabbitClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	return &RabbitClient{
		conn:    conn,
		channel: ch,
		log:     log,
		URL:     url,
	}, nil
}

func (r *RabbitClient) GetChannel() *amqp.Channel {
	return r.channel
}

func (r *RabbitClient) GetConnection() *amqp.Connection {
	return r.conn
}

// DeclareWorkspace creates the workspace change exchange and its durable DLQ
func (r *RabbitClient) DeclareWorkspace(workspaceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 1. DLQ
	_, err := r.channel.QueueDeclare(
		DeadLetterQueueName(workspaceID),
		true, false, false, false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}

	// 2. Fanout exchange, one queue per subscriber gets bound to it
	err = r.channel.ExchangeDeclare(
		ExchangeName(workspaceID),
		amqp.ExchangeFanout,
		true, false, false, false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	r.log.Debug("Exchange and DLQ declared", "workspace", workspaceID)
	return nil
}

// DeleteWorkspace removes the exchange and DLQ of a workspace.
func (r *RabbitClient) DeleteWorkspace(workspaceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.channel.ExchangeDelete(ExchangeName(workspaceID), false, false); err != nil {
		return fmt.Errorf("delete exchange: %w", err)
	}
	if _, err := r.channel.QueueDelete(DeadLetterQueueName(workspaceID), false, false, false); err != nil {
		return fmt.Errorf("delete DLQ: %w", err)
	}
	return nil
}

// PublishChange sends a change event to every subscriber of the workspace
func (r *RabbitClient) PublishChange(workspaceID string, body []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	exchange := ExchangeName(workspaceID)
	err := r.channel.Publish(
		exchange,
		"", // fanout ignores the routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to exchange %s: %w", exchange, err)
	}
	return nil
}

// Close cleans up connection and channel
func (r *RabbitClient) Close() error {
	if err := r.channel.Close(); err != nil {
		return err
	}
	if err := r.conn.Close(); err != nil {
		return err
	}
	return nil
}

func (r *RabbitClient) UpdateDeadLetterDepth(workspaceID string) {
	r.mu.Lock()
	q, err := r.channel.QueueInspect(DeadLetterQueueName(workspaceID))
	r.mu.Unlock()
	if err != nil {
		r.log.Warn("Failed to inspect dead-letter queue", "workspace", workspaceID, "error", err)
		return
	}

	metrics.DeadLetterDepth.WithLabelValues(workspaceID).Set(float64(q.Messages))
}
