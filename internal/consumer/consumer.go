// internal/consumer/consumer.go
package consumer

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"support-feed/internal/messaging"
)

// MessageHandlerFunc processes one delivery. A non-nil error dead-letters it.
type MessageHandlerFunc func(workspaceID string, delivery amqp.Delivery) error

// Consumer is one live subscription: a private queue bound to the workspace
// exchange, drained by a single goroutine so handlers run in publish order.
type Consumer struct {
	WorkspaceID string
	QueueName   string
	Channel     *amqp.Channel
	StopChan    chan struct{}
	DoneChan    chan struct{}
	Handler     MessageHandlerFunc
	ConsumerTag string

	log      *slog.Logger
	stopOnce sync.Once
}

// StartConsumer starts a goroutine that consumes change events for a workspace
func StartConsumer(conn *amqp.Connection, workspaceID string, handler MessageHandlerFunc, log *slog.Logger) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("workspace %s: failed to open channel: %w", workspaceID, err)
	}

	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // autoDelete
		true,  // exclusive
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": messaging.DeadLetterQueueName(workspaceID),
		},
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("workspace %s: failed to declare queue: %w", workspaceID, err)
	}
	if err := ch.QueueBind(q.Name, "", messaging.ExchangeName(workspaceID), false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("workspace %s: failed to bind queue: %w", workspaceID, err)
	}

	consumerTag := fmt.Sprintf("consumer-%s-%s", workspaceID, q.Name)
	msgs, err := ch.Consume(
		q.Name,
		consumerTag,
		false, // autoAck: false to handle manually
		true,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("workspace %s: failed to start consuming: %w", workspaceID, err)
	}

	c := &Consumer{
		WorkspaceID: workspaceID,
		QueueName:   q.Name,
		Channel:     ch,
		StopChan:    make(chan struct{}),
		DoneChan:    make(chan struct{}),
		Handler:     handler,
		ConsumerTag: consumerTag,
		log:         log,
	}

	go c.consumeLoop(msgs)

	log.Debug("Started consumer", "workspace", workspaceID, "queue", q.Name)
	return c, nil
}

// consumeLoop processes messages until StopChan is closed
func (c *Consumer) consumeLoop(msgs <-chan amqp.Delivery) {
	defer close(c.DoneChan)

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				c.log.Warn("Delivery channel closed", "workspace", c.WorkspaceID, "queue", c.QueueName)
				return
			}
			if err := c.Handler(c.WorkspaceID, msg); err != nil {
				c.log.Warn("Change event rejected", "workspace", c.WorkspaceID, "error", err)
				_ = msg.Nack(false, false)
				continue
			}
			_ = msg.Ack(false)

		case <-c.StopChan:
			_ = c.Channel.Cancel(c.ConsumerTag, false)
			return
		}
	}
}

// Stop signals the consumer to stop and waits for cleanup
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() {
		close(c.StopChan)
		<-c.DoneChan
		_ = c.Channel.Close()
		c.log.Debug("Stopped consumer", "workspace", c.WorkspaceID, "queue", c.QueueName)
	})
}

// Unsubscribe releases the subscription. It returns once no handler runs.
func (c *Consumer) Unsubscribe() error {
	c.Stop()
	return nil
}
