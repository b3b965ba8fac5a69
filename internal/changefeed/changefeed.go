// Package changefeed exposes Postgres and RabbitMQ as the generic data store
// the feed consumes: list, insert, subscribe and unsubscribe.
package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"support-feed/internal/consumer"
	"support-feed/internal/feed"
	"support-feed/internal/model"
)

type MessageStore interface {
	InsertMessage(ctx context.Context, m model.Message) (model.Message, error)
	ListRecentMessages(ctx context.Context, workspaceID uuid.UUID, limit int) ([]model.Message, error)
}

type Publisher interface {
	PublishChange(workspaceID string, body []byte) error
}

// SubscribeFunc opens one consumer; consumer.StartConsumer in production.
type SubscribeFunc func(workspaceID string, handler consumer.MessageHandlerFunc) (feed.Subscription, error)

type Client struct {
	store     MessageStore
	publisher Publisher
	subscribe SubscribeFunc
	log       *slog.Logger
}

func NewClient(store MessageStore, publisher Publisher, subscribe SubscribeFunc, log *slog.Logger) *Client {
	return &Client{store: store, publisher: publisher, subscribe: subscribe, log: log}
}

// AMQPSubscriber binds consumers to conn.
func AMQPSubscriber(conn *amqp.Connection, log *slog.Logger) SubscribeFunc {
	return func(workspaceID string, handler consumer.MessageHandlerFunc) (feed.Subscription, error) {
		c, err := consumer.StartConsumer(conn, workspaceID, handler, log)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

func (c *Client) ListRecent(ctx context.Context, workspaceID uuid.UUID, limit int) ([]model.Message, error) {
	return c.store.ListRecentMessages(ctx, workspaceID, limit)
}

// Insert stores m and announces it on the workspace change stream. A failed
// announcement is logged; the row is already committed and will show up on
// the next history load.
func (c *Client) Insert(ctx context.Context, m model.Message) (model.Message, error) {
	stored, err := c.store.InsertMessage(ctx, m)
	if err != nil {
		return model.Message{}, err
	}
	body, err := json.Marshal(model.NewInsertEvent(stored))
	if err != nil {
		return stored, fmt.Errorf("encode change event: %w", err)
	}
	if err := c.publisher.PublishChange(stored.WorkspaceID.String(), body); err != nil {
		c.log.Error("Change event not published", "workspace", stored.WorkspaceID, "message_id", stored.ID, "error", err)
	}
	return stored, nil
}

func (c *Client) Subscribe(workspaceID uuid.UUID, handler func(model.ChangeEvent)) (feed.Subscription, error) {
	return c.subscribe(workspaceID.String(), func(_ string, delivery amqp.Delivery) error {
		ev, err := Decode(delivery.Body)
		if err != nil {
			return err
		}
		handler(ev)
		return nil
	})
}

// Decode parses a change event body.
func Decode(body []byte) (model.ChangeEvent, error) {
	var ev model.ChangeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return model.ChangeEvent{}, fmt.Errorf("decode change event: %w", err)
	}
	return ev, nil
}
