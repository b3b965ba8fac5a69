//go:generate go run go.uber.org/mock/mockgen -source=contracts.go -destination=../mocks/mock_feed.go -package=mocks
package feed

import (
	"context"

	"github.com/google/uuid"

	"support-feed/internal/model"
	"support-feed/internal/notify"
)

// Store is the request/response side of the external data store.
type Store interface {
	ListRecent(ctx context.Context, workspaceID uuid.UUID, limit int) ([]model.Message, error)
	Insert(ctx context.Context, m model.Message) (model.Message, error)
}

// Subscriber opens the change stream for one workspace. Events for a single
// subscription are delivered one at a time, in commit order.
type Subscriber interface {
	Subscribe(workspaceID uuid.UUID, handler func(model.ChangeEvent)) (Subscription, error)
}

type Subscription interface {
	Unsubscribe() error
}

// Notifier receives every message that arrived live after the feed became ready.
type Notifier interface {
	RequestPermission(ctx context.Context) notify.Permission
	Notify(m model.Message)
	Close()
}
