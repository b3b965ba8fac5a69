// Package feed keeps the ordered, deduplicated list of a workspace's team
// messages. It merges a one-time history fetch with the live insert stream
// and notifies once for every message that arrives after the merge.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"support-feed/internal/metrics"
	"support-feed/internal/model"
)

const DefaultHistoryLimit = 50

type State int

const (
	StateInitializing State = iota
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

type Config struct {
	WorkspaceID  uuid.UUID
	HistoryLimit int
	Identity     Identity
}

type Option func(*Feed)

// WithObserver registers fn to receive every live message right after it was
// inserted into the list.
func WithObserver(fn func(model.Message)) Option {
	return func(f *Feed) { f.observer = fn }
}

type Feed struct {
	cfg      Config
	store    Store
	sub      Subscriber
	notifier Notifier
	log      *slog.Logger
	observer func(model.Message)

	mu           sync.Mutex
	state        State
	messages     []model.Message // newest first
	seen         map[uuid.UUID]struct{}
	subscription Subscription
	subscribing  bool
	cancelPerm   context.CancelFunc
}

func New(cfg Config, store Store, sub Subscriber, notifier Notifier, log *slog.Logger, opts ...Option) *Feed {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	cfg.Identity = cfg.Identity.Normalize()
	f := &Feed{
		cfg:      cfg,
		store:    store,
		sub:      sub,
		notifier: notifier,
		log:      log.With("workspace", cfg.WorkspaceID),
		seen:     make(map[uuid.UUID]struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Start opens the feed's single live subscription and asks for notification
// permission in the background.
func (f *Feed) Start(ctx context.Context) error {
	f.mu.Lock()
	switch {
	case f.state == StateClosed:
		f.mu.Unlock()
		return ErrClosed
	case f.subscription != nil || f.subscribing:
		f.mu.Unlock()
		return ErrAlreadySubscribed
	}
	f.subscribing = true
	f.mu.Unlock()

	subscription, err := f.sub.Subscribe(f.cfg.WorkspaceID, f.OnLiveMessage)

	f.mu.Lock()
	f.subscribing = false
	if err != nil {
		f.mu.Unlock()
		return fmt.Errorf("subscribe to workspace %s: %w", f.cfg.WorkspaceID, err)
	}
	if f.state == StateClosed {
		f.mu.Unlock()
		_ = subscription.Unsubscribe()
		return ErrClosed
	}
	defer f.mu.Unlock()
	f.subscription = subscription

	permCtx, cancel := context.WithCancel(ctx)
	f.cancelPerm = cancel
	go func() {
		defer cancel()
		f.notifier.RequestPermission(permCtx)
	}()

	f.log.Debug("Feed subscribed")
	return nil
}

// LoadHistory replaces the list with the most recent messages from the store
// and makes the feed ready. On failure the state is left untouched.
func (f *Feed) LoadHistory(ctx context.Context) ([]model.Message, error) {
	if f.State() == StateClosed {
		return nil, ErrClosed
	}

	history, err := f.store.ListRecent(ctx, f.cfg.WorkspaceID, f.cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	history = lo.UniqBy(history, func(m model.Message) uuid.UUID { return m.ID })
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CreatedAt.After(history[j].CreatedAt)
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateClosed {
		return nil, ErrClosed
	}

	readBefore := lo.SliceToMap(f.messages, func(m model.Message) (uuid.UUID, bool) {
		return m.ID, m.Read
	})
	seen := make(map[uuid.UUID]struct{}, len(history))
	for i := range history {
		if readBefore[history[i].ID] {
			history[i].Read = true
		}
		seen[history[i].ID] = struct{}{}
	}

	f.messages = history
	f.seen = seen
	f.state = StateReady
	f.log.Info("Feed history loaded", "messages", len(history))
	return clone(f.messages), nil
}

// OnLiveMessage is the subscription callback for inserts into the messages
// table. Events that arrive before the history is merged are dropped; the
// next LoadHistory picks them up.
func (f *Feed) OnLiveMessage(ev model.ChangeEvent) {
	workspace := f.cfg.WorkspaceID.String()
	if !ev.IsMessageInsert() {
		metrics.FeedLiveEvents.WithLabelValues(workspace, "ignored").Inc()
		return
	}
	m, err := ev.Record.ToMessage()
	if err != nil {
		metrics.FeedLiveEvents.WithLabelValues(workspace, "invalid").Inc()
		f.log.Warn("Dropping undecodable live message", "error", err)
		return
	}
	if m.WorkspaceID != uuid.Nil && m.WorkspaceID != f.cfg.WorkspaceID {
		metrics.FeedLiveEvents.WithLabelValues(workspace, "foreign").Inc()
		return
	}
	m.Read = false

	f.mu.Lock()
	switch f.state {
	case StateInitializing:
		f.mu.Unlock()
		metrics.FeedLiveEvents.WithLabelValues(workspace, "dropped_initializing").Inc()
		f.log.Debug("Live message before history, dropped", "message_id", m.ID)
		return
	case StateClosed:
		f.mu.Unlock()
		return
	}
	if _, dup := f.seen[m.ID]; dup {
		f.mu.Unlock()
		metrics.FeedLiveEvents.WithLabelValues(workspace, "duplicate").Inc()
		return
	}
	f.seen[m.ID] = struct{}{}
	f.messages = append([]model.Message{m}, f.messages...)
	observer := f.observer
	f.mu.Unlock()

	metrics.FeedLiveEvents.WithLabelValues(workspace, "applied").Inc()
	if observer != nil {
		observer(m)
	}
	f.notifier.Notify(m)
}

// Send writes a message tagged with the feed's identity. It does not touch the
// list: the message shows up through the live subscription like any other.
// Blank content is a no-op.
func (f *Feed) Send(ctx context.Context, content string, priority model.Priority) error {
	if f.State() == StateClosed {
		return ErrClosed
	}
	_, err := SendMessage(ctx, f.store, f.cfg.WorkspaceID, f.cfg.Identity, content, priority)
	return err
}

// SendMessage validates and stores an outgoing message. It reports false
// without writing when the trimmed content is empty.
func SendMessage(ctx context.Context, store Store, workspaceID uuid.UUID, identity Identity, content string, priority model.Priority) (bool, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return false, nil
	}
	if !priority.Valid() {
		return false, fmt.Errorf("%w: %w", ErrSend, model.ErrUnknownPriority)
	}
	identity = identity.Normalize()
	_, err := store.Insert(ctx, model.Message{
		WorkspaceID: workspaceID,
		Author:      identity.Author,
		Avatar:      identity.Avatar,
		Content:     content,
		Priority:    priority,
	})
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrSend, err)
	}
	return true, nil
}

// MarkRead flags one message as read and reports whether it was found.
func (f *Feed) MarkRead(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.messages {
		if f.messages[i].ID == id {
			f.messages[i].Read = true
			return true
		}
	}
	return false
}

// MarkAllRead returns how many messages changed.
func (f *Feed) MarkAllRead() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	changed := 0
	for i := range f.messages {
		if !f.messages[i].Read {
			f.messages[i].Read = true
			changed++
		}
	}
	return changed
}

// Messages returns a newest-first copy of the list, nil until the feed is ready.
func (f *Feed) Messages() []model.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateReady {
		return nil
	}
	return clone(f.messages)
}

func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateReady {
		return 0
	}
	return lo.CountBy(f.messages, func(m model.Message) bool { return !m.Read })
}

func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Feed) WorkspaceID() uuid.UUID {
	return f.cfg.WorkspaceID
}

// Close releases the subscription before returning. Notifications already
// queued still run, nothing new is scheduled.
func (f *Feed) Close() error {
	f.mu.Lock()
	if f.state == StateClosed {
		f.mu.Unlock()
		return nil
	}
	f.state = StateClosed
	subscription := f.subscription
	f.subscription = nil
	if f.cancelPerm != nil {
		f.cancelPerm()
	}
	f.mu.Unlock()

	f.notifier.Close()
	if subscription == nil {
		return nil
	}
	if err := subscription.Unsubscribe(); err != nil {
		return fmt.Errorf("unsubscribe workspace %s: %w", f.cfg.WorkspaceID, err)
	}
	f.log.Debug("Feed closed")
	return nil
}

func clone(messages []model.Message) []model.Message {
	out := make([]model.Message, len(messages))
	copy(out, messages)
	return out
}
