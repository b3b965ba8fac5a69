package feed_test

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"support-feed/internal/feed"
	"support-feed/internal/mocks"
	"support-feed/internal/model"
	"support-feed/internal/notify"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type harness struct {
	req      *require.Assertions
	ctrl     *gomock.Controller
	store    *mocks.MockStore
	notifier *mocks.MockNotifier
	feed     *feed.Feed
	deliver  func(model.ChangeEvent)
	ws       uuid.UUID
}

func newHarness(t *testing.T, opts ...feed.Option) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	h := &harness{
		req:      require.New(t),
		ctrl:     ctrl,
		store:    mocks.NewMockStore(ctrl),
		notifier: mocks.NewMockNotifier(ctrl),
		ws:       uuid.New(),
	}
	sub := mocks.NewMockSubscriber(ctrl)
	subscription := mocks.NewMockSubscription(ctrl)

	sub.EXPECT().Subscribe(h.ws, gomock.Any()).DoAndReturn(
		func(_ uuid.UUID, handler func(model.ChangeEvent)) (feed.Subscription, error) {
			h.deliver = handler
			return subscription, nil
		}).Times(1)
	asked := make(chan struct{})
	h.notifier.EXPECT().RequestPermission(gomock.Any()).DoAndReturn(
		func(context.Context) notify.Permission {
			close(asked)
			return notify.PermissionGranted
		}).Times(1)
	subscription.EXPECT().Unsubscribe().Return(nil).Times(1)
	h.notifier.EXPECT().Close().Times(1)

	h.feed = feed.New(feed.Config{
		WorkspaceID: h.ws,
		Identity:    feed.Identity{Author: "Marina Costa"},
	}, h.store, sub, h.notifier, logs.GetLoggerFromLevel(slog.LevelDebug), opts...)

	h.req.NoError(h.feed.Start(context.Background()))
	select {
	case <-asked:
	case <-time.After(time.Second):
		h.req.Fail("permission was never requested")
	}
	t.Cleanup(func() { _ = h.feed.Close() })
	return h
}

func (h *harness) msg(offset int, p model.Priority, content string) model.Message {
	return model.Message{
		ID:          uuid.New(),
		WorkspaceID: h.ws,
		Author:      "Ana Silva",
		Avatar:      "AS",
		Content:     content,
		Priority:    p,
		CreatedAt:   base.Add(time.Duration(offset) * time.Second),
	}
}

func (h *harness) history(messages ...model.Message) {
	h.store.EXPECT().ListRecent(gomock.Any(), h.ws, feed.DefaultHistoryLimit).Return(messages, nil).Times(1)
	_, err := h.feed.LoadHistory(context.Background())
	h.req.NoError(err)
}

func ids(messages []model.Message) []uuid.UUID {
	out := make([]uuid.UUID, len(messages))
	for i, m := range messages {
		out[i] = m.ID
	}
	return out
}

func TestFeed_ExampleScenario(t *testing.T) {
	h := newHarness(t)
	m1 := h.msg(10, model.PriorityUrgent, "VIP customer waiting on refund")
	m2 := h.msg(5, model.PriorityLow, "New closing macro added")
	m3 := h.msg(20, model.PriorityMedium, "Ticket spike in deliveries")
	m4 := h.msg(25, model.PriorityUrgent, "Payments are down")

	h.req.Equal(feed.StateInitializing, h.feed.State())
	h.history(m1, m2)
	h.req.Equal(feed.StateReady, h.feed.State())
	h.req.Equal([]uuid.UUID{m1.ID, m2.ID}, ids(h.feed.Messages()))

	h.notifier.EXPECT().Notify(m3).Times(1)
	h.deliver(model.NewInsertEvent(m3))
	h.req.Equal([]uuid.UUID{m3.ID, m1.ID, m2.ID}, ids(h.feed.Messages()))

	h.notifier.EXPECT().Notify(m4).Times(1)
	h.deliver(model.NewInsertEvent(m4))
	h.req.Equal([]uuid.UUID{m4.ID, m3.ID, m1.ID, m2.ID}, ids(h.feed.Messages()))
	h.req.Equal(4, h.feed.UnreadCount())
}

func TestFeed_LiveBeforeHistoryIsDroppedSilently(t *testing.T) {
	h := newHarness(t)
	early := h.msg(30, model.PriorityUrgent, "arrives during fetch")
	old := h.msg(1, model.PriorityHigh, "older")

	h.notifier.EXPECT().Notify(gomock.Any()).Times(0)
	h.deliver(model.NewInsertEvent(early))
	h.req.Nil(h.feed.Messages())
	h.req.Equal(feed.StateInitializing, h.feed.State())

	h.history(early, old)
	h.req.Equal([]uuid.UUID{early.ID, old.ID}, ids(h.feed.Messages()))
}

func TestFeed_FetchErrorKeepsInitializing(t *testing.T) {
	h := newHarness(t)
	h.store.EXPECT().ListRecent(gomock.Any(), h.ws, feed.DefaultHistoryLimit).
		Return(nil, errors.New("connection refused")).Times(1)

	_, err := h.feed.LoadHistory(context.Background())
	h.req.ErrorIs(err, feed.ErrFetch)
	h.req.Equal(feed.StateInitializing, h.feed.State())

	h.notifier.EXPECT().Notify(gomock.Any()).Times(0)
	h.deliver(model.NewInsertEvent(h.msg(3, model.PriorityLow, "still dropped")))

	m := h.msg(2, model.PriorityLow, "retry works")
	h.history(m)
	h.req.Equal([]uuid.UUID{m.ID}, ids(h.feed.Messages()))
}

func TestFeed_LoadHistoryIsIdempotentAndSorted(t *testing.T) {
	h := newHarness(t)
	a := h.msg(1, model.PriorityLow, "a")
	b := h.msg(2, model.PriorityLow, "b")
	c := h.msg(3, model.PriorityLow, "c")

	h.history(a, c, b, c)
	h.req.Equal([]uuid.UUID{c.ID, b.ID, a.ID}, ids(h.feed.Messages()))

	h.req.True(h.feed.MarkRead(b.ID))
	h.history(c, b)
	got := h.feed.Messages()
	h.req.Equal([]uuid.UUID{c.ID, b.ID}, ids(got))
	h.req.False(got[0].Read)
	h.req.True(got[1].Read, "read flag survives a reload")
}

func TestFeed_LiveEventNotifiesExactlyOnce(t *testing.T) {
	h := newHarness(t)
	h.history()

	live := h.msg(5, model.PriorityHigh, "payments back")
	h.notifier.EXPECT().Notify(live).Times(1)
	h.deliver(model.NewInsertEvent(live))
	h.deliver(model.NewInsertEvent(live))

	h.req.Len(h.feed.Messages(), 1)
}

func TestFeed_IgnoresEventsItCannotUse(t *testing.T) {
	h := newHarness(t)
	h.history()
	h.notifier.EXPECT().Notify(gomock.Any()).Times(0)

	bad := model.NewInsertEvent(h.msg(1, model.PriorityLow, "x"))
	bad.Record.Flag = "critical"
	h.deliver(bad)

	update := model.NewInsertEvent(h.msg(2, model.PriorityLow, "x"))
	update.Type = "UPDATE"
	h.deliver(update)

	foreign := h.msg(3, model.PriorityLow, "x")
	foreign.WorkspaceID = uuid.New()
	h.deliver(model.NewInsertEvent(foreign))

	h.req.Empty(h.feed.Messages())
}

func TestFeed_LiveMessagesArriveUnread(t *testing.T) {
	h := newHarness(t)
	h.history()

	live := h.msg(1, model.PriorityLow, "x")
	live.Read = true
	expected := live
	expected.Read = false
	h.notifier.EXPECT().Notify(expected).Times(1)
	h.deliver(model.NewInsertEvent(live))

	h.req.False(h.feed.Messages()[0].Read)
}

func TestFeed_ObserverSeesInsertedMessage(t *testing.T) {
	var observed []model.Message
	h := newHarness(t, feed.WithObserver(func(m model.Message) { observed = append(observed, m) }))
	h.history()

	live := h.msg(1, model.PriorityMedium, "observer")
	h.notifier.EXPECT().Notify(live)
	h.deliver(model.NewInsertEvent(live))
	h.req.Equal([]model.Message{live}, observed)
}

func TestFeed_OrderingHoldsForAnySequence(t *testing.T) {
	h := newHarness(t)
	var history []model.Message
	for i := 0; i < 20; i++ {
		history = append(history, h.msg(i, model.Priorities[i%4], "history"))
	}
	h.history(history...)

	h.notifier.EXPECT().Notify(gomock.Any()).Times(30)
	for i := 0; i < 30; i++ {
		h.deliver(model.NewInsertEvent(h.msg(100+i, model.Priorities[i%4], "live")))
	}

	got := h.feed.Messages()
	h.req.Len(got, 50)
	h.req.True(sort.SliceIsSorted(got, func(i, j int) bool {
		return got[i].CreatedAt.After(got[j].CreatedAt)
	}))
	for _, m := range got[:30] {
		h.req.Equal("live", m.Content)
	}
}

func TestFeed_SendBlankIsNoop(t *testing.T) {
	h := newHarness(t)
	h.store.EXPECT().Insert(gomock.Any(), gomock.Any()).Times(0)

	h.req.NoError(h.feed.Send(context.Background(), "", model.PriorityLow))
	h.req.NoError(h.feed.Send(context.Background(), "   ", model.PriorityUrgent))
}

func TestFeed_SendWritesWithIdentityAndDoesNotAppend(t *testing.T) {
	h := newHarness(t)
	h.history()

	h.store.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, m model.Message) (model.Message, error) {
			h.req.Equal(h.ws, m.WorkspaceID)
			h.req.Equal("Marina Costa", m.Author)
			h.req.Equal("MC", m.Avatar)
			h.req.Equal("please review macro", m.Content)
			h.req.Equal(model.PriorityHigh, m.Priority)
			m.ID = uuid.New()
			m.CreatedAt = base
			return m, nil
		}).Times(1)

	h.req.NoError(h.feed.Send(context.Background(), "  please review macro ", model.PriorityHigh))
	h.req.Empty(h.feed.Messages())
}

func TestFeed_SendErrors(t *testing.T) {
	h := newHarness(t)
	h.store.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(model.Message{}, errors.New("timeout")).Times(1)

	err := h.feed.Send(context.Background(), "hello", model.PriorityLow)
	h.req.ErrorIs(err, feed.ErrSend)

	err = h.feed.Send(context.Background(), "hello", model.Priority("critical"))
	h.req.ErrorIs(err, feed.ErrSend)
	h.req.ErrorIs(err, model.ErrUnknownPriority)
}

func TestFeed_MarkRead(t *testing.T) {
	h := newHarness(t)
	a := h.msg(2, model.PriorityLow, "a")
	b := h.msg(1, model.PriorityLow, "b")
	h.history(a, b)

	before := h.feed.Messages()
	h.req.False(h.feed.MarkRead(uuid.New()))
	h.req.Equal(before, h.feed.Messages())

	h.req.True(h.feed.MarkRead(a.ID))
	h.req.Equal(1, h.feed.UnreadCount())
	h.req.Equal(1, h.feed.MarkAllRead())
	h.req.Zero(h.feed.UnreadCount())
	h.req.Zero(h.feed.MarkAllRead())
}

func TestFeed_StartTwiceIsRejected(t *testing.T) {
	h := newHarness(t)
	h.req.ErrorIs(h.feed.Start(context.Background()), feed.ErrAlreadySubscribed)
}

func TestFeed_CloseReleasesSubscriptionAndStopsWork(t *testing.T) {
	h := newHarness(t)
	h.history()

	h.req.NoError(h.feed.Close())
	h.req.Equal(feed.StateClosed, h.feed.State())
	h.req.NoError(h.feed.Close())

	h.notifier.EXPECT().Notify(gomock.Any()).Times(0)
	h.deliver(model.NewInsertEvent(h.msg(1, model.PriorityUrgent, "too late")))
	h.req.Nil(h.feed.Messages())

	h.req.ErrorIs(h.feed.Send(context.Background(), "x", model.PriorityLow), feed.ErrClosed)
	_, err := h.feed.LoadHistory(context.Background())
	h.req.ErrorIs(err, feed.ErrClosed)
	h.req.ErrorIs(h.feed.Start(context.Background()), feed.ErrClosed)
}
