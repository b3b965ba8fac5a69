// Package session serves one dashboard over a websocket. Every connection
// owns its own feed, so a reconnect starts again from a fresh history load.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"support-feed/internal/feed"
	"support-feed/internal/model"
	"support-feed/internal/notify"
	"support-feed/internal/worker"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 8 * 1024
	sendBufferSize = 256

	DefaultPermissionTimeout = 30 * time.Second
)

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Deps struct {
	Store             feed.Store
	Subscriber        feed.Subscriber
	Pool              *worker.Pool
	Log               *slog.Logger
	HistoryLimit      int
	PermissionTimeout time.Duration
}

// Client is a connected dashboard. It is also the notification sink of its
// feed: sounds and popups become frames the browser acts on.
type Client struct {
	id          uuid.UUID
	conn        *websocket.Conn
	send        chan []byte
	log         *slog.Logger
	feed        *feed.Feed
	dispatcher  *notify.Dispatcher
	permTimeout time.Duration

	// frameMu orders the snapshot before any live message frame.
	frameMu sync.Mutex

	permMu     sync.RWMutex
	permission notify.Permission
	permReply  chan notify.Permission

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient wires a feed to conn. permission is what the browser reported
// when it connected.
func NewClient(conn *websocket.Conn, workspaceID uuid.UUID, identity feed.Identity, permission notify.Permission, d Deps) *Client {
	if d.PermissionTimeout <= 0 {
		d.PermissionTimeout = DefaultPermissionTimeout
	}
	id := uuid.New()
	log := d.Log.With("session", id)
	c := &Client{
		id:          id,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		log:         log,
		permTimeout: d.PermissionTimeout,
		permission:  permission,
		permReply:   make(chan notify.Permission, 1),
		done:        make(chan struct{}),
	}
	c.dispatcher = notify.NewDispatcher(log, c, d.Pool)
	c.feed = feed.New(feed.Config{
		WorkspaceID:  workspaceID,
		HistoryLimit: d.HistoryLimit,
		Identity:     identity,
	}, d.Store, d.Subscriber, c.dispatcher, log, feed.WithObserver(c.pushMessage))
	return c
}

func (c *Client) ID() uuid.UUID { return c.id }

func (c *Client) WorkspaceID() uuid.UUID { return c.feed.WorkspaceID() }

// Serve blocks until the connection ends.
func (c *Client) Serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.Close()

	go c.writePump()

	if err := c.feed.Start(ctx); err != nil {
		c.log.Error("Failed to start feed", "error", err)
		c.pushError("subscribe_failed")
		return
	}
	c.reload(ctx)
	c.readPump(ctx)
}

// Close ends the session. Safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.feed.Close()
		_ = c.conn.Close()
		c.log.Info("Session closed")
	})
	return err
}

func (c *Client) reload(ctx context.Context) {
	c.frameMu.Lock()
	defer c.frameMu.Unlock()

	messages, err := c.feed.LoadHistory(ctx)
	if err != nil {
		c.log.Warn("History load failed", "error", err)
		if errors.Is(err, feed.ErrFetch) {
			c.pushError("fetch_failed")
		}
		return
	}
	if err := c.push(snapshotFrame{Type: FrameSnapshot, Messages: messages, Unread: c.feed.UnreadCount()}); err != nil {
		c.log.Warn("Snapshot not delivered", "error", err)
	}
}

func (c *Client) pushMessage(m model.Message) {
	c.frameMu.Lock()
	defer c.frameMu.Unlock()
	if err := c.push(messageFrame{Type: FrameMessage, Message: m, Unread: c.feed.UnreadCount()}); err != nil {
		c.log.Debug("Message frame not delivered", "message_id", m.ID, "error", err)
	}
}

func (c *Client) pushError(code string) {
	_ = c.push(errorFrame{Type: FrameError, Error: code})
}

// push queues a frame without blocking. A full buffer drops the frame.
func (c *Client) push(frame any) error {
	b, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return feed.ErrClosed
	default:
	}
	select {
	case c.send <- b:
		return nil
	case <-c.done:
		return feed.ErrClosed
	default:
		return fmt.Errorf("%w: send buffer full", feed.ErrNotification)
	}
}

func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("Websocket read failed", "error", err)
			}
			return
		}
		var in inboundFrame
		if err := json.Unmarshal(raw, &in); err != nil {
			c.pushError("invalid_json")
			continue
		}
		c.handle(ctx, in)
	}
}

func (c *Client) handle(ctx context.Context, in inboundFrame) {
	switch in.Type {
	case FrameSend:
		priority, err := model.ParsePriority(in.Priority)
		if err != nil {
			c.pushError("invalid_priority")
			return
		}
		if err := c.feed.Send(ctx, in.Content, priority); err != nil {
			c.log.Warn("Send failed", "error", err)
			c.pushError("send_failed")
		}
	case FrameMarkRead:
		id, err := uuid.Parse(in.ID)
		if err != nil {
			c.pushError("invalid_id")
			return
		}
		if c.feed.MarkRead(id) {
			_ = c.push(readFrame{Type: FrameRead, ID: id.String(), Unread: c.feed.UnreadCount()})
		}
	case FrameMarkAllRead:
		c.feed.MarkAllRead()
		_ = c.push(readFrame{Type: FrameRead, All: true, Unread: c.feed.UnreadCount()})
	case FrameReload:
		c.reload(ctx)
	case FramePermission:
		select {
		case c.permReply <- notify.ParsePermission(in.State):
		default:
		}
	default:
		c.pushError("unsupported_type")
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
