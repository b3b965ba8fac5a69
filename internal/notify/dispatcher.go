package notify

import (
	"context"
	"log/slog"
	"sync"

	"support-feed/internal/metrics"
	"support-feed/internal/model"
	"support-feed/internal/worker"
)

// Dispatcher belongs to one feed. It caches the permission answer for the
// feed's lifetime and runs every notification on the shared worker pool.
type Dispatcher struct {
	log  *slog.Logger
	sink Sink
	pool *worker.Pool

	mu         sync.RWMutex
	permission Permission
	requested  bool
	closed     bool
}

func NewDispatcher(log *slog.Logger, sink Sink, pool *worker.Pool) *Dispatcher {
	return &Dispatcher{
		log:        log,
		sink:       sink,
		pool:       pool,
		permission: sink.Permission(),
	}
}

// RequestPermission asks the sink once, and only if the user never answered.
func (d *Dispatcher) RequestPermission(ctx context.Context) Permission {
	d.mu.Lock()
	if d.requested || d.permission != PermissionDefault {
		p := d.permission
		d.mu.Unlock()
		return p
	}
	d.requested = true
	d.mu.Unlock()

	p, err := d.sink.RequestPermission(ctx)
	if err != nil {
		d.log.Debug("Notification permission request failed", "error", err)
		p = PermissionDefault
	}

	d.mu.Lock()
	d.permission = p
	d.mu.Unlock()
	d.log.Debug("Notification permission resolved", "permission", p)
	return p
}

func (d *Dispatcher) Permission() Permission {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.permission
}

// Notify queues the sound and popup for m and returns immediately.
func (d *Dispatcher) Notify(m model.Message) {
	d.mu.RLock()
	closed := d.closed
	d.mu.RUnlock()
	if closed {
		return
	}

	profile := ProfileFor(m.Priority)
	if !d.pool.Submit(func() { d.deliver(m, profile) }) {
		metrics.Notifications.WithLabelValues(string(profile), "dropped").Inc()
		d.log.Debug("Notification dropped", "message_id", m.ID, "profile", profile)
	}
}

// Close stops scheduling new notifications. Jobs already queued still run.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}

func (d *Dispatcher) deliver(m model.Message, profile SoundProfile) {
	if err := d.sink.PlaySound(profile); err != nil {
		metrics.Notifications.WithLabelValues(string(profile), "sound_failed").Inc()
		d.log.Debug("Sound playback failed", "message_id", m.ID, "profile", profile, "error", err)
	} else {
		metrics.Notifications.WithLabelValues(string(profile), "sound").Inc()
	}

	if d.Permission() != PermissionGranted {
		return
	}
	if err := d.sink.Raise(Title(m), Body(m)); err != nil {
		metrics.Notifications.WithLabelValues(string(profile), "popup_failed").Inc()
		d.log.Debug("Popup failed", "message_id", m.ID, "error", err)
		return
	}
	metrics.Notifications.WithLabelValues(string(profile), "popup").Inc()
}
