package session

import (
	"context"
	"time"

	"support-feed/internal/feed"
	"support-feed/internal/notify"
)

var _ notify.Sink = (*Client)(nil)

func (c *Client) PlaySound(profile notify.SoundProfile) error {
	return c.push(soundFrame{Type: FrameSound, Sound: profile})
}

func (c *Client) Permission() notify.Permission {
	c.permMu.RLock()
	defer c.permMu.RUnlock()
	return c.permission
}

// RequestPermission asks the browser and waits for its permission frame.
func (c *Client) RequestPermission(ctx context.Context) (notify.Permission, error) {
	if err := c.push(typeOnlyFrame{Type: FramePermissionRequest}); err != nil {
		return notify.PermissionDefault, err
	}

	timer := time.NewTimer(c.permTimeout)
	defer timer.Stop()

	select {
	case p := <-c.permReply:
		c.permMu.Lock()
		c.permission = p
		c.permMu.Unlock()
		return p, nil
	case <-timer.C:
		return notify.PermissionDefault, notify.ErrPermissionTimeout
	case <-ctx.Done():
		return notify.PermissionDefault, ctx.Err()
	case <-c.done:
		return notify.PermissionDefault, feed.ErrClosed
	}
}

func (c *Client) Raise(title, body string) error {
	return c.push(notificationFrame{
		Type:   FrameNotification,
		Title:  title,
		Body:   body,
		Urgent: notify.IsUrgentTitle(title),
	})
}
