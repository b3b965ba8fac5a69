package session

import (
	"support-feed/internal/model"
	"support-feed/internal/notify"
)

// Frame types written to the dashboard.
const (
	FrameSnapshot          = "snapshot"
	FrameMessage           = "message"
	FrameSound             = "sound"
	FrameNotification      = "notification"
	FramePermissionRequest = "permission_request"
	FrameRead              = "read"
	FrameError             = "error"
)

// Frame types read from the dashboard.
const (
	FrameSend        = "send"
	FrameMarkRead    = "mark_read"
	FrameMarkAllRead = "mark_all_read"
	FrameReload      = "reload"
	FramePermission  = "permission"
)

type snapshotFrame struct {
	Type     string          `json:"type"`
	Messages []model.Message `json:"messages"`
	Unread   int             `json:"unread"`
}

type messageFrame struct {
	Type    string        `json:"type"`
	Message model.Message `json:"message"`
	Unread  int           `json:"unread"`
}

type soundFrame struct {
	Type  string              `json:"type"`
	Sound notify.SoundProfile `json:"sound"`
}

type notificationFrame struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Urgent bool   `json:"urgent"`
}

type readFrame struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	All    bool   `json:"all,omitempty"`
	Unread int    `json:"unread"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type typeOnlyFrame struct {
	Type string `json:"type"`
}

// inboundFrame is the envelope of every client frame. Fields not used by
// Type are ignored.
type inboundFrame struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Priority string `json:"priority"`
	ID       string `json:"id"`
	State    string `json:"state"`
}
