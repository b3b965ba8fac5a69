package feed

import "errors"

var (
	// ErrFetch marks a failed history load; the feed stays initializing.
	ErrFetch = errors.New("fetch history")
	// ErrSend marks a failed write of an outgoing message.
	ErrSend = errors.New("send message")
	// ErrNotification marks a sound or popup that could not be delivered. The
	// dispatcher logs it, feed callers never see it.
	ErrNotification = errors.New("notification")

	ErrAlreadySubscribed = errors.New("feed already subscribed")
	ErrClosed            = errors.New("feed closed")
)
