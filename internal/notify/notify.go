//go:generate go run go.uber.org/mock/mockgen -source=notify.go -destination=../mocks/mock_notify.go -package=mocks

// Package notify turns a newly arrived team message into its side effects: a
// sound chosen by priority and, when the user allowed it, a popup.
package notify

import (
	"context"
	"errors"
	"strings"

	"support-feed/internal/model"
)

var (
	ErrSinkUnavailable   = errors.New("notification sink unavailable")
	ErrPermissionTimeout = errors.New("permission request timed out")
)

type SoundProfile string

const (
	// SoundAlert is the sharp two-step tone for urgent and high messages.
	SoundAlert SoundProfile = "alert"
	// SoundChime is the single soft tone for everything else.
	SoundChime SoundProfile = "chime"
)

type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

func ParsePermission(raw string) Permission {
	switch Permission(strings.ToLower(strings.TrimSpace(raw))) {
	case PermissionGranted:
		return PermissionGranted
	case PermissionDenied:
		return PermissionDenied
	}
	return PermissionDefault
}

// Sink is the environment's audio and popup capability.
type Sink interface {
	PlaySound(profile SoundProfile) error
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	Raise(title, body string) error
}

const (
	urgentTitlePrefix = "🚨 URGENT"
	normalTitlePrefix = "📩"
	maxBodyRunes      = 200
)

// ProfileFor selects the sound for a priority.
func ProfileFor(p model.Priority) SoundProfile {
	switch p {
	case model.PriorityUrgent, model.PriorityHigh:
		return SoundAlert
	}
	return SoundChime
}

// Title prefixes urgent messages distinctly from every other priority.
func Title(m model.Message) string {
	if m.Priority == model.PriorityUrgent {
		return urgentTitlePrefix + " " + m.Author
	}
	return normalTitlePrefix + " " + m.Author
}

// IsUrgentTitle reports whether a title was built for an urgent message.
func IsUrgentTitle(title string) bool {
	return strings.HasPrefix(title, urgentTitlePrefix)
}

// Body is the message content, truncated for popups.
func Body(m model.Message) string {
	content := strings.TrimSpace(m.Content)
	runes := []rune(content)
	if len(runes) > maxBodyRunes {
		return string(runes[:maxBodyRunes]) + "..."
	}
	return content
}
