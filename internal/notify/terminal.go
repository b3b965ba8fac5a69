package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/gookit/color"
)

// TerminalSink rings the terminal bell and prints popups as highlighted lines.
type TerminalSink struct {
	mu         sync.Mutex
	out        io.Writer
	permission Permission
}

// NewTerminalSink grants popups when desktop is true and denies them otherwise.
func NewTerminalSink(out io.Writer, desktop bool) *TerminalSink {
	p := PermissionDenied
	if desktop {
		p = PermissionGranted
	}
	return &TerminalSink{out: out, permission: p}
}

func (s *TerminalSink) PlaySound(profile SoundProfile) error {
	bell := "\a"
	if profile == SoundAlert {
		bell = "\a\a"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.out, bell)
	return err
}

func (s *TerminalSink) Permission() Permission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permission
}

func (s *TerminalSink) RequestPermission(context.Context) (Permission, error) {
	return s.Permission(), nil
}

func (s *TerminalSink) Raise(title, body string) error {
	style := color.Style{color.FgCyan, color.OpBold}
	if IsUrgentTitle(title) {
		style = color.Style{color.FgRed, color.OpBold}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.out, "%s\n  %s\n", style.Sprint(title), body)
	return err
}
