package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	req := require.New(t)

	for _, p := range Priorities {
		parsed, err := ParsePriority(string(p))
		req.NoError(err)
		req.Equal(p, parsed)
	}

	parsed, err := ParsePriority(" URGENT ")
	req.NoError(err)
	req.Equal(PriorityUrgent, parsed)

	_, err = ParsePriority("critical")
	req.ErrorIs(err, ErrUnknownPriority)

	_, err = ParsePriority("")
	req.ErrorIs(err, ErrUnknownPriority)
}

func TestPrioritySeverityOrder(t *testing.T) {
	req := require.New(t)
	for i := 1; i < len(Priorities); i++ {
		req.Greater(Priorities[i-1].Severity(), Priorities[i].Severity())
	}
	req.Zero(Priority("nope").Severity())
	req.Equal("Urgent", PriorityUrgent.Label())
}

func TestRecordRoundTrip(t *testing.T) {
	req := require.New(t)
	m := Message{
		ID:          uuid.New(),
		WorkspaceID: uuid.New(),
		Author:      "Ana Silva",
		Avatar:      "AS",
		Content:     "VIP customer waiting on refund #4521",
		Priority:    PriorityHigh,
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	ev := NewInsertEvent(m)
	req.True(ev.IsMessageInsert())

	back, err := ev.Record.ToMessage()
	req.NoError(err)
	req.Equal(m, back)
}

func TestRecordRejectsUnknownFlag(t *testing.T) {
	req := require.New(t)
	rec := MessageRecord{ID: uuid.NewString(), Flag: "whatever"}

	_, err := rec.ToMessage()
	req.ErrorIs(err, ErrUnknownPriority)

	rec = MessageRecord{ID: "not-a-uuid", Flag: "low"}
	_, err = rec.ToMessage()
	req.Error(err)
}

func TestChangeEventFilter(t *testing.T) {
	req := require.New(t)
	req.False(ChangeEvent{Type: "UPDATE", Table: MessagesTable}.IsMessageInsert())
	req.False(ChangeEvent{Type: EventInsert, Table: "macros"}.IsMessageInsert())
}
