package storage

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	req := require.New(t)
	at := time.Date(2026, 5, 6, 7, 8, 9, 123456789, time.UTC)
	id := uuid.New()

	gotAt, gotID, err := ParseCursor(FormatCursor(at, id))
	req.NoError(err)
	req.True(at.Equal(gotAt))
	req.Equal(id, gotID)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	req := require.New(t)
	for _, c := range []string{"nope", "abc:" + uuid.NewString(), "123:not-a-uuid"} {
		_, _, err := ParseCursor(c)
		req.ErrorIs(err, ErrInvalidCursor, c)
	}
}

func TestPartitionName(t *testing.T) {
	req := require.New(t)
	id := uuid.MustParse("0b8f2c3e-1d2a-4c5b-9e7f-a1b2c3d4e5f6")
	req.Equal("team_messages_0b8f2c3e_1d2a_4c5b_9e7f_a1b2c3d4e5f6", partitionName(id))
}
