package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"support-feed/internal/model"
)

func TestPrintHistory_OldestFirst(t *testing.T) {
	req := require.New(t)
	now := time.Now()
	messages := []model.Message{
		{ID: uuid.New(), Author: "Bob", Content: "newest", Priority: model.PriorityUrgent, CreatedAt: now},
		{ID: uuid.New(), Author: "Ann", Content: "oldest", Priority: model.PriorityLow, CreatedAt: now.Add(-time.Hour)},
	}

	var out bytes.Buffer
	printHistory(&out, messages)

	text := out.String()
	req.Contains(text, "newest")
	req.Contains(text, "oldest")
	req.Less(strings.Index(text, "oldest"), strings.Index(text, "newest"))
}

func TestPrintLive(t *testing.T) {
	var out bytes.Buffer
	printLive(&out, model.Message{Author: "Bob", Content: "disk full", Priority: model.PriorityHigh, CreatedAt: time.Now()})
	require.Contains(t, out.String(), "disk full")
	require.Contains(t, out.String(), "Bob")
}
