// internal/model/priority.go
package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownPriority = errors.New("unknown priority flag")

// Priority is the severity flag carried by a team message.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists every flag, most severe first.
var Priorities = []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}

var priorityLabels = map[Priority]string{
	PriorityUrgent: "Urgent",
	PriorityHigh:   "High",
	PriorityMedium: "Medium",
	PriorityLow:    "Low",
}

// ParsePriority validates a raw flag coming from the store or a client.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPriority, raw)
	}
	return p, nil
}

func (p Priority) Valid() bool {
	_, ok := priorityLabels[p]
	return ok
}

// Severity is 4 for urgent down to 1 for low, 0 for an invalid flag.
func (p Priority) Severity() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

func (p Priority) Label() string {
	return priorityLabels[p]
}

func (p Priority) String() string {
	return string(p)
}
