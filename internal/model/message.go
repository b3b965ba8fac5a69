// internal/model/message.go
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	MessagesTable = "team_messages"
	EventInsert   = "INSERT"
)

// Message is a flagged team message. Everything but Read is fixed at creation.
type Message struct {
	ID          uuid.UUID `db:"id" json:"id"`
	WorkspaceID uuid.UUID `db:"workspace_id" json:"workspace_id"`
	Author      string    `db:"author" json:"author"`
	Avatar      string    `db:"avatar" json:"avatar"`
	Content     string    `db:"content" json:"content"`
	Priority    Priority  `db:"flag" json:"flag"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	Read        bool      `db:"read" json:"read"`
}

// MessageRecord is the row shape published on the change stream. The flag is
// kept as a free string until ToMessage validates it.
type MessageRecord struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Author      string    `json:"author"`
	Avatar      string    `json:"avatar"`
	Content     string    `json:"content"`
	Flag        string    `json:"flag"`
	CreatedAt   time.Time `json:"created_at"`
	Read        bool      `json:"read"`
}

// ChangeEvent is one notification from the change stream.
type ChangeEvent struct {
	Type   string        `json:"type"`
	Table  string        `json:"table"`
	Record MessageRecord `json:"record"`
}

// IsMessageInsert reports whether the event is an insert into the messages table.
func (e ChangeEvent) IsMessageInsert() bool {
	return e.Type == EventInsert && e.Table == MessagesTable
}

// NewInsertEvent builds the change event emitted after a message is stored.
func NewInsertEvent(m Message) ChangeEvent {
	return ChangeEvent{Type: EventInsert, Table: MessagesTable, Record: m.Record()}
}

func (m Message) Record() MessageRecord {
	return MessageRecord{
		ID:          m.ID.String(),
		WorkspaceID: m.WorkspaceID.String(),
		Author:      m.Author,
		Avatar:      m.Avatar,
		Content:     m.Content,
		Flag:        string(m.Priority),
		CreatedAt:   m.CreatedAt,
		Read:        m.Read,
	}
}

// ToMessage validates ids and the priority flag of a raw record.
func (r MessageRecord) ToMessage() (Message, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return Message{}, fmt.Errorf("invalid message id %q: %w", r.ID, err)
	}
	var workspaceID uuid.UUID
	if r.WorkspaceID != "" {
		if workspaceID, err = uuid.Parse(r.WorkspaceID); err != nil {
			return Message{}, fmt.Errorf("invalid workspace id %q: %w", r.WorkspaceID, err)
		}
	}
	priority, err := ParsePriority(r.Flag)
	if err != nil {
		return Message{}, err
	}
	return Message{
		ID:          id,
		WorkspaceID: workspaceID,
		Author:      r.Author,
		Avatar:      r.Avatar,
		Content:     r.Content,
		Priority:    priority,
		CreatedAt:   r.CreatedAt,
		Read:        r.Read,
	}, nil
}
