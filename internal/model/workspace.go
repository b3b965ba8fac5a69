// internal/model/workspace.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Workspace is the team boundary every message is scoped to.
type Workspace struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
