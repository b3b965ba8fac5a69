// internal/storage/postgres.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"support-feed/internal/model"
)

var (
	ErrInvalidCursor     = errors.New("invalid cursor")
	ErrWorkspaceNotFound = errors.New("workspace not found")
)

const schema = `
CREATE TABLE IF NOT EXISTS workspaces (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS team_messages (
	id UUID NOT NULL,
	workspace_id UUID NOT NULL,
	author TEXT NOT NULL,
	avatar TEXT NOT NULL,
	content TEXT NOT NULL,
	flag TEXT NOT NULL,
	read BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
	PRIMARY KEY (workspace_id, id)
) PARTITION BY LIST (workspace_id);`

type Storage struct {
	DB *sql.DB
}

func NewStorage(dsn string) (*Storage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return &Storage{DB: db}, nil
}

// Migrate creates the parent tables when missing.
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func partitionName(workspaceID uuid.UUID) string {
	return "team_messages_" + strings.ReplaceAll(workspaceID.String(), "-", "_")
}

// EnsurePartition creates a workspace partition if not exists
func (s *Storage) EnsurePartition(ctx context.Context, workspaceID uuid.UUID) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s PARTITION OF team_messages
		FOR VALUES IN ('%s')`, partitionName(workspaceID), workspaceID.String())

	if _, err := s.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create partition: %w", err)
	}
	return nil
}

// DropPartition removes a workspace's messages along with its partition.
func (s *Storage) DropPartition(ctx context.Context, workspaceID uuid.UUID) error {
	query := fmt.Sprintf(`DROP TABLE IF EXISTS %s`, partitionName(workspaceID))
	if _, err := s.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to drop partition: %w", err)
	}
	return nil
}

// InsertMessage stores m and returns it with the id and timestamp the
// database assigned.
func (s *Storage) InsertMessage(ctx context.Context, m model.Message) (model.Message, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	query := `
		INSERT INTO team_messages (id, workspace_id, author, avatar, content, flag, read)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := s.DB.QueryRowContext(ctx, query,
		m.ID, m.WorkspaceID, m.Author, m.Avatar, m.Content, string(m.Priority), m.Read,
	).Scan(&m.CreatedAt)
	if err != nil {
		return model.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

// ListRecentMessages returns the newest messages of a workspace, newest first.
func (s *Storage) ListRecentMessages(ctx context.Context, workspaceID uuid.UUID, limit int) ([]model.Message, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, workspace_id, author, avatar, content, flag, read, created_at
		FROM team_messages
		WHERE workspace_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, workspaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// ListMessagesPaginated walks a workspace's messages newest first. The cursor
// is "<created_at unix nanos>:<id>" of the last message of the previous page.
func (s *Storage) ListMessagesPaginated(ctx context.Context, workspaceID uuid.UUID, cursor string, limit int) ([]model.Message, string, error) {
	query := `
		SELECT id, workspace_id, author, avatar, content, flag, read, created_at
		FROM team_messages
		WHERE workspace_id = $1
		  AND ($2::timestamptz IS NULL OR (created_at, id) < ($2::timestamptz, $3::uuid))
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`

	var rows *sql.Rows
	var err error
	if cursor == "" {
		rows, err = s.DB.QueryContext(ctx, query, workspaceID, nil, nil, limit)
	} else {
		at, id, perr := ParseCursor(cursor)
		if perr != nil {
			return nil, "", perr
		}
		rows, err = s.DB.QueryContext(ctx, query, workspaceID, at, id, limit)
	}
	if err != nil {
		return nil, "", fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(messages) == limit {
		last := messages[len(messages)-1]
		nextCursor = FormatCursor(last.CreatedAt, last.ID)
	}
	return messages, nextCursor, nil
}

func FormatCursor(at time.Time, id uuid.UUID) string {
	return strconv.FormatInt(at.UnixNano(), 10) + ":" + id.String()
}

func ParseCursor(cursor string) (time.Time, uuid.UUID, error) {
	nanos, rawID, ok := strings.Cut(cursor, ":")
	if !ok {
		return time.Time{}, uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidCursor, cursor)
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return time.Unix(0, n).UTC(), id, nil
}

func scanMessages(rows *sql.Rows) ([]model.Message, error) {
	var messages []model.Message
	for rows.Next() {
		var m model.Message
		var flag string
		if err := rows.Scan(&m.ID, &m.WorkspaceID, &m.Author, &m.Avatar, &m.Content, &flag, &m.Read, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		p, err := model.ParsePriority(flag)
		if err != nil {
			return nil, fmt.Errorf("message %s: %w", m.ID, err)
		}
		m.Priority = p
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows failed: %w", err)
	}
	return messages, nil
}

func (s *Storage) CreateWorkspace(ctx context.Context, id uuid.UUID, name string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO workspaces (id, name) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, name)
	return err
}

func (s *Storage) DeleteWorkspace(ctx context.Context, id uuid.UUID) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	return err
}

func (s *Storage) GetWorkspace(ctx context.Context, id uuid.UUID) (model.Workspace, error) {
	var w model.Workspace
	err := s.DB.QueryRowContext(ctx, `SELECT id, name, created_at FROM workspaces WHERE id = $1`, id).
		Scan(&w.ID, &w.Name, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Workspace{}, fmt.Errorf("%w: %s", ErrWorkspaceNotFound, id)
	}
	if err != nil {
		return model.Workspace{}, err
	}
	return w, nil
}

func (s *Storage) ListWorkspaces(ctx context.Context) ([]model.Workspace, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, name, created_at FROM workspaces ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workspaces []model.Workspace
	for rows.Next() {
		var w model.Workspace
		if err := rows.Scan(&w.ID, &w.Name, &w.CreatedAt); err != nil {
			return nil, err
		}
		workspaces = append(workspaces, w)
	}
	return workspaces, rows.Err()
}
