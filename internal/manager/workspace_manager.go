// internal/manager/workspace_manager.go
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"support-feed/internal/metrics"
)

var ErrUnknownWorkspace = errors.New("unknown workspace")

// Provisioner owns the durable side of a workspace.
type Provisioner interface {
	EnsurePartition(ctx context.Context, workspaceID uuid.UUID) error
	DropPartition(ctx context.Context, workspaceID uuid.UUID) error
	CreateWorkspace(ctx context.Context, id uuid.UUID, name string) error
	DeleteWorkspace(ctx context.Context, id uuid.UUID) error
}

// Exchanges owns the change stream of a workspace.
type Exchanges interface {
	DeclareWorkspace(workspaceID string) error
	DeleteWorkspace(workspaceID string) error
}

// Session is a live dashboard connection.
type Session interface {
	ID() uuid.UUID
	WorkspaceID() uuid.UUID
	Close() error
}

type WorkspaceManager struct {
	storage   Provisioner
	exchanges Exchanges
	log       *slog.Logger

	mu         sync.RWMutex
	workspaces map[uuid.UUID]map[uuid.UUID]Session
}

func NewWorkspaceManager(storage Provisioner, exchanges Exchanges, log *slog.Logger) *WorkspaceManager {
	return &WorkspaceManager{
		storage:    storage,
		exchanges:  exchanges,
		log:        log,
		workspaces: make(map[uuid.UUID]map[uuid.UUID]Session),
	}
}

// AddWorkspace creates the partition, the change exchange and the row for a
// new workspace.
func (wm *WorkspaceManager) AddWorkspace(ctx context.Context, name string) (uuid.UUID, error) {
	id := uuid.New()
	if err := wm.provision(ctx, id); err != nil {
		return uuid.Nil, err
	}
	if err := wm.storage.CreateWorkspace(ctx, id, name); err != nil {
		return uuid.Nil, fmt.Errorf("failed to save workspace: %w", err)
	}
	wm.track(id)
	wm.log.Info("Workspace added", "workspace", id, "name", name)
	return id, nil
}

// EnsureWorkspace re-provisions a workspace that already has a row, at boot.
func (wm *WorkspaceManager) EnsureWorkspace(ctx context.Context, id uuid.UUID) error {
	if err := wm.provision(ctx, id); err != nil {
		return err
	}
	wm.track(id)
	return nil
}

func (wm *WorkspaceManager) provision(ctx context.Context, id uuid.UUID) error {
	if err := wm.storage.EnsurePartition(ctx, id); err != nil {
		return fmt.Errorf("failed to create partition: %w", err)
	}
	if err := wm.exchanges.DeclareWorkspace(id.String()); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	return nil
}

func (wm *WorkspaceManager) track(id uuid.UUID) {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	if _, ok := wm.workspaces[id]; !ok {
		wm.workspaces[id] = make(map[uuid.UUID]Session)
	}
}

// RemoveWorkspace closes every live session, then deletes the exchange, the
// partition and the row.
func (wm *WorkspaceManager) RemoveWorkspace(ctx context.Context, id uuid.UUID) error {
	wm.mu.Lock()
	sessions, exists := wm.workspaces[id]
	delete(wm.workspaces, id)
	wm.mu.Unlock()
	if !exists {
		return nil // nothing to remove
	}

	for _, s := range sessions {
		if err := s.Close(); err != nil {
			wm.log.Warn("Failed to close session", "workspace", id, "session", s.ID(), "error", err)
		}
	}
	metrics.ActiveSessions.DeleteLabelValues(id.String())
	metrics.DeadLetterDepth.DeleteLabelValues(id.String())

	if err := wm.exchanges.DeleteWorkspace(id.String()); err != nil {
		wm.log.Warn("Failed to delete exchange", "workspace", id, "error", err)
	}
	if err := wm.storage.DropPartition(ctx, id); err != nil {
		wm.log.Warn("Failed to drop partition", "workspace", id, "error", err)
	}
	if err := wm.storage.DeleteWorkspace(ctx, id); err != nil {
		return fmt.Errorf("failed to remove workspace record: %w", err)
	}

	wm.log.Info("Workspace removed", "workspace", id, "sessions_closed", len(sessions))
	return nil
}

// Register tracks a session until Unregister. The workspace must be known.
func (wm *WorkspaceManager) Register(s Session) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	sessions, ok := wm.workspaces[s.WorkspaceID()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWorkspace, s.WorkspaceID())
	}
	sessions[s.ID()] = s
	metrics.ActiveSessions.WithLabelValues(s.WorkspaceID().String()).Set(float64(len(sessions)))
	return nil
}

func (wm *WorkspaceManager) Unregister(s Session) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	sessions, ok := wm.workspaces[s.WorkspaceID()]
	if !ok {
		return
	}
	delete(sessions, s.ID())
	metrics.ActiveSessions.WithLabelValues(s.WorkspaceID().String()).Set(float64(len(sessions)))
}

func (wm *WorkspaceManager) HasWorkspace(id uuid.UUID) bool {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	_, ok := wm.workspaces[id]
	return ok
}

func (wm *WorkspaceManager) SessionCount(id uuid.UUID) int {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return len(wm.workspaces[id])
}

// ListWorkspaceIDs returns all currently registered workspace UUIDs
func (wm *WorkspaceManager) ListWorkspaceIDs() []string {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	ids := make([]string, 0, len(wm.workspaces))
	for id := range wm.workspaces {
		ids = append(ids, id.String())
	}
	return ids
}

// ShutdownAll closes every live session. Workspaces stay provisioned.
func (wm *WorkspaceManager) ShutdownAll() {
	wm.mu.Lock()
	var sessions []Session
	for id, byID := range wm.workspaces {
		for _, s := range byID {
			sessions = append(sessions, s)
		}
		wm.workspaces[id] = make(map[uuid.UUID]Session)
	}
	wm.mu.Unlock()

	for _, s := range sessions {
		_ = s.Close()
	}
	wm.log.Info("All sessions stopped", "sessions", len(sessions))
}
