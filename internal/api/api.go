package api

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"support-feed/internal/config"
	"support-feed/internal/feed"
	"support-feed/internal/manager"
	"support-feed/internal/model"
	"support-feed/internal/worker"
)

// MessagePager pages through a workspace's stored messages.
type MessagePager interface {
	ListMessagesPaginated(ctx context.Context, workspaceID uuid.UUID, cursor string, limit int) ([]model.Message, string, error)
}

type API struct {
	WorkspaceMgr *manager.WorkspaceManager
	Pager        MessagePager
	Store        feed.Store
	Subscriber   feed.Subscriber
	Pool         *worker.Pool
	Cfg          *config.Config
	Log          *slog.Logger
	Routers      chi.Router

	validate *validator.Validate
}

func NewAPI(wm *manager.WorkspaceManager, pager MessagePager, store feed.Store, sub feed.Subscriber, pool *worker.Pool, cfg *config.Config, log *slog.Logger) *API {
	return &API{
		WorkspaceMgr: wm,
		Pager:        pager,
		Store:        store,
		Subscriber:   sub,
		Pool:         pool,
		Cfg:          cfg,
		Log:          log,
		Routers:      chi.NewRouter(),
		validate:     validator.New(),
	}
}
