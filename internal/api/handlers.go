package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger"

	"support-feed/internal/auth"
	"support-feed/internal/feed"
	"support-feed/internal/metrics"
	"support-feed/internal/model"
	"support-feed/internal/notify"
	"support-feed/internal/session"
	"support-feed/internal/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (a *API) Router() http.Handler {
	// Public
	a.Routers.Get("/healthz", a.Health)
	a.Routers.Handle("/metrics", metrics.Handler())
	a.Routers.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	a.Routers.Post("/workspaces", a.CreateWorkspace)

	// Secured
	a.Routers.Group(func(r chi.Router) {
		r.Use(auth.JWTAuthMiddleware)

		r.Delete("/workspaces/{id}", a.DeleteWorkspace)
		r.Get("/messages", a.ListMessages)
		r.Post("/messages", a.SendMessage)
		r.Get("/ws", a.ServeWS)
	})

	return a.Routers
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// @Summary Liveness probe
// @Tags Health
// @Success 200
// @Router /healthz [get]
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// @Summary Create a workspace
// @Tags Workspaces
// @Accept json
// @Produce json
// @Param body body CreateWorkspaceRequest true "Workspace"
// @Success 201 {object} CreateWorkspaceResponse
// @Router /workspaces [post]
func (a *API) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var body CreateWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	if err := a.validate.Struct(body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := a.WorkspaceMgr.AddWorkspace(r.Context(), body.Name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	token, err := auth.GenerateToken(id.String())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	a.Log.Info("API: Created workspace", "workspace", id)
	writeJSON(w, http.StatusCreated, CreateWorkspaceResponse{WorkspaceID: id.String(), Token: token})
}

// @Summary Delete a workspace
// @Tags Workspaces
// @Security ApiKeyAuth
// @Param id path string true "Workspace UUID"
// @Success 204
// @Router /workspaces/{id} [delete]
func (a *API) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid workspace id", http.StatusBadRequest)
		return
	}
	scoped, ok := auth.GetWorkspaceID(r)
	if !ok || scoped != id {
		http.Error(w, "token is not scoped to this workspace", http.StatusForbidden)
		return
	}

	if err := a.WorkspaceMgr.RemoveWorkspace(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	a.Log.Info("API: Deleted workspace", "workspace", id)
	w.WriteHeader(http.StatusNoContent)
}

// @Summary List messages of the token's workspace, newest first
// @Tags Messages
// @Security ApiKeyAuth
// @Produce json
// @Param cursor query string false "Pagination cursor"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} MessagePage
// @Router /messages [get]
func (a *API) ListMessages(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := auth.GetWorkspaceID(r)
	if !ok {
		http.Error(w, "unauthorized workspace", http.StatusUnauthorized)
		return
	}

	limit := defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageSize {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	messages, nextCursor, err := a.Pager.ListMessagesPaginated(r.Context(), workspaceID, r.URL.Query().Get("cursor"), limit)
	if errors.Is(err, storage.ErrInvalidCursor) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, MessagePage{Data: toMessageResponses(messages), NextCursor: nextCursor})
}

// @Summary Send a flagged message to the token's workspace
// @Description The message is not echoed back; every open feed receives it from the change stream.
// @Tags Messages
// @Security ApiKeyAuth
// @Accept json
// @Param body body SendMessageRequest true "Message"
// @Success 202
// @Success 204 "Blank content, nothing written"
// @Router /messages [post]
func (a *API) SendMessage(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := auth.GetWorkspaceID(r)
	if !ok {
		http.Error(w, "unauthorized workspace", http.StatusUnauthorized)
		return
	}

	var body SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	if err := a.validate.Struct(body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	priority, err := model.ParsePriority(body.Priority)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	identity := a.Cfg.Feed.Identity
	if body.Author != "" {
		identity = feed.Identity{Author: body.Author, Avatar: body.Avatar}
	}
	sent, err := feed.SendMessage(r.Context(), a.Store, workspaceID, identity, body.Content, priority)
	if err != nil {
		a.Log.Warn("API: Send failed", "workspace", workspaceID, "error", err)
		http.Error(w, "failed to send message", http.StatusBadGateway)
		return
	}
	if !sent {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// @Summary Open a live dashboard session
// @Description Websocket. The token may be passed as access_token since browsers cannot set headers on upgrades.
// @Tags Feed
// @Security ApiKeyAuth
// @Param access_token query string false "Workspace token"
// @Param notifications query string false "Browser notification permission: default, granted or denied"
// @Param author query string false "Display name for sent messages"
// @Param avatar query string false "Avatar initials for sent messages"
// @Success 101
// @Router /ws [get]
func (a *API) ServeWS(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := auth.GetWorkspaceID(r)
	if !ok {
		http.Error(w, "unauthorized workspace", http.StatusUnauthorized)
		return
	}
	if !a.WorkspaceMgr.HasWorkspace(workspaceID) {
		http.Error(w, "workspace not found", http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	identity := a.Cfg.Feed.Identity
	if author := q.Get("author"); author != "" {
		identity = feed.Identity{Author: author, Avatar: q.Get("avatar")}
	}

	conn, err := session.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Log.Warn("API: Websocket upgrade failed", "error", err)
		return
	}

	client := session.NewClient(conn, workspaceID, identity, notify.ParsePermission(q.Get("notifications")), session.Deps{
		Store:             a.Store,
		Subscriber:        a.Subscriber,
		Pool:              a.Pool,
		Log:               a.Log,
		HistoryLimit:      a.Cfg.Feed.HistoryLimit,
		PermissionTimeout: a.Cfg.Notify.PermissionTimeout,
	})
	if err := a.WorkspaceMgr.Register(client); err != nil {
		a.Log.Warn("API: Session rejected", "workspace", workspaceID, "error", err)
		_ = client.Close()
		return
	}
	defer a.WorkspaceMgr.Unregister(client)

	a.Log.Info("API: Session opened", "workspace", workspaceID, "session", client.ID())
	client.Serve(r.Context())
}
