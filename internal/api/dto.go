package api

import (
	"time"

	"github.com/samber/lo"

	"support-feed/internal/model"
)

type CreateWorkspaceRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type CreateWorkspaceResponse struct {
	WorkspaceID string `json:"workspace_id"`
	Token       string `json:"token"`
}

type SendMessageRequest struct {
	Content  string `json:"content" validate:"max=4000"`
	Priority string `json:"priority" validate:"required,oneof=urgent high medium low"`
	Author   string `json:"author" validate:"max=100"`
	Avatar   string `json:"avatar" validate:"max=8"`
}

type MessageResponse struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Avatar    string    `json:"avatar"`
	Content   string    `json:"content"`
	Flag      string    `json:"flag"`
	Label     string    `json:"label"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type MessagePage struct {
	Data       []MessageResponse `json:"data"`
	NextCursor string            `json:"next_cursor"`
}

func toMessageResponses(messages []model.Message) []MessageResponse {
	return lo.Map(messages, func(m model.Message, _ int) MessageResponse {
		return MessageResponse{
			ID:        m.ID.String(),
			Author:    m.Author,
			Avatar:    m.Avatar,
			Content:   m.Content,
			Flag:      string(m.Priority),
			Label:     m.Priority.Label(),
			Read:      m.Read,
			CreatedAt: m.CreatedAt,
		}
	})
}
