package api

import (
	"time"

	"github.com/teamgrid/chat-service/internal/models"
	"github.com/teamgrid/chat-service/internal/service"
)

// Response shapes are part of the platform contract; the gateway and
// the web client both depend on these field names.

type ChatResponse struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Type         int    `json:"type"`
	WorkspaceID  int    `json:"workspace_id"`
	CreatedAt    string `json:"created_at,omitempty"`
	MembersCount int    `json:"members_count,omitempty"`
	MyRole       int    `json:"my_role,omitempty"`
}

type LastMessageInfo struct {
	Text     string `json:"text"`
	Date     int64  `json:"date"`
	UserName string `json:"user_name"`
}

type ChatListItem struct {
	ID           int              `json:"id"`
	Name         string           `json:"name"`
	Type         int              `json:"type"`
	WorkspaceID  int              `json:"workspace_id"`
	LastMessage  *LastMessageInfo `json:"last_message,omitempty"`
	UnreadCount  int              `json:"unread_count"`
	MembersCount int              `json:"members_count"`
}

type ChatListResponse struct {
	Chats []ChatListItem `json:"chats"`
	Total int            `json:"total"`
}

type AddMembersResponse struct {
	Added  []int `json:"added"`
	ChatID int   `json:"chat_id"`
}

type ChatMemberResponse struct {
	UserID   int    `json:"user_id"`
	Login    string `json:"login"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Role     int    `json:"role"`
	JoinedAt string `json:"joined_at"`
}

type ChatMembersResponse struct {
	Members []ChatMemberResponse `json:"members"`
	Total   int                  `json:"total"`
}

type UpdateMemberRoleResponse struct {
	UserID int `json:"user_id"`
	ChatID int `json:"chat_id"`
	Role   int `json:"role"`
}

type MessageResponse struct {
	ID       int64  `json:"id"`
	ChatID   int    `json:"chat_id"`
	UserID   int    `json:"user_id"`
	UserName string `json:"user_name"`
	Text     string `json:"text"`
	Date     int64  `json:"date"`
	Edited   bool   `json:"edited"`
	EditedAt string `json:"edited_at,omitempty"`
}

type MessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
	HasMore  bool              `json:"has_more"`
	Total    int               `json:"total"`
}

type UpdateMessageResponse struct {
	ID       int64  `json:"id"`
	ChatID   int    `json:"chat_id"`
	Text     string `json:"text"`
	Edited   bool   `json:"edited"`
	EditedAt string `json:"edited_at,omitempty"`
}

type MarkAsReadResponse struct {
	ChatID            int   `json:"chat_id"`
	MarkedAsRead      int   `json:"marked_as_read"`
	LastReadMessageID int64 `json:"last_read_message_id"`
}

func toMessageResponse(m *models.Message) MessageResponse {
	resp := MessageResponse{
		ID:       m.ID,
		ChatID:   m.ChatID,
		UserID:   m.UserID,
		UserName: m.UserName,
		Text:     m.Text,
		Date:     m.CreatedAt.Unix(),
		Edited:   m.Edited,
	}
	if m.EditedAt != nil {
		resp.EditedAt = m.EditedAt.Format(time.RFC3339)
	}
	return resp
}

func toChatListItem(s service.ChatSummary) ChatListItem {
	item := ChatListItem{
		ID:           s.Chat.ID,
		Name:         s.Chat.Name,
		Type:         int(s.Chat.Type),
		WorkspaceID:  s.Chat.WorkspaceID,
		UnreadCount:  s.UnreadCount,
		MembersCount: s.MembersCount,
	}
	if s.LastMessage != nil {
		item.LastMessage = &LastMessageInfo{
			Text:     s.LastMessage.Text,
			Date:     s.LastMessage.CreatedAt.Unix(),
			UserName: s.LastMessage.UserName,
		}
	}
	return item
}

func toMemberResponse(p models.MemberProfile) ChatMemberResponse {
	return ChatMemberResponse{
		UserID:   p.UserID,
		Login:    p.Login,
		Name:     p.Name,
		Surname:  p.Surname,
		Role:     int(p.Role),
		JoinedAt: p.JoinedAt.Format(time.RFC3339),
	}
}
