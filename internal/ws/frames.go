package ws

import (
	"time"

	"github.com/teamgrid/chat-service/internal/models"
)

// Client-to-server frame types.
const (
	FrameJoinChat    = "join_chat"
	FrameLeaveChat   = "leave_chat"
	FrameSendMessage = "send_message"
	FrameTyping      = "typing"
	FrameStopTyping  = "stop_typing"
)

// Server-to-client frame types.
const (
	FrameJoinedChat        = "joined_chat"
	FrameUserJoined        = "user_joined"
	FrameUserLeft          = "user_left"
	FrameNewMessage        = "new_message"
	FrameMessageEdited     = "message_edited"
	FrameMessageDeleted    = "message_deleted"
	FrameUserTyping        = "user_typing"
	FrameUserStoppedTyping = "user_stopped_typing"
	FrameError             = "error"
)

// ClientFrame is what a connected client may send.
type ClientFrame struct {
	Type   string `json:"type"`
	ChatID int    `json:"chat_id,omitempty"`
	Text   string `json:"text,omitempty"`
}

// MessagePayload mirrors the REST message shape so clients parse both
// the same way.
type MessagePayload struct {
	ID       int64  `json:"id"`
	ChatID   int    `json:"chat_id"`
	UserID   int    `json:"user_id"`
	UserName string `json:"user_name"`
	Text     string `json:"text"`
	Date     int64  `json:"date"`
	Edited   bool   `json:"edited"`
	EditedAt string `json:"edited_at,omitempty"`
}

// ServerFrame is what the hub delivers to clients. Only the fields
// relevant to the frame type are set.
type ServerFrame struct {
	Type      string          `json:"type"`
	ChatID    int             `json:"chat_id,omitempty"`
	MessageID int64           `json:"message_id,omitempty"`
	UserID    int             `json:"user_id,omitempty"`
	UserName  string          `json:"user_name,omitempty"`
	Message   *MessagePayload `json:"message,omitempty"`
	Error     *ErrorInfo      `json:"error,omitempty"`
}

// ErrorInfo is the payload of an error frame.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toPayload(m *models.Message) *MessagePayload {
	p := &MessagePayload{
		ID:       m.ID,
		ChatID:   m.ChatID,
		UserID:   m.UserID,
		UserName: m.UserName,
		Text:     m.Text,
		Date:     m.CreatedAt.Unix(),
		Edited:   m.Edited,
	}
	if m.EditedAt != nil {
		p.EditedAt = m.EditedAt.Format(time.RFC3339)
	}
	return p
}
