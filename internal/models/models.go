package models

import "time"

// ChatType distinguishes the three conversation kinds. Personal chats
// are fixed 1:1 conversations, groups are open to any member, channels
// are broadcast-style: only chat admins may post.
type ChatType int

const (
	ChatTypePersonal ChatType = 1
	ChatTypeGroup    ChatType = 2
	ChatTypeChannel  ChatType = 3
)

// Valid reports whether t is one of the known chat types.
func (t ChatType) Valid() bool {
	return t >= ChatTypePersonal && t <= ChatTypeChannel
}

// MemberRole is the chat-scoped role of a member. This is distinct from
// the platform-wide account role carried by the Auth service.
type MemberRole int

const (
	RoleMember MemberRole = 1
	RoleAdmin  MemberRole = 2
)

// Valid reports whether r is one of the known member roles.
func (r MemberRole) Valid() bool {
	return r == RoleMember || r == RoleAdmin
}

// Chat is a conversation container owned by a workspace.
type Chat struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Type        ChatType  `json:"type"`
	WorkspaceID int       `json:"workspace_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChatMember is one row of the chat membership table.
// LastReadMessageID is nil until the user marks something read; it only
// ever advances forward.
type ChatMember struct {
	ChatID            int        `json:"chat_id"`
	UserID            int        `json:"user_id"`
	Role              MemberRole `json:"role"`
	LastReadMessageID *int64     `json:"last_read_message_id,omitempty"`
	JoinedAt          time.Time  `json:"joined_at"`
}

// MemberProfile is a chat member joined with the directory fields the
// member list endpoint exposes.
type MemberProfile struct {
	UserID   int        `json:"user_id"`
	Login    string     `json:"login"`
	Name     string     `json:"name"`
	Surname  string     `json:"surname"`
	Role     MemberRole `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
}

// Message is a single chat message. IDs come from a bigserial sequence
// and are assigned under a per-chat lock, so within one chat they are
// strictly increasing in send order.
type Message struct {
	ID        int64      `json:"id"`
	ChatID    int        `json:"chat_id"`
	UserID    int        `json:"user_id"`
	UserName  string     `json:"user_name,omitempty"`
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"created_at"`
	Edited    bool       `json:"edited"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
}

// NewMember pairs a user id with the role it should get when a chat is
// created or members are added.
type NewMember struct {
	UserID int
	Role   MemberRole
}
