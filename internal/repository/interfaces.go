package repository

import (
	"context"

	"github.com/teamgrid/chat-service/internal/models"
)

// ChatRepository owns the chats table.
type ChatRepository interface {
	// Create inserts the chat and its initial memberships in one
	// transaction. A chat never exists without members.
	Create(ctx context.Context, name string, chatType models.ChatType, workspaceID int, members []models.NewMember) (*models.Chat, error)

	// GetByID returns nil, nil if the chat does not exist.
	GetByID(ctx context.Context, chatID int) (*models.Chat, error)

	// UpdateName renames the chat and bumps updated_at. Returns nil, nil
	// if the chat does not exist.
	UpdateName(ctx context.Context, chatID int, name string) (*models.Chat, error)

	// Delete removes the chat; memberships and messages cascade.
	// Returns false if the chat did not exist.
	Delete(ctx context.Context, chatID int) (bool, error)

	// ListForUser returns the chats userID belongs to, optionally
	// filtered by workspace and type, ordered by id.
	ListForUser(ctx context.Context, userID int, workspaceID, chatType *int) ([]models.Chat, error)
}

// MembershipRepository owns the chat_members table.
type MembershipRepository interface {
	// Add inserts the membership. Returns false when the user is
	// already a member (conflict is not an error at this layer).
	Add(ctx context.Context, chatID, userID int, role models.MemberRole) (bool, error)

	// Remove returns false when no such membership existed.
	Remove(ctx context.Context, chatID, userID int) (bool, error)

	// UpdateRole returns false when no such membership existed.
	UpdateRole(ctx context.Context, chatID, userID int, role models.MemberRole) (bool, error)

	// Get returns nil, nil when the user is not a member.
	Get(ctx context.Context, chatID, userID int) (*models.ChatMember, error)

	// List returns member rows joined with directory profiles.
	List(ctx context.Context, chatID int) ([]models.MemberProfile, error)

	// CountAdmins counts members with the admin role.
	CountAdmins(ctx context.Context, chatID int) (int, error)

	// AdvanceLastRead moves the user's read pointer forward to
	// messageID, never backward. It returns the stored pointer after
	// the update and how many messages the move covered.
	AdvanceLastRead(ctx context.Context, chatID, userID int, messageID int64) (int64, int, error)
}

// MessageRepository owns the messages table.
type MessageRepository interface {
	// Create persists a message. Insertion is serialized per chat so
	// ids within one chat are assigned in send order.
	Create(ctx context.Context, chatID, userID int, text string) (*models.Message, error)

	// GetByID returns nil, nil if no message with that id exists in
	// chatID.
	GetByID(ctx context.Context, chatID int, messageID int64) (*models.Message, error)

	// UpdateText sets the new text and the edited flag. Returns nil,
	// nil if the message does not exist.
	UpdateText(ctx context.Context, messageID int64, text string) (*models.Message, error)

	// Delete returns false when no such message existed.
	Delete(ctx context.Context, messageID int64) (bool, error)

	// ListByChat returns messages oldest first.
	ListByChat(ctx context.Context, chatID, limit, offset int) ([]models.Message, error)

	// CountByChat returns the total number of messages in the chat.
	CountByChat(ctx context.Context, chatID int) (int, error)

	// Last returns the newest message, or nil, nil for an empty chat.
	Last(ctx context.Context, chatID int) (*models.Message, error)

	// CountUnread counts messages newer than the user's read pointer.
	CountUnread(ctx context.Context, chatID, userID int) (int, error)
}

// DirectoryRepository reads the workspace and user tables the platform
// shares with this service. Those tables are owned by the Workspace
// and User services; this side only queries them.
type DirectoryRepository interface {
	WorkspaceExists(ctx context.Context, workspaceID int) (bool, error)
	IsUserInWorkspace(ctx context.Context, userID, workspaceID int) (bool, error)
	UserName(ctx context.Context, userID int) (string, error)
}
