// Package service holds the chat domain logic. Both transports (REST
// handlers and the WebSocket hub) call into this package, so
// authorization rules live here exactly once.
package service

import (
	"context"

	"github.com/teamgrid/chat-service/internal/apperr"
	"github.com/teamgrid/chat-service/internal/models"
	"github.com/teamgrid/chat-service/internal/repository"
)

// Guard gates every chat and message mutation by existence, membership
// and role. Existence is always checked first: a missing chat is
// NotFound for everyone, a real chat is Forbidden for non-members.
type Guard struct {
	chats   repository.ChatRepository
	members repository.MembershipRepository
}

func NewGuard(chats repository.ChatRepository, members repository.MembershipRepository) *Guard {
	return &Guard{chats: chats, members: members}
}

// RequireChat loads the chat or fails with NotFound.
func (g *Guard) RequireChat(ctx context.Context, chatID int) (*models.Chat, error) {
	chat, err := g.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if chat == nil {
		return nil, apperr.NotFound("chat not found")
	}
	return chat, nil
}

// RequireMember loads the caller's membership or fails with the
// membership error: 403 on REST, an UNAUTHORIZED frame on the socket.
// Callers must have established chat existence first.
func (g *Guard) RequireMember(ctx context.Context, chatID, userID int) (*models.ChatMember, error) {
	member, err := g.members.Get(ctx, chatID, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if member == nil {
		return nil, apperr.Membership("user is not a member of this chat")
	}
	return member, nil
}

// RequireAdmin is RequireMember plus the admin role. Covers metadata
// updates, chat deletion and member management.
func (g *Guard) RequireAdmin(ctx context.Context, chatID, userID int) (*models.ChatMember, error) {
	member, err := g.RequireMember(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	if member.Role != models.RoleAdmin {
		return nil, apperr.Forbidden("insufficient permissions")
	}
	return member, nil
}

// RequirePoster checks the caller may post to the chat: any member for
// personal and group chats, admins only for channels.
func (g *Guard) RequirePoster(ctx context.Context, chat *models.Chat, userID int) (*models.ChatMember, error) {
	member, err := g.RequireMember(ctx, chat.ID, userID)
	if err != nil {
		return nil, err
	}
	if chat.Type == models.ChatTypeChannel && member.Role != models.RoleAdmin {
		return nil, apperr.Forbidden("only admins can write in channels")
	}
	return member, nil
}

// CanRead is the read gate used by history, member lists and WebSocket
// room joins: the chat must exist and the caller must be a member. It
// is evaluated against the store on every call, never cached, so a
// revoked membership takes effect on the next join.
func (g *Guard) CanRead(ctx context.Context, chatID, userID int) (*models.Chat, error) {
	chat, err := g.RequireChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if _, err := g.RequireMember(ctx, chatID, userID); err != nil {
		return nil, err
	}
	return chat, nil
}

// RequireAuthor checks message mutation rights: only the author may
// edit or delete a message, regardless of role.
func (g *Guard) RequireAuthor(msg *models.Message, userID int) error {
	if msg.UserID != userID {
		return apperr.Forbidden("user is not the author of this message")
	}
	return nil
}
