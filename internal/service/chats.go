package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/teamgrid/chat-service/internal/apperr"
	"github.com/teamgrid/chat-service/internal/events"
	"github.com/teamgrid/chat-service/internal/models"
	"github.com/teamgrid/chat-service/internal/repository"
)

const minChatNameLen = 3

// CreateChatInput carries a validated-at-the-edge create request.
type CreateChatInput struct {
	Name        string
	Type        models.ChatType
	WorkspaceID int
	MemberIDs   []int
}

// ChatSummary is a chat decorated with the per-user list fields.
type ChatSummary struct {
	Chat         models.Chat
	LastMessage  *models.Message
	UnreadCount  int
	MembersCount int
}

// ChatDetails is a chat plus the caller's view of it.
type ChatDetails struct {
	Chat         models.Chat
	MyRole       models.MemberRole
	MembersCount int
}

type ChatService struct {
	chats       repository.ChatRepository
	members     repository.MembershipRepository
	messages    repository.MessageRepository
	directory   repository.DirectoryRepository
	guard       *Guard
	broadcaster Broadcaster
	publisher   events.Publisher
	log         *zap.Logger
}

func NewChatService(
	chats repository.ChatRepository,
	members repository.MembershipRepository,
	messages repository.MessageRepository,
	directory repository.DirectoryRepository,
	guard *Guard,
	broadcaster Broadcaster,
	publisher events.Publisher,
	log *zap.Logger,
) *ChatService {
	return &ChatService{
		chats:       chats,
		members:     members,
		messages:    messages,
		directory:   directory,
		guard:       guard,
		broadcaster: broadcaster,
		publisher:   publisher,
		log:         log,
	}
}

// Create validates and creates a chat with its initial memberships in
// one transaction. The creator becomes the chat admin.
func (s *ChatService) Create(ctx context.Context, actorID int, in CreateChatInput) (*models.Chat, int, error) {
	if !in.Type.Valid() {
		return nil, 0, apperr.Validation("invalid chat type (must be 1, 2, or 3)")
	}

	memberIDs := dedupe(in.MemberIDs)

	switch in.Type {
	case models.ChatTypePersonal:
		if len(memberIDs) != 2 {
			return nil, 0, apperr.Validation("personal chat must have exactly 2 members")
		}
		if !contains(memberIDs, actorID) {
			return nil, 0, apperr.Validation("personal chat members must include the creator")
		}
	default:
		if len(strings.TrimSpace(in.Name)) < minChatNameLen {
			return nil, 0, apperr.Validation("chat name must be at least 3 characters")
		}
		if !contains(memberIDs, actorID) {
			memberIDs = append(memberIDs, actorID)
		}
	}

	exists, err := s.directory.WorkspaceExists(ctx, in.WorkspaceID)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	if !exists {
		return nil, 0, apperr.NotFound("workspace not found")
	}

	for _, id := range memberIDs {
		inWorkspace, err := s.directory.IsUserInWorkspace(ctx, id, in.WorkspaceID)
		if err != nil {
			return nil, 0, apperr.Internal(err)
		}
		if !inWorkspace {
			if id == actorID {
				return nil, 0, apperr.Forbidden("user is not a member of this workspace")
			}
			return nil, 0, apperr.Forbidden("some users are not members of this workspace")
		}
	}

	name := in.Name
	if in.Type == models.ChatTypePersonal {
		name = ""
	}

	newMembers := make([]models.NewMember, 0, len(memberIDs))
	for _, id := range memberIDs {
		role := models.RoleMember
		if id == actorID {
			role = models.RoleAdmin
		}
		newMembers = append(newMembers, models.NewMember{UserID: id, Role: role})
	}

	chat, err := s.chats.Create(ctx, name, in.Type, in.WorkspaceID, newMembers)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}

	s.log.Info("chat created",
		zap.Int("chat_id", chat.ID),
		zap.Int("workspace_id", chat.WorkspaceID),
		zap.Int("type", int(chat.Type)),
		zap.Int("members", len(newMembers)),
	)
	return chat, len(newMembers), nil
}

// List returns the caller's chats with last message, unread count and
// member count attached.
func (s *ChatService) List(ctx context.Context, actorID int, workspaceID, chatType *int) ([]ChatSummary, error) {
	chats, err := s.chats.ListForUser(ctx, actorID, workspaceID, chatType)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	summaries := make([]ChatSummary, 0, len(chats))
	for _, chat := range chats {
		summary := ChatSummary{Chat: chat}

		if last, err := s.messages.Last(ctx, chat.ID); err == nil {
			summary.LastMessage = last
		} else {
			s.log.Warn("last message lookup failed", zap.Int("chat_id", chat.ID), zap.Error(err))
		}
		if unread, err := s.messages.CountUnread(ctx, chat.ID, actorID); err == nil {
			summary.UnreadCount = unread
		} else {
			s.log.Warn("unread count failed", zap.Int("chat_id", chat.ID), zap.Error(err))
		}
		if members, err := s.members.List(ctx, chat.ID); err == nil {
			summary.MembersCount = len(members)
		}

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Get returns the chat with the caller's role. Non-members get
// Forbidden, missing chats NotFound.
func (s *ChatService) Get(ctx context.Context, actorID, chatID int) (*ChatDetails, error) {
	chat, err := s.guard.RequireChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	member, err := s.guard.RequireMember(ctx, chatID, actorID)
	if err != nil {
		return nil, err
	}

	members, err := s.members.List(ctx, chatID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &ChatDetails{
		Chat:         *chat,
		MyRole:       member.Role,
		MembersCount: len(members),
	}, nil
}

// UpdateName renames a group or channel. Admin only; personal chats
// have no name to change.
func (s *ChatService) UpdateName(ctx context.Context, actorID, chatID int, name string) (*models.Chat, error) {
	chat, err := s.guard.RequireChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.Type == models.ChatTypePersonal {
		return nil, apperr.Validation("personal chats cannot be renamed")
	}
	if _, err := s.guard.RequireAdmin(ctx, chatID, actorID); err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(name)) < minChatNameLen {
		return nil, apperr.Validation("chat name must be at least 3 characters")
	}

	updated, err := s.chats.UpdateName(ctx, chatID, name)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if updated == nil {
		return nil, apperr.NotFound("chat not found")
	}
	return updated, nil
}

// Delete removes the chat, its memberships and messages, and evicts
// the live room so no further events are broadcast for it.
func (s *ChatService) Delete(ctx context.Context, actorID, chatID int) error {
	if _, err := s.guard.RequireChat(ctx, chatID); err != nil {
		return err
	}
	if _, err := s.guard.RequireAdmin(ctx, chatID, actorID); err != nil {
		return err
	}

	deleted, err := s.chats.Delete(ctx, chatID)
	if err != nil {
		return apperr.Internal(err)
	}
	if !deleted {
		return apperr.NotFound("chat not found")
	}

	s.broadcaster.EvictChat(chatID)
	s.publisher.ChatDeleted(ctx, chatID)

	s.log.Info("chat deleted", zap.Int("chat_id", chatID), zap.Int("actor_id", actorID))
	return nil
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func dedupe(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
