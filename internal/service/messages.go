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

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

// MessagePage is one slice of a chat's history, oldest first.
type MessagePage struct {
	Messages []models.Message
	Total    int
	HasMore  bool
}

type MessageService struct {
	messages    repository.MessageRepository
	members     repository.MembershipRepository
	directory   repository.DirectoryRepository
	guard       *Guard
	broadcaster Broadcaster
	publisher   events.Publisher
	log         *zap.Logger
}

func NewMessageService(
	messages repository.MessageRepository,
	members repository.MembershipRepository,
	directory repository.DirectoryRepository,
	guard *Guard,
	broadcaster Broadcaster,
	publisher events.Publisher,
	log *zap.Logger,
) *MessageService {
	return &MessageService{
		messages:    messages,
		members:     members,
		directory:   directory,
		guard:       guard,
		broadcaster: broadcaster,
		publisher:   publisher,
		log:         log,
	}
}

// Send persists a message and fans it out to the chat's live room and
// the notification topic. In channels only admins may post.
func (s *MessageService) Send(ctx context.Context, actorID, chatID int, text string) (*models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validation("message text cannot be empty")
	}

	chat, err := s.guard.RequireChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.RequirePoster(ctx, chat, actorID); err != nil {
		return nil, err
	}

	msg, err := s.messages.Create(ctx, chatID, actorID, text)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if name, err := s.directory.UserName(ctx, actorID); err == nil {
		msg.UserName = name
	}

	s.broadcaster.NewMessage(msg)
	s.publisher.MessageSent(ctx, msg)

	s.log.Debug("message sent",
		zap.Int("chat_id", chatID),
		zap.Int64("message_id", msg.ID),
		zap.Int("user_id", actorID),
	)
	return msg, nil
}

// Edit replaces a message's text. Author only; the chat id in the path
// must match the message's chat.
func (s *MessageService) Edit(ctx context.Context, actorID, chatID int, messageID int64, text string) (*models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validation("message text cannot be empty")
	}

	if _, err := s.guard.RequireChat(ctx, chatID); err != nil {
		return nil, err
	}

	msg, err := s.messages.GetByID(ctx, chatID, messageID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if msg == nil {
		return nil, apperr.NotFound("message not found")
	}
	if err := s.guard.RequireAuthor(msg, actorID); err != nil {
		return nil, err
	}

	updated, err := s.messages.UpdateText(ctx, messageID, text)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if updated == nil {
		return nil, apperr.NotFound("message not found")
	}
	updated.UserName = msg.UserName

	s.broadcaster.MessageEdited(updated)
	return updated, nil
}

// Delete hard-deletes a message. Author only.
func (s *MessageService) Delete(ctx context.Context, actorID, chatID int, messageID int64) error {
	if _, err := s.guard.RequireChat(ctx, chatID); err != nil {
		return err
	}

	msg, err := s.messages.GetByID(ctx, chatID, messageID)
	if err != nil {
		return apperr.Internal(err)
	}
	if msg == nil {
		return apperr.NotFound("message not found")
	}
	if err := s.guard.RequireAuthor(msg, actorID); err != nil {
		return err
	}

	deleted, err := s.messages.Delete(ctx, messageID)
	if err != nil {
		return apperr.Internal(err)
	}
	if !deleted {
		return apperr.NotFound("message not found")
	}

	s.broadcaster.MessageDeleted(chatID, messageID)
	return nil
}

// List pages through a chat's history, oldest first. Members only.
func (s *MessageService) List(ctx context.Context, actorID, chatID, limit, offset int) (*MessagePage, error) {
	if _, err := s.guard.CanRead(ctx, chatID, actorID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	msgs, err := s.messages.ListByChat(ctx, chatID, limit, offset)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	total, err := s.messages.CountByChat(ctx, chatID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &MessagePage{
		Messages: msgs,
		Total:    total,
		HasMore:  offset+len(msgs) < total,
	}, nil
}

// MarkRead advances the caller's read pointer to messageID. The pointer
// never moves backwards; re-marking an older message is a no-op. Returns
// the resulting pointer and how many messages the call newly covered.
func (s *MessageService) MarkRead(ctx context.Context, actorID, chatID int, messageID int64) (int64, int, error) {
	if _, err := s.guard.CanRead(ctx, chatID, actorID); err != nil {
		return 0, 0, err
	}

	msg, err := s.messages.GetByID(ctx, chatID, messageID)
	if err != nil {
		return 0, 0, apperr.Internal(err)
	}
	if msg == nil {
		return 0, 0, apperr.Validation("message does not belong to this chat")
	}

	lastRead, marked, err := s.members.AdvanceLastRead(ctx, chatID, actorID, messageID)
	if err != nil {
		return 0, 0, apperr.Internal(err)
	}
	return lastRead, marked, nil
}
