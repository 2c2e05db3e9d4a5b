package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/teamgrid/chat-service/internal/apperr"
	"github.com/teamgrid/chat-service/internal/events"
	"github.com/teamgrid/chat-service/internal/models"
	"github.com/teamgrid/chat-service/internal/repository"
)

type recordingBroadcaster struct {
	newMessages []*models.Message
	edited      []*models.Message
	deleted     []int64
	evicted     []int
}

func (r *recordingBroadcaster) NewMessage(msg *models.Message)    { r.newMessages = append(r.newMessages, msg) }
func (r *recordingBroadcaster) MessageEdited(msg *models.Message) { r.edited = append(r.edited, msg) }
func (r *recordingBroadcaster) MessageDeleted(chatID int, messageID int64) {
	r.deleted = append(r.deleted, messageID)
}
func (r *recordingBroadcaster) EvictChat(chatID int) { r.evicted = append(r.evicted, chatID) }

type messageFixture struct {
	chats       *repository.MockChatRepository
	members     *repository.MockMembershipRepository
	messages    *repository.MockMessageRepository
	directory   *repository.MockDirectoryRepository
	broadcaster *recordingBroadcaster
	svc         *MessageService
}

func newMessageFixture() *messageFixture {
	f := &messageFixture{
		chats:       &repository.MockChatRepository{},
		members:     &repository.MockMembershipRepository{},
		messages:    &repository.MockMessageRepository{},
		directory:   &repository.MockDirectoryRepository{},
		broadcaster: &recordingBroadcaster{},
	}
	guard := NewGuard(f.chats, f.members)
	f.svc = NewMessageService(f.messages, f.members, f.directory,
		guard, f.broadcaster, events.NopPublisher{}, zap.NewNop())
	return f
}

func (f *messageFixture) chat(ctx context.Context, chatID int, chatType models.ChatType) {
	f.chats.On("GetByID", ctx, chatID).
		Return(&models.Chat{ID: chatID, Type: chatType, WorkspaceID: 10}, nil)
}

func (f *messageFixture) member(ctx context.Context, chatID, userID int, role models.MemberRole) {
	f.members.On("Get", ctx, chatID, userID).
		Return(&models.ChatMember{ChatID: chatID, UserID: userID, Role: role}, nil)
}

func TestSendMessage_Broadcasts(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	f.chat(ctx, 7, models.ChatTypeGroup)
	f.member(ctx, 7, 1, models.RoleMember)
	f.messages.On("Create", ctx, 7, 1, "hello").
		Return(&models.Message{ID: 42, ChatID: 7, UserID: 1, Text: "hello"}, nil)
	f.directory.On("UserName", ctx, 1).Return("Ivanov Ivan", nil)

	msg, err := f.svc.Send(ctx, 1, 7, "hello")

	assert.NoError(t, err)
	assert.Equal(t, "Ivanov Ivan", msg.UserName)
	assert.Len(t, f.broadcaster.newMessages, 1)
	assert.Equal(t, int64(42), f.broadcaster.newMessages[0].ID)
}

func TestSendMessage_EmptyText(t *testing.T) {
	f := newMessageFixture()

	_, err := f.svc.Send(context.Background(), 1, 7, "   ")

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	f.chats.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestSendMessage_ChannelMemberForbidden(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	f.chat(ctx, 7, models.ChatTypeChannel)
	f.member(ctx, 7, 2, models.RoleMember)

	_, err := f.svc.Send(ctx, 2, 7, "hello")

	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestSendMessage_ChannelAdminAllowed(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	f.chat(ctx, 7, models.ChatTypeChannel)
	f.member(ctx, 7, 1, models.RoleAdmin)
	f.messages.On("Create", ctx, 7, 1, "announcement").
		Return(&models.Message{ID: 43, ChatID: 7, UserID: 1, Text: "announcement"}, nil)
	f.directory.On("UserName", ctx, 1).Return("Ivanov Ivan", nil)

	_, err := f.svc.Send(ctx, 1, 7, "announcement")

	assert.NoError(t, err)
}

func TestEditMessage_AuthorOnly(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	f.chat(ctx, 7, models.ChatTypeGroup)
	f.messages.On("GetByID", ctx, 7, int64(42)).
		Return(&models.Message{ID: 42, ChatID: 7, UserID: 1, Text: "hello"}, nil)

	// admin role does not grant edit rights over someone else's message
	_, err := f.svc.Edit(ctx, 2, 7, 42, "edited")

	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	f.messages.AssertNotCalled(t, "UpdateText", mock.Anything, mock.Anything, mock.Anything)
}

func TestEditMessage_OK(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	f.chat(ctx, 7, models.ChatTypeGroup)
	f.messages.On("GetByID", ctx, 7, int64(42)).
		Return(&models.Message{ID: 42, ChatID: 7, UserID: 1, Text: "hello", UserName: "Ivanov Ivan"}, nil)
	f.messages.On("UpdateText", ctx, int64(42), "edited").
		Return(&models.Message{ID: 42, ChatID: 7, UserID: 1, Text: "edited", Edited: true}, nil)

	msg, err := f.svc.Edit(ctx, 1, 7, 42, "edited")

	assert.NoError(t, err)
	assert.True(t, msg.Edited)
	assert.Equal(t, "Ivanov Ivan", msg.UserName)
	assert.Len(t, f.broadcaster.edited, 1)
}

func TestEditMessage_WrongChat(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	f.chat(ctx, 8, models.ChatTypeGroup)
	f.messages.On("GetByID", ctx, 8, int64(42)).Return(nil, nil)

	_, err := f.svc.Edit(ctx, 1, 8, 42, "edited")

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteMessage_Broadcasts(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	f.chat(ctx, 7, models.ChatTypeGroup)
	f.messages.On("GetByID", ctx, 7, int64(42)).
		Return(&models.Message{ID: 42, ChatID: 7, UserID: 1}, nil)
	f.messages.On("Delete", ctx, int64(42)).Return(true, nil)

	err := f.svc.Delete(ctx, 1, 7, 42)

	assert.NoError(t, err)
	assert.Equal(t, []int64{42}, f.broadcaster.deleted)
}

func TestListMessages_Paging(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	f.chat(ctx, 7, models.ChatTypeGroup)
	f.member(ctx, 7, 1, models.RoleMember)
	f.messages.On("ListByChat", ctx, 7, 50, 0).
		Return([]models.Message{{ID: 1, ChatID: 7}, {ID: 2, ChatID: 7}}, nil)
	f.messages.On("CountByChat", ctx, 7).Return(5, nil)

	page, err := f.svc.List(ctx, 1, 7, 0, 0)

	assert.NoError(t, err)
	assert.Len(t, page.Messages, 2)
	assert.Equal(t, 5, page.Total)
	assert.True(t, page.HasMore)
}

func TestListMessages_LimitCapped(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	f.chat(ctx, 7, models.ChatTypeGroup)
	f.member(ctx, 7, 1, models.RoleMember)
	f.messages.On("ListByChat", ctx, 7, 100, 0).Return([]models.Message{}, nil)
	f.messages.On("CountByChat", ctx, 7).Return(0, nil)

	page, err := f.svc.List(ctx, 1, 7, 500, 0)

	assert.NoError(t, err)
	assert.False(t, page.HasMore)
	f.messages.AssertExpectations(t)
}

func TestMarkRead_OK(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	f.chat(ctx, 7, models.ChatTypeGroup)
	f.member(ctx, 7, 1, models.RoleMember)
	f.messages.On("GetByID", ctx, 7, int64(42)).
		Return(&models.Message{ID: 42, ChatID: 7, UserID: 2}, nil)
	f.members.On("AdvanceLastRead", ctx, 7, 1, int64(42)).Return(int64(42), 3, nil)

	lastRead, marked, err := f.svc.MarkRead(ctx, 1, 7, 42)

	assert.NoError(t, err)
	assert.Equal(t, int64(42), lastRead)
	assert.Equal(t, 3, marked)
}

func TestMarkRead_MessageInOtherChat(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	f.chat(ctx, 7, models.ChatTypeGroup)
	f.member(ctx, 7, 1, models.RoleMember)
	f.messages.On("GetByID", ctx, 7, int64(99)).Return(nil, nil)

	_, _, err := f.svc.MarkRead(ctx, 1, 7, 99)

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	f.members.AssertNotCalled(t, "AdvanceLastRead", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkRead_OlderMessageNoop(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	f.chat(ctx, 7, models.ChatTypeGroup)
	f.member(ctx, 7, 1, models.RoleMember)
	f.messages.On("GetByID", ctx, 7, int64(10)).
		Return(&models.Message{ID: 10, ChatID: 7, UserID: 2}, nil)
	// pointer already at 42, marking 10 keeps it there and covers nothing
	f.members.On("AdvanceLastRead", ctx, 7, 1, int64(10)).Return(int64(42), 0, nil)

	lastRead, marked, err := f.svc.MarkRead(ctx, 1, 7, 10)

	assert.NoError(t, err)
	assert.Equal(t, int64(42), lastRead)
	assert.Equal(t, 0, marked)
}
