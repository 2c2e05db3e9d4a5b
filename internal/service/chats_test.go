package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/teamgrid/chat-service/internal/apperr"
	"github.com/teamgrid/chat-service/internal/events"
	"github.com/teamgrid/chat-service/internal/models"
	"github.com/teamgrid/chat-service/internal/repository"
)

type chatFixture struct {
	chats     *repository.MockChatRepository
	members   *repository.MockMembershipRepository
	messages  *repository.MockMessageRepository
	directory *repository.MockDirectoryRepository
	svc       *ChatService
}

func newChatFixture() *chatFixture {
	f := &chatFixture{
		chats:     &repository.MockChatRepository{},
		members:   &repository.MockMembershipRepository{},
		messages:  &repository.MockMessageRepository{},
		directory: &repository.MockDirectoryRepository{},
	}
	guard := NewGuard(f.chats, f.members)
	f.svc = NewChatService(f.chats, f.members, f.messages, f.directory,
		guard, NopBroadcaster{}, events.NopPublisher{}, zap.NewNop())
	return f
}

func TestCreateChat_Group(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.directory.On("WorkspaceExists", ctx, 10).Return(true, nil)
	f.directory.On("IsUserInWorkspace", ctx, mock.Anything, 10).Return(true, nil)
	f.chats.On("Create", ctx, "backend team", models.ChatTypeGroup, 10, mock.MatchedBy(func(members []models.NewMember) bool {
		if len(members) != 3 {
			return false
		}
		for _, m := range members {
			if m.UserID == 1 && m.Role != models.RoleAdmin {
				return false
			}
			if m.UserID != 1 && m.Role != models.RoleMember {
				return false
			}
		}
		return true
	})).Return(&models.Chat{ID: 7, Name: "backend team", Type: models.ChatTypeGroup, WorkspaceID: 10}, nil)

	chat, count, err := f.svc.Create(ctx, 1, CreateChatInput{
		Name:        "backend team",
		Type:        models.ChatTypeGroup,
		WorkspaceID: 10,
		MemberIDs:   []int{2, 3},
	})

	assert.NoError(t, err)
	assert.Equal(t, 7, chat.ID)
	assert.Equal(t, 3, count)
	f.chats.AssertExpectations(t)
}

func TestCreateChat_InvalidType(t *testing.T) {
	f := newChatFixture()

	_, _, err := f.svc.Create(context.Background(), 1, CreateChatInput{
		Name: "chat", Type: models.ChatType(9), WorkspaceID: 10,
	})

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreateChat_PersonalMemberCount(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	_, _, err := f.svc.Create(ctx, 1, CreateChatInput{
		Type: models.ChatTypePersonal, WorkspaceID: 10, MemberIDs: []int{1, 2, 3},
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, _, err = f.svc.Create(ctx, 1, CreateChatInput{
		Type: models.ChatTypePersonal, WorkspaceID: 10, MemberIDs: []int{2, 3},
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreateChat_PersonalNameDropped(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.directory.On("WorkspaceExists", ctx, 10).Return(true, nil)
	f.directory.On("IsUserInWorkspace", ctx, mock.Anything, 10).Return(true, nil)
	f.chats.On("Create", ctx, "", models.ChatTypePersonal, 10, mock.Anything).
		Return(&models.Chat{ID: 8, Type: models.ChatTypePersonal, WorkspaceID: 10}, nil)

	_, _, err := f.svc.Create(ctx, 1, CreateChatInput{
		Name: "ignored", Type: models.ChatTypePersonal, WorkspaceID: 10, MemberIDs: []int{1, 2},
	})

	assert.NoError(t, err)
	f.chats.AssertExpectations(t)
}

func TestCreateChat_ShortName(t *testing.T) {
	f := newChatFixture()

	_, _, err := f.svc.Create(context.Background(), 1, CreateChatInput{
		Name: "ab", Type: models.ChatTypeGroup, WorkspaceID: 10,
	})

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreateChat_WorkspaceMissing(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.directory.On("WorkspaceExists", ctx, 99).Return(false, nil)

	_, _, err := f.svc.Create(ctx, 1, CreateChatInput{
		Name: "chat", Type: models.ChatTypeGroup, WorkspaceID: 99,
	})

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCreateChat_MemberOutsideWorkspace(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.directory.On("WorkspaceExists", ctx, 10).Return(true, nil)
	f.directory.On("IsUserInWorkspace", ctx, 1, 10).Return(true, nil)
	f.directory.On("IsUserInWorkspace", ctx, 5, 10).Return(false, nil)

	_, _, err := f.svc.Create(ctx, 1, CreateChatInput{
		Name: "chat", Type: models.ChatTypeGroup, WorkspaceID: 10, MemberIDs: []int{1, 5},
	})

	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestGetChat_NotFoundBeforeForbidden(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.chats.On("GetByID", ctx, 404).Return(nil, nil)

	_, err := f.svc.Get(ctx, 1, 404)

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	f.members.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetChat_NonMemberForbidden(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.chats.On("GetByID", ctx, 7).Return(&models.Chat{ID: 7, Type: models.ChatTypeGroup}, nil)
	f.members.On("Get", ctx, 7, 1).Return(nil, nil)

	_, err := f.svc.Get(ctx, 1, 7)

	assert.Equal(t, apperr.KindMembership, apperr.KindOf(err))
	assert.Equal(t, http.StatusForbidden, apperr.HTTPStatus(err))
}

func TestGetChat_ReturnsRoleAndCount(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.chats.On("GetByID", ctx, 7).Return(&models.Chat{ID: 7, Type: models.ChatTypeGroup}, nil)
	f.members.On("Get", ctx, 7, 1).Return(&models.ChatMember{ChatID: 7, UserID: 1, Role: models.RoleAdmin}, nil)
	f.members.On("List", ctx, 7).Return([]models.MemberProfile{{UserID: 1}, {UserID: 2}}, nil)

	details, err := f.svc.Get(ctx, 1, 7)

	assert.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, details.MyRole)
	assert.Equal(t, 2, details.MembersCount)
}

func TestListChats_Decorated(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.chats.On("ListForUser", ctx, 1, (*int)(nil), (*int)(nil)).
		Return([]models.Chat{{ID: 7, Type: models.ChatTypeGroup}}, nil)
	f.messages.On("Last", ctx, 7).Return(&models.Message{ID: 42, ChatID: 7, Text: "hi"}, nil)
	f.messages.On("CountUnread", ctx, 7, 1).Return(3, nil)
	f.members.On("List", ctx, 7).Return([]models.MemberProfile{{UserID: 1}, {UserID: 2}}, nil)

	summaries, err := f.svc.List(ctx, 1, nil, nil)

	assert.NoError(t, err)
	assert.Len(t, summaries, 1)
	assert.Equal(t, int64(42), summaries[0].LastMessage.ID)
	assert.Equal(t, 3, summaries[0].UnreadCount)
	assert.Equal(t, 2, summaries[0].MembersCount)
}

func TestUpdateName_PersonalRejected(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.chats.On("GetByID", ctx, 7).Return(&models.Chat{ID: 7, Type: models.ChatTypePersonal}, nil)

	_, err := f.svc.UpdateName(ctx, 1, 7, "new name")

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUpdateName_NonAdminForbidden(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.chats.On("GetByID", ctx, 7).Return(&models.Chat{ID: 7, Type: models.ChatTypeGroup}, nil)
	f.members.On("Get", ctx, 7, 2).Return(&models.ChatMember{ChatID: 7, UserID: 2, Role: models.RoleMember}, nil)

	_, err := f.svc.UpdateName(ctx, 2, 7, "new name")

	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestDeleteChat_AdminOnly(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.chats.On("GetByID", ctx, 7).Return(&models.Chat{ID: 7, Type: models.ChatTypeGroup}, nil)
	f.members.On("Get", ctx, 7, 1).Return(&models.ChatMember{ChatID: 7, UserID: 1, Role: models.RoleAdmin}, nil)
	f.chats.On("Delete", ctx, 7).Return(true, nil)

	err := f.svc.Delete(ctx, 1, 7)

	assert.NoError(t, err)
	f.chats.AssertExpectations(t)
}
