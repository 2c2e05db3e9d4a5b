package repository

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/teamgrid/chat-service/internal/models"
)

type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) Create(ctx context.Context, name string, chatType models.ChatType, workspaceID int, members []models.NewMember) (*models.Chat, error) {
	args := m.Called(ctx, name, chatType, workspaceID, members)
	if chat, ok := args.Get(0).(*models.Chat); ok {
		return chat, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatRepository) GetByID(ctx context.Context, chatID int) (*models.Chat, error) {
	args := m.Called(ctx, chatID)
	if chat, ok := args.Get(0).(*models.Chat); ok {
		return chat, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatRepository) UpdateName(ctx context.Context, chatID int, name string) (*models.Chat, error) {
	args := m.Called(ctx, chatID, name)
	if chat, ok := args.Get(0).(*models.Chat); ok {
		return chat, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatRepository) Delete(ctx context.Context, chatID int) (bool, error) {
	args := m.Called(ctx, chatID)
	return args.Bool(0), args.Error(1)
}

func (m *MockChatRepository) ListForUser(ctx context.Context, userID int, workspaceID, chatType *int) ([]models.Chat, error) {
	args := m.Called(ctx, userID, workspaceID, chatType)
	if chats, ok := args.Get(0).([]models.Chat); ok {
		return chats, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) Add(ctx context.Context, chatID, userID int, role models.MemberRole) (bool, error) {
	args := m.Called(ctx, chatID, userID, role)
	return args.Bool(0), args.Error(1)
}

func (m *MockMembershipRepository) Remove(ctx context.Context, chatID, userID int) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMembershipRepository) UpdateRole(ctx context.Context, chatID, userID int, role models.MemberRole) (bool, error) {
	args := m.Called(ctx, chatID, userID, role)
	return args.Bool(0), args.Error(1)
}

func (m *MockMembershipRepository) Get(ctx context.Context, chatID, userID int) (*models.ChatMember, error) {
	args := m.Called(ctx, chatID, userID)
	if member, ok := args.Get(0).(*models.ChatMember); ok {
		return member, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMembershipRepository) List(ctx context.Context, chatID int) ([]models.MemberProfile, error) {
	args := m.Called(ctx, chatID)
	if members, ok := args.Get(0).([]models.MemberProfile); ok {
		return members, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMembershipRepository) CountAdmins(ctx context.Context, chatID int) (int, error) {
	args := m.Called(ctx, chatID)
	return args.Int(0), args.Error(1)
}

func (m *MockMembershipRepository) AdvanceLastRead(ctx context.Context, chatID, userID int, messageID int64) (int64, int, error) {
	args := m.Called(ctx, chatID, userID, messageID)
	return args.Get(0).(int64), args.Int(1), args.Error(2)
}

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, chatID, userID int, text string) (*models.Message, error) {
	args := m.Called(ctx, chatID, userID, text)
	if msg, ok := args.Get(0).(*models.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageRepository) GetByID(ctx context.Context, chatID int, messageID int64) (*models.Message, error) {
	args := m.Called(ctx, chatID, messageID)
	if msg, ok := args.Get(0).(*models.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageRepository) UpdateText(ctx context.Context, messageID int64, text string) (*models.Message, error) {
	args := m.Called(ctx, messageID, text)
	if msg, ok := args.Get(0).(*models.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageRepository) Delete(ctx context.Context, messageID int64) (bool, error) {
	args := m.Called(ctx, messageID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMessageRepository) ListByChat(ctx context.Context, chatID, limit, offset int) ([]models.Message, error) {
	args := m.Called(ctx, chatID, limit, offset)
	if msgs, ok := args.Get(0).([]models.Message); ok {
		return msgs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageRepository) CountByChat(ctx context.Context, chatID int) (int, error) {
	args := m.Called(ctx, chatID)
	return args.Int(0), args.Error(1)
}

func (m *MockMessageRepository) Last(ctx context.Context, chatID int) (*models.Message, error) {
	args := m.Called(ctx, chatID)
	if msg, ok := args.Get(0).(*models.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMessageRepository) CountUnread(ctx context.Context, chatID, userID int) (int, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Int(0), args.Error(1)
}

type MockDirectoryRepository struct {
	mock.Mock
}

func (m *MockDirectoryRepository) WorkspaceExists(ctx context.Context, workspaceID int) (bool, error) {
	args := m.Called(ctx, workspaceID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDirectoryRepository) IsUserInWorkspace(ctx context.Context, userID, workspaceID int) (bool, error) {
	args := m.Called(ctx, userID, workspaceID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDirectoryRepository) UserName(ctx context.Context, userID int) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}
