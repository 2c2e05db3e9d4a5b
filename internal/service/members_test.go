package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/teamgrid/chat-service/internal/apperr"
	"github.com/teamgrid/chat-service/internal/models"
	"github.com/teamgrid/chat-service/internal/repository"
)

type memberFixture struct {
	chats     *repository.MockChatRepository
	members   *repository.MockMembershipRepository
	directory *repository.MockDirectoryRepository
	svc       *MemberService
}

func newMemberFixture() *memberFixture {
	f := &memberFixture{
		chats:     &repository.MockChatRepository{},
		members:   &repository.MockMembershipRepository{},
		directory: &repository.MockDirectoryRepository{},
	}
	guard := NewGuard(f.chats, f.members)
	f.svc = NewMemberService(f.members, f.directory, guard, zap.NewNop())
	return f
}

func (f *memberFixture) groupChat(ctx context.Context, chatID int) {
	f.chats.On("GetByID", ctx, chatID).
		Return(&models.Chat{ID: chatID, Type: models.ChatTypeGroup, WorkspaceID: 10}, nil)
}

func (f *memberFixture) admin(ctx context.Context, chatID, userID int) {
	f.members.On("Get", ctx, chatID, userID).
		Return(&models.ChatMember{ChatID: chatID, UserID: userID, Role: models.RoleAdmin}, nil)
}

func TestAddMembers_BestEffort(t *testing.T) {
	f := newMemberFixture()
	ctx := context.Background()

	f.groupChat(ctx, 7)
	f.admin(ctx, 7, 1)
	f.directory.On("IsUserInWorkspace", ctx, 2, 10).Return(true, nil)
	f.directory.On("IsUserInWorkspace", ctx, 3, 10).Return(false, nil)
	f.directory.On("IsUserInWorkspace", ctx, 4, 10).Return(true, nil)
	f.members.On("Add", ctx, 7, 2, models.RoleMember).Return(true, nil)
	// already a member, insert is a no-op
	f.members.On("Add", ctx, 7, 4, models.RoleMember).Return(false, nil)

	added, err := f.svc.Add(ctx, 1, 7, []int{2, 3, 4}, models.RoleMember)

	assert.NoError(t, err)
	assert.Equal(t, []int{2}, added)
}

func TestAddMembers_PersonalRejected(t *testing.T) {
	f := newMemberFixture()
	ctx := context.Background()

	f.chats.On("GetByID", ctx, 7).
		Return(&models.Chat{ID: 7, Type: models.ChatTypePersonal, WorkspaceID: 10}, nil)

	_, err := f.svc.Add(ctx, 1, 7, []int{3}, models.RoleMember)

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestAddMembers_NonAdminForbidden(t *testing.T) {
	f := newMemberFixture()
	ctx := context.Background()

	f.groupChat(ctx, 7)
	f.members.On("Get", ctx, 7, 2).
		Return(&models.ChatMember{ChatID: 7, UserID: 2, Role: models.RoleMember}, nil)

	_, err := f.svc.Add(ctx, 2, 7, []int{3}, models.RoleMember)

	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestAddMembers_InvalidRole(t *testing.T) {
	f := newMemberFixture()
	ctx := context.Background()

	f.groupChat(ctx, 7)
	f.admin(ctx, 7, 1)

	_, err := f.svc.Add(ctx, 1, 7, []int{3}, models.MemberRole(9))

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestListMembers_MemberOnly(t *testing.T) {
	f := newMemberFixture()
	ctx := context.Background()

	f.groupChat(ctx, 7)
	f.members.On("Get", ctx, 7, 5).Return(nil, nil)

	_, err := f.svc.List(ctx, 5, 7)

	assert.Equal(t, apperr.KindMembership, apperr.KindOf(err))
}

func TestUpdateRole_TargetNotMember(t *testing.T) {
	f := newMemberFixture()
	ctx := context.Background()

	f.groupChat(ctx, 7)
	f.admin(ctx, 7, 1)
	f.members.On("UpdateRole", ctx, 7, 9, models.RoleAdmin).Return(false, nil)

	err := f.svc.UpdateRole(ctx, 1, 7, 9, models.RoleAdmin)

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRemoveMember_LastAdmin(t *testing.T) {
	f := newMemberFixture()
	ctx := context.Background()

	f.groupChat(ctx, 7)
	f.admin(ctx, 7, 1)
	f.members.On("CountAdmins", ctx, 7).Return(1, nil)

	err := f.svc.Remove(ctx, 1, 7, 1)

	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	f.members.AssertNotCalled(t, "Remove", ctx, 7, 1)
}

func TestRemoveMember_OK(t *testing.T) {
	f := newMemberFixture()
	ctx := context.Background()

	f.groupChat(ctx, 7)
	f.admin(ctx, 7, 1)
	f.members.On("Get", ctx, 7, 3).
		Return(&models.ChatMember{ChatID: 7, UserID: 3, Role: models.RoleMember}, nil)
	f.members.On("Remove", ctx, 7, 3).Return(true, nil)

	err := f.svc.Remove(ctx, 1, 7, 3)

	assert.NoError(t, err)
	f.members.AssertExpectations(t)
}
