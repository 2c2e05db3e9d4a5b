package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/teamgrid/chat-service/internal/apperr"
	"github.com/teamgrid/chat-service/internal/models"
	"github.com/teamgrid/chat-service/internal/repository"
)

type MemberService struct {
	members   repository.MembershipRepository
	directory repository.DirectoryRepository
	guard     *Guard
	log       *zap.Logger
}

func NewMemberService(
	members repository.MembershipRepository,
	directory repository.DirectoryRepository,
	guard *Guard,
	log *zap.Logger,
) *MemberService {
	return &MemberService{
		members:   members,
		directory: directory,
		guard:     guard,
		log:       log,
	}
}

// Add inserts the requested users as members with the given role. The
// batch is best effort: users already in the chat or outside the
// chat's workspace are skipped, and the returned slice holds only the
// ids actually added.
func (s *MemberService) Add(ctx context.Context, actorID, chatID int, userIDs []int, role models.MemberRole) ([]int, error) {
	chat, err := s.guard.RequireChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.Type == models.ChatTypePersonal {
		return nil, apperr.Validation("cannot add members to personal chat")
	}
	if _, err := s.guard.RequireAdmin(ctx, chatID, actorID); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperr.Validation("invalid role (must be 1 or 2)")
	}

	added := make([]int, 0, len(userIDs))
	for _, userID := range dedupe(userIDs) {
		inWorkspace, err := s.directory.IsUserInWorkspace(ctx, userID, chat.WorkspaceID)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if !inWorkspace {
			s.log.Warn("skipping member outside workspace",
				zap.Int("chat_id", chatID),
				zap.Int("user_id", userID),
			)
			continue
		}

		inserted, err := s.members.Add(ctx, chatID, userID, role)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if inserted {
			added = append(added, userID)
		}
	}

	return added, nil
}

// List returns the chat's members. Any member may see the list.
func (s *MemberService) List(ctx context.Context, actorID, chatID int) ([]models.MemberProfile, error) {
	if _, err := s.guard.CanRead(ctx, chatID, actorID); err != nil {
		return nil, err
	}

	members, err := s.members.List(ctx, chatID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return members, nil
}

// UpdateRole changes a member's chat role. Admin only.
func (s *MemberService) UpdateRole(ctx context.Context, actorID, chatID, targetID int, role models.MemberRole) error {
	if _, err := s.guard.RequireChat(ctx, chatID); err != nil {
		return err
	}
	if _, err := s.guard.RequireAdmin(ctx, chatID, actorID); err != nil {
		return err
	}
	if !role.Valid() {
		return apperr.Validation("invalid role (must be 1 or 2)")
	}

	updated, err := s.members.UpdateRole(ctx, chatID, targetID, role)
	if err != nil {
		return apperr.Internal(err)
	}
	if !updated {
		return apperr.NotFound("user is not a member of this chat")
	}
	return nil
}

// Remove deletes a membership. Admin only, and the last admin of a
// chat cannot be removed.
func (s *MemberService) Remove(ctx context.Context, actorID, chatID, targetID int) error {
	if _, err := s.guard.RequireChat(ctx, chatID); err != nil {
		return err
	}
	if _, err := s.guard.RequireAdmin(ctx, chatID, actorID); err != nil {
		return err
	}

	target, err := s.members.Get(ctx, chatID, targetID)
	if err != nil {
		return apperr.Internal(err)
	}
	if target == nil {
		return apperr.NotFound("user is not a member of this chat")
	}

	if target.Role == models.RoleAdmin {
		admins, err := s.members.CountAdmins(ctx, chatID)
		if err != nil {
			return apperr.Internal(err)
		}
		if admins <= 1 {
			return apperr.Forbidden("cannot remove last admin")
		}
	}

	removed, err := s.members.Remove(ctx, chatID, targetID)
	if err != nil {
		return apperr.Internal(err)
	}
	if !removed {
		return apperr.NotFound("user is not a member of this chat")
	}

	s.log.Info("member removed",
		zap.Int("chat_id", chatID),
		zap.Int("user_id", targetID),
		zap.Int("actor_id", actorID),
	)
	return nil
}
