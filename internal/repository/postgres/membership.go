package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamgrid/chat-service/internal/models"
)

type MembershipStore struct {
	pool *pgxpool.Pool
}

func NewMembershipStore(pool *pgxpool.Pool) *MembershipStore {
	return &MembershipStore{pool: pool}
}

func (s *MembershipStore) Add(ctx context.Context, chatID, userID int, role models.MemberRole) (bool, error) {
	query := `
		INSERT INTO chat_members (chat_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (chat_id, user_id) DO NOTHING`

	result, err := s.pool.Exec(ctx, query, chatID, userID, role)
	if err != nil {
		return false, fmt.Errorf("add member: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (s *MembershipStore) Remove(ctx context.Context, chatID, userID int) (bool, error) {
	query := `
		DELETE FROM chat_members
		WHERE chat_id = $1 AND user_id = $2`

	result, err := s.pool.Exec(ctx, query, chatID, userID)
	if err != nil {
		return false, fmt.Errorf("remove member: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (s *MembershipStore) UpdateRole(ctx context.Context, chatID, userID int, role models.MemberRole) (bool, error) {
	query := `
		UPDATE chat_members
		SET role = $1
		WHERE chat_id = $2 AND user_id = $3`

	result, err := s.pool.Exec(ctx, query, role, chatID, userID)
	if err != nil {
		return false, fmt.Errorf("update member role: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (s *MembershipStore) Get(ctx context.Context, chatID, userID int) (*models.ChatMember, error) {
	query := `
		SELECT chat_id, user_id, role, last_read_message_id, joined_at
		FROM chat_members
		WHERE chat_id = $1 AND user_id = $2`

	var m models.ChatMember
	err := s.pool.QueryRow(ctx, query, chatID, userID).Scan(
		&m.ChatID,
		&m.UserID,
		&m.Role,
		&m.LastReadMessageID,
		&m.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return &m, nil
}

func (s *MembershipStore) List(ctx context.Context, chatID int) ([]models.MemberProfile, error) {
	query := `
		SELECT cm.user_id, u.login, u.name, u.surname, cm.role, cm.joined_at
		FROM chat_members cm
		INNER JOIN users u ON cm.user_id = u.id
		WHERE cm.chat_id = $1
		ORDER BY u.surname, u.name`

	rows, err := s.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := make([]models.MemberProfile, 0)
	for rows.Next() {
		var m models.MemberProfile
		if err := rows.Scan(
			&m.UserID,
			&m.Login,
			&m.Name,
			&m.Surname,
			&m.Role,
			&m.JoinedAt,
		); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}

	return members, nil
}

func (s *MembershipStore) CountAdmins(ctx context.Context, chatID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM chat_members
		WHERE chat_id = $1 AND role = $2`

	var count int
	err := s.pool.QueryRow(ctx, query, chatID, models.RoleAdmin).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return count, nil
}

// AdvanceLastRead takes the membership row lock so two concurrent
// mark-read calls for the same user serialize; GREATEST keeps the
// pointer monotonic either way.
func (s *MembershipStore) AdvanceLastRead(ctx context.Context, chatID, userID int, messageID int64) (int64, int, error) {
	query := `
		WITH cur AS (
			SELECT COALESCE(last_read_message_id, 0) AS prev
			FROM chat_members
			WHERE chat_id = $1 AND user_id = $2
			FOR UPDATE
		)
		UPDATE chat_members cm
		SET last_read_message_id = GREATEST((SELECT prev FROM cur), $3)
		WHERE cm.chat_id = $1 AND cm.user_id = $2
		RETURNING cm.last_read_message_id,
			(SELECT COUNT(*) FROM messages m
			 WHERE m.chat_id = $1
			   AND m.id > (SELECT prev FROM cur)
			   AND m.id <= cm.last_read_message_id)`

	var lastRead int64
	var marked int
	err := s.pool.QueryRow(ctx, query, chatID, userID, messageID).Scan(&lastRead, &marked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, fmt.Errorf("membership not found")
		}
		return 0, 0, fmt.Errorf("advance last read: %w", err)
	}
	return lastRead, marked, nil
}
