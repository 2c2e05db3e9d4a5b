package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamgrid/chat-service/internal/models"
)

type ChatStore struct {
	pool *pgxpool.Pool
}

func NewChatStore(pool *pgxpool.Pool) *ChatStore {
	return &ChatStore{pool: pool}
}

func (s *ChatStore) Create(ctx context.Context, name string, chatType models.ChatType, workspaceID int, members []models.NewMember) (*models.Chat, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO chats (name, type, workspace_id, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id, name, type, workspace_id, created_at, updated_at`

	var chat models.Chat
	err = tx.QueryRow(ctx, query, name, chatType, workspaceID).Scan(
		&chat.ID,
		&chat.Name,
		&chat.Type,
		&chat.WorkspaceID,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chat: %w", err)
	}

	memberQuery := `
		INSERT INTO chat_members (chat_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, now())`
	for _, m := range members {
		if _, err := tx.Exec(ctx, memberQuery, chat.ID, m.UserID, m.Role); err != nil {
			return nil, fmt.Errorf("insert membership: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &chat, nil
}

func (s *ChatStore) GetByID(ctx context.Context, chatID int) (*models.Chat, error) {
	query := `
		SELECT id, name, type, workspace_id, created_at, updated_at
		FROM chats
		WHERE id = $1`

	var chat models.Chat
	err := s.pool.QueryRow(ctx, query, chatID).Scan(
		&chat.ID,
		&chat.Name,
		&chat.Type,
		&chat.WorkspaceID,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get chat: %w", err)
	}
	return &chat, nil
}

func (s *ChatStore) UpdateName(ctx context.Context, chatID int, name string) (*models.Chat, error) {
	query := `
		UPDATE chats
		SET name = $1, updated_at = now()
		WHERE id = $2
		RETURNING id, name, type, workspace_id, created_at, updated_at`

	var chat models.Chat
	err := s.pool.QueryRow(ctx, query, name, chatID).Scan(
		&chat.ID,
		&chat.Name,
		&chat.Type,
		&chat.WorkspaceID,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update chat: %w", err)
	}
	return &chat, nil
}

func (s *ChatStore) Delete(ctx context.Context, chatID int) (bool, error) {
	// chat_members and messages reference chats with ON DELETE CASCADE.
	result, err := s.pool.Exec(ctx, `DELETE FROM chats WHERE id = $1`, chatID)
	if err != nil {
		return false, fmt.Errorf("delete chat: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (s *ChatStore) ListForUser(ctx context.Context, userID int, workspaceID, chatType *int) ([]models.Chat, error) {
	query := `
		SELECT c.id, c.name, c.type, c.workspace_id, c.created_at, c.updated_at
		FROM chats c
		INNER JOIN chat_members cm ON c.id = cm.chat_id
		WHERE cm.user_id = $1
		  AND ($2::int IS NULL OR c.workspace_id = $2)
		  AND ($3::int IS NULL OR c.type = $3)
		ORDER BY c.id`

	rows, err := s.pool.Query(ctx, query, userID, workspaceID, chatType)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	chats := make([]models.Chat, 0)
	for rows.Next() {
		var chat models.Chat
		if err := rows.Scan(
			&chat.ID,
			&chat.Name,
			&chat.Type,
			&chat.WorkspaceID,
			&chat.CreatedAt,
			&chat.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}

	return chats, nil
}
