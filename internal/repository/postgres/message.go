package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamgrid/chat-service/internal/models"
)

// messageLockClass namespaces the advisory locks used for message
// sequencing so they cannot collide with other advisory lock users of
// the shared database.
const messageLockClass = 4201

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

// Create inserts the message inside a transaction that holds a per-chat
// advisory lock. Two concurrent sends to the same chat serialize, so
// ids within a chat are assigned in send order; sends to different
// chats do not contend.
func (s *MessageStore) Create(ctx context.Context, chatID, userID int, text string) (*models.Message, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, messageLockClass, chatID); err != nil {
		return nil, fmt.Errorf("acquire chat lock: %w", err)
	}

	query := `
		INSERT INTO messages (chat_id, user_id, text, created_at, edited)
		VALUES ($1, $2, $3, now(), false)
		RETURNING id, chat_id, user_id, text, created_at, edited, edited_at`

	var msg models.Message
	err = tx.QueryRow(ctx, query, chatID, userID, text).Scan(
		&msg.ID,
		&msg.ChatID,
		&msg.UserID,
		&msg.Text,
		&msg.CreatedAt,
		&msg.Edited,
		&msg.EditedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &msg, nil
}

func (s *MessageStore) GetByID(ctx context.Context, chatID int, messageID int64) (*models.Message, error) {
	query := `
		SELECT id, chat_id, user_id, text, created_at, edited, edited_at
		FROM messages
		WHERE id = $1 AND chat_id = $2`

	var msg models.Message
	err := s.pool.QueryRow(ctx, query, messageID, chatID).Scan(
		&msg.ID,
		&msg.ChatID,
		&msg.UserID,
		&msg.Text,
		&msg.CreatedAt,
		&msg.Edited,
		&msg.EditedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return &msg, nil
}

func (s *MessageStore) UpdateText(ctx context.Context, messageID int64, text string) (*models.Message, error) {
	query := `
		UPDATE messages
		SET text = $1, edited = true, edited_at = now()
		WHERE id = $2
		RETURNING id, chat_id, user_id, text, created_at, edited, edited_at`

	var msg models.Message
	err := s.pool.QueryRow(ctx, query, text, messageID).Scan(
		&msg.ID,
		&msg.ChatID,
		&msg.UserID,
		&msg.Text,
		&msg.CreatedAt,
		&msg.Edited,
		&msg.EditedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update message: %w", err)
	}
	return &msg, nil
}

func (s *MessageStore) Delete(ctx context.Context, messageID int64) (bool, error) {
	result, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, messageID)
	if err != nil {
		return false, fmt.Errorf("delete message: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (s *MessageStore) ListByChat(ctx context.Context, chatID, limit, offset int) ([]models.Message, error) {
	// Oldest first: history renders top-down and live events append.
	query := `
		SELECT m.id, m.chat_id, m.user_id,
		       COALESCE(u.surname || ' ' || u.name, 'Unknown') AS user_name,
		       m.text, m.created_at, m.edited, m.edited_at
		FROM messages m
		LEFT JOIN users u ON m.user_id = u.id
		WHERE m.chat_id = $1
		ORDER BY m.id
		LIMIT $2 OFFSET $3`

	rows, err := s.pool.Query(ctx, query, chatID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ChatID,
			&msg.UserID,
			&msg.UserName,
			&msg.Text,
			&msg.CreatedAt,
			&msg.Edited,
			&msg.EditedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

func (s *MessageStore) CountByChat(ctx context.Context, chatID int) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE chat_id = $1`, chatID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}

func (s *MessageStore) Last(ctx context.Context, chatID int) (*models.Message, error) {
	query := `
		SELECT m.id, m.chat_id, m.user_id,
		       COALESCE(u.surname || ' ' || u.name, 'Unknown') AS user_name,
		       m.text, m.created_at, m.edited, m.edited_at
		FROM messages m
		LEFT JOIN users u ON m.user_id = u.id
		WHERE m.chat_id = $1
		ORDER BY m.id DESC
		LIMIT 1`

	var msg models.Message
	err := s.pool.QueryRow(ctx, query, chatID).Scan(
		&msg.ID,
		&msg.ChatID,
		&msg.UserID,
		&msg.UserName,
		&msg.Text,
		&msg.CreatedAt,
		&msg.Edited,
		&msg.EditedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get last message: %w", err)
	}
	return &msg, nil
}

func (s *MessageStore) CountUnread(ctx context.Context, chatID, userID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM messages m
		WHERE m.chat_id = $1
		  AND m.user_id <> $2
		  AND m.id > COALESCE(
			(SELECT last_read_message_id FROM chat_members
			 WHERE chat_id = $1 AND user_id = $2), 0)`

	var count int
	err := s.pool.QueryRow(ctx, query, chatID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}
