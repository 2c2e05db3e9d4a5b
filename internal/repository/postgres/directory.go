package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DirectoryStore reads the workspace and user tables owned by the
// Workspace and User services. Read-only from this side.
type DirectoryStore struct {
	pool *pgxpool.Pool
}

func NewDirectoryStore(pool *pgxpool.Pool) *DirectoryStore {
	return &DirectoryStore{pool: pool}
}

func (s *DirectoryStore) WorkspaceExists(ctx context.Context, workspaceID int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM workspaces WHERE id = $1
		)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, workspaceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check workspace existence: %w", err)
	}
	return exists, nil
}

func (s *DirectoryStore) IsUserInWorkspace(ctx context.Context, userID, workspaceID int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM workspace_members
			WHERE user_id = $1 AND workspace_id = $2
		)`

	var isMember bool
	if err := s.pool.QueryRow(ctx, query, userID, workspaceID).Scan(&isMember); err != nil {
		return false, fmt.Errorf("check workspace membership: %w", err)
	}
	return isMember, nil
}

func (s *DirectoryStore) UserName(ctx context.Context, userID int) (string, error) {
	query := `
		SELECT COALESCE(surname || ' ' || name, 'Unknown')
		FROM users
		WHERE id = $1`

	var name string
	err := s.pool.QueryRow(ctx, query, userID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "Unknown", nil
		}
		return "", fmt.Errorf("get user name: %w", err)
	}
	return name, nil
}
