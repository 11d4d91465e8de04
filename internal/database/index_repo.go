package database

import (
	"context"
	"fmt"

	"github.com/diegoclair/slack-auto-away/internal/domain"
)

type indexRepo struct {
	db dbConn
}

func newIndexRepo(db dbConn) *indexRepo {
	return &indexRepo{db: db}
}

func (r *indexRepo) ListIDs(ctx context.Context, index domain.IndexName) ([]string, error) {
	query := `
		SELECT user_id
		FROM user_index
		WHERE index_name = ?
		ORDER BY user_id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, string(index))
	if err != nil {
		return nil, fmt.Errorf("failed to list index: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan index entry: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	return ids, nil
}

func (r *indexRepo) Add(ctx context.Context, index domain.IndexName, userID string) error {
	query := `INSERT OR IGNORE INTO user_index (index_name, user_id) VALUES (?, ?)`

	if _, err := r.db.ExecContext(ctx, query, string(index), userID); err != nil {
		return fmt.Errorf("failed to add to index: %w", err)
	}
	return nil
}

func (r *indexRepo) Remove(ctx context.Context, index domain.IndexName, userID string) error {
	query := `DELETE FROM user_index WHERE index_name = ? AND user_id = ?`

	if _, err := r.db.ExecContext(ctx, query, string(index), userID); err != nil {
		return fmt.Errorf("failed to remove from index: %w", err)
	}
	return nil
}
