package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/diegoclair/slack-auto-away/internal/domain/entity"
)

type userRepo struct {
	db  dbConn
	now func() time.Time
}

func newUserRepo(db dbConn, now func() time.Time) *userRepo {
	return &userRepo{db: db, now: now}
}

func (r *userRepo) Get(ctx context.Context, userID string) (*entity.UserRecord, error) {
	query := `
		SELECT user_id, auth_token, timezone_name, schedule, updated_at
		FROM users
		WHERE user_id = ?
	`

	var (
		record   entity.UserRecord
		schedule sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&record.UserID,
		&record.AuthToken,
		&record.TimezoneName,
		&schedule,
		&record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if schedule.Valid && schedule.String != "" {
		record.Schedule = &entity.UserSchedule{}
		if err := json.Unmarshal([]byte(schedule.String), record.Schedule); err != nil {
			return nil, fmt.Errorf("failed to decode schedule: %w", err)
		}
	}

	return &record, nil
}

// Set reads, merges and writes back. Run it inside WithTransaction when concurrent writers are possible.
func (r *userRepo) Set(ctx context.Context, userID string, patch entity.UserPatch) error {
	existing, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}

	merged := entity.Merge(existing, userID, patch, r.now().UTC())

	var schedule sql.NullString
	if merged.Schedule != nil {
		raw, err := json.Marshal(merged.Schedule)
		if err != nil {
			return fmt.Errorf("failed to encode schedule: %w", err)
		}
		schedule = sql.NullString{String: string(raw), Valid: true}
	}

	query := `
		INSERT INTO users (user_id, auth_token, timezone_name, schedule, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			auth_token = excluded.auth_token,
			timezone_name = excluded.timezone_name,
			schedule = excluded.schedule,
			updated_at = excluded.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		merged.UserID,
		merged.AuthToken,
		merged.TimezoneName,
		schedule,
		merged.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}

	return nil
}

func (r *userRepo) Delete(ctx context.Context, userID string) error {
	query := `DELETE FROM users WHERE user_id = ?`

	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}
