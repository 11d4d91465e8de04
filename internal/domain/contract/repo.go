package contract

import (
	"context"

	"github.com/diegoclair/slack-auto-away/internal/domain"
	"github.com/diegoclair/slack-auto-away/internal/domain/entity"
)

//go:generate go run go.uber.org/mock/mockgen -source=repo.go -destination=../../../mocks/repo.go -package=mocks

// DataManager aggregates all repository interfaces
type DataManager interface {
	// WithTransaction runs fn against a DataManager bound to a single unit of work.
	// Backends without transactions run fn directly.
	WithTransaction(ctx context.Context, fn func(dm DataManager) error) error
	User() UserRepo
	Index() IndexRepo
}

// UserRepo stores one record per Slack user
type UserRepo interface {
	// Get returns nil, nil when the user has no record.
	Get(ctx context.Context, userID string) (*entity.UserRecord, error)
	// Set merges patch into the stored record, creating it when missing.
	Set(ctx context.Context, userID string, patch entity.UserPatch) error
	Delete(ctx context.Context, userID string) error
}

// IndexRepo keeps the membership lists the scheduler uses to find candidates
type IndexRepo interface {
	ListIDs(ctx context.Context, index domain.IndexName) ([]string, error)
	Add(ctx context.Context, index domain.IndexName, userID string) error
	Remove(ctx context.Context, index domain.IndexName, userID string) error
}
