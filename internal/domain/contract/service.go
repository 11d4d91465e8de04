package contract

import (
	"context"
	"time"

	"github.com/diegoclair/slack-auto-away/internal/domain/entity"
)

//go:generate go run go.uber.org/mock/mockgen -source=service.go -destination=../../../mocks/service.go -package=mocks

type PresenceService interface {
	// ProcessUser never returns an error; failures are reported in the outcome.
	ProcessUser(ctx context.Context, record *entity.UserRecord, now time.Time) entity.Outcome
}

type SchedulerService interface {
	RunTick(ctx context.Context, now time.Time) (*entity.TickReport, error)
}

type AccountService interface {
	CompleteOAuth(ctx context.Context, code string) (*entity.OAuthGrant, error)
	Enqueue(ctx context.Context, job entity.Job) (string, error)
	Status(ctx context.Context, userID string) (*entity.UserStatus, error)
	Diagnose(ctx context.Context, userID string, now time.Time) (*entity.Diagnosis, error)
	SyncTimezone(ctx context.Context, userID, timezoneName string) error
}

// JobDispatcher hands a job to whatever runs jobs outside the request path.
type JobDispatcher interface {
	Dispatch(ctx context.Context, job entity.Job) error
}

type JobHandler interface {
	HandleJob(ctx context.Context, job entity.Job) error
}
