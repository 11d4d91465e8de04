package main

import (
	"context"
	"errors"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/diegoclair/slack-auto-away/internal/app"
	"github.com/diegoclair/slack-auto-away/internal/config"
	"github.com/diegoclair/slack-auto-away/internal/domain/contract"
	"github.com/diegoclair/slack-auto-away/internal/domain/entity"
	"github.com/diegoclair/slack-auto-away/internal/logger"
	"github.com/sirupsen/logrus"
)

const serviceName = "auto-away-jobs"

var errEmptyJob = errors.New("job event has no type")

type handler struct {
	jobs contract.JobHandler
	log  *logrus.Entry
}

// Handle runs one job delivered by an asynchronous invoke. Job failures are already
// reported to the user, so only malformed events are returned as errors.
func (h *handler) Handle(ctx context.Context, event entity.JobEvent) error {
	if event.Job.Type == "" {
		return errEmptyJob
	}

	if err := h.jobs.HandleJob(ctx, event.Job); err != nil {
		h.log.WithError(err).WithField("jobId", event.Job.ID).Warn("Job finished with error")
	}
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Error("Failed to load config")
		panic(err)
	}

	log, err := logger.New(serviceName, logger.Options{Level: cfg.LogLevel})
	if err != nil {
		panic(err)
	}

	// jobs run here, never re-dispatched
	cfg.JobFunctionArn = ""

	a, err := app.New(context.Background(), cfg, log, nil)
	if err != nil {
		log.WithError(err).Error("Failed to initialize app")
		panic(err)
	}

	h := &handler{jobs: a.Services.Account, log: log}
	lambda.Start(h.Handle)
}
