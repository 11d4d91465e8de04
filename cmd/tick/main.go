package main

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/diegoclair/slack-auto-away/internal/app"
	"github.com/diegoclair/slack-auto-away/internal/config"
	"github.com/diegoclair/slack-auto-away/internal/domain/contract"
	"github.com/diegoclair/slack-auto-away/internal/logger"
	"github.com/sirupsen/logrus"
)

const serviceName = "auto-away-tick"

type tickResult struct {
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type handler struct {
	ticks contract.SchedulerService
	log   *logrus.Entry
}

// Handle runs one fleet tick per EventBridge Scheduler invocation. The payload is ignored.
func (h *handler) Handle(ctx context.Context) (tickResult, error) {
	report, err := h.ticks.RunTick(ctx, time.Now().UTC())
	if err != nil {
		h.log.WithError(err).Error("Tick failed")
		return tickResult{}, err
	}
	return tickResult{Updated: report.Updated, Skipped: report.Skipped, Failed: report.Failed}, nil
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

	a, err := app.New(context.Background(), cfg, log, nil)
	if err != nil {
		log.WithError(err).Error("Failed to initialize app")
		panic(err)
	}

	h := &handler{ticks: a.Services.Scheduler, log: log}
	lambda.Start(h.Handle)
}
