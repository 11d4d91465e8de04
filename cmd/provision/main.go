package main

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/scheduler"
	appconfig "github.com/diegoclair/slack-auto-away/internal/config"
	"github.com/diegoclair/slack-auto-away/internal/logger"
	"github.com/diegoclair/slack-auto-away/internal/provision"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const serviceName = "auto-away-provision"

func main() {
	_ = godotenv.Load()

	cfg, err := appconfig.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	log, err := logger.New(serviceName, logger.Options{Level: cfg.LogLevel})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create logger")
	}

	ctx := context.Background()
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.WithError(err).Fatal("Failed to load aws config")
	}

	arn, err := provision.EnsureTickSchedule(ctx, log, scheduler.NewFromConfig(awsCfg), provision.TickSchedule{
		Name:       cfg.TickScheduleName,
		Expression: cfg.TickScheduleExpression,
		TargetArn:  cfg.TickFunctionArn,
		RoleArn:    cfg.SchedulerRoleArn,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to provision tick schedule")
	}

	log.WithField("scheduleArn", arn).Info("Tick schedule ready")
}
