// Package app wires config, storage, Slack and job dispatch into the domain services.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/diegoclair/slack-auto-away/internal/config"
	"github.com/diegoclair/slack-auto-away/internal/database"
	"github.com/diegoclair/slack-auto-away/internal/domain/contract"
	"github.com/diegoclair/slack-auto-away/internal/domain/service"
	"github.com/diegoclair/slack-auto-away/internal/dynamo"
	"github.com/diegoclair/slack-auto-away/internal/jobs"
	"github.com/diegoclair/slack-auto-away/internal/slackapi"
	"github.com/diegoclair/slack-auto-away/migrator/sqlite"
	"github.com/sirupsen/logrus"
)

type App struct {
	Config   *config.Config
	Log      *logrus.Entry
	Data     contract.DataManager
	Slack    *slackapi.Client
	Services *service.Instance

	inline  *jobs.Inline
	awsCfg  *aws.Config
	closers []func() error
}

// New builds the application. HTTPClient may be nil.
func New(ctx context.Context, cfg *config.Config, log *logrus.Entry, httpClient *http.Client) (*App, error) {
	a := &App{Config: cfg, Log: log}

	dm, err := a.newDataManager(ctx)
	if err != nil {
		return nil, err
	}
	a.Data = dm

	a.Slack = slackapi.New(slackapi.Config{
		ClientID:     cfg.SlackClientID,
		ClientSecret: cfg.SlackClientSecret,
		RedirectURL:  cfg.SlackRedirectURL,
		APIURL:       cfg.SlackAPIURL,
	}, httpClient)

	dispatcher, err := a.newDispatcher(ctx)
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}

	a.Services = service.NewInstance(dm, a.Slack, dispatcher, log, service.Options{
		ToleranceMinutes: cfg.ToleranceMinutes,
		PageSize:         cfg.PageSize,
	})
	if a.inline != nil {
		a.inline.Bind(a.Services.Account)
	}

	return a, nil
}

func (a *App) newDataManager(ctx context.Context) (contract.DataManager, error) {
	switch a.Config.StoreBackend {
	case config.BackendSQLite:
		db, err := database.New(a.Config.DatabasePath)
		if err != nil {
			return nil, err
		}
		if err := sqlite.Migrate(db.DB()); err != nil {
			return nil, errors.Join(err, db.Close())
		}
		a.closers = append(a.closers, db.Close)
		a.Log.WithField("path", a.Config.DatabasePath).Info("using sqlite store")
		return database.NewInstance(db), nil

	case config.BackendDynamoDB:
		awsCfg, err := a.aws(ctx)
		if err != nil {
			return nil, err
		}
		a.Log.WithField("table", a.Config.DynamoDBTableName).Info("using dynamodb store")
		return dynamo.NewInstance(a.Log, dynamodb.NewFromConfig(awsCfg), a.Config.DynamoDBTableName), nil
	}

	return nil, fmt.Errorf("unknown store backend %q", a.Config.StoreBackend)
}

// newDispatcher invokes the jobs function when one is configured and runs jobs in-process otherwise.
func (a *App) newDispatcher(ctx context.Context) (contract.JobDispatcher, error) {
	if a.Config.JobFunctionArn == "" {
		a.inline = jobs.NewInline(a.Log, 0)
		return a.inline, nil
	}

	awsCfg, err := a.aws(ctx)
	if err != nil {
		return nil, err
	}
	return jobs.NewLambda(a.Log, lambda.NewFromConfig(awsCfg), a.Config.JobFunctionArn), nil
}

func (a *App) aws(ctx context.Context) (aws.Config, error) {
	if a.awsCfg != nil {
		return *a.awsCfg, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}
	a.awsCfg = &cfg
	return cfg, nil
}

// Close waits for in-process jobs and releases the store.
func (a *App) Close() error {
	if a.inline != nil {
		a.inline.Wait()
	}

	var errs []error
	for _, closer := range a.closers {
		errs = append(errs, closer())
	}
	a.closers = nil
	return errors.Join(errs...)
}
