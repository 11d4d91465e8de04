package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/diegoclair/slack-auto-away/internal/domain"
	"github.com/kelseyhightower/envconfig"
)

const (
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"3000"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE"`

	SlackSigningSecret string `envconfig:"SLACK_SIGNING_SECRET"`
	SlackClientID      string `envconfig:"SLACK_CLIENT_ID"`
	SlackClientSecret  string `envconfig:"SLACK_CLIENT_SECRET"`
	SlackRedirectURL   string `envconfig:"SLACK_REDIRECT_URL"`
	SlackAPIURL        string `envconfig:"SLACK_API_URL"`

	StoreBackend      string `envconfig:"STORE_BACKEND" default:"sqlite"`
	DatabasePath      string `envconfig:"DATABASE_PATH" default:"./auto-away.db"`
	DynamoDBTableName string `envconfig:"DYNAMODB_TABLE_NAME"`

	TickInterval     time.Duration `envconfig:"TICK_INTERVAL" default:"5m"`
	ToleranceMinutes int           `envconfig:"TOLERANCE_MINUTES" default:"10"`
	PageSize         int           `envconfig:"PAGE_SIZE" default:"10"`

	JobFunctionArn         string `envconfig:"JOB_FUNCTION_ARN"`
	TickFunctionArn        string `envconfig:"TICK_FUNCTION_ARN"`
	SchedulerRoleArn       string `envconfig:"SCHEDULER_ROLE_ARN"`
	TickScheduleName       string `envconfig:"TICK_SCHEDULE_NAME" default:"auto-away-tick"`
	TickScheduleExpression string `envconfig:"TICK_SCHEDULE_EXPRESSION" default:"rate(5 minutes)"`
}

// Load reads environment variables into Config and validates them.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize))
	}
	if c.ToleranceMinutes <= 0 {
		errs = append(errs, fmt.Errorf("TOLERANCE_MINUTES must be positive, got %d", c.ToleranceMinutes))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("TICK_INTERVAL must be positive, got %s", c.TickInterval))
	}

	switch c.StoreBackend {
	case BackendSQLite:
		if c.DatabasePath == "" {
			errs = append(errs, errors.New("DATABASE_PATH is not set"))
		}
	case BackendDynamoDB:
		if c.DynamoDBTableName == "" {
			errs = append(errs, errors.New("DYNAMODB_TABLE_NAME is not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	return errors.Join(errs...)
}

// Warnings lists settings that are accepted but likely to misbehave.
func (c *Config) Warnings() []string {
	var warnings []string

	if c.ToleranceMinutes > domain.MaxToleranceMinutes {
		warnings = append(warnings, fmt.Sprintf(
			"TOLERANCE_MINUTES=%d makes the auto and away windows cover the whole day", c.ToleranceMinutes))
	}

	window := time.Duration(2*c.ToleranceMinutes) * time.Minute
	if c.TickInterval >= window {
		warnings = append(warnings, fmt.Sprintf(
			"TICK_INTERVAL=%s is not shorter than the %s window, some transitions can be missed", c.TickInterval, window))
	}

	return warnings
}
