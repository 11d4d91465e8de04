// Package provision keeps the EventBridge schedule that triggers the tick function in place.
package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/scheduler"
	"github.com/aws/aws-sdk-go-v2/service/scheduler/types"
	"github.com/sirupsen/logrus"
)

const scheduleGroup = "default"

type SchedulerAPI interface {
	GetSchedule(ctx context.Context, params *scheduler.GetScheduleInput, optFns ...func(*scheduler.Options)) (*scheduler.GetScheduleOutput, error)
	CreateSchedule(ctx context.Context, params *scheduler.CreateScheduleInput, optFns ...func(*scheduler.Options)) (*scheduler.CreateScheduleOutput, error)
	UpdateSchedule(ctx context.Context, params *scheduler.UpdateScheduleInput, optFns ...func(*scheduler.Options)) (*scheduler.UpdateScheduleOutput, error)
}

type TickSchedule struct {
	Name       string
	Expression string
	TargetArn  string
	RoleArn    string
}

func (s TickSchedule) validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("schedule name is empty"))
	}
	if s.Expression == "" {
		errs = append(errs, errors.New("schedule expression is empty"))
	}
	if s.TargetArn == "" {
		errs = append(errs, errors.New("tick function arn is empty"))
	}
	if s.RoleArn == "" {
		errs = append(errs, errors.New("scheduler role arn is empty"))
	}
	return errors.Join(errs...)
}

// EnsureTickSchedule creates the schedule, or updates it when it already exists.
// It returns the schedule ARN.
func EnsureTickSchedule(ctx context.Context, log *logrus.Entry, client SchedulerAPI, s TickSchedule) (string, error) {
	if err := s.validate(); err != nil {
		return "", fmt.Errorf("invalid tick schedule: %w", err)
	}

	log = log.WithFields(logrus.Fields{
		"scheduleName": s.Name,
		"expression":   s.Expression,
		"targetArn":    s.TargetArn,
	})

	flexible := &types.FlexibleTimeWindow{Mode: types.FlexibleTimeWindowModeOff}
	target := &types.Target{
		Arn:     aws.String(s.TargetArn),
		RoleArn: aws.String(s.RoleArn),
		Input:   aws.String(`{}`),
	}

	existing, err := client.GetSchedule(ctx, &scheduler.GetScheduleInput{
		Name:      aws.String(s.Name),
		GroupName: aws.String(scheduleGroup),
	})
	var notFound *types.ResourceNotFoundException
	switch {
	case errors.As(err, &notFound):
		out, err := client.CreateSchedule(ctx, &scheduler.CreateScheduleInput{
			Name:               aws.String(s.Name),
			GroupName:          aws.String(scheduleGroup),
			ScheduleExpression: aws.String(s.Expression),
			FlexibleTimeWindow: flexible,
			Target:             target,
			State:              types.ScheduleStateEnabled,
		})
		if err != nil {
			return "", fmt.Errorf("failed to create schedule: %w", err)
		}
		log.Info("tick schedule created")
		return aws.ToString(out.ScheduleArn), nil

	case err != nil:
		return "", fmt.Errorf("failed to get schedule: %w", err)
	}

	if aws.ToString(existing.ScheduleExpression) == s.Expression &&
		existing.State == types.ScheduleStateEnabled &&
		existing.Target != nil && aws.ToString(existing.Target.Arn) == s.TargetArn {
		log.Info("tick schedule up to date")
		return aws.ToString(existing.Arn), nil
	}

	out, err := client.UpdateSchedule(ctx, &scheduler.UpdateScheduleInput{
		Name:               aws.String(s.Name),
		GroupName:          aws.String(scheduleGroup),
		ScheduleExpression: aws.String(s.Expression),
		FlexibleTimeWindow: flexible,
		Target:             target,
		State:              types.ScheduleStateEnabled,
	})
	if err != nil {
		return "", fmt.Errorf("failed to update schedule: %w", err)
	}
	log.Info("tick schedule updated")
	return aws.ToString(out.ScheduleArn), nil
}
