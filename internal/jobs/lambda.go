package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/diegoclair/slack-auto-away/internal/domain/entity"
	"github.com/sirupsen/logrus"
)

// LambdaAPI is the part of the lambda client the dispatcher needs.
type LambdaAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// Lambda hands jobs to the jobs function with an asynchronous invoke.
type Lambda struct {
	client       LambdaAPI
	functionName string
	log          *logrus.Entry
	attempts     uint
	delay        time.Duration
}

func NewLambda(log *logrus.Entry, client LambdaAPI, functionName string) *Lambda {
	return &Lambda{
		client:       client,
		functionName: functionName,
		log:          log,
		attempts:     3,
		delay:        200 * time.Millisecond,
	}
}

func (d *Lambda) Dispatch(ctx context.Context, job entity.Job) error {
	payload, err := json.Marshal(entity.JobEvent{Job: job})
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	input := &lambda.InvokeInput{
		FunctionName:   aws.String(d.functionName),
		InvocationType: types.InvocationTypeEvent,
		Payload:        payload,
	}

	err = retry.Do(
		func() error {
			out, err := d.client.Invoke(ctx, input)
			if err != nil {
				return err
			}
			if out.FunctionError != nil {
				return retry.Unrecoverable(fmt.Errorf("function error: %s", aws.ToString(out.FunctionError)))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(d.attempts),
		retry.Delay(d.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			d.log.WithError(err).WithField("attempt", n+1).Warn("retrying job invoke")
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to invoke %s: %w", d.functionName, err)
	}

	d.log.WithFields(logrus.Fields{
		"jobId":   job.ID,
		"jobType": job.Type,
	}).Info("job dispatched")
	return nil
}
