// Package jobs dispatches account jobs either in-process or to a Lambda function.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/diegoclair/slack-auto-away/internal/domain/contract"
	"github.com/diegoclair/slack-auto-away/internal/domain/entity"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
)

const defaultJobTimeout = 30 * time.Second

var errNoHandler = errors.New("job dispatcher has no handler bound")

// Inline runs jobs on background goroutines of the current process.
type Inline struct {
	handler contract.JobHandler
	log     *logrus.Entry
	timeout time.Duration
	wg      conc.WaitGroup
}

func NewInline(log *logrus.Entry, timeout time.Duration) *Inline {
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	return &Inline{log: log, timeout: timeout}
}

// Bind sets the handler. The account service is both the producer and the
// consumer of jobs, so it can only be bound after it is built.
func (d *Inline) Bind(handler contract.JobHandler) {
	d.handler = handler
}

// Dispatch returns immediately; the job outlives the request context.
func (d *Inline) Dispatch(ctx context.Context, job entity.Job) error {
	if d.handler == nil {
		return errNoHandler
	}

	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	d.wg.Go(func() {
		defer cancel()

		log := d.log.WithFields(logrus.Fields{
			"jobId":   job.ID,
			"jobType": job.Type,
			"userId":  job.UserID,
		})
		if err := d.handler.HandleJob(jobCtx, job); err != nil {
			log.WithError(err).Error("job failed")
			return
		}
		log.Debug("job done")
	})

	return nil
}

// Wait blocks until every dispatched job has returned.
func (d *Inline) Wait() {
	if r := d.wg.WaitAndRecover(); r != nil {
		d.log.Errorf("job panicked: %v", r.Value)
	}
}
