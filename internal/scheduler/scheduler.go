// Package scheduler triggers a fleet tick on a fixed interval inside the bot process.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/diegoclair/slack-auto-away/internal/domain/contract"
	"github.com/sirupsen/logrus"
)

type Scheduler struct {
	ticks    contract.SchedulerService
	log      *logrus.Entry
	interval time.Duration
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(ticks contract.SchedulerService, log *logrus.Entry, interval time.Duration) *Scheduler {
	return &Scheduler{
		ticks:    ticks,
		log:      log,
		interval: interval,
		now:      time.Now,
	}
}

// Start runs ticks in the background until Stop is called. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.Run(ctx)
	}()

	s.log.WithField("interval", s.interval.String()).Info("scheduler started")
}

// Stop cancels the running tick, if any, and waits for it to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Info("scheduler stopped")
}

// Run ticks once immediately and then on every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.now().UTC()

	report, err := s.ticks.RunTick(ctx, now)
	if err != nil {
		s.log.WithError(err).Error("tick failed")
		return
	}

	s.log.WithFields(logrus.Fields{
		"tickAt":  now.Format(time.RFC3339),
		"updated": report.Updated,
		"skipped": report.Skipped,
		"failed":  report.Failed,
	}).Debug("tick finished")
}
