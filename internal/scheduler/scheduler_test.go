package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/diegoclair/slack-auto-away/internal/domain/entity"
	"github.com/diegoclair/slack-auto-away/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func newTestLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func TestScheduler_RunTicksUntilCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	ticks := mocks.NewMockSchedulerService(ctrl)

	fixed := time.Date(2024, 2, 13, 0, 0, 0, 0, time.UTC)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	ticks.EXPECT().RunTick(gomock.Any(), fixed).DoAndReturn(func(context.Context, time.Time) (*entity.TickReport, error) {
		calls++
		if calls == 3 {
			cancel()
		}
		return &entity.TickReport{}, nil
	}).Times(3)

	s := New(ticks, newTestLogger(), time.Millisecond)
	s.now = func() time.Time { return fixed }

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 3, calls)
}

func TestScheduler_TickErrorDoesNotStopTheLoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	ticks := mocks.NewMockSchedulerService(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	gomock.InOrder(
		ticks.EXPECT().RunTick(gomock.Any(), gomock.Any()).Return(nil, errors.New("index unavailable")),
		ticks.EXPECT().RunTick(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, time.Time) (*entity.TickReport, error) {
			cancel()
			return &entity.TickReport{}, nil
		}),
	)

	New(ticks, newTestLogger(), time.Millisecond).Run(ctx)
}

func TestScheduler_StartStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	ticks := mocks.NewMockSchedulerService(ctrl)

	started := make(chan struct{})
	ticks.EXPECT().RunTick(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, time.Time) (*entity.TickReport, error) {
		select {
		case <-started:
		default:
			close(started)
		}
		return &entity.TickReport{}, nil
	}).MinTimes(1)

	s := New(ticks, newTestLogger(), time.Hour)
	s.Start(context.Background())
	s.Start(context.Background())

	<-started
	s.Stop()
	s.Stop()
}
