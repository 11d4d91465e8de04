package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/diegoclair/slack-auto-away/internal/domain"
	"github.com/diegoclair/slack-auto-away/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func expectIndices(mocks allMocks, auth, timezone, schedule []string) {
	mocks.mockIndexRepo.EXPECT().ListIDs(gomock.Any(), domain.IndexHasAuth).Return(auth, nil).Times(1)
	mocks.mockIndexRepo.EXPECT().ListIDs(gomock.Any(), domain.IndexHasTimezone).Return(timezone, nil).Times(1)
	mocks.mockIndexRepo.EXPECT().ListIDs(gomock.Any(), domain.IndexHasSchedule).Return(schedule, nil).Times(1)
}

func outcomesByUser(report *entity.TickReport) map[string]entity.Outcome {
	byUser := make(map[string]entity.Outcome, len(report.Outcomes))
	for _, o := range report.Outcomes {
		byUser[o.UserID] = o
	}
	return byUser
}

func Test_schedulerService_RunTick(t *testing.T) {
	tests := []struct {
		name      string
		buildMock func(ctx context.Context, mocks allMocks)
		check     func(t *testing.T, report *entity.TickReport)
		wantErr   bool
	}{
		{
			name: "Should only process users present in every index",
			buildMock: func(ctx context.Context, mocks allMocks) {
				expectIndices(mocks,
					[]string{"U3", "U1", "U2"},
					[]string{"U1", "U3"},
					[]string{"U3", "U1", "U4"},
				)
				for _, id := range []string{"U1", "U3"} {
					mocks.mockUserRepo.EXPECT().Get(gomock.Any(), id).Return(reginaRecord(id), nil).Times(1)
					mocks.mockSlackClient.EXPECT().GetPresence(gomock.Any(), testToken, id).Return(entity.PresenceAuto, nil).Times(1)
				}
				mocks.mockSlackClient.EXPECT().SetPresence(gomock.Any(), testToken, entity.PresenceAway).Return(nil).Times(2)
			},
			check: func(t *testing.T, report *entity.TickReport) {
				assert.Equal(t, 2, report.Candidates)
				assert.Equal(t, 2, report.Updated)
				assert.Equal(t, []string{"U1", "U3"}, []string{report.Outcomes[0].UserID, report.Outcomes[1].UserID})
			},
		},
		{
			name: "Should keep going when one user fails",
			buildMock: func(ctx context.Context, mocks allMocks) {
				ids := []string{"U1", "U2", "U3"}
				expectIndices(mocks, ids, ids, ids)
				for _, id := range ids {
					mocks.mockUserRepo.EXPECT().Get(gomock.Any(), id).Return(reginaRecord(id), nil).Times(1)
					mocks.mockSlackClient.EXPECT().GetPresence(gomock.Any(), testToken, id).Return(entity.PresenceAuto, nil).Times(1)
				}
				// the token is shared, so fail the second call only
				gomock.InOrder(
					mocks.mockSlackClient.EXPECT().SetPresence(gomock.Any(), testToken, entity.PresenceAway).Return(nil).Times(1),
					mocks.mockSlackClient.EXPECT().SetPresence(gomock.Any(), testToken, entity.PresenceAway).Return(errors.New("invalid_auth")).Times(1),
					mocks.mockSlackClient.EXPECT().SetPresence(gomock.Any(), testToken, entity.PresenceAway).Return(nil).Times(1),
				)
			},
			check: func(t *testing.T, report *entity.TickReport) {
				assert.Equal(t, 3, report.Candidates)
				assert.Equal(t, 2, report.Updated)
				assert.Equal(t, 1, report.Failed)
				assert.Len(t, report.Outcomes, 3)
			},
		},
		{
			name: "Should report load failures and missing records per user",
			buildMock: func(ctx context.Context, mocks allMocks) {
				ids := []string{"U1", "U2"}
				expectIndices(mocks, ids, ids, ids)
				mocks.mockUserRepo.EXPECT().Get(gomock.Any(), "U1").Return(nil, errors.New("throttled")).Times(1)
				mocks.mockUserRepo.EXPECT().Get(gomock.Any(), "U2").Return(nil, nil).Times(1)
			},
			check: func(t *testing.T, report *entity.TickReport) {
				byUser := outcomesByUser(report)
				assert.Equal(t, entity.OutcomeFailed, byUser["U1"].Status)
				assert.Equal(t, entity.OutcomeSkipped, byUser["U2"].Status)
				assert.Equal(t, entity.ReasonNotFound, byUser["U2"].Reason)
			},
		},
		{
			name: "Should revalidate records loaded through stale indices",
			buildMock: func(ctx context.Context, mocks allMocks) {
				ids := []string{"U1"}
				expectIndices(mocks, ids, ids, ids)
				record := reginaRecord("U1")
				record.AuthToken = ""
				mocks.mockUserRepo.EXPECT().Get(gomock.Any(), "U1").Return(record, nil).Times(1)
			},
			check: func(t *testing.T, report *entity.TickReport) {
				require.Len(t, report.Outcomes, 1)
				assert.Equal(t, entity.ReasonMissingAuth, report.Outcomes[0].Reason)
			},
		},
		{
			name: "Should return empty report when there are no candidates",
			buildMock: func(ctx context.Context, mocks allMocks) {
				expectIndices(mocks, []string{"U1"}, nil, []string{"U1"})
			},
			check: func(t *testing.T, report *entity.TickReport) {
				assert.Equal(t, 0, report.Candidates)
				assert.Empty(t, report.Outcomes)
			},
		},
		{
			name: "Should fail the tick when an index cannot be listed",
			buildMock: func(ctx context.Context, mocks allMocks) {
				mocks.mockIndexRepo.EXPECT().ListIDs(gomock.Any(), domain.IndexHasAuth).Return([]string{"U1"}, nil).Times(1)
				mocks.mockIndexRepo.EXPECT().ListIDs(gomock.Any(), domain.IndexHasTimezone).Return(nil, errors.New("unavailable")).Times(1)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m, ctrl := newServiceTestMock(t)
			defer ctrl.Finish()

			tt.buildMock(ctx, m)

			presence := newPresence(m.mockSlackClient, newTestLogger(), 10)
			s := newScheduler(m.mockDataManager, presence, newTestLogger(), 10)

			report, err := s.RunTick(ctx, reginaEvening)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, report)
				return
			}
			require.NoError(t, err)
			tt.check(t, report)
		})
	}
}

func Test_schedulerService_RunTick_Pages(t *testing.T) {
	ctx := context.Background()
	m, ctrl := newServiceTestMock(t)
	defer ctrl.Finish()

	ids := []string{"U1", "U2", "U3", "U4", "U5"}
	expectIndices(m, ids, ids, ids)

	for _, id := range ids {
		m.mockUserRepo.EXPECT().Get(gomock.Any(), id).Return(reginaRecord(id), nil).Times(1)
		m.mockPresenceSvc.EXPECT().ProcessUser(gomock.Any(), gomock.Any(), reginaEvening).DoAndReturn(
			func(_ context.Context, record *entity.UserRecord, _ time.Time) entity.Outcome {
				return entity.Updated(record.UserID, entity.PresenceAway)
			}).Times(1)
	}

	s := newScheduler(m.mockDataManager, m.mockPresenceSvc, newTestLogger(), 2)
	report, err := s.RunTick(ctx, reginaEvening)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Updated)
	got := make([]string, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		got = append(got, o.UserID)
	}
	assert.Equal(t, ids, got)
}

func Test_schedulerService_RunTick_BoundsConcurrencyPerPage(t *testing.T) {
	ctx := context.Background()
	m, ctrl := newServiceTestMock(t)
	defer ctrl.Finish()

	const pageSize = 3
	ids := []string{"U1", "U2", "U3", "U4", "U5", "U6", "U7"}
	expectIndices(m, ids, ids, ids)

	position := make(map[string]int, len(ids))
	for i, id := range ids {
		position[id] = i
	}

	var inFlight, peak, finished atomic.Int32
	for _, id := range ids {
		m.mockUserRepo.EXPECT().Get(gomock.Any(), id).Return(reginaRecord(id), nil).Times(1)
	}
	m.mockPresenceSvc.EXPECT().ProcessUser(gomock.Any(), gomock.Any(), reginaEvening).DoAndReturn(
		func(_ context.Context, record *entity.UserRecord, _ time.Time) entity.Outcome {
			// every user of the previous pages is done before this page starts
			page := position[record.UserID] / pageSize
			assert.GreaterOrEqual(t, int(finished.Load()), page*pageSize, "user %s started early", record.UserID)

			current := inFlight.Add(1)
			for {
				seen := peak.Load()
				if current <= seen || peak.CompareAndSwap(seen, current) {
					break
				}
			}

			time.Sleep(20 * time.Millisecond)

			inFlight.Add(-1)
			finished.Add(1)
			return entity.Updated(record.UserID, entity.PresenceAway)
		}).Times(len(ids))

	s := newScheduler(m.mockDataManager, m.mockPresenceSvc, newTestLogger(), pageSize)
	report, err := s.RunTick(ctx, reginaEvening)
	require.NoError(t, err)

	assert.Equal(t, len(ids), report.Updated)
	assert.LessOrEqual(t, int(peak.Load()), pageSize)
	assert.Positive(t, int(peak.Load()))
}

func Test_schedulerService_RunTick_RecoversPanics(t *testing.T) {
	ctx := context.Background()
	m, ctrl := newServiceTestMock(t)
	defer ctrl.Finish()

	ids := []string{"U1", "U2"}
	expectIndices(m, ids, ids, ids)

	m.mockUserRepo.EXPECT().Get(gomock.Any(), "U1").DoAndReturn(
		func(context.Context, string) (*entity.UserRecord, error) {
			panic("corrupt record")
		}).Times(1)
	m.mockUserRepo.EXPECT().Get(gomock.Any(), "U2").Return(reginaRecord("U2"), nil).Times(1)
	m.mockPresenceSvc.EXPECT().ProcessUser(gomock.Any(), gomock.Any(), reginaEvening).
		Return(entity.Updated("U2", entity.PresenceAway)).Times(1)

	s := newScheduler(m.mockDataManager, m.mockPresenceSvc, newTestLogger(), 10)
	report, err := s.RunTick(ctx, reginaEvening)
	require.NoError(t, err)

	byUser := outcomesByUser(report)
	assert.Equal(t, entity.OutcomeFailed, byUser["U1"].Status)
	assert.ErrorIs(t, byUser["U1"].Err, errUserPanicked)
	assert.Equal(t, entity.OutcomeUpdated, byUser["U2"].Status)
}

func Test_schedulerService_RunTick_CancelledContext(t *testing.T) {
	m, ctrl := newServiceTestMock(t)
	defer ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ids := []string{"U1", "U2"}
	expectIndices(m, ids, ids, ids)

	s := newScheduler(m.mockDataManager, m.mockPresenceSvc, newTestLogger(), 10)
	report, err := s.RunTick(ctx, reginaEvening)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Failed)
	for _, o := range report.Outcomes {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
}
