package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diegoclair/slack-auto-away/internal/domain"
	"github.com/diegoclair/slack-auto-away/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testResponseURL = "https://hooks.slack.com/commands/T1/1/abc"

// expectReindex expects the index refresh that follows every store.
func expectReindex(mocks allMocks, userID string, stored *entity.UserRecord) {
	mocks.mockUserRepo.EXPECT().Get(gomock.Any(), userID).Return(stored, nil).Times(1)

	membership := map[domain.IndexName]bool{
		domain.IndexHasAuth:     stored.HasAuth(),
		domain.IndexHasTimezone: stored.HasTimezone(),
		domain.IndexHasSchedule: stored.HasSchedule(),
	}
	for index, member := range membership {
		if member {
			mocks.mockIndexRepo.EXPECT().Add(gomock.Any(), index, userID).Return(nil).Times(1)
		} else {
			mocks.mockIndexRepo.EXPECT().Remove(gomock.Any(), index, userID).Return(nil).Times(1)
		}
	}
}

func Test_accountService_HandleJob(t *testing.T) {
	saturday := time.Saturday

	tests := []struct {
		name      string
		job       entity.Job
		buildMock func(ctx context.Context, mocks allMocks, job entity.Job)
		wantErr   error
	}{
		{
			name: "Should store token and timezone from the profile",
			job:  entity.Job{ID: "j1", Type: entity.JobStoreAuth, UserID: "U1", AuthToken: testToken},
			buildMock: func(ctx context.Context, mocks allMocks, job entity.Job) {
				token := testToken
				mocks.mockUserRepo.EXPECT().Set(ctx, "U1", entity.UserPatch{AuthToken: &token}).Return(nil).Times(1)
				expectReindex(mocks, "U1", &entity.UserRecord{UserID: "U1", AuthToken: testToken})

				mocks.mockSlackClient.EXPECT().GetUserTimezone(ctx, testToken, "U1").Return("America/Regina", nil).Times(1)

				tz := "America/Regina"
				mocks.mockUserRepo.EXPECT().Set(ctx, "U1", entity.UserPatch{TimezoneName: &tz}).Return(nil).Times(1)
				expectReindex(mocks, "U1", &entity.UserRecord{UserID: "U1", AuthToken: testToken, TimezoneName: tz})
			},
		},
		{
			name: "Should keep the token when the profile cannot be read",
			job:  entity.Job{ID: "j1", Type: entity.JobStoreAuth, UserID: "U1", AuthToken: testToken, ResponseURL: testResponseURL},
			buildMock: func(ctx context.Context, mocks allMocks, job entity.Job) {
				mocks.mockUserRepo.EXPECT().Set(ctx, "U1", gomock.Any()).Return(nil).Times(1)
				expectReindex(mocks, "U1", &entity.UserRecord{UserID: "U1", AuthToken: testToken})
				mocks.mockSlackClient.EXPECT().GetUserTimezone(ctx, testToken, "U1").Return("", errors.New("missing_scope")).Times(1)
				mocks.mockSlackClient.EXPECT().Respond(ctx, testResponseURL, gomock.Any()).DoAndReturn(
					func(_ context.Context, _ string, text string) error {
						assert.Contains(t, text, "/away timezone")
						return nil
					}).Times(1)
			},
		},
		{
			name: "Should store an explicit timezone",
			job:  entity.Job{ID: "j2", Type: entity.JobStoreTimezone, UserID: "U1", TimezoneName: "Europe/Lisbon", ResponseURL: testResponseURL},
			buildMock: func(ctx context.Context, mocks allMocks, job entity.Job) {
				tz := "Europe/Lisbon"
				mocks.mockUserRepo.EXPECT().Set(ctx, "U1", entity.UserPatch{TimezoneName: &tz}).Return(nil).Times(1)
				expectReindex(mocks, "U1", &entity.UserRecord{UserID: "U1", TimezoneName: tz})
				mocks.mockSlackClient.EXPECT().Respond(ctx, testResponseURL, "🌍 Timezone set to Europe/Lisbon.").Return(nil).Times(1)
			},
		},
		{
			name: "Should require a token to read the profile timezone",
			job:  entity.Job{ID: "j3", Type: entity.JobStoreTimezone, UserID: "U1", ResponseURL: testResponseURL},
			buildMock: func(ctx context.Context, mocks allMocks, job entity.Job) {
				mocks.mockUserRepo.EXPECT().Get(ctx, "U1").Return(nil, nil).Times(1)
				mocks.mockSlackClient.EXPECT().Respond(ctx, testResponseURL, gomock.Any()).Return(nil).Times(1)
			},
			wantErr: domain.ErrNotAuthenticated,
		},
		{
			name: "Should start from the default schedule",
			job: entity.Job{ID: "j4", Type: entity.JobUpdateSchedule, UserID: "U1", ResponseURL: testResponseURL,
				Mutation: &entity.ScheduleMutation{Kind: entity.MutationSetTimes, Weekday: &saturday, TimeAuto: "11:00", TimeAway: "14:00"}},
			buildMock: func(ctx context.Context, mocks allMocks, job entity.Job) {
				mocks.mockUserRepo.EXPECT().Get(ctx, "U1").Return(nil, nil).Times(1)

				want := entity.DefaultSchedule()
				want.DifferentSaturdaySchedule = true
				want.SaturdayTimeAuto, want.SaturdayTimeAway = "11:00", "14:00"
				mocks.mockUserRepo.EXPECT().Set(ctx, "U1", entity.UserPatch{Schedule: &want}).Return(nil).Times(1)

				expectReindex(mocks, "U1", &entity.UserRecord{UserID: "U1", Schedule: &want})
				mocks.mockSlackClient.EXPECT().Respond(ctx, testResponseURL, gomock.Any()).DoAndReturn(
					func(_ context.Context, _ string, text string) error {
						assert.Contains(t, text, "Saturday: auto at 11:00, away at 14:00")
						return nil
					}).Times(1)
			},
		},
		{
			name: "Should apply mutations on top of the stored schedule",
			job: entity.Job{ID: "j5", Type: entity.JobUpdateSchedule, UserID: "U1",
				Mutation: &entity.ScheduleMutation{Kind: entity.MutationPause}},
			buildMock: func(ctx context.Context, mocks allMocks, job entity.Job) {
				stored := reginaRecord("U1")
				mocks.mockUserRepo.EXPECT().Get(ctx, "U1").Return(stored, nil).Times(1)

				want := *stored.Schedule.Clone()
				want.PauseUpdates = true
				mocks.mockUserRepo.EXPECT().Set(ctx, "U1", entity.UserPatch{Schedule: &want}).Return(nil).Times(1)

				updated := reginaRecord("U1")
				updated.Schedule = &want
				expectReindex(mocks, "U1", updated)
			},
		},
		{
			name: "Should reject an invalid mutation without storing",
			job: entity.Job{ID: "j6", Type: entity.JobUpdateSchedule, UserID: "U1", ResponseURL: testResponseURL,
				Mutation: &entity.ScheduleMutation{Kind: entity.MutationAddException, Date: "tomorrow"}},
			buildMock: func(ctx context.Context, mocks allMocks, job entity.Job) {
				mocks.mockUserRepo.EXPECT().Get(ctx, "U1").Return(reginaRecord("U1"), nil).Times(1)
				mocks.mockSlackClient.EXPECT().Respond(ctx, testResponseURL, gomock.Any()).DoAndReturn(
					func(_ context.Context, _ string, text string) error {
						assert.Contains(t, text, "YYYY-MM-DD")
						return nil
					}).Times(1)
			},
			wantErr: entity.ErrInvalidMutation,
		},
		{
			name: "Should clear the schedule and leave the schedule index",
			job:  entity.Job{ID: "j7", Type: entity.JobClearSchedule, UserID: "U1"},
			buildMock: func(ctx context.Context, mocks allMocks, job entity.Job) {
				mocks.mockUserRepo.EXPECT().Set(ctx, "U1", entity.UserPatch{Unset: entity.FieldSchedule}).Return(nil).Times(1)
				stored := reginaRecord("U1")
				stored.Schedule = nil
				expectReindex(mocks, "U1", stored)
			},
		},
		{
			name: "Should delete the record and every index entry on logout",
			job:  entity.Job{ID: "j8", Type: entity.JobLogout, UserID: "U1", ResponseURL: testResponseURL},
			buildMock: func(ctx context.Context, mocks allMocks, job entity.Job) {
				mocks.mockUserRepo.EXPECT().Delete(ctx, "U1").Return(nil).Times(1)
				for _, index := range domain.CandidateIndices {
					mocks.mockIndexRepo.EXPECT().Remove(ctx, index, "U1").Return(nil).Times(1)
				}
				mocks.mockSlackClient.EXPECT().Respond(ctx, testResponseURL, gomock.Any()).Return(nil).Times(1)
			},
		},
		{
			name: "Should report every failed index update",
			job:  entity.Job{ID: "j9", Type: entity.JobLogout, UserID: "U1"},
			buildMock: func(ctx context.Context, mocks allMocks, job entity.Job) {
				mocks.mockUserRepo.EXPECT().Delete(ctx, "U1").Return(nil).Times(1)
				mocks.mockIndexRepo.EXPECT().Remove(ctx, gomock.Any(), "U1").Return(errors.New("throttled")).Times(3)
			},
			wantErr: errors.New("throttled"),
		},
		{
			name: "Should rebuild the indices from the record",
			job:  entity.Job{ID: "j10", Type: entity.JobIndexUserData, UserID: "U1"},
			buildMock: func(ctx context.Context, mocks allMocks, job entity.Job) {
				expectReindex(mocks, "U1", reginaRecord("U1"))
			},
		},
		{
			name:    "Should reject unknown job types",
			job:     entity.Job{ID: "j11", Type: "SELF_DESTRUCT", UserID: "U1"},
			wantErr: errors.New("unknown job type"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m, ctrl := newServiceTestMock(t)
			defer ctrl.Finish()

			if tt.buildMock != nil {
				tt.buildMock(ctx, m, tt.job)
			}

			s := newAccount(m.mockDataManager, m.mockSlackClient, m.mockDispatcher, newTestLogger(), 10)
			err := s.HandleJob(ctx, tt.job)

			switch {
			case tt.wantErr == nil:
				require.NoError(t, err)
			case errors.Is(tt.wantErr, domain.ErrNotAuthenticated), errors.Is(tt.wantErr, entity.ErrInvalidMutation):
				require.ErrorIs(t, err, tt.wantErr)
			default:
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
			}
		})
	}
}
