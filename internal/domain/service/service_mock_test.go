package service

import (
	"context"
	"io"
	"testing"

	"github.com/diegoclair/slack-auto-away/internal/domain/contract"
	"github.com/diegoclair/slack-auto-away/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type allMocks struct {
	mockDataManager *mocks.MockDataManager
	mockUserRepo    *mocks.MockUserRepo
	mockIndexRepo   *mocks.MockIndexRepo
	mockSlackClient *mocks.MockSlackClient
	mockDispatcher  *mocks.MockJobDispatcher
	mockPresenceSvc *mocks.MockPresenceService
}

func newTestLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func newServiceTestMock(t *testing.T) (m allMocks, ctrl *gomock.Controller) {
	t.Helper()

	ctrl = gomock.NewController(t)

	dm := mocks.NewMockDataManager(ctrl)

	userRepo := mocks.NewMockUserRepo(ctrl)
	dm.EXPECT().User().Return(userRepo).AnyTimes()

	indexRepo := mocks.NewMockIndexRepo(ctrl)
	dm.EXPECT().Index().Return(indexRepo).AnyTimes()

	dm.EXPECT().WithTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(contract.DataManager) error) error {
			return fn(dm)
		}).AnyTimes()

	m = allMocks{
		mockDataManager: dm,
		mockUserRepo:    userRepo,
		mockIndexRepo:   indexRepo,
		mockSlackClient: mocks.NewMockSlackClient(ctrl),
		mockDispatcher:  mocks.NewMockJobDispatcher(ctrl),
		mockPresenceSvc: mocks.NewMockPresenceService(ctrl),
	}

	// validate service creation
	instance := NewInstance(dm, m.mockSlackClient, m.mockDispatcher, newTestLogger(), Options{})
	require.NotNil(t, instance.Presence)
	require.NotNil(t, instance.Scheduler)
	require.NotNil(t, instance.Account)

	return
}
