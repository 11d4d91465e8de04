package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/diegoclair/slack-auto-away/internal/domain"
	"github.com/diegoclair/slack-auto-away/internal/domain/contract"
	"github.com/diegoclair/slack-auto-away/internal/domain/entity"
	"github.com/diegoclair/slack-auto-away/internal/domain/schedule"
	"github.com/diegoclair/slack-auto-away/internal/domain/timeutil"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type accountService struct {
	dm          contract.DataManager
	slackClient contract.SlackClient
	dispatcher  contract.JobDispatcher
	log         *logrus.Entry
	tolerance   int
}

func newAccount(dm contract.DataManager, slackClient contract.SlackClient, dispatcher contract.JobDispatcher, log *logrus.Entry, toleranceMinutes int) *accountService {
	return &accountService{
		dm:          dm,
		slackClient: slackClient,
		dispatcher:  dispatcher,
		log:         log.WithField("service", "account"),
		tolerance:   toleranceMinutes,
	}
}

// CompleteOAuth exchanges the code and queues the token for storage.
func (s *accountService) CompleteOAuth(ctx context.Context, code string) (*entity.OAuthGrant, error) {
	grant, err := s.slackClient.ExchangeOAuthCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	if !slices.Contains(grant.Scopes, domain.ScopeUsersWrite) {
		return nil, domain.ErrMissingScope
	}

	_, err = s.Enqueue(ctx, entity.Job{
		Type:      entity.JobStoreAuth,
		UserID:    grant.UserID,
		AuthToken: grant.AccessToken,
	})
	if err != nil {
		return nil, err
	}

	return grant, nil
}

func (s *accountService) Enqueue(ctx context.Context, job entity.Job) (string, error) {
	if job.UserID == "" {
		return "", errors.New("job has no user")
	}
	if job.Type == "" {
		return "", errors.New("job has no type")
	}

	job.ID = uuid.NewString()
	if err := s.dispatcher.Dispatch(ctx, job); err != nil {
		return "", fmt.Errorf("failed to dispatch %s job: %w", job.Type, err)
	}

	s.log.WithFields(logrus.Fields{"jobId": job.ID, "jobType": job.Type, "userId": job.UserID}).Debug("job dispatched")
	return job.ID, nil
}

func (s *accountService) Status(ctx context.Context, userID string) (*entity.UserStatus, error) {
	record, err := s.dm.User().Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return entity.NewUserStatus(userID, record), nil
}

// Diagnose reports stored state, index membership and what a tick at now would decide.
func (s *accountService) Diagnose(ctx context.Context, userID string, now time.Time) (*entity.Diagnosis, error) {
	record, err := s.dm.User().Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	d := &entity.Diagnosis{Status: entity.NewUserStatus(userID, record)}

	for _, index := range domain.CandidateIndices {
		ids, err := s.dm.Index().ListIDs(ctx, index)
		if err != nil {
			return nil, fmt.Errorf("failed to list index %s: %w", index, err)
		}
		if slices.Contains(ids, userID) {
			d.Indices = append(d.Indices, string(index))
		}
	}

	if !record.HasTimezone() {
		d.Reason = entity.ReasonMissingTimezone
		return d, nil
	}

	local, err := timeutil.Localize(now, record.TimezoneName)
	if err != nil {
		d.Err = err
		return d, nil
	}
	d.LocalTime = local.Format("Mon 2006-01-02 15:04 MST")

	if !record.HasSchedule() {
		d.Reason = entity.ReasonMissingSchedule
		return d, nil
	}

	result, err := schedule.EvaluateWithReason(record.Schedule, record.TimezoneName, now, s.tolerance)
	if err != nil {
		d.Err = err
		return d, nil
	}
	d.Decision, d.Reason = result.Decision, result.Reason

	return d, nil
}

// SyncTimezone queues a timezone update for a known user whose Slack profile zone changed.
// Users without a record are ignored.
func (s *accountService) SyncTimezone(ctx context.Context, userID, timezoneName string) error {
	canonical, err := timeutil.ValidateTimezone(timezoneName)
	if err != nil {
		return err
	}

	record, err := s.dm.User().Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if record == nil || record.TimezoneName == canonical {
		return nil
	}

	_, err = s.Enqueue(ctx, entity.Job{
		Type:         entity.JobStoreTimezone,
		UserID:       userID,
		TimezoneName: canonical,
	})
	return err
}
