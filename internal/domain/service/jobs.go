package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/diegoclair/slack-auto-away/internal/domain"
	"github.com/diegoclair/slack-auto-away/internal/domain/contract"
	"github.com/diegoclair/slack-auto-away/internal/domain/entity"
	slackcmd "github.com/diegoclair/slack-auto-away/internal/domain/slack"
	"github.com/diegoclair/slack-auto-away/internal/domain/timeutil"
	"github.com/sirupsen/logrus"
)

// HandleJob runs a queued job and reports the result to the job's response_url, when it has one.
func (s *accountService) HandleJob(ctx context.Context, job entity.Job) error {
	log := s.log.WithFields(logrus.Fields{"jobId": job.ID, "jobType": job.Type, "userId": job.UserID})

	message, err := s.runJob(ctx, job)
	if err != nil {
		log.WithError(err).Error("job failed")
		s.respond(ctx, log, job.ResponseURL, slackcmd.ErrorText(err))
		return err
	}

	log.Info("job finished")
	s.respond(ctx, log, job.ResponseURL, message)
	return nil
}

func (s *accountService) runJob(ctx context.Context, job entity.Job) (string, error) {
	if job.UserID == "" {
		return "", errors.New("job has no user")
	}

	switch job.Type {
	case entity.JobStoreAuth:
		return s.storeAuth(ctx, job)
	case entity.JobStoreTimezone:
		return s.storeTimezone(ctx, job)
	case entity.JobUpdateSchedule:
		return s.updateSchedule(ctx, job)
	case entity.JobClearSchedule:
		return s.clearSchedule(ctx, job)
	case entity.JobLogout:
		return s.logout(ctx, job)
	case entity.JobIndexUserData:
		return "", s.dm.WithTransaction(ctx, func(dm contract.DataManager) error {
			return reindex(ctx, dm, job.UserID)
		})
	default:
		return "", fmt.Errorf("unknown job type %q", job.Type)
	}
}

func (s *accountService) storeAuth(ctx context.Context, job entity.Job) (string, error) {
	if job.AuthToken == "" {
		return "", errors.New("store auth job has no token")
	}

	err := s.storePatch(ctx, job.UserID, entity.UserPatch{AuthToken: &job.AuthToken})
	if err != nil {
		return "", err
	}

	message := "✅ Your Slack account is connected."

	timezoneName, err := s.profileTimezone(ctx, job.AuthToken, job.UserID)
	if err != nil {
		s.log.WithField("userId", job.UserID).WithError(err).Warn("could not read timezone from profile")
		return message + " Set your timezone with `/away timezone Area/City`.", nil
	}

	if err := s.storePatch(ctx, job.UserID, entity.UserPatch{TimezoneName: &timezoneName}); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s Timezone set to %s.", message, timezoneName), nil
}

func (s *accountService) storeTimezone(ctx context.Context, job entity.Job) (string, error) {
	timezoneName := job.TimezoneName

	if timezoneName == "" {
		record, err := s.dm.User().Get(ctx, job.UserID)
		if err != nil {
			return "", fmt.Errorf("failed to get user: %w", err)
		}
		if !record.HasAuth() {
			return "", domain.ErrNotAuthenticated
		}

		timezoneName, err = s.profileTimezone(ctx, record.AuthToken, job.UserID)
		if err != nil {
			return "", err
		}
	}

	canonical, err := timeutil.ValidateTimezone(timezoneName)
	if err != nil {
		return "", err
	}

	if err := s.storePatch(ctx, job.UserID, entity.UserPatch{TimezoneName: &canonical}); err != nil {
		return "", err
	}

	return fmt.Sprintf("🌍 Timezone set to %s.", canonical), nil
}

func (s *accountService) updateSchedule(ctx context.Context, job entity.Job) (string, error) {
	if job.Mutation == nil {
		return "", fmt.Errorf("%w: nothing to change", entity.ErrInvalidMutation)
	}

	var updated entity.UserSchedule
	err := s.dm.WithTransaction(ctx, func(dm contract.DataManager) error {
		record, err := dm.User().Get(ctx, job.UserID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}

		updated = entity.DefaultSchedule()
		if record != nil && record.Schedule != nil {
			updated = *record.Schedule.Clone()
		}

		if err := job.Mutation.Apply(&updated); err != nil {
			return err
		}

		if err := dm.User().Set(ctx, job.UserID, entity.UserPatch{Schedule: &updated}); err != nil {
			return fmt.Errorf("failed to store schedule: %w", err)
		}

		return reindex(ctx, dm, job.UserID)
	})
	if err != nil {
		return "", err
	}

	return "✅ Schedule updated:\n" + slackcmd.FormatSchedule(&updated), nil
}

func (s *accountService) clearSchedule(ctx context.Context, job entity.Job) (string, error) {
	if err := s.storePatch(ctx, job.UserID, entity.UserPatch{Unset: entity.FieldSchedule}); err != nil {
		return "", err
	}
	return "🗑️ Schedule removed. Your presence will no longer change automatically.", nil
}

func (s *accountService) logout(ctx context.Context, job entity.Job) (string, error) {
	err := s.dm.WithTransaction(ctx, func(dm contract.DataManager) error {
		if err := dm.User().Delete(ctx, job.UserID); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}

		var errs []error
		for _, index := range domain.CandidateIndices {
			if err := dm.Index().Remove(ctx, index, job.UserID); err != nil {
				errs = append(errs, fmt.Errorf("failed to remove from %s: %w", index, err))
			}
		}
		return errors.Join(errs...)
	})
	if err != nil {
		return "", err
	}

	return "👋 You are signed out and your data has been deleted.", nil
}

// storePatch merges patch into the record and brings the indices in line with the result.
func (s *accountService) storePatch(ctx context.Context, userID string, patch entity.UserPatch) error {
	return s.dm.WithTransaction(ctx, func(dm contract.DataManager) error {
		if err := dm.User().Set(ctx, userID, patch); err != nil {
			return fmt.Errorf("failed to store user: %w", err)
		}
		return reindex(ctx, dm, userID)
	})
}

func (s *accountService) profileTimezone(ctx context.Context, token, userID string) (string, error) {
	timezoneName, err := s.slackClient.GetUserTimezone(ctx, token, userID)
	if err != nil {
		return "", fmt.Errorf("failed to read slack profile: %w", err)
	}
	return timeutil.ValidateTimezone(timezoneName)
}

func (s *accountService) respond(ctx context.Context, log *logrus.Entry, responseURL, text string) {
	if responseURL == "" || text == "" {
		return
	}
	if err := s.slackClient.Respond(ctx, responseURL, text); err != nil {
		log.WithError(err).Warn("failed to respond to slack")
	}
}

// reindex recomputes every index membership from the stored record.
func reindex(ctx context.Context, dm contract.DataManager, userID string) error {
	record, err := dm.User().Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	membership := map[domain.IndexName]bool{
		domain.IndexHasAuth:     record.HasAuth(),
		domain.IndexHasTimezone: record.HasTimezone(),
		domain.IndexHasSchedule: record.HasSchedule(),
	}

	var errs []error
	for _, index := range domain.CandidateIndices {
		if membership[index] {
			err = dm.Index().Add(ctx, index, userID)
		} else {
			err = dm.Index().Remove(ctx, index, userID)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to update index %s: %w", index, err))
		}
	}

	return errors.Join(errs...)
}
