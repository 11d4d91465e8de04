package service

import (
	"context"
	"fmt"
	"time"

	"github.com/diegoclair/slack-auto-away/internal/domain/contract"
	"github.com/diegoclair/slack-auto-away/internal/domain/entity"
	"github.com/diegoclair/slack-auto-away/internal/domain/schedule"
	"github.com/sirupsen/logrus"
)

type presenceService struct {
	slackClient contract.SlackClient
	log         *logrus.Entry
	tolerance   int
}

func newPresence(slackClient contract.SlackClient, log *logrus.Entry, toleranceMinutes int) *presenceService {
	return &presenceService{
		slackClient: slackClient,
		log:         log.WithField("service", "presence"),
		tolerance:   toleranceMinutes,
	}
}

func (s *presenceService) ProcessUser(ctx context.Context, record *entity.UserRecord, now time.Time) (outcome entity.Outcome) {
	if record == nil {
		return entity.Skipped("", entity.ReasonNotFound)
	}
	userID := record.UserID

	defer func() {
		if r := recover(); r != nil {
			outcome = entity.Failed(userID, fmt.Errorf("panic while processing user: %v", r))
		}
	}()

	switch {
	case !record.HasAuth():
		return entity.Skipped(userID, entity.ReasonMissingAuth)
	case !record.HasTimezone():
		return entity.Skipped(userID, entity.ReasonMissingTimezone)
	case !record.HasSchedule():
		return entity.Skipped(userID, entity.ReasonMissingSchedule)
	}

	result, err := schedule.EvaluateWithReason(record.Schedule, record.TimezoneName, now, s.tolerance)
	if err != nil {
		return entity.Failed(userID, fmt.Errorf("failed to evaluate schedule: %w", err))
	}

	target, ok := result.Decision.Presence()
	if !ok {
		return entity.Skipped(userID, result.Reason)
	}

	log := s.log.WithFields(logrus.Fields{"userId": userID, "target": target})

	// the evaluator is stateless, so every tick inside a window asks for the same change
	current, err := s.slackClient.GetPresence(ctx, record.AuthToken, userID)
	if err != nil {
		log.WithError(err).Warn("could not read current presence, updating anyway")
	} else if current == target {
		return entity.Skipped(userID, "already-"+string(target))
	}

	if err := s.slackClient.SetPresence(ctx, record.AuthToken, target); err != nil {
		return entity.Failed(userID, fmt.Errorf("failed to set presence: %w", err))
	}

	log.Info("presence updated")
	return entity.Updated(userID, target)
}
