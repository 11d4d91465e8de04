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
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
)

var errUserPanicked = errors.New("user processing panicked")

type schedulerService struct {
	dm       contract.DataManager
	presence contract.PresenceService
	log      *logrus.Entry
	pageSize int
}

func newScheduler(dm contract.DataManager, presence contract.PresenceService, log *logrus.Entry, pageSize int) *schedulerService {
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	return &schedulerService{
		dm:       dm,
		presence: presence,
		log:      log.WithField("service", "scheduler"),
		pageSize: pageSize,
	}
}

// RunTick evaluates every fully onboarded user once. Only index listing failures fail the tick;
// everything that goes wrong for a single user ends up in that user's outcome.
func (s *schedulerService) RunTick(ctx context.Context, now time.Time) (*entity.TickReport, error) {
	ids, err := s.candidates(ctx)
	if err != nil {
		return nil, err
	}

	report := &entity.TickReport{Candidates: len(ids)}
	s.log.WithFields(logrus.Fields{"candidates": len(ids), "now": now.UTC().Format(time.RFC3339)}).Info("tick started")

	for page := range slices.Chunk(ids, s.pageSize) {
		if err := ctx.Err(); err != nil {
			for _, id := range ids[len(report.Outcomes):] {
				report.Add(entity.Failed(id, err))
			}
			break
		}

		for _, outcome := range s.runPage(ctx, page, now) {
			report.Add(outcome)
		}
	}

	for _, o := range report.Outcomes {
		if o.Status == entity.OutcomeFailed {
			s.log.WithField("userId", o.UserID).WithError(o.Err).Error("failed to process user")
		}
	}

	s.log.WithFields(logrus.Fields{
		"updated": report.Updated,
		"skipped": report.Skipped,
		"failed":  report.Failed,
	}).Info("tick finished")

	return report, nil
}

// candidates returns the sorted ids present in every candidate index.
func (s *schedulerService) candidates(ctx context.Context) ([]string, error) {
	var result []string
	for i, index := range domain.CandidateIndices {
		ids, err := s.dm.Index().ListIDs(ctx, index)
		if err != nil {
			return nil, fmt.Errorf("failed to list index %s: %w", index, err)
		}

		if i == 0 {
			result = slices.Clone(ids)
			continue
		}

		members := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			members[id] = struct{}{}
		}
		result = slices.DeleteFunc(result, func(id string) bool {
			_, ok := members[id]
			return !ok
		})
	}

	slices.Sort(result)
	return slices.Compact(result), nil
}

// runPage processes a page concurrently and returns outcomes in page order.
func (s *schedulerService) runPage(ctx context.Context, page []string, now time.Time) []entity.Outcome {
	outcomes := make([]entity.Outcome, len(page))

	var wg conc.WaitGroup
	for i, userID := range page {
		outcomes[i] = entity.Failed(userID, errUserPanicked)
		wg.Go(func() {
			outcomes[i] = s.processID(ctx, userID, now)
		})
	}

	if recovered := wg.WaitAndRecover(); recovered != nil {
		s.log.WithField("panic", recovered.Value).Error("recovered panic while processing page")
	}

	return outcomes
}

func (s *schedulerService) processID(ctx context.Context, userID string, now time.Time) entity.Outcome {
	record, err := s.dm.User().Get(ctx, userID)
	if err != nil {
		return entity.Failed(userID, fmt.Errorf("failed to load user: %w", err))
	}
	if record == nil {
		return entity.Skipped(userID, entity.ReasonNotFound)
	}
	if record.UserID == "" {
		record.UserID = userID
	}

	return s.presence.ProcessUser(ctx, record, now)
}
