// Package schedule decides whether a user's presence should change at a given instant.
package schedule

import (
	"fmt"
	"time"

	"github.com/diegoclair/slack-auto-away/internal/domain/entity"
	"github.com/diegoclair/slack-auto-away/internal/domain/timeutil"
)

// Reasons returned by EvaluateWithReason.
const (
	ReasonNoSchedule       = "no-schedule"
	ReasonPaused           = "paused"
	ReasonExceptionDate    = "exception-date"
	ReasonSaturdayDisabled = "saturday-disabled"
	ReasonSundayDisabled   = "sunday-disabled"
	ReasonOutOfWindow      = entity.ReasonOutOfWindow
	ReasonAutoWindow       = "auto-window"
	ReasonAwayWindow       = "away-window"
)

// Result is a decision plus the rule that produced it.
type Result struct {
	Decision entity.Decision
	Reason   string
	// TimeAuto and TimeAway are the times that were in effect, empty when evaluation stopped earlier.
	TimeAuto string
	TimeAway string
}

// Evaluate returns the presence transition due at now for the given schedule.
// A zero tolerance matches the target minute only; negative values are treated as zero.
func Evaluate(s *entity.UserSchedule, timezoneName string, now time.Time, toleranceMinutes int) (entity.Decision, error) {
	res, err := EvaluateWithReason(s, timezoneName, now, toleranceMinutes)
	if err != nil {
		return entity.NoChange, err
	}
	return res.Decision, nil
}

func EvaluateWithReason(s *entity.UserSchedule, timezoneName string, now time.Time, toleranceMinutes int) (Result, error) {
	if s == nil {
		return Result{Decision: entity.NoChange, Reason: ReasonNoSchedule}, nil
	}
	if s.PauseUpdates {
		return Result{Decision: entity.NoChange, Reason: ReasonPaused}, nil
	}
	if toleranceMinutes < 0 {
		toleranceMinutes = 0
	}

	localDate, err := timeutil.LocalDate(now, timezoneName)
	if err != nil {
		return Result{}, err
	}
	if s.HasExceptionDate(localDate) {
		return Result{Decision: entity.NoChange, Reason: ReasonExceptionDate}, nil
	}

	weekday, err := timeutil.LocalWeekday(now, timezoneName)
	if err != nil {
		return Result{}, err
	}
	if s.DisabledOn(weekday) {
		reason := ReasonSundayDisabled
		if weekday == time.Saturday {
			reason = ReasonSaturdayDisabled
		}
		return Result{Decision: entity.NoChange, Reason: reason}, nil
	}

	timeAuto, timeAway := s.TimesFor(weekday)
	res := Result{TimeAuto: timeAuto, TimeAway: timeAway}

	auto, err := timeutil.ParseClock(timeAuto)
	if err != nil {
		return Result{}, fmt.Errorf("auto time for %s: %w", weekday, err)
	}
	away, err := timeutil.ParseClock(timeAway)
	if err != nil {
		return Result{}, fmt.Errorf("away time for %s: %w", weekday, err)
	}

	// auto is checked first, so it wins when the two windows overlap
	inAuto, err := inWindow(now, timezoneName, auto, toleranceMinutes)
	if err != nil {
		return Result{}, err
	}
	if inAuto {
		res.Decision, res.Reason = entity.SetAuto, ReasonAutoWindow
		return res, nil
	}

	inAway, err := inWindow(now, timezoneName, away, toleranceMinutes)
	if err != nil {
		return Result{}, err
	}
	if inAway {
		res.Decision, res.Reason = entity.SetAway, ReasonAwayWindow
		return res, nil
	}

	res.Decision, res.Reason = entity.NoChange, ReasonOutOfWindow
	return res, nil
}

func inWindow(now time.Time, timezoneName string, target timeutil.Clock, tolerance int) (bool, error) {
	return timeutil.IsLocalTimeInRange(now, timezoneName,
		timeutil.AddMinutes(target, -tolerance),
		timeutil.AddMinutes(target, tolerance),
	)
}
