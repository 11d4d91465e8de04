package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/diegoclair/slack-auto-away/internal/domain/timeutil"
)

var ErrInvalidMutation = errors.New("invalid schedule change")

type MutationKind string

const (
	MutationSetTimes        MutationKind = "SET_TIMES"
	MutationDisableDay      MutationKind = "DISABLE_DAY"
	MutationEnableDay       MutationKind = "ENABLE_DAY"
	MutationSameAsDefault   MutationKind = "SAME_AS_DEFAULT"
	MutationAddException    MutationKind = "ADD_EXCEPTION"
	MutationRemoveException MutationKind = "REMOVE_EXCEPTION"
	MutationPause           MutationKind = "PAUSE"
	MutationResume          MutationKind = "RESUME"
)

// ScheduleMutation is one schedule change requested through the command surface.
// Weekday is only meaningful for the day-scoped kinds; an empty Weekday on SET_TIMES targets the default times.
type ScheduleMutation struct {
	Kind     MutationKind  `json:"kind"`
	Weekday  *time.Weekday `json:"weekday,omitempty"`
	TimeAuto string        `json:"timeAuto,omitempty"`
	TimeAway string        `json:"timeAway,omitempty"`
	Date     string        `json:"date,omitempty"`
}

// Apply mutates s in place. s is left untouched when the mutation is rejected.
func (m ScheduleMutation) Apply(s *UserSchedule) error {
	switch m.Kind {
	case MutationSetTimes:
		auto, away, err := m.parsedTimes()
		if err != nil {
			return err
		}
		if m.Weekday == nil {
			s.TimeAuto, s.TimeAway = auto, away
			return nil
		}
		switch *m.Weekday {
		case time.Saturday:
			s.SaturdayTimeAuto, s.SaturdayTimeAway = auto, away
			s.DifferentSaturdaySchedule, s.DisableSaturdaySchedule = true, false
		case time.Sunday:
			s.SundayTimeAuto, s.SundayTimeAway = auto, away
			s.DifferentSundaySchedule, s.DisableSundaySchedule = true, false
		default:
			return m.weekendOnly()
		}

	case MutationDisableDay, MutationEnableDay, MutationSameAsDefault:
		if m.Weekday == nil {
			return m.weekendOnly()
		}
		var disable, different *bool
		switch *m.Weekday {
		case time.Saturday:
			disable, different = &s.DisableSaturdaySchedule, &s.DifferentSaturdaySchedule
		case time.Sunday:
			disable, different = &s.DisableSundaySchedule, &s.DifferentSundaySchedule
		default:
			return m.weekendOnly()
		}
		switch m.Kind {
		case MutationDisableDay:
			*disable = true
		case MutationEnableDay:
			*disable = false
		case MutationSameAsDefault:
			*disable, *different = false, false
		}

	case MutationAddException:
		return s.AddExceptionDate(m.Date)

	case MutationRemoveException:
		s.RemoveExceptionDate(m.Date)

	case MutationPause:
		s.PauseUpdates = true

	case MutationResume:
		s.PauseUpdates = false

	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidMutation, m.Kind)
	}

	return nil
}

func (m ScheduleMutation) parsedTimes() (string, string, error) {
	auto, err := timeutil.ParseClock(m.TimeAuto)
	if err != nil {
		return "", "", fmt.Errorf("%w: auto time: %v", ErrInvalidMutation, err)
	}
	away, err := timeutil.ParseClock(m.TimeAway)
	if err != nil {
		return "", "", fmt.Errorf("%w: away time: %v", ErrInvalidMutation, err)
	}
	return auto.String(), away.String(), nil
}

func (m ScheduleMutation) weekendOnly() error {
	return fmt.Errorf("%w: %s applies to saturday or sunday only", ErrInvalidMutation, m.Kind)
}
