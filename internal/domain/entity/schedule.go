package entity

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/diegoclair/slack-auto-away/internal/domain/timeutil"
)

// UserSchedule holds the default daily times plus the weekend overrides.
type UserSchedule struct {
	TimeAuto string `json:"timeAuto" dynamodbav:"timeAuto"`
	TimeAway string `json:"timeAway" dynamodbav:"timeAway"`

	DisableSaturdaySchedule   bool   `json:"disableSaturdaySchedule" dynamodbav:"disableSaturdaySchedule"`
	DifferentSaturdaySchedule bool   `json:"differentSaturdaySchedule" dynamodbav:"differentSaturdaySchedule"`
	SaturdayTimeAuto          string `json:"saturdayTimeAuto" dynamodbav:"saturdayTimeAuto"`
	SaturdayTimeAway          string `json:"saturdayTimeAway" dynamodbav:"saturdayTimeAway"`

	DisableSundaySchedule   bool   `json:"disableSundaySchedule" dynamodbav:"disableSundaySchedule"`
	DifferentSundaySchedule bool   `json:"differentSundaySchedule" dynamodbav:"differentSundaySchedule"`
	SundayTimeAuto          string `json:"sundayTimeAuto" dynamodbav:"sundayTimeAuto"`
	SundayTimeAway          string `json:"sundayTimeAway" dynamodbav:"sundayTimeAway"`

	ExceptionDates []string `json:"exceptionDates" dynamodbav:"exceptionDates"`
	PauseUpdates   bool     `json:"pauseUpdates" dynamodbav:"pauseUpdates"`
}

// DefaultSchedule is the starting point for a user's first schedule change.
func DefaultSchedule() UserSchedule {
	return UserSchedule{
		TimeAuto:         "09:00",
		TimeAway:         "17:00",
		SaturdayTimeAuto: "10:00",
		SaturdayTimeAway: "16:00",
		SundayTimeAuto:   "11:00",
		SundayTimeAway:   "15:00",
		ExceptionDates:   []string{},
	}
}

func (s *UserSchedule) Clone() *UserSchedule {
	if s == nil {
		return nil
	}
	c := *s
	c.ExceptionDates = slices.Clone(s.ExceptionDates)
	return &c
}

// Validate checks the default times. Weekend times are checked only when they are in use.
func (s *UserSchedule) Validate() error {
	if s == nil {
		return errors.New("schedule is missing")
	}

	if _, err := timeutil.ParseClock(s.TimeAuto); err != nil {
		return fmt.Errorf("timeAuto: %w", err)
	}
	if _, err := timeutil.ParseClock(s.TimeAway); err != nil {
		return fmt.Errorf("timeAway: %w", err)
	}

	if s.DifferentSaturdaySchedule && !s.DisableSaturdaySchedule {
		if _, err := timeutil.ParseClock(s.SaturdayTimeAuto); err != nil {
			return fmt.Errorf("saturdayTimeAuto: %w", err)
		}
		if _, err := timeutil.ParseClock(s.SaturdayTimeAway); err != nil {
			return fmt.Errorf("saturdayTimeAway: %w", err)
		}
	}

	if s.DifferentSundaySchedule && !s.DisableSundaySchedule {
		if _, err := timeutil.ParseClock(s.SundayTimeAuto); err != nil {
			return fmt.Errorf("sundayTimeAuto: %w", err)
		}
		if _, err := timeutil.ParseClock(s.SundayTimeAway); err != nil {
			return fmt.Errorf("sundayTimeAway: %w", err)
		}
	}

	return nil
}

func (s *UserSchedule) HasExceptionDate(date string) bool {
	return slices.Contains(s.ExceptionDates, date)
}

// AddExceptionDate keeps ExceptionDates deduplicated and sorted.
func (s *UserSchedule) AddExceptionDate(date string) error {
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return fmt.Errorf("%w: exception date must be YYYY-MM-DD, got %q", ErrInvalidMutation, date)
	}
	if s.HasExceptionDate(date) {
		return nil
	}
	s.ExceptionDates = append(s.ExceptionDates, date)
	slices.Sort(s.ExceptionDates)
	return nil
}

func (s *UserSchedule) RemoveExceptionDate(date string) {
	s.ExceptionDates = slices.DeleteFunc(s.ExceptionDates, func(d string) bool { return d == date })
}

// TimesFor returns the auto/away times in effect on the given weekday, ignoring disable flags.
func (s *UserSchedule) TimesFor(weekday time.Weekday) (timeAuto, timeAway string) {
	switch {
	case weekday == time.Saturday && s.DifferentSaturdaySchedule:
		return s.SaturdayTimeAuto, s.SaturdayTimeAway
	case weekday == time.Sunday && s.DifferentSundaySchedule:
		return s.SundayTimeAuto, s.SundayTimeAway
	default:
		return s.TimeAuto, s.TimeAway
	}
}

// DisabledOn reports whether scheduled updates are switched off for the weekday.
func (s *UserSchedule) DisabledOn(weekday time.Weekday) bool {
	switch weekday {
	case time.Saturday:
		return s.DisableSaturdaySchedule
	case time.Sunday:
		return s.DisableSundaySchedule
	default:
		return false
	}
}
