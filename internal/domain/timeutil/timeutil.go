// Package timeutil converts UTC instants into timezone-local wall clock values.
//
// Every function takes the instant explicitly so callers (and tests) control "now".
package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

const minutesPerDay = 24 * 60

var (
	ErrUnknownTimezone = errors.New("unknown timezone")
	ErrInvalidClock    = errors.New("invalid clock time")
)

// Clock is a local wall clock time with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses a 24-hour "HH:MM" value.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || !isTwoDigits(parts[0]) || !isTwoDigits(parts[1]) {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return Clock{}, fmt.Errorf("%w: invalid hour in %q", ErrInvalidClock, s)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("%w: invalid minute in %q", ErrInvalidClock, s)
	}

	return Clock{Hour: hour, Minute: minute}, nil
}

func isTwoDigits(s string) bool {
	return len(s) == 2 && s[0] >= '0' && s[0] <= '9' && s[1] >= '0' && s[1] <= '9'
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Military encodes the clock as hour*100+minute, so 09:05 < 09:30 compares as integers.
func (c Clock) Military() int {
	return c.Hour*100 + c.Minute
}

func (c Clock) minutes() int {
	return c.Hour*60 + c.Minute
}

// AddMinutes shifts the clock by delta minutes, wrapping across midnight in both directions.
func AddMinutes(c Clock, delta int) Clock {
	total := (c.minutes() + delta) % minutesPerDay
	if total < 0 {
		total += minutesPerDay
	}
	return Clock{Hour: total / 60, Minute: total % 60}
}

var locations sync.Map

func loadLocation(name string) (*time.Location, error) {
	if cached, ok := locations.Load(name); ok {
		return cached.(*time.Location), nil
	}

	// time.LoadLocation accepts "" and "Local", neither of which is a user timezone
	if strings.TrimSpace(name) == "" || name == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, name)
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnknownTimezone, name, err)
	}

	locations.Store(name, loc)
	return loc, nil
}

// ValidateTimezone reports whether name is a recognized IANA zone and returns its canonical name.
func ValidateTimezone(name string) (string, error) {
	loc, err := loadLocation(name)
	if err != nil {
		return "", err
	}
	return loc.String(), nil
}

// Localize returns now as seen in the named zone, honoring the zone's offset at that instant.
func Localize(now time.Time, timezoneName string) (time.Time, error) {
	loc, err := loadLocation(timezoneName)
	if err != nil {
		return time.Time{}, err
	}
	return now.In(loc), nil
}

func LocalWallTime(now time.Time, timezoneName string) (Clock, error) {
	local, err := Localize(now, timezoneName)
	if err != nil {
		return Clock{}, err
	}
	return Clock{Hour: local.Hour(), Minute: local.Minute()}, nil
}

// LocalDate returns the local calendar date as YYYY-MM-DD.
func LocalDate(now time.Time, timezoneName string) (string, error) {
	local, err := Localize(now, timezoneName)
	if err != nil {
		return "", err
	}
	return local.Format(time.DateOnly), nil
}

// LocalWeekday is computed from the local date, which may differ from the UTC date.
func LocalWeekday(now time.Time, timezoneName string) (time.Weekday, error) {
	local, err := Localize(now, timezoneName)
	if err != nil {
		return time.Sunday, err
	}
	return local.Weekday(), nil
}

// IsLocalTimeInRange reports whether the local wall time lies in [start, end], inclusive.
// There is no wraparound: when start is after end the range is empty.
func IsLocalTimeInRange(now time.Time, timezoneName string, start, end Clock) (bool, error) {
	local, err := LocalWallTime(now, timezoneName)
	if err != nil {
		return false, err
	}

	current := local.Military()
	return current >= start.Military() && current <= end.Military(), nil
}
