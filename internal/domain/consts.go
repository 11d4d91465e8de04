package domain

import "time"

// IndexName identifies one of the boolean user indices.
type IndexName string

const (
	IndexHasAuth     IndexName = "HAS_AUTH"
	IndexHasTimezone IndexName = "HAS_TIMEZONE"
	IndexHasSchedule IndexName = "HAS_SCHEDULE"
)

// CandidateIndices must all contain a user id for the scheduler to consider that user.
var CandidateIndices = []IndexName{IndexHasAuth, IndexHasTimezone, IndexHasSchedule}

const (
	// DefaultToleranceMinutes is the half-width of the window around a target time.
	DefaultToleranceMinutes = 10

	// DefaultPageSize bounds how many users a tick processes concurrently.
	DefaultPageSize = 10

	// MaxToleranceMinutes is the largest tolerance whose windows cannot invert.
	MaxToleranceMinutes = 719
)

// Slack OAuth user scopes the app asks for. users:write is mandatory.
const (
	ScopeUsersWrite = "users:write"
	ScopeUsersRead  = "users:read"
)

// WeekdayNames maps command keywords to time.Weekday values.
var WeekdayNames = map[string]time.Weekday{
	"sat":      time.Saturday,
	"saturday": time.Saturday,
	"sun":      time.Sunday,
	"sunday":   time.Sunday,
}
