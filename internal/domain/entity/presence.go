package entity

import "fmt"

// Presence is the Slack presence value accepted by users.setPresence.
type Presence string

const (
	PresenceAuto Presence = "auto"
	PresenceAway Presence = "away"
)

// Decision is what the schedule evaluator wants done right now.
type Decision int

const (
	NoChange Decision = iota
	SetAuto
	SetAway
)

func (d Decision) String() string {
	switch d {
	case SetAuto:
		return "SetAuto"
	case SetAway:
		return "SetAway"
	default:
		return "NoChange"
	}
}

// Presence returns the target presence and false for NoChange.
func (d Decision) Presence() (Presence, bool) {
	switch d {
	case SetAuto:
		return PresenceAuto, true
	case SetAway:
		return PresenceAway, true
	default:
		return "", false
	}
}

type OutcomeStatus string

const (
	OutcomeUpdated OutcomeStatus = "updated"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Skip reasons reported in Outcome.Reason.
const (
	ReasonMissingAuth     = "missing-auth"
	ReasonMissingTimezone = "missing-timezone"
	ReasonMissingSchedule = "missing-schedule"
	ReasonNotFound        = "not-found"
	ReasonOutOfWindow     = "out-of-window"
)

// Outcome is the result of processing one user during a tick.
type Outcome struct {
	UserID   string
	Status   OutcomeStatus
	Presence Presence
	Reason   string
	Err      error
}

func Updated(userID string, presence Presence) Outcome {
	return Outcome{UserID: userID, Status: OutcomeUpdated, Presence: presence}
}

func Skipped(userID, reason string) Outcome {
	return Outcome{UserID: userID, Status: OutcomeSkipped, Reason: reason}
}

func Failed(userID string, err error) Outcome {
	return Outcome{UserID: userID, Status: OutcomeFailed, Err: err}
}

func (o Outcome) String() string {
	switch o.Status {
	case OutcomeUpdated:
		return fmt.Sprintf("%s: updated to %s", o.UserID, o.Presence)
	case OutcomeSkipped:
		return fmt.Sprintf("%s: skipped (%s)", o.UserID, o.Reason)
	default:
		return fmt.Sprintf("%s: failed: %v", o.UserID, o.Err)
	}
}

// TickReport summarizes one fleet tick.
type TickReport struct {
	Candidates int
	Updated    int
	Skipped    int
	Failed     int
	Outcomes   []Outcome
}

func (r *TickReport) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case OutcomeUpdated:
		r.Updated++
	case OutcomeSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
}

// OAuthGrant is the user token obtained from the OAuth code exchange.
type OAuthGrant struct {
	UserID      string
	TeamID      string
	AccessToken string
	Scopes      []string
}
