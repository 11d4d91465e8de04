package entity

import (
	"strings"
	"time"
)

// UserRecord is everything stored for a single Slack user.
type UserRecord struct {
	UserID       string        `json:"userId" dynamodbav:"userId"`
	AuthToken    string        `json:"authToken,omitempty" dynamodbav:"authToken,omitempty"`
	TimezoneName string        `json:"timezoneName,omitempty" dynamodbav:"timezoneName,omitempty"`
	Schedule     *UserSchedule `json:"schedule,omitempty" dynamodbav:"schedule,omitempty"`
	UpdatedAt    time.Time     `json:"updatedAt" dynamodbav:"updatedAt"`
}

func (r *UserRecord) HasAuth() bool {
	return r != nil && strings.TrimSpace(r.AuthToken) != ""
}

func (r *UserRecord) HasTimezone() bool {
	return r != nil && strings.TrimSpace(r.TimezoneName) != ""
}

// HasSchedule only counts schedules whose default times are usable.
func (r *UserRecord) HasSchedule() bool {
	return r != nil && r.Schedule != nil && r.Schedule.Validate() == nil
}

// Field identifies a UserRecord field that a patch can unset.
type Field uint8

const (
	FieldAuthToken Field = 1 << iota
	FieldTimezone
	FieldSchedule
)

// UserPatch is a partial update. Nil fields keep the stored value; Unset clears fields.
type UserPatch struct {
	AuthToken    *string
	TimezoneName *string
	Schedule     *UserSchedule
	Unset        Field
}

// Merge applies patch on top of existing (which may be nil) and returns the new record.
// Unset is applied after the set fields, so a patch can never both set and clear a field.
func Merge(existing *UserRecord, userID string, patch UserPatch, now time.Time) UserRecord {
	var merged UserRecord
	if existing != nil {
		merged = *existing
		if existing.Schedule != nil {
			merged.Schedule = existing.Schedule.Clone()
		}
	}
	merged.UserID = userID
	merged.UpdatedAt = now

	if patch.AuthToken != nil {
		merged.AuthToken = *patch.AuthToken
	}
	if patch.TimezoneName != nil {
		merged.TimezoneName = *patch.TimezoneName
	}
	if patch.Schedule != nil {
		merged.Schedule = patch.Schedule.Clone()
	}

	if patch.Unset&FieldAuthToken != 0 {
		merged.AuthToken = ""
	}
	if patch.Unset&FieldTimezone != 0 {
		merged.TimezoneName = ""
	}
	if patch.Unset&FieldSchedule != 0 {
		merged.Schedule = nil
	}

	return merged
}

// UserStatus is the read model behind the status command.
type UserStatus struct {
	UserID        string
	Authenticated bool
	TimezoneName  string
	Schedule      *UserSchedule
}

func NewUserStatus(userID string, record *UserRecord) *UserStatus {
	status := &UserStatus{UserID: userID}
	if record == nil {
		return status
	}
	status.Authenticated = record.HasAuth()
	status.TimezoneName = record.TimezoneName
	if record.Schedule != nil {
		status.Schedule = record.Schedule.Clone()
	}
	return status
}

// Diagnosis explains what the scheduler would do for a user at a given instant.
type Diagnosis struct {
	Status    *UserStatus
	Indices   []string
	LocalTime string
	Decision  Decision
	Reason    string
	Err       error
}
