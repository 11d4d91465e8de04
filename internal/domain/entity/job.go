package entity

// JobType names the asynchronous jobs the app runs outside the request path.
type JobType string

const (
	JobStoreAuth      JobType = "STORE_AUTH"
	JobStoreTimezone  JobType = "STORE_TIMEZONE"
	JobUpdateSchedule JobType = "UPDATE_SCHEDULE"
	JobClearSchedule  JobType = "CLEAR_SCHEDULE"
	JobLogout         JobType = "LOGOUT"
	JobIndexUserData  JobType = "INDEX_USER_DATA"
)

// Job carries everything a job handler needs; unused fields stay empty.
type Job struct {
	ID           string            `json:"id"`
	Type         JobType           `json:"type"`
	UserID       string            `json:"userId"`
	ResponseURL  string            `json:"responseUrl,omitempty"`
	AuthToken    string            `json:"authToken,omitempty"`
	TimezoneName string            `json:"timezoneName,omitempty"`
	Mutation     *ScheduleMutation `json:"mutation,omitempty"`
}

// JobEvent is the payload delivered to the jobs function.
type JobEvent struct {
	Job Job `json:"job"`
}
