package models

// JobStatus is the lifecycle state of a monitor job. ACTIVE jobs are polled
// every scan; COMPLETE jobs are permanently excluded.
type JobStatus string

const (
	JobActive   JobStatus = "ACTIVE"
	JobComplete JobStatus = "COMPLETE"
)

// Job is one persisted request to monitor an event for ticket availability.
// Jobs are created by the sync component and only mutated here: the scan
// updates current_availability on every observed change, and flips
// status/notification_sent_at exactly once when the job triggers.
type Job struct {
	JobID   string `dynamodbav:"job_id" json:"job_id"`
	EventID string `dynamodbav:"event_id" json:"event_id"`

	// Contact channels; any subset may be present.
	Email     string `dynamodbav:"email" json:"email"`
	Phone     string `dynamodbav:"phone" json:"phone"`
	PushToken string `dynamodbav:"push_token" json:"push_token"`

	Status JobStatus `dynamodbav:"status" json:"status"`

	// Serialized Snapshot blob; see EncodeSnapshot/DecodeSnapshot.
	CurrentAvailability string `dynamodbav:"current_availability" json:"current_availability"`

	// Epoch ms, set once when the triggering notification fires.
	NotificationSentAt int64 `dynamodbav:"notification_sent_at" json:"notification_sent_at"`

	CreatedAt int64 `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt int64 `dynamodbav:"updated_at" json:"updated_at"`
}

// HasContact reports whether the job has at least one notification channel
// to deliver to.
func (j *Job) HasContact() bool {
	return j.Email != "" || j.Phone != "" || j.PushToken != ""
}
