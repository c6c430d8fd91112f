package models

// JobUpdate is one staged mutation produced by a scan pass. Status and
// notification_sent_at are flipped separately by the claim, so the batch
// only ever carries the refreshed availability blob.
type JobUpdate struct {
	JobID               string
	CurrentAvailability string
}
