package queue

// AlertMessage is one fired notification on the audit topic.
type AlertMessage struct {
	JobID   string `json:"job_id"`
	EventID string `json:"event_id"`
	Status  string `json:"status"`
	ScanID  string `json:"scan_id"`
	SentAt  int64  `json:"sent_at"` // epoch ms
}
