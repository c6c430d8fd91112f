package models

import (
	"encoding/json"
	"time"
)

// StatusKey spans both domain ticket states and transport-error sentinels.
// Error sentinels are persisted exactly like ticket states and simply
// re-evaluated on the next scan; the comparator does not distinguish a
// transient rate limit from a genuine status change.
type StatusKey string

const (
	TicketsAvailable    StatusKey = "TICKETS_AVAILABLE"
	FewTicketsLeft      StatusKey = "FEW_TICKETS_LEFT"
	TicketsNotAvailable StatusKey = "TICKETS_NOT_AVAILABLE"

	QueueRedirect  StatusKey = "QUEUE_REDIRECT"
	Forbidden      StatusKey = "FORBIDDEN"
	RateLimitError StatusKey = "RATE_LIMIT_ERROR"
	ProxyError     StatusKey = "PROXY_ERROR"
	APIError       StatusKey = "API_ERROR"
	UnknownError   StatusKey = "UNKNOWN_ERROR"
	StatusUnknown  StatusKey = "UNKNOWN"
)

// Available reports whether the key is in the available class, i.e. a state
// that should trigger a notification when entered from outside the class.
func (k StatusKey) Available() bool {
	return k == TicketsAvailable || k == FewTicketsLeft
}

// Snapshot is the normalized result of one inventory check. PriceMin and
// PriceMax are nil when the endpoint returned no price range.
type Snapshot struct {
	Status       StatusKey `json:"status"`
	ResaleStatus string    `json:"resaleStatus"`
	PriceMin     *float64  `json:"priceMin"`
	PriceMax     *float64  `json:"priceMax"`
	LastChecked  time.Time `json:"last_checked"`
}

// DecodeOutcome tells a caller why a stored snapshot blob did not decode,
// so skip reasons stay observable instead of being swallowed.
type DecodeOutcome int

const (
	DecodeOK DecodeOutcome = iota
	DecodeAbsent
	DecodeMalformed
)

// EncodeSnapshot serializes a snapshot into the blob stored on the job
// record. The store's schema never models the snapshot structurally.
func EncodeSnapshot(s Snapshot) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeSnapshot parses a stored availability blob. An empty blob yields
// DecodeAbsent, an unparseable one DecodeMalformed; in both cases the zero
// Snapshot is returned and the caller should treat the previous status as
// UNKNOWN rather than aborting the job.
func DecodeSnapshot(blob string) (Snapshot, DecodeOutcome) {
	if blob == "" {
		return Snapshot{}, DecodeAbsent
	}
	var s Snapshot
	if err := json.Unmarshal([]byte(blob), &s); err != nil {
		return Snapshot{}, DecodeMalformed
	}
	return s, DecodeOK
}
