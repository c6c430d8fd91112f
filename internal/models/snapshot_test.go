package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	min := 70.5
	max := 120.0
	orig := Snapshot{
		Status:       FewTicketsLeft,
		ResaleStatus: "RESALE_OPEN",
		PriceMin:     &min,
		PriceMax:     &max,
		LastChecked:  time.Date(2026, 8, 30, 12, 34, 56, 0, time.UTC),
	}

	blob, err := EncodeSnapshot(orig)
	require.NoError(t, err)

	decoded, outcome := DecodeSnapshot(blob)
	assert.Equal(t, DecodeOK, outcome)
	assert.Equal(t, orig, decoded)
}

func TestSnapshotRoundTripNoPrices(t *testing.T) {
	orig := Snapshot{
		Status:       RateLimitError,
		ResaleStatus: "UNKNOWN",
		LastChecked:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	blob, err := EncodeSnapshot(orig)
	require.NoError(t, err)

	decoded, outcome := DecodeSnapshot(blob)
	assert.Equal(t, DecodeOK, outcome)
	assert.Equal(t, orig, decoded)
	assert.Nil(t, decoded.PriceMin)
	assert.Nil(t, decoded.PriceMax)
}

func TestDecodeSnapshotAbsent(t *testing.T) {
	snap, outcome := DecodeSnapshot("")
	assert.Equal(t, DecodeAbsent, outcome)
	assert.Equal(t, Snapshot{}, snap)
}

func TestDecodeSnapshotMalformed(t *testing.T) {
	snap, outcome := DecodeSnapshot("{not json")
	assert.Equal(t, DecodeMalformed, outcome)
	assert.Equal(t, Snapshot{}, snap)
}

func TestStatusKeyAvailable(t *testing.T) {
	assert.True(t, TicketsAvailable.Available())
	assert.True(t, FewTicketsLeft.Available())

	for _, k := range []StatusKey{
		TicketsNotAvailable, QueueRedirect, Forbidden, RateLimitError,
		ProxyError, APIError, UnknownError, StatusUnknown,
	} {
		assert.False(t, k.Available(), "%s should not be available-class", k)
	}
}

func TestJobHasContact(t *testing.T) {
	assert.False(t, (&Job{}).HasContact())
	assert.True(t, (&Job{Email: "a@b.c"}).HasContact())
	assert.True(t, (&Job{Phone: "+12025550100"}).HasContact())
	assert.True(t, (&Job{PushToken: "tok"}).HasContact())
}
