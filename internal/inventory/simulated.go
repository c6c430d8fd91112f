package inventory

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/ymmc1111/ticketscout/internal/models"
)

// Simulated is the Checker used when no API key is configured. It is fully
// deterministic for a fixed (eventID, minute) pair: the generator is seeded
// from the event id and the wall-clock minute, so repeated checks within the
// same minute agree and tests can pin the clock.
//
// Late in the hour tickets tend to appear: minute >= 30 biases toward
// TICKETS_AVAILABLE, minute > 15 toward FEW_TICKETS_LEFT, otherwise
// TICKETS_NOT_AVAILABLE.
type Simulated struct {
	// Now is the clock; defaults to time.Now when nil.
	Now func() time.Time
}

func (s *Simulated) Check(_ context.Context, eventID string) (models.StatusKey, models.Snapshot) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	minute := now.Minute()

	h := fnv.New64a()
	_, _ = h.Write([]byte(eventID))
	rng := rand.New(rand.NewSource(int64(h.Sum64()) ^ int64(minute)))

	snap := models.Snapshot{
		Status:       models.TicketsNotAvailable,
		ResaleStatus: "UNKNOWN",
		LastChecked:  now.UTC(),
	}

	switch {
	case minute >= 30 && rng.Float64() < 0.6:
		snap.Status = models.TicketsAvailable
		snap.PriceMin = priceBetween(rng, 50, 100)
		snap.PriceMax = priceBetween(rng, 150, 300)
	case minute > 15:
		snap.Status = models.FewTicketsLeft
		snap.PriceMin = priceBetween(rng, 70, 120)
		snap.PriceMax = priceBetween(rng, 180, 400)
	}

	return snap.Status, snap
}

func priceBetween(rng *rand.Rand, lo, hi float64) *float64 {
	p := math.Round((lo+rng.Float64()*(hi-lo))*100) / 100
	return &p
}
