package scan

import "github.com/ymmc1111/ticketscout/internal/models"

// Decide compares the previous and freshly observed status for one job.
//
// newlyAvailable is the sole notification trigger: the new status entered
// the available class from outside it. Moving between two available-class
// states, or between two unavailable states, never re-triggers.
//
// needsPersist is true on any observed change, error sentinels included, so
// the next scan compares against an accurate baseline.
func Decide(prev, next models.StatusKey) (newlyAvailable, needsPersist bool) {
	newlyAvailable = next.Available() && !prev.Available()
	needsPersist = next != prev || newlyAvailable
	return newlyAvailable, needsPersist
}
