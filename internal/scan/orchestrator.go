package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/op/go-logging"

	"github.com/ymmc1111/ticketscout/internal/inventory"
	"github.com/ymmc1111/ticketscout/internal/models"
	"github.com/ymmc1111/ticketscout/internal/queue"
)

var log = logging.MustGetLogger("scan")

// JobStore is the slice of the document store the scan needs.
type JobStore interface {
	// ListActiveJobs returns every job with status ACTIVE at scan start.
	ListActiveJobs(ctx context.Context) ([]models.Job, error)

	// ClaimJob atomically flips one ACTIVE job to COMPLETE and stamps
	// notification_sent_at. It returns false (and no error) when the job was
	// no longer ACTIVE, i.e. another scan already owns the notification.
	ClaimJob(ctx context.Context, jobID string, sentAtMs int64) (bool, error)

	// CommitUpdates applies all staged mutations as one atomic write.
	// A no-op on an empty list.
	CommitUpdates(ctx context.Context, updates []models.JobUpdate) error
}

// Dispatcher fans one triggered alert out over the job's channels.
type Dispatcher interface {
	Dispatch(ctx context.Context, job models.Job, status models.StatusKey, priceMin, priceMax *float64)
}

// AlertPublisher feeds fired alerts to the audit topic. Optional.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert queue.AlertMessage) error
}

// Result summarizes one scan pass.
type Result struct {
	Processed int // jobs that went through an inventory check
	Updated   int // jobs whose state was committed
}

func (r Result) String() string {
	return fmt.Sprintf("scan complete: %d jobs processed, %d updated", r.Processed, r.Updated)
}

// Scanner drives one full pass over the active job set: check inventory,
// compare against the stored snapshot, claim and notify on a newly-available
// transition, and commit all staged updates in one batch at the end.
//
// Jobs are processed strictly sequentially; only the checker's per-request
// timeout bounds an individual step.
type Scanner struct {
	Store   JobStore
	Checker inventory.Checker
	Alerts  Dispatcher
	Feed    AlertPublisher // nil disables the audit feed

	// Now is the clock; defaults to time.Now when nil.
	Now func() time.Time
}

// RunScan executes one scan. Per-job soft failures (missing fields,
// undecodable snapshots, error-sentinel checks) never abort the pass;
// a store failure on the list or the final commit fails the whole scan.
func (s *Scanner) RunScan(ctx context.Context) (Result, error) {
	scanID := uuid.NewString()
	log.Infof("scan %s: starting", scanID)

	jobs, err := s.Store.ListActiveJobs(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("listing active jobs: %w", err)
	}

	var res Result
	var updates []models.JobUpdate

	for _, job := range jobs {
		if job.Status != models.JobActive {
			// The store query already filters on ACTIVE; never poll for
			// anything else regardless of what the source hands back.
			continue
		}
		if job.EventID == "" || !job.HasContact() {
			log.Warningf("scan %s: skipping job %s: missing event id or contact channel", scanID, job.JobID)
			continue
		}
		res.Processed++

		newKey, snap := s.Checker.Check(ctx, job.EventID)
		prevKey := s.previousStatus(job)

		newlyAvailable, needsPersist := Decide(prevKey, newKey)

		if newlyAvailable {
			s.trigger(ctx, scanID, job, newKey, snap)
		}

		if needsPersist {
			blob, err := models.EncodeSnapshot(snap)
			if err != nil {
				log.Errorf("scan %s: job %s: could not encode snapshot: %v", scanID, job.JobID, err)
				continue
			}
			updates = append(updates, models.JobUpdate{JobID: job.JobID, CurrentAvailability: blob})
		} else {
			log.Debugf("scan %s: job %s checked, status is still %s", scanID, job.JobID, newKey)
		}
	}

	if err := s.Store.CommitUpdates(ctx, updates); err != nil {
		return Result{}, fmt.Errorf("committing %d job updates: %w", len(updates), err)
	}
	res.Updated = len(updates)

	log.Infof("scan %s: %s", scanID, res)
	return res, nil
}

// previousStatus recovers the baseline status from the job's stored
// snapshot. Absent or malformed blobs degrade to UNKNOWN.
func (s *Scanner) previousStatus(job models.Job) models.StatusKey {
	snap, outcome := models.DecodeSnapshot(job.CurrentAvailability)
	switch outcome {
	case models.DecodeMalformed:
		log.Warningf("job %s: stored snapshot is malformed, treating previous status as UNKNOWN", job.JobID)
		return models.StatusUnknown
	case models.DecodeAbsent:
		return models.StatusUnknown
	}
	if snap.Status == "" {
		return models.StatusUnknown
	}
	return snap.Status
}

// trigger claims the job and, if the claim is won, dispatches the alert and
// publishes it to the audit feed. Losing the claim means another scan
// already notified, so the job is left alone.
func (s *Scanner) trigger(ctx context.Context, scanID string, job models.Job, status models.StatusKey, snap models.Snapshot) {
	sentAt := s.now()
	claimed, err := s.Store.ClaimJob(ctx, job.JobID, sentAt.UnixMilli())
	if err != nil {
		log.Errorf("scan %s: job %s: claim failed: %v", scanID, job.JobID, err)
		return
	}
	if !claimed {
		log.Infof("scan %s: job %s already claimed, skipping notification", scanID, job.JobID)
		return
	}

	s.Alerts.Dispatch(ctx, job, status, snap.PriceMin, snap.PriceMax)
	log.Infof("scan %s: job %s triggered notification and marked COMPLETE", scanID, job.JobID)

	if s.Feed != nil {
		alert := queue.AlertMessage{
			JobID:   job.JobID,
			EventID: job.EventID,
			Status:  string(status),
			ScanID:  scanID,
			SentAt:  sentAt.UnixMilli(),
		}
		if err := s.Feed.PublishAlert(ctx, alert); err != nil {
			log.Errorf("scan %s: job %s: alert feed publish failed: %v", scanID, job.JobID, err)
		}
	}
}

func (s *Scanner) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
