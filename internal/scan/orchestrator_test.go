package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ymmc1111/ticketscout/internal/models"
	"github.com/ymmc1111/ticketscout/internal/queue"
)

type fakeStore struct {
	jobs      []models.Job
	listErr   error
	commitErr error
	claimOK   bool
	claimErr  error

	claims    []string
	claimedAt []int64
	committed []models.JobUpdate
	commits   int
}

func (f *fakeStore) ListActiveJobs(context.Context) ([]models.Job, error) {
	return f.jobs, f.listErr
}

func (f *fakeStore) ClaimJob(_ context.Context, jobID string, sentAtMs int64) (bool, error) {
	f.claims = append(f.claims, jobID)
	f.claimedAt = append(f.claimedAt, sentAtMs)
	return f.claimOK, f.claimErr
}

func (f *fakeStore) CommitUpdates(_ context.Context, updates []models.JobUpdate) error {
	f.commits++
	f.committed = updates
	return f.commitErr
}

type fakeChecker struct {
	status models.StatusKey
	snap   models.Snapshot
	checks []string
}

func (f *fakeChecker) Check(_ context.Context, eventID string) (models.StatusKey, models.Snapshot) {
	f.checks = append(f.checks, eventID)
	return f.status, f.snap
}

type dispatched struct {
	job      models.Job
	status   models.StatusKey
	min, max *float64
}

type fakeDispatcher struct {
	calls []dispatched
}

func (f *fakeDispatcher) Dispatch(_ context.Context, job models.Job, status models.StatusKey, priceMin, priceMax *float64) {
	f.calls = append(f.calls, dispatched{job, status, priceMin, priceMax})
}

type fakeFeed struct {
	alerts []queue.AlertMessage
}

func (f *fakeFeed) PublishAlert(_ context.Context, alert queue.AlertMessage) error {
	f.alerts = append(f.alerts, alert)
	return nil
}

func mustBlob(t *testing.T, status models.StatusKey) string {
	t.Helper()
	blob, err := models.EncodeSnapshot(models.Snapshot{
		Status:       status,
		ResaleStatus: "UNKNOWN",
		LastChecked:  time.Date(2026, 8, 30, 11, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return blob
}

func fixedNow() time.Time {
	return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
}

func price(v float64) *float64 { return &v }

func activeJob(id string) models.Job {
	return models.Job{
		JobID:   id,
		EventID: "EV-" + id,
		Email:   id + "@example.com",
		Status:  models.JobActive,
	}
}

func TestScanTriggersOnNewlyAvailable(t *testing.T) {
	job := activeJob("j1")
	job.CurrentAvailability = mustBlob(t, models.TicketsNotAvailable)

	st := &fakeStore{jobs: []models.Job{job}, claimOK: true}
	checker := &fakeChecker{
		status: models.FewTicketsLeft,
		snap: models.Snapshot{
			Status:       models.FewTicketsLeft,
			ResaleStatus: "UNKNOWN",
			PriceMin:     price(70),
			PriceMax:     price(120),
			LastChecked:  fixedNow(),
		},
	}
	disp := &fakeDispatcher{}
	feed := &fakeFeed{}

	s := &Scanner{Store: st, Checker: checker, Alerts: disp, Feed: feed, Now: fixedNow}
	res, err := s.RunScan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Updated)

	// Claimed before dispatch, stamped with the scan clock.
	require.Equal(t, []string{"j1"}, st.claims)
	assert.Equal(t, fixedNow().UnixMilli(), st.claimedAt[0])

	require.Len(t, disp.calls, 1)
	assert.Equal(t, models.FewTicketsLeft, disp.calls[0].status)
	assert.Equal(t, 70.0, *disp.calls[0].min)
	assert.Equal(t, 120.0, *disp.calls[0].max)

	require.Len(t, st.committed, 1)
	persisted, outcome := models.DecodeSnapshot(st.committed[0].CurrentAvailability)
	assert.Equal(t, models.DecodeOK, outcome)
	assert.Equal(t, models.FewTicketsLeft, persisted.Status)

	require.Len(t, feed.alerts, 1)
	assert.Equal(t, "j1", feed.alerts[0].JobID)
	assert.Equal(t, "EV-j1", feed.alerts[0].EventID)
}

func TestScanPersistsWithoutTriggerWithinAvailableClass(t *testing.T) {
	job := activeJob("j1")
	job.CurrentAvailability = mustBlob(t, models.TicketsAvailable)

	st := &fakeStore{jobs: []models.Job{job}, claimOK: true}
	checker := &fakeChecker{
		status: models.FewTicketsLeft,
		snap:   models.Snapshot{Status: models.FewTicketsLeft, ResaleStatus: "UNKNOWN", LastChecked: fixedNow()},
	}
	disp := &fakeDispatcher{}

	s := &Scanner{Store: st, Checker: checker, Alerts: disp, Now: fixedNow}
	res, err := s.RunScan(context.Background())
	require.NoError(t, err)

	assert.Empty(t, disp.calls, "already-available jobs must not re-trigger")
	assert.Empty(t, st.claims)
	assert.Len(t, st.committed, 1, "status string changed, snapshot persists")
	assert.Equal(t, 1, res.Updated)
}

func TestScanPersistsErrorSentinel(t *testing.T) {
	job := activeJob("j1")
	job.CurrentAvailability = mustBlob(t, models.TicketsNotAvailable)

	st := &fakeStore{jobs: []models.Job{job}, claimOK: true}
	checker := &fakeChecker{
		status: models.Forbidden,
		snap:   models.Snapshot{Status: models.Forbidden, ResaleStatus: "UNKNOWN", LastChecked: fixedNow()},
	}
	disp := &fakeDispatcher{}

	s := &Scanner{Store: st, Checker: checker, Alerts: disp, Now: fixedNow}
	_, err := s.RunScan(context.Background())
	require.NoError(t, err)

	assert.Empty(t, disp.calls)
	require.Len(t, st.committed, 1)
	persisted, _ := models.DecodeSnapshot(st.committed[0].CurrentAvailability)
	assert.Equal(t, models.Forbidden, persisted.Status)
}

func TestScanSkipsIncompleteJobs(t *testing.T) {
	noEvent := models.Job{JobID: "j1", Email: "a@b.c", Status: models.JobActive}
	noContact := models.Job{JobID: "j2", EventID: "EV-2", Status: models.JobActive}

	st := &fakeStore{jobs: []models.Job{noEvent, noContact}, claimOK: true}
	checker := &fakeChecker{status: models.TicketsAvailable, snap: models.Snapshot{Status: models.TicketsAvailable}}
	disp := &fakeDispatcher{}

	s := &Scanner{Store: st, Checker: checker, Alerts: disp, Now: fixedNow}
	res, err := s.RunScan(context.Background())
	require.NoError(t, err, "skips are not scan failures")

	assert.Empty(t, checker.checks, "incomplete jobs are never checked")
	assert.Empty(t, disp.calls)
	assert.Empty(t, st.committed)
	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 0, res.Updated)
}

func TestScanNeverChecksInactiveJobs(t *testing.T) {
	complete := activeJob("j1")
	complete.Status = models.JobComplete

	st := &fakeStore{jobs: []models.Job{complete}, claimOK: true}
	checker := &fakeChecker{status: models.TicketsAvailable, snap: models.Snapshot{Status: models.TicketsAvailable}}
	disp := &fakeDispatcher{}

	s := &Scanner{Store: st, Checker: checker, Alerts: disp, Now: fixedNow}
	res, err := s.RunScan(context.Background())
	require.NoError(t, err)

	assert.Empty(t, checker.checks)
	assert.Equal(t, 0, res.Processed)
}

func TestScanIdempotentWhenNothingChanged(t *testing.T) {
	j1 := activeJob("j1")
	j1.CurrentAvailability = mustBlob(t, models.TicketsNotAvailable)
	j2 := activeJob("j2")
	j2.CurrentAvailability = mustBlob(t, models.TicketsNotAvailable)

	st := &fakeStore{jobs: []models.Job{j1, j2}, claimOK: true}
	checker := &fakeChecker{
		status: models.TicketsNotAvailable,
		snap:   models.Snapshot{Status: models.TicketsNotAvailable, ResaleStatus: "UNKNOWN", LastChecked: fixedNow()},
	}
	disp := &fakeDispatcher{}

	s := &Scanner{Store: st, Checker: checker, Alerts: disp, Now: fixedNow}
	res, err := s.RunScan(context.Background())
	require.NoError(t, err)

	assert.Empty(t, disp.calls)
	assert.Empty(t, st.committed)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 0, res.Updated)
}

func TestScanMalformedSnapshotDegradesToUnknown(t *testing.T) {
	job := activeJob("j1")
	job.CurrentAvailability = "{not json"

	st := &fakeStore{jobs: []models.Job{job}, claimOK: true}
	checker := &fakeChecker{
		status: models.TicketsAvailable,
		snap:   models.Snapshot{Status: models.TicketsAvailable, ResaleStatus: "UNKNOWN", LastChecked: fixedNow()},
	}
	disp := &fakeDispatcher{}

	s := &Scanner{Store: st, Checker: checker, Alerts: disp, Now: fixedNow}
	_, err := s.RunScan(context.Background())
	require.NoError(t, err)

	// Previous degrades to UNKNOWN, so the available check triggers.
	assert.Len(t, disp.calls, 1)
}

func TestScanLostClaimSkipsDispatch(t *testing.T) {
	job := activeJob("j1")
	job.CurrentAvailability = mustBlob(t, models.TicketsNotAvailable)

	st := &fakeStore{jobs: []models.Job{job}, claimOK: false}
	checker := &fakeChecker{
		status: models.TicketsAvailable,
		snap:   models.Snapshot{Status: models.TicketsAvailable, ResaleStatus: "UNKNOWN", LastChecked: fixedNow()},
	}
	disp := &fakeDispatcher{}

	s := &Scanner{Store: st, Checker: checker, Alerts: disp, Now: fixedNow}
	_, err := s.RunScan(context.Background())
	require.NoError(t, err)

	assert.Len(t, st.claims, 1)
	assert.Empty(t, disp.calls, "a lost claim means another scan already notified")
	assert.Len(t, st.committed, 1, "snapshot still persists")
}

func TestScanFailsWhenListFails(t *testing.T) {
	st := &fakeStore{listErr: errors.New("dynamo unreachable")}
	s := &Scanner{Store: st, Checker: &fakeChecker{}, Alerts: &fakeDispatcher{}, Now: fixedNow}

	_, err := s.RunScan(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, st.commits, "no commit is attempted after a list failure")
}

func TestScanFailsWhenCommitFails(t *testing.T) {
	job := activeJob("j1")
	job.CurrentAvailability = mustBlob(t, models.TicketsNotAvailable)

	st := &fakeStore{jobs: []models.Job{job}, claimOK: true, commitErr: errors.New("transaction canceled")}
	checker := &fakeChecker{
		status: models.APIError,
		snap:   models.Snapshot{Status: models.APIError, ResaleStatus: "UNKNOWN", LastChecked: fixedNow()},
	}

	s := &Scanner{Store: st, Checker: checker, Alerts: &fakeDispatcher{}, Now: fixedNow}
	_, err := s.RunScan(context.Background())
	assert.Error(t, err)
}
