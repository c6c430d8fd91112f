package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/op/go-logging"

	"github.com/ymmc1111/ticketscout/internal/models"
)

var log = logging.MustGetLogger("notify")

// EmailSender delivers one alert email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers one alert SMS to an E.164 number.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

// PushSender delivers one alert push message to a device token.
type PushSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// Dispatcher fans a triggered alert out over whichever channels the job has
// a contact for. A nil sender means that transport is unconfigured. Channel
// attempts are independent and best-effort: a failure is logged and never
// blocks the other channels or the job.
type Dispatcher struct {
	Email EmailSender
	SMS   SMSSender
	Push  PushSender
}

// Dispatch sends the newly-available alert for one job. Invoked only after
// the job's claim succeeded, so it fires at most once per job lifetime.
func (d *Dispatcher) Dispatch(ctx context.Context, job models.Job, status models.StatusKey, priceMin, priceMax *float64) {
	body := alertBody(job.EventID, status, priceMin, priceMax)
	subject := fmt.Sprintf("Ticket Alert: %s", job.EventID)

	if d.Email == nil && d.SMS == nil && d.Push == nil {
		// No transport configured anywhere: surface the alert instead of
		// dropping it silently.
		log.Noticef("--- WOULD-HAVE-SENT NOTIFICATION ---\njob=%s email=%q phone=%q push=%q\n%s",
			job.JobID, job.Email, job.Phone, job.PushToken, body)
		return
	}

	if job.Email != "" && d.Email != nil {
		if err := d.Email.Send(ctx, job.Email, subject, body); err != nil {
			log.Errorf("job %s: email to %s failed: %v", job.JobID, job.Email, err)
		} else {
			log.Infof("job %s: email alert sent to %s", job.JobID, job.Email)
		}
	}

	if job.Phone != "" && d.SMS != nil {
		if !strings.HasPrefix(job.Phone, "+") {
			log.Warningf("job %s: phone %q is not E.164; use e.g. +12025550100 for real SMS", job.JobID, job.Phone)
		} else if err := d.SMS.Send(ctx, job.Phone, body); err != nil {
			log.Errorf("job %s: SMS to %s failed: %v", job.JobID, job.Phone, err)
		} else {
			log.Infof("job %s: SMS alert sent to %s", job.JobID, job.Phone)
		}
	}

	if job.PushToken != "" && d.Push != nil {
		data := map[string]string{"jobId": job.JobID, "eventId": job.EventID}
		if err := d.Push.Send(ctx, job.PushToken, subject, body, data); err != nil {
			log.Errorf("job %s: push failed: %v", job.JobID, err)
		} else {
			log.Infof("job %s: push alert sent", job.JobID)
		}
	}
}

// alertBody renders the shared message template: same content on every
// channel.
func alertBody(eventID string, status models.StatusKey, priceMin, priceMax *float64) string {
	priceRange := "(Price Unknown)"
	if priceMin != nil && priceMax != nil {
		priceRange = fmt.Sprintf("($USD %.2f - $USD %.2f)", *priceMin, *priceMax)
	}

	return fmt.Sprintf(
		"🚨 TICKET ALERT! 🚨\n"+
			"Event %s status changed to: %s.\n"+
			"Price Range: %s\n"+
			"Buy Now: [Check Ticketmaster app/site]",
		eventID,
		strings.ReplaceAll(string(status), "_", " "),
		priceRange,
	)
}
