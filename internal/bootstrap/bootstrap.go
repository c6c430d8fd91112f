// Package bootstrap wires a Scanner from config. Both binaries (the one-shot
// worker and the HTTP API) assemble the exact same pipeline; keeping the
// wiring here stops the two from drifting apart.
package bootstrap

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/op/go-logging"

	"github.com/ymmc1111/ticketscout/internal/config"
	"github.com/ymmc1111/ticketscout/internal/inventory"
	"github.com/ymmc1111/ticketscout/internal/notify"
	"github.com/ymmc1111/ticketscout/internal/queue"
	"github.com/ymmc1111/ticketscout/internal/scan"
	"github.com/ymmc1111/ticketscout/internal/store"
)

var log = logging.MustGetLogger("bootstrap")

// App bundles the assembled pipeline and its owned resources.
type App struct {
	Store   *store.DynamoStore
	Scanner *scan.Scanner

	producer *queue.Producer
}

// Close releases resources owned by the app.
func (a *App) Close() {
	if a.producer != nil {
		_ = a.producer.Close()
	}
}

// Build assembles store, checker, dispatcher and optional alert feed into a
// ready-to-run Scanner.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	st, err := store.NewDynamoStore(ctx, store.Options{
		Region:   cfg.AWSRegion,
		Table:    cfg.DynamoTable,
		Endpoint: cfg.DynamoEndpoint,
	})
	if err != nil {
		return nil, err
	}

	checker, err := buildChecker(cfg)
	if err != nil {
		return nil, err
	}

	dispatcher, err := buildDispatcher(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Store: st,
		Scanner: &scan.Scanner{
			Store:   st,
			Checker: checker,
			Alerts:  dispatcher,
		},
	}

	if cfg.KafkaAlertTopic != "" {
		app.producer = queue.NewProducer(cfg.KafkaBrokers, cfg.KafkaAlertTopic)
		app.Scanner.Feed = app.producer
	}

	return app, nil
}

func buildChecker(cfg *config.Config) (inventory.Checker, error) {
	if cfg.Simulated() {
		log.Noticef("no TM API key configured: using simulated inventory checks")
		return &inventory.Simulated{}, nil
	}

	if cfg.TMAuthCookie == "" {
		log.Warningf("TM_AUTH_COOKIE is missing: authenticated inventory checks will likely fail")
	}
	if cfg.TMQueueToken == "" {
		log.Warningf("TM_QUEUE_TOKEN is missing: checks may be redirected to the queue (302)")
	}

	return inventory.NewClient(inventory.Options{
		Endpoint:   cfg.TMEndpoint,
		APIKey:     cfg.TMAPIKey,
		AuthCookie: cfg.TMAuthCookie,
		QueueToken: cfg.TMQueueToken,
		ProxyURL:   cfg.ProxyURL,
		Timeout:    cfg.RequestTimeout,
	})
}

func buildDispatcher(ctx context.Context, cfg *config.Config) (*notify.Dispatcher, error) {
	d := &notify.Dispatcher{}

	if cfg.SESFromEmail != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, err
		}
		sender, err := notify.NewSESSender(awsCfg, cfg.SESFromEmail)
		if err != nil {
			return nil, err
		}
		d.Email = sender
	}

	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioFromNumber != "" {
		sender, err := notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
		if err != nil {
			return nil, err
		}
		d.SMS = sender
	}

	if cfg.FCMCredentials != "" {
		sender, err := notify.NewFCMSender(ctx, cfg.FCMCredentials)
		if err != nil {
			return nil, err
		}
		d.Push = sender
	}

	if d.Email == nil && d.SMS == nil && d.Push == nil {
		log.Warningf("no notification transport configured: alerts will only be logged")
	}

	return d, nil
}
