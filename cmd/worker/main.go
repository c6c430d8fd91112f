package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/op/go-logging"

	"github.com/ymmc1111/ticketscout/internal/bootstrap"
	"github.com/ymmc1111/ticketscout/internal/config"
	logsetup "github.com/ymmc1111/ticketscout/internal/logging"
)

var log = logging.MustGetLogger("worker")

// The worker runs exactly one scan pass and maps its outcome to the exit
// code, so a scheduler (cron, Cloud Scheduler, systemd timer) can apply its
// own retry policy on failure.
func main() {
	_ = godotenv.Load()

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("failed to load config: %s", err)
	}
	if err := logsetup.InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("%s", err)
	}

	ctx := context.Background()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("worker init failed: %s", err)
	}
	defer app.Close()

	res, err := app.Scanner.RunScan(ctx)
	if err != nil {
		log.Errorf("scan failed: %v", err)
		os.Exit(1)
	}
	log.Infof("%s", res)
}
