package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/op/go-logging"

	"github.com/ymmc1111/ticketscout/internal/bootstrap"
	"github.com/ymmc1111/ticketscout/internal/config"
	httpapi "github.com/ymmc1111/ticketscout/internal/http"
	logsetup "github.com/ymmc1111/ticketscout/internal/logging"
)

var log = logging.MustGetLogger("api")

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
		log.Fatalf("api init failed: %s", err)
	}
	defer app.Close()

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	httpapi.RegisterRoutes(r, &httpapi.App{
		Store:   app.Store,
		Scanner: app.Scanner,
	})

	log.Infof("API listening on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, r); err != nil {
		log.Fatalf("%s", err)
	}
}
