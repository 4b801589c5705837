package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"scorm-bridge/internal/config"
	"scorm-bridge/internal/logging"
	"scorm-bridge/internal/mapping"
	"scorm-bridge/internal/providers/learningbox"
	"scorm-bridge/internal/providers/riseup"
	"scorm-bridge/internal/sync"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lb := learningbox.New(cfg.LearningBoxBaseURL, cfg.LearningBoxAPIKey, learningbox.ExportDefaults{
		ClientID:    cfg.ExportClientID,
		Type:        cfg.ExportType,
		Format:      cfg.ExportFormat,
		Navigation:  cfg.ExportNavigation,
		WebhookVerb: cfg.ExportWebhookVerb,
	}, log.With().Str("client", "learningbox").Logger())

	ru := riseup.New(cfg.RiseUpBaseURL, cfg.RiseUpPublicKey, cfg.RiseUpPrivateKey,
		cfg.RiseUpCreatorUserID, log.With().Str("client", "riseup").Logger())

	store := mapping.New(cfg.MappingFilePath, log.With().Str("component", "mapping").Logger())

	syncer := &sync.Syncer{
		Source:     lb,
		Target:     ru,
		Store:      store,
		WebhookURL: cfg.FullWebhookURL(),
		Log:        log.With().Str("component", "sync").Logger(),
	}

	log.Info().Str("webhook", syncer.WebhookURL).Msg("starting LearningBox to Rise Up sync")

	tally, err := syncer.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("sync run aborted")
	}

	fmt.Printf("sync complete: success=%d skipped=%d failed=%d\n", tally.Success, tally.Skipped, tally.Failed)
	if tally.Failed > 0 {
		os.Exit(1)
	}
}
