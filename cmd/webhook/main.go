package main

import (
	"github.com/joho/godotenv"

	"scorm-bridge/internal/archive"
	"scorm-bridge/internal/config"
	"scorm-bridge/internal/logging"
	"scorm-bridge/internal/mapping"
	"scorm-bridge/internal/providers/riseup"
	"scorm-bridge/internal/webhook"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}

	ru := riseup.New(cfg.RiseUpBaseURL, cfg.RiseUpPublicKey, cfg.RiseUpPrivateKey,
		cfg.RiseUpCreatorUserID, log.With().Str("client", "riseup").Logger())

	store := mapping.New(cfg.MappingFilePath, log.With().Str("component", "mapping").Logger())

	var sinks []archive.Sink
	if cfg.ArchiveDir != "" {
		sinks = append(sinks, archive.DirSink{Dir: cfg.ArchiveDir})
	}
	if cfg.SFTPHost != "" {
		sinks = append(sinks, archive.SFTPSink{Config: archive.SFTPConfig{
			Host:                  cfg.SFTPHost,
			Port:                  cfg.SFTPPort,
			User:                  cfg.SFTPUser,
			Pass:                  cfg.SFTPPass,
			RemoteDir:             cfg.SFTPDir,
			InsecureIgnoreHostKey: cfg.SFTPInsecureIgnoreHostKey,
		}})
	}

	handler := &webhook.Handler{
		Store:  store,
		Target: ru,
		Log:    log.With().Str("component", "webhook").Logger(),
	}
	if len(sinks) > 0 {
		handler.Archiver = archive.New(log.With().Str("component", "archive").Logger(), sinks...)
	}

	srv := webhook.NewServer(cfg.WebhookListenAddr, cfg.WebhookPath, handler,
		log.With().Str("component", "server").Logger())

	if err := srv.Run(); err != nil {
		log.Fatal().Err(err).Msg("webhook listener failed")
	}
	log.Info().Msg("webhook listener stopped")
}
