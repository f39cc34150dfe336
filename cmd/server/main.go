package main

import (
	"fmt"
	"os"

	"github.com/partyline-dev/partyline/internal/config"
	"github.com/partyline-dev/partyline/internal/logger"
	"github.com/partyline-dev/partyline/internal/server"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Configuration errors (missing D1 credentials, no local database) are fatal
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	for _, d := range cfg.Database.Diagnostics {
		log.Warn().Str("mode", string(cfg.Database.Mode)).Msg(d)
	}

	srv, err := server.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	log.Info().
		Str("version", version).
		Str("database", string(cfg.Database.Mode)).
		Msg("Starting Partyline server...")

	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}
