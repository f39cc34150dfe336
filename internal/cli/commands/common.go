package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/partyline-dev/partyline/internal/auth"
	"github.com/partyline-dev/partyline/internal/config"
	"github.com/partyline-dev/partyline/internal/database"
	"github.com/partyline-dev/partyline/internal/logger"
	"github.com/partyline-dev/partyline/internal/server"
)

// env is what a command runs against
type env struct {
	cfg  *config.Config
	db   *gorm.DB
	auth *auth.Service
	out  io.Writer
	log  zerolog.Logger
}

func (e *env) close() {
	if e.db != nil {
		database.Close(e.db)
	}
}

// loadConfig loads configuration and reports database diagnostics on stderr
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(os.Stderr, "console").Level(zerolog.WarnLevel)
	for _, d := range cfg.Database.Diagnostics {
		log.Warn().Msg(d)
	}
	return cfg, log, nil
}

// openEnv loads configuration and opens the migrated database
func openEnv(out io.Writer) (*env, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return nil, err
	}

	authService, err := server.NewAuthService(cfg, db, log)
	if err != nil {
		database.Close(db)
		return nil, err
	}

	return &env{cfg: cfg, db: db, auth: authService, out: out, log: log}, nil
}
