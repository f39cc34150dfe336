// Package database opens the gorm handle for the configured binding: the
// local wrangler SQLite file or the remote D1 database over HTTP.
package database

import (
	"fmt"
	stdlog "log"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/partyline-dev/partyline/internal/config"
	"github.com/partyline-dev/partyline/internal/d1"
	"github.com/partyline-dev/partyline/internal/models"
)

// Open connects to the database described by cfg
func Open(cfg config.DatabaseConfig, zlog zerolog.Logger) (*gorm.DB, error) {
	switch cfg.Mode {
	case config.ModeRemote:
		return openRemote(cfg, zlog)
	case config.ModeLocal:
		return OpenLocal(cfg.Path, zlog)
	default:
		return nil, fmt.Errorf("unknown database mode %q", cfg.Mode)
	}
}

// Migrate creates or updates the user, session, account and config tables
func Migrate(db *gorm.DB) error {
	if err := models.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func gormConfig(zlog zerolog.Logger) *gorm.Config {
	return &gorm.Config{
		Logger: logger.New(
			stdlog.New(zlog, "", 0),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	}
}

// OpenLocal opens a SQLite file with the WAL profile used in development
func OpenLocal(path string, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns      = 8
		maxIdleConns      = 4
		connMaxLifetime   = 300  // 5 minutes
		busyTimeout       = 5000 // 5 seconds
		cacheSize         = 10000
		walAutocheckpoint = 1000
	)

	// wrangler creates the state directory lazily
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig(zlog))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode must be set first
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA wal_autocheckpoint=%d", walAutocheckpoint),
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		fmt.Sprintf("PRAGMA cache_size=-%d", cacheSize),
		"PRAGMA foreign_keys=1",
		"PRAGMA temp_store=2",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	zlog.Debug().Str("path", path).Msg("Opened local database")
	return db, nil
}

func openRemote(cfg config.DatabaseConfig, zlog zerolog.Logger) (*gorm.DB, error) {
	client, err := d1.NewClient(d1.Config{
		BaseURL:    cfg.APIURL,
		AccountID:  cfg.AccountID,
		DatabaseID: cfg.DatabaseID,
		Token:      cfg.Token,
	})
	if err != nil {
		return nil, err
	}

	sqlDB := d1.OpenDB(client)

	gcfg := gormConfig(zlog)
	// D1 over HTTP cannot hold a transaction open
	gcfg.SkipDefaultTransaction = true

	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, gcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open D1 database: %w", err)
	}

	zlog.Debug().
		Str("account_id", cfg.AccountID).
		Str("database_id", cfg.DatabaseID).
		Msg("Opened remote D1 database")
	return db, nil
}

// Close closes the underlying connection pool, flushing WAL writes
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
