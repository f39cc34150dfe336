package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/partyline-dev/partyline/internal/config"
	"github.com/partyline-dev/partyline/internal/database"
	"github.com/partyline-dev/partyline/internal/logger"
	"github.com/partyline-dev/partyline/internal/server"
	"github.com/partyline-dev/partyline/internal/tasks"
	"github.com/partyline-dev/partyline/internal/workers"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
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

	log.Info().Str("version", version).Msg("Starting Partyline Asynq worker")

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	authService, err := server.NewAuthService(cfg, db, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize auth")
	}

	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}

	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	asynqServer := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		Queues: map[string]int{
			"default": 3,
			"low":     1,
		},
		Logger: &asynqLogger{log: log},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSessionCleanup, func(ctx context.Context, t *asynq.Task) error {
		return workers.HandleSessionCleanup(ctx, t, authService, log)
	})

	scheduler, err := workers.StartCleanupScheduler(asynqClient, cfg.Worker.CleanupSchedule, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start session cleanup scheduler")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Starting Asynq worker server...")
		if err := asynqServer.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("Asynq worker server failed")
		}
	}()

	<-sigChan
	log.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Wait for a running cron job before stopping the worker it feeds
	<-scheduler.Stop().Done()
	asynqServer.Shutdown()

	log.Info().Msg("Worker shutdown complete")
}

// asynqLogger adapts zerolog to asynq.Logger
type asynqLogger struct {
	log zerolog.Logger
}

func (l *asynqLogger) emit(evt *zerolog.Event, args []interface{}) {
	evt.Str("component", "asynq").Msg(fmt.Sprint(args...))
}

func (l *asynqLogger) Debug(args ...interface{}) { l.emit(l.log.Debug(), args) }
func (l *asynqLogger) Info(args ...interface{})  { l.emit(l.log.Info(), args) }
func (l *asynqLogger) Warn(args ...interface{})  { l.emit(l.log.Warn(), args) }
func (l *asynqLogger) Error(args ...interface{}) { l.emit(l.log.Error(), args) }
func (l *asynqLogger) Fatal(args ...interface{}) { l.emit(l.log.Fatal(), args) }
