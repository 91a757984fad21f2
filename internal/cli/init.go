// Package cli provides the diarybook command tree and the initialization
// helpers shared by its commands.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"diarybook/internal/amqp"
	"diarybook/internal/config"
	"diarybook/internal/log"
	"diarybook/internal/services"
	"diarybook/internal/storage"
)

// SetupLogger builds the process logger from configuration. verbose forces
// debug level. The logger is installed as the slog default.
func SetupLogger(cfg *config.Config, verbose bool, out io.Writer) *log.Logger {
	level, err := log.ParseLevel(cfg.LogLevel)
	if verbose {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: log.ComponentCLI,
		Output:    out,
	})
	if err != nil {
		logger.Warn("Unknown log level, using info", log.FieldError, err)
	}
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. A missing file is
// ignored; a malformed one is reported.
func LoadEnvFile(logger *log.Logger) {
	if err := config.LoadEnvFile(); err != nil && logger != nil {
		logger.Warn("Failed to load .env file", log.FieldError, err)
	}
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenJournal wires the store, the optional change publisher and the
// journal. The store itself is opened lazily on first use.
func OpenJournal(cfg *config.Config, logger *log.Logger, now func() time.Time) *services.Journal {
	manager := storage.NewManager(cfg.DBPath,
		storage.WithLogger(logger.WithComponent(log.ComponentStorage).Slog()))

	opts := []services.Option{
		services.WithLocation(cfg.Location()),
		services.WithLogger(logger),
	}
	if now != nil {
		opts = append(opts, services.WithClock(now))
	}
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			logger.WithComponent(log.ComponentAMQP).Slog())
		if err != nil {
			// Notifications are optional; writes proceed without them.
			logger.Warn("AMQP unavailable, change notifications disabled",
				log.FieldError, err)
		} else {
			opts = append(opts, services.WithPublisher(client))
		}
	}
	return services.NewJournal(manager, opts...)
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. Once
// the signal arrives, cleanup runs with a context bounded by timeout.
// The returned channel closes after cleanup finishes.
func GracefulShutdown(parent context.Context, logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		<-ctx.Done()
		stop()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(parent), timeout)
		defer cancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}

// stdinIsTerminal reports whether stdin is interactive; used when reading
// entry text from a pipe.
func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return true
	}
	return info.Mode()&os.ModeCharDevice != 0
}
