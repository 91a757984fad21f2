package cli

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/spf13/cobra"

	apphttp "diarybook/internal/http"
	"diarybook/internal/log"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the journal as a JSON HTTP API",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(rootOpts, cmd, true)
			if err != nil {
				return err
			}
			defer s.Close()
			if port != "" {
				s.cfg.Port = port
			}
			return runServe(cmd.Context(), s)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default $PORT or 8081)")
	return cmd
}

func runServe(ctx context.Context, s *session) error {
	logger := s.logger.WithComponent(log.ComponentApp)
	journal := s.Journal()

	// Fail fast on a store that cannot be opened or upgraded.
	if err := journal.Ready(ctx); err != nil {
		return s.out.Fail("open store", err)
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               net.JoinHostPort("", s.cfg.Port),
		RateLimitPerMinute: s.cfg.RateLimitPerMinute,
		TrustedProxies:     s.cfg.TrustedProxies,
		Logger:             s.logger,
	}, journal)

	ctx, done := GracefulShutdown(ctx, logger, s.cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting diarybook server",
		"port", s.cfg.Port,
		log.FieldDBPath, s.cfg.DBPath,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", s.cfg.Port)
		return WrapExitError(ExitFailure, "serve", err)
	}

	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully")
	return nil
}
