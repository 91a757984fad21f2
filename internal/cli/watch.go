package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"diarybook/internal/amqp"
	"diarybook/internal/log"
	"diarybook/internal/storage"
	"diarybook/internal/worker"
)

// changeView renders one change notification.
type changeView struct {
	amqp.RecordChangeMessage `yaml:",inline"`
}

func (v changeView) WriteText(w io.Writer) error {
	line := fmt.Sprintf("%s %-6s %s %s",
		v.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"), v.Op, v.Collection, v.Key)
	_, err := fmt.Fprintln(w, line)
	return err
}

// resolvedView renders a change together with the stored record.
type resolvedView struct {
	worker.Change `yaml:",inline"`
}

func (v resolvedView) WriteText(w io.Writer) error {
	if err := (changeView{v.RecordChangeMessage}).WriteText(w); err != nil {
		return err
	}
	if !v.Found {
		return nil
	}
	b, err := json.Marshal(v.Record)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "  %s\n", b)
	return err
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	var resolve bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print change notifications as writes are committed",
		Long: `Consume the record change notifications published after every
committed write and print them until interrupted. Requires AMQP_URL.
With --resolve each change is printed with the record as currently stored.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(rootOpts, cmd, true)
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), s, resolve)
		},
	}
	cmd.Flags().BoolVar(&resolve, "resolve", false, "look up each changed record in the store")
	return cmd
}

func runWatch(ctx context.Context, s *session, resolve bool) error {
	if !s.cfg.AMQPEnabled() {
		_ = s.out.Error(CLIError{Code: ErrCodeUsage, Message: "AMQP_URL is not configured"})
		return &ExitError{Code: ExitCommandError, Message: "AMQP_URL is not configured", reported: true}
	}

	logger := s.logger.WithComponent(log.ComponentAMQP)
	client, err := amqp.NewClient(s.cfg.AMQPURL, s.cfg.AMQPExchange, s.cfg.AMQPQueue, logger.Slog())
	if err != nil {
		_ = s.out.Error(CLIError{Code: ErrCodeUnavailable, Message: err.Error()})
		return &ExitError{Code: ExitFailure, Message: "connect to AMQP", Err: err, reported: true}
	}
	defer client.Close()

	ctx, done := GracefulShutdown(ctx, logger, s.cfg.ShutdownTimeout, nil)
	logger.Info("Watching record changes",
		"exchange", s.cfg.AMQPExchange,
		"queue", s.cfg.AMQPQueue,
		log.FieldOperation, log.OpConsume)

	handler := func(_ context.Context, msg *amqp.RecordChangeMessage) error {
		return s.out.Success(changeView{*msg})
	}
	if resolve {
		manager := storage.NewManager(s.cfg.DBPath,
			storage.WithLogger(s.logger.WithComponent(log.ComponentStorage).Slog()))
		defer manager.Close()
		w := worker.NewChangeWorker(manager, func(_ context.Context, ch worker.Change) error {
			return s.out.Success(resolvedView{ch})
		}, logger.Slog())
		handler = w.HandleRecordChange
	}

	err = client.ConsumeRecordChanges(ctx, handler)
	if ctx.Err() != nil {
		<-done
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "watch", err)
	}
	return nil
}
