package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"diarybook/internal/config"
	"diarybook/internal/log"
	"diarybook/internal/services"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "text" | "json" | "yaml"
	DBPath  string

	// now replaces the wall clock; tests pin it.
	now func() time.Time
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for the diarybook CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diarybook",
		Short: "diarybook - a local diary and spending journal",
		Long: `Keep one diary entry per day and category, record what you spend,
and see daily, weekly and monthly totals. Everything lives in a single
SQLite file (--db or DIARY_DB_PATH).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "database file (default $DIARY_DB_PATH or ./data/diary.db)")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	cmd.AddCommand(NewEntryCommand(opts))
	cmd.AddCommand(NewFinanceCommand(opts))
	cmd.AddCommand(NewCategoryCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

// Execute runs the command tree with args and returns the process exit
// code. Errors not already reported by a command are printed to stderr.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return execute(ctx, NewRootCommand(), args, stdout, stderr)
}

func execute(ctx context.Context, cmd *cobra.Command, args []string, stdout, stderr io.Writer) int {
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || !exitErr.reported {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	// Unwrapped cobra errors are argument or command lookup problems.
	return ExitCommandError
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// usageArgs marks argument validation failures as command errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", err)
		}
		return nil
	}
}

// session is the per-invocation state shared by commands: configuration,
// logger, output formatter and a lazily wired journal.
type session struct {
	opts    *RootOptions
	cfg     *config.Config
	logger  *log.Logger
	out     *OutputFormatter
	journal *services.Journal
}

// newSession loads configuration and builds the logger. Short-lived
// commands log at warn unless --verbose; long-running ones honour LOG_LEVEL.
func newSession(opts *RootOptions, cmd *cobra.Command, longRunning bool) (*session, error) {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	LoadEnvFile(nil)
	cfg := config.Load()
	if opts.DBPath != "" {
		cfg.DBPath = opts.DBPath
	}
	if !longRunning && !opts.Verbose {
		cfg.LogLevel = "warn"
	}
	if err := cfg.Validate(); err != nil {
		_ = out.Error(CLIError{Code: ErrCodeUsage, Message: err.Error()})
		return nil, &ExitError{Code: ExitCommandError, Message: "invalid configuration", Err: err, reported: true}
	}

	logger := SetupLogger(cfg, opts.Verbose, cmd.ErrOrStderr())
	out.VerboseLog("Using store %s", cfg.DBPath)
	return &session{opts: opts, cfg: cfg, logger: logger, out: out}, nil
}

// Journal wires the journal on first use.
func (s *session) Journal() *services.Journal {
	if s.journal == nil {
		s.journal = OpenJournal(s.cfg, s.logger, s.opts.now)
	}
	return s.journal
}

// Close releases the journal if one was opened.
func (s *session) Close() {
	if s.journal == nil {
		return
	}
	if err := s.journal.Close(); err != nil {
		s.logger.Error("Failed to close journal", log.FieldError, err)
	}
}

// withSession runs fn with a session that is closed afterwards.
func withSession(opts *RootOptions, cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	s, err := newSession(opts, cmd, false)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(cmd.Context(), s)
}
