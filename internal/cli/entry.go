package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"diarybook/internal/core"
)

// NewEntryCommand creates the entry command group.
func NewEntryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Save and list diary entries",
	}
	cmd.AddCommand(newEntrySaveCommand(rootOpts))
	cmd.AddCommand(newEntryListCommand(rootOpts))
	return cmd
}

type entrySaveOptions struct {
	date     string
	category string
}

func newEntrySaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &entrySaveOptions{}
	cmd := &cobra.Command{
		Use:   "save [text...]",
		Short: "Save the diary entry for a day and category",
		Long: `Save the diary entry for a day and category, replacing any entry
already saved for the same pair. The text is taken from the arguments, or
read from stdin when none are given.`,
		Args: usageArgs(cobra.ArbitraryArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := entryText(cmd, args)
			if err != nil {
				return err
			}
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				return runEntrySave(ctx, s, opts, text)
			})
		},
	}
	cmd.Flags().StringVar(&opts.date, "date", "", "day of the entry, YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&opts.category, "category", "c", "general", "entry category")
	return cmd
}

// entryText joins args, or reads stdin when there are none.
func entryText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && f == os.Stdin && stdinIsTerminal() {
		return "", NewExitError(ExitCommandError, "no entry text: pass it as arguments or pipe it on stdin")
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "read entry text", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}

func runEntrySave(ctx context.Context, s *session, opts *entrySaveOptions, text string) error {
	j := s.Journal()
	date, err := dateOrToday(opts.date, j.Today())
	if err != nil {
		return s.out.Fail("invalid date", err)
	}
	entry, err := j.SaveDiaryEntry(ctx, date, opts.category, text)
	if err != nil {
		return s.out.Fail("save entry", err)
	}
	return s.out.Success(entrySaved{Entry: entry})
}

func newEntryListCommand(rootOpts *RootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the diary entries of a day",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				j := s.Journal()
				day, err := dateOrToday(date, j.Today())
				if err != nil {
					return s.out.Fail("invalid date", err)
				}
				entries, err := j.LoadDiaryEntries(ctx, day)
				if err != nil {
					return s.out.Fail("list entries", err)
				}
				return s.out.Success(entryList{Date: day, Entries: entries})
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to list, YYYY-MM-DD (default today)")
	return cmd
}

// dateOrToday parses a YYYY-MM-DD flag value, defaulting to today when empty.
func dateOrToday(value string, today core.Date) (core.Date, error) {
	if strings.TrimSpace(value) == "" {
		return today, nil
	}
	return core.ParseDate(value)
}
