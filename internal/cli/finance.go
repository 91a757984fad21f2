package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewFinanceCommand creates the finance command group.
func NewFinanceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finance",
		Short: "Record and list spending",
	}
	cmd.AddCommand(newFinanceAddCommand(rootOpts))
	cmd.AddCommand(newFinanceListCommand(rootOpts))
	return cmd
}

type financeAddOptions struct {
	date     string
	category string
	note     string
}

func newFinanceAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &financeAddOptions{}
	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Record an amount spent",
		Long: `Record an amount spent. Every call adds a new record. Amounts accept
a dot or a comma as decimal separator (12.50 or 12,50).`,
		Example: `  diarybook finance add 12,50 --category meal --note lunch
  diarybook finance add 30 -c transport --date 2025-01-03`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				j := s.Journal()
				date, err := dateOrToday(opts.date, j.Today())
				if err != nil {
					return s.out.Fail("invalid date", err)
				}
				rec, err := j.SaveFinanceRecordOn(ctx, date, opts.category, args[0], opts.note)
				if err != nil {
					return s.out.Fail("save record", err)
				}
				return s.out.Success(recordSaved{Record: rec})
			})
		},
	}
	cmd.Flags().StringVar(&opts.date, "date", "", "day of the expense, YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&opts.category, "category", "c", "", "spending category (required)")
	cmd.Flags().StringVarP(&opts.note, "note", "n", "", "optional note")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newFinanceListCommand(rootOpts *RootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the finance records of a day",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				j := s.Journal()
				day, err := dateOrToday(date, j.Today())
				if err != nil {
					return s.out.Fail("invalid date", err)
				}
				records, err := j.LoadFinanceRecords(ctx, day)
				if err != nil {
					return s.out.Fail("list records", err)
				}
				return s.out.Success(recordList{Date: day, Records: records})
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to list, YYYY-MM-DD (default today)")
	return cmd
}
