package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	var today string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show daily, weekly and monthly spending totals",
		Long: `Show spending totals for the day, the week (starting Sunday) and the
month containing --today, plus the seven days ending on it.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				j := s.Journal()
				day, err := dateOrToday(today, j.Today())
				if err != nil {
					return s.out.Fail("invalid date", err)
				}
				stats, err := j.ComputeStats(ctx, day)
				if err != nil {
					return s.out.Fail("compute stats", err)
				}
				return s.out.Success(statsView{Stats: stats})
			})
		},
	}
	cmd.Flags().StringVar(&today, "today", "", "reference day, YYYY-MM-DD (default today)")
	return cmd
}
