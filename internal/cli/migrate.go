package cli

import (
	"context"

	"github.com/spf13/cobra"

	"diarybook/internal/log"
	"diarybook/internal/storage"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the store and report its schema version",
		Long: `Open the store, creating the file if needed and applying any pending
schema upgrade in a single transaction, then report the schema version.
Running it again on an up-to-date store changes nothing.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				manager := storage.NewManager(s.cfg.DBPath,
					storage.WithLogger(s.logger.WithComponent(log.ComponentMigrate).Slog()))
				defer manager.Close()

				version, err := manager.Version(ctx)
				if err != nil {
					return s.out.Fail("migrate", err)
				}
				return s.out.Success(storeInfo{Path: manager.Path(), SchemaVersion: version})
			})
		},
	}
}
