package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"diarybook/internal/core"
)

// NewCategoryCommand creates the category command group.
func NewCategoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage finance categories",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List finance categories",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				categories, err := s.Journal().ListFinanceCategories(ctx)
				if err != nil {
					return s.out.Fail("list categories", err)
				}
				return s.out.Success(categoryList{Categories: categories})
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a finance category",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				category, err := s.Journal().AddFinanceCategory(ctx, args[0])
				if err != nil {
					return s.out.Fail("add category", err)
				}
				return s.out.Success(categoryAdded{Category: category})
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a finance category",
		Long: `Delete a finance category by id. Records already filed under its
name are kept. Deleting an id that does not exist succeeds.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s *session) error {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return s.out.Fail("delete category", &core.ValidationError{Field: "id", Err: core.ErrInvalidID})
				}
				if err := s.Journal().DeleteFinanceCategory(ctx, id); err != nil {
					return s.out.Fail("delete category", err)
				}
				return s.out.Success(categoryDeleted{ID: id})
			})
		},
	})
	return cmd
}
