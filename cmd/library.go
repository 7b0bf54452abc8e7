package cmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/booklens/internal/config"
	"github.com/lehigh-university-libraries/booklens/internal/library"
	"github.com/lehigh-university-libraries/booklens/internal/session"
	"github.com/lehigh-university-libraries/booklens/internal/storage"
	"github.com/spf13/cobra"
)

// openLibrary opens the configured store. The memory store does not outlive
// the process, so CLI use normally sets BOOKLENS_STORE.
func openLibrary(cmd *cobra.Command) (*library.Library, func(), error) {
	cfg := config.Load()
	store, err := storage.Open(cmd.Context(), cfg.Store, cfg.StoreDSN)
	if err != nil {
		return nil, nil, err
	}
	return library.New(store), func() { _ = store.Close() }, nil
}

func newHistoryCmd() *cobra.Command {
	var user string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show saved lookups, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, closeStore, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			entries, err := lib.History(cmd.Context(), user, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, closeStore, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			defer closeStore()
			return lib.DeleteHistory(cmd.Context(), user, args[0])
		},
	}

	cmd.PersistentFlags().StringVar(&user, "user", session.AnonymousUser, "Library user")
	cmd.Flags().IntVar(&limit, "limit", library.DefaultHistoryLimit, "Maximum entries to show")
	cmd.AddCommand(del)

	return cmd
}

func newListsCmd() *cobra.Command {
	var user string
	var limit int

	withLibrary := func(run func(cmd *cobra.Command, lib *library.Library, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			lib, closeStore, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			defer closeStore()
			return run(cmd, lib, args)
		}
	}

	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Manage named book lists",
		RunE: withLibrary(func(cmd *cobra.Command, lib *library.Library, args []string) error {
			lists, err := lib.Lists(cmd.Context(), user, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), lists)
		}),
	}

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a list",
		Args:  cobra.ExactArgs(1),
		RunE: withLibrary(func(cmd *cobra.Command, lib *library.Library, args []string) error {
			l, err := lib.CreateList(cmd.Context(), user, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), l)
		}),
	}

	rename := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a list",
		Args:  cobra.ExactArgs(2),
		RunE: withLibrary(func(cmd *cobra.Command, lib *library.Library, args []string) error {
			l, err := lib.RenameList(cmd.Context(), user, args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), l)
		}),
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a list and its items",
		Args:  cobra.ExactArgs(1),
		RunE: withLibrary(func(cmd *cobra.Command, lib *library.Library, args []string) error {
			return lib.DeleteList(cmd.Context(), user, args[0])
		}),
	}

	items := &cobra.Command{
		Use:   "items <id>",
		Short: "Show the books in a list",
		Args:  cobra.ExactArgs(1),
		RunE: withLibrary(func(cmd *cobra.Command, lib *library.Library, args []string) error {
			its, err := lib.ListItems(cmd.Context(), user, args[0], limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), its)
		}),
	}

	remove := &cobra.Command{
		Use:   "remove <id> <item-id>",
		Short: "Remove a book from a list",
		Args:  cobra.ExactArgs(2),
		RunE: withLibrary(func(cmd *cobra.Command, lib *library.Library, args []string) error {
			if err := lib.RemoveFromList(cmd.Context(), user, args[0], args[1]); err != nil {
				return fmt.Errorf("failed to remove item: %w", err)
			}
			return nil
		}),
	}

	cmd.PersistentFlags().StringVar(&user, "user", session.AnonymousUser, "Library user")
	cmd.PersistentFlags().IntVar(&limit, "limit", 0, "Maximum entries to show (0 for the default)")
	cmd.AddCommand(create, rename, del, items, remove)

	return cmd
}
