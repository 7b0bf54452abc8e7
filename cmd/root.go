package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "booklens",
		Short: "Identify books from a photo or a title and keep a reading library",
		Long: `BookLens identifies a book from a cover photo or a title query using a
vision-capable LLM, verifies the guess against Open Library, fills in a
price from Google Books and builds a canonical purchase link.

Results can be saved to a per-user history and organised into named lists.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newListsCmd())
	cmd.AddCommand(newEvalCmd())

	return cmd
}
