package cmd

import (
	"github.com/lehigh-university-libraries/booklens/internal/evalcmd"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Lookup accuracy evaluation tools",
		Long: `Evaluation tools for measuring how well BookLens resolves books.

Runs the catalog verifier or the full pipeline over a labelled dataset,
scores title, author, ISBN and purchase link, and writes YAML reports.`,
	}

	cmd.AddCommand(evalcmd.NewRunCmd())
	cmd.AddCommand(evalcmd.NewInspectCmd())
	cmd.AddCommand(evalcmd.NewReportCmd())

	return cmd
}
