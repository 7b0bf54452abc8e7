package evalcmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/lehigh-university-libraries/booklens/internal/app"
	"github.com/lehigh-university-libraries/booklens/internal/config"
	"github.com/lehigh-university-libraries/booklens/internal/eval/dataset"
	"github.com/lehigh-university-libraries/booklens/internal/eval/results"
	"github.com/lehigh-university-libraries/booklens/internal/images"
	"github.com/spf13/cobra"
)

// RunOptions are the flags of the run command
type RunOptions struct {
	DatasetPath string
	OutputDir   string
	Name        string
	SampleSize  int
	Concurrency int
	Pipeline    bool
	Provider    string
	Model       string
	CacheDir    string
	Token       string
}

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	var opts RunOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate lookup accuracy against a labelled dataset",
		Long: `Resolve every row of a labelled dataset and score the result.

Rows are read from a .parquet or .jsonl file with the columns
id, title_query, title, author and isbn (image_path is optional).
By default only the catalog verifier is exercised; --pipeline runs
the full model, verification and pricing pipeline.

Titles and authors are compared after normalization, ISBNs must match
exactly and the purchase link must be the canonical search link. A YAML
report is written to evals/<name>-<timestamp>.yaml.`,
		Example: `  # Check catalog verification on 50 rows
  booklens eval run --dataset ./rows.jsonl --sample 50

  # Run the whole pipeline with Gemini
  booklens eval run --dataset ./rows.parquet --pipeline --provider gemini

  # Use a remote dataset (cached locally)
  booklens eval run --dataset https://example.org/booklens/rows.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.DatasetPath, "dataset", "", "Path or URL of a parquet or jsonl dataset (required)")
	cmd.Flags().StringVar(&opts.OutputDir, "output", results.DefaultDir, "Directory for YAML reports")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Report name (defaults to mode and model)")
	cmd.Flags().IntVar(&opts.SampleSize, "sample", -1, "Number of rows to evaluate (-1 for all)")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 4, "Rows evaluated in parallel")
	cmd.Flags().BoolVar(&opts.Pipeline, "pipeline", false, "Run the full pipeline instead of the verifier only")
	cmd.Flags().StringVar(&opts.Provider, "provider", "", "LLM provider for --pipeline (openai, gemini or ollama)")
	cmd.Flags().StringVar(&opts.Model, "model", "", "Model name (defaults to provider's default)")
	cmd.Flags().StringVar(&opts.CacheDir, "cache-dir", dataset.DefaultCacheDir, "Cache directory for remote datasets")
	cmd.Flags().StringVar(&opts.Token, "token", "", "Bearer token for remote datasets")

	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	var datasetPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print dataset rows",
		Example: `  booklens eval inspect --dataset ./rows.parquet --limit 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := dataset.LoadOrDownload(cmd.Context(), datasetPath, dataset.DownloadConfig{})
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = -1
			}
			rows, err := loader.LoadSample(limit)
			if err != nil {
				return fmt.Errorf("failed to load dataset: %w", err)
			}
			printRows(cmd.OutOrStdout(), rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path or URL of a parquet or jsonl dataset (required)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of rows to print (0 for all)")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report <file.yaml>",
		Short: "Print a saved evaluation report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := results.LoadYAML(args[0])
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), rep, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json or csv)")

	return cmd
}

func executeRun(ctx context.Context, w io.Writer, opts RunOptions) error {
	cfg := config.Load()
	if opts.Provider != "" {
		cfg.Provider = opts.Provider
	}
	if opts.Model != "" {
		cfg.Model = opts.Model
	}

	loader, err := dataset.LoadOrDownload(ctx, opts.DatasetPath, dataset.DownloadConfig{
		CacheDir: opts.CacheDir,
		Token:    opts.Token,
	})
	if err != nil {
		return err
	}
	rows, err := loader.LoadSample(opts.SampleSize)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	runner := &Runner{
		Mode:        ModeVerifier,
		Verifier:    app.NewVerifier(cfg),
		Concurrency: opts.Concurrency,
	}
	evalCfg := results.EvalConfig{
		Mode:        ModeVerifier,
		DatasetPath: opts.DatasetPath,
		SampleSize:  len(rows),
		Concurrency: opts.Concurrency,
	}

	if opts.Pipeline {
		g, _, err := app.NewGateway(cfg)
		if err != nil {
			return err
		}
		resolver, err := app.NewResolver(ctx, cfg, g)
		if err != nil {
			return err
		}
		runner.Mode = ModePipeline
		runner.Resolver = resolver
		runner.Images = images.NewFetcher()

		evalCfg.Mode = ModePipeline
		evalCfg.Provider = cfg.Provider
		evalCfg.Model = cfg.ResolvedModel()
		evalCfg.Temperature = cfg.Temperature
	}

	evalCfg.Name = opts.Name
	if evalCfg.Name == "" {
		evalCfg.Name = evalCfg.Mode
		if evalCfg.Model != "" {
			evalCfg.Name += "-" + evalCfg.Model
		}
	}

	out, err := runner.Run(ctx, rows)
	if err != nil {
		return fmt.Errorf("evaluation interrupted: %w", err)
	}

	rep := results.NewEvalSpec(evalCfg, out)
	path, err := results.SaveToYAML(opts.OutputDir, rep, time.Now())
	if err != nil {
		return err
	}

	rep.Summary.PrintSummary(w, evalCfg.Name)
	fmt.Fprintf(w, "\nResults saved to: %s\n", path)
	return nil
}
