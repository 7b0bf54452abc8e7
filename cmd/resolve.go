package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/lehigh-university-libraries/booklens/internal/app"
	"github.com/lehigh-university-libraries/booklens/internal/config"
	"github.com/lehigh-university-libraries/booklens/internal/images"
	"github.com/lehigh-university-libraries/booklens/internal/pipeline"
	"github.com/lehigh-university-libraries/booklens/internal/session"
	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	var (
		image    string
		title    string
		user     string
		provider string
		model    string
		save     bool
		listID   string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Identify a book from a photo or a title",
		Long: `Runs the lookup pipeline once and prints the resulting record as JSON.

The image may be a local file or an http(s) URL; it is downscaled to at
most 720px before it is sent to the model. When BOOKLENS_PROXY_URL is set
the model is reached through that gateway proxy instead of directly.`,
		Example: `  booklens resolve --title "laskar pelangi"
  booklens resolve --image ./cover.jpg --save
  booklens resolve --title "bumi manusia" --list 1760000000000-ab12cd`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if image == "" && title == "" {
				return errors.New("one of --image or --title is required")
			}

			ctx := cmd.Context()
			cfg := config.Load()
			if provider != "" {
				cfg.Provider = provider
			}
			if model != "" {
				cfg.Model = model
			}

			q := pipeline.Query{TitleQuery: title}
			if image != "" {
				dataURL, err := images.NewFetcher().DataURL(ctx, image)
				if err != nil {
					return err
				}
				q = pipeline.Query{ImageDataURL: dataURL}
			}

			g, _, err := app.NewGateway(cfg)
			if err != nil {
				return err
			}
			resolver, err := app.NewResolver(ctx, cfg, g)
			if err != nil {
				return err
			}

			rec, err := resolver.ResolveFor(ctx, session.New(user), q)
			if err != nil {
				return err
			}

			if !save && listID == "" {
				return printJSON(cmd.OutOrStdout(), rec)
			}

			lib, closeStore, err := openLibrary(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			if listID != "" {
				item, err := lib.AddToList(ctx, user, listID, rec)
				if err != nil {
					return fmt.Errorf("failed to add to list: %w", err)
				}
				return printJSON(cmd.OutOrStdout(), item)
			}
			entry, err := lib.SaveHistory(ctx, user, rec)
			if err != nil {
				return fmt.Errorf("failed to save history: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), entry)
		},
	}

	cmd.Flags().StringVar(&image, "image", "", "Cover photo path or URL")
	cmd.Flags().StringVar(&title, "title", "", "Title query")
	cmd.Flags().StringVar(&user, "user", session.AnonymousUser, "Library user")
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider (openai, gemini or ollama)")
	cmd.Flags().StringVar(&model, "model", "", "Model name (defaults to provider's default)")
	cmd.Flags().BoolVar(&save, "save", false, "Save the result to the user's history")
	cmd.Flags().StringVar(&listID, "list", "", "Add the result to this list instead of the history")
	cmd.MarkFlagsMutuallyExclusive("image", "title")

	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
