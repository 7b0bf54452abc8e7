package evalcmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/lehigh-university-libraries/booklens/internal/eval/dataset"
	"github.com/lehigh-university-libraries/booklens/internal/eval/results"
)

func printReport(w io.Writer, rep *results.EvalSpec, format string) error {
	switch format {
	case "text":
		return printTextReport(w, rep)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "csv":
		return printCSVReport(w, rep)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printTextReport(w io.Writer, rep *results.EvalSpec) error {
	if rep.Summary != nil {
		rep.Summary.PrintSummary(w, rep.Config.Name)
	}

	fmt.Fprintln(w, "\nDetailed Results:")
	for i, r := range rep.Results {
		fmt.Fprintf(w, "\n[%d] %s  %s\n", i+1, r.Identifier, truncate(r.Query, 60))
		if r.Error != "" {
			fmt.Fprintf(w, "  Error: %s\n", r.Error)
			continue
		}
		fmt.Fprintf(w, "  Score:  %.2f\n", r.OverallScore)
		fmt.Fprintf(w, "  Title:  %.2f (%s) %q -> %q\n", r.Title.Score, r.Title.Method, r.Title.Expected, r.Title.Actual)
		fmt.Fprintf(w, "  Author: %.2f (%s) %q -> %q\n", r.Author.Score, r.Author.Method, r.Author.Expected, r.Author.Actual)
		fmt.Fprintf(w, "  ISBN:   %.2f (%s) %q -> %q\n", r.ISBN.Score, r.ISBN.Method, r.ISBN.Expected, r.ISBN.Actual)
		fmt.Fprintf(w, "  Link canonical: %t\n", r.LinkCanonical)
	}
	return nil
}

func printCSVReport(w io.Writer, rep *results.EvalSpec) error {
	writer := csv.NewWriter(w)

	header := []string{"ID", "Query", "Overall Score", "Title", "Author", "ISBN", "Link Canonical", "Error"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range rep.Results {
		row := []string{
			r.Identifier,
			r.Query,
			strconv.FormatFloat(r.OverallScore, 'f', 4, 64),
			strconv.FormatFloat(r.Title.Score, 'f', 4, 64),
			strconv.FormatFloat(r.Author.Score, 'f', 4, 64),
			strconv.FormatFloat(r.ISBN.Score, 'f', 4, 64),
			strconv.FormatBool(r.LinkCanonical),
			r.Error,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func printRows(w io.Writer, rows []dataset.Row) {
	for i, r := range rows {
		fmt.Fprintf(w, "[%d] id=%s\n", i+1, r.ID)
		fmt.Fprintf(w, "  query:  %s\n", r.Query())
		if r.HasImage() {
			fmt.Fprintf(w, "  image:  %s\n", r.ImagePath)
		}
		fmt.Fprintf(w, "  title:  %s\n", r.Title)
		fmt.Fprintf(w, "  author: %s\n", r.Author)
		if r.ISBN != "" {
			fmt.Fprintf(w, "  isbn:   %s\n", r.ISBN)
		}
	}
	fmt.Fprintf(w, "\n%d rows\n", len(rows))
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
