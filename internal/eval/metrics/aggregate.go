package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/booklens/internal/eval/dataset"
	"github.com/lehigh-university-libraries/booklens/internal/models"
)

// EvaluationResult represents the outcome for a single dataset row
type EvaluationResult struct {
	Row            dataset.Row
	Actual         models.BookRecord
	Comparison     *Comparison
	ProcessingTime time.Duration
	Error          string
}

// AggregateResults represents aggregated evaluation metrics
type AggregateResults struct {
	TotalRecords int `yaml:"totalrecords"`
	SuccessCount int `yaml:"successcount"`
	FailureCount int `yaml:"failurecount"`

	TitleAccuracy  FieldStats `yaml:"title"`
	AuthorAccuracy FieldStats `yaml:"author"`
	ISBNAccuracy   FieldStats `yaml:"isbn"`

	CanonicalLinks   int     `yaml:"canonicallinks"`
	LinkCanonicality float64 `yaml:"linkcanonicality"`

	OverallAccuracy float64 `yaml:"overallaccuracy"`
	MedianScore     float64 `yaml:"medianscore"`

	AverageProcessingTime time.Duration `yaml:"averageprocessingtime"`
	TotalProcessingTime   time.Duration `yaml:"totalprocessingtime"`
}

// FieldStats contains statistics for one compared field
type FieldStats struct {
	ExactMatches  int       `yaml:"exactmatches"`
	FuzzyMatches  int       `yaml:"fuzzymatches"`
	NoMatches     int       `yaml:"nomatches"`
	MissingFields int       `yaml:"missingfields"`
	Accuracy      float64   `yaml:"accuracy"`
	AverageScore  float64   `yaml:"averagescore"`
	Scores        []float64 `yaml:"-"`
}

// AggregateEvaluationResults aggregates multiple evaluation results
func AggregateEvaluationResults(results []EvaluationResult) *AggregateResults {
	agg := &AggregateResults{
		TotalRecords: len(results),
	}

	var (
		overall         []float64
		successDuration time.Duration
	)

	for _, result := range results {
		agg.TotalProcessingTime += result.ProcessingTime

		if result.Error != "" || result.Comparison == nil {
			agg.FailureCount++
			continue
		}

		agg.SuccessCount++
		successDuration += result.ProcessingTime

		aggregateFieldStats(&agg.TitleAccuracy, result.Comparison.Title)
		aggregateFieldStats(&agg.AuthorAccuracy, result.Comparison.Author)
		aggregateFieldStats(&agg.ISBNAccuracy, result.Comparison.ISBN)
		if result.Comparison.LinkCanonical {
			agg.CanonicalLinks++
		}
		overall = append(overall, result.Comparison.OverallScore)
	}

	if agg.SuccessCount > 0 {
		for _, stats := range []*FieldStats{&agg.TitleAccuracy, &agg.AuthorAccuracy, &agg.ISBNAccuracy} {
			stats.AverageScore = calculateAverage(stats.Scores)
			if len(stats.Scores) > 0 {
				stats.Accuracy = float64(stats.ExactMatches) / float64(len(stats.Scores))
			}
		}
		agg.LinkCanonicality = float64(agg.CanonicalLinks) / float64(agg.SuccessCount)
		agg.OverallAccuracy = calculateAverage(overall)
		agg.MedianScore = median(overall)
		agg.AverageProcessingTime = successDuration / time.Duration(agg.SuccessCount)
	}

	return agg
}

// aggregateFieldStats updates field statistics. Rows without ground truth are
// left out of the field's scores.
func aggregateFieldStats(stats *FieldStats, match FieldMatch) {
	switch match.Method {
	case MethodExpectedMissing, MethodBothMissing:
		stats.MissingFields++
		return
	case MethodExact:
		stats.ExactMatches++
	case MethodFuzzyHigh, MethodFuzzyMedium, MethodSubstring:
		stats.FuzzyMatches++
	case MethodNoMatch:
		stats.NoMatches++
	case MethodActualMissing:
		stats.MissingFields++
	}
	stats.Scores = append(stats.Scores, match.Score)
}

// calculateAverage calculates the average of a slice of scores
func calculateAverage(scores []float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, score := range scores {
		sum += score
	}
	return sum / float64(len(scores))
}

func median(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// PrintSummary writes a human-readable summary of the evaluation
func (a *AggregateResults) PrintSummary(w io.Writer, name string) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 70))
	fmt.Fprintln(w, "BOOKLENS EVALUATION SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "Run: %s\n", name)
	fmt.Fprintf(w, "Total Records: %d\n", a.TotalRecords)
	if a.TotalRecords > 0 {
		fmt.Fprintf(w, "Successful: %d (%.1f%%)\n", a.SuccessCount, float64(a.SuccessCount)/float64(a.TotalRecords)*100)
		fmt.Fprintf(w, "Failed: %d (%.1f%%)\n", a.FailureCount, float64(a.FailureCount)/float64(a.TotalRecords)*100)
	}
	fmt.Fprintf(w, "Average Processing Time: %s\n", a.AverageProcessingTime)
	fmt.Fprintf(w, "Total Processing Time: %s\n", a.TotalProcessingTime)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "FIELD-LEVEL ACCURACY")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	printFieldStats(w, "Title", a.TitleAccuracy)
	printFieldStats(w, "Author", a.AuthorAccuracy)
	printFieldStats(w, "ISBN", a.ISBNAccuracy)
	fmt.Fprintf(w, "\nCanonical Links: %d (%.1f%%)\n", a.CanonicalLinks, a.LinkCanonicality*100)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "OVERALL SCORE")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "Overall Accuracy: %.2f%% (%.3f)\n", a.OverallAccuracy*100, a.OverallAccuracy)
	fmt.Fprintf(w, "Median Score: %.3f\n", a.MedianScore)
	fmt.Fprintln(w, strings.Repeat("=", 70))
}

func printFieldStats(w io.Writer, fieldName string, stats FieldStats) {
	fmt.Fprintf(w, "\n%s:\n", fieldName)
	fmt.Fprintf(w, "  Accuracy: %.2f%%\n", stats.Accuracy*100)
	fmt.Fprintf(w, "  Average Score: %.3f\n", stats.AverageScore)
	fmt.Fprintf(w, "  Exact Matches: %d\n", stats.ExactMatches)
	fmt.Fprintf(w, "  Fuzzy Matches: %d\n", stats.FuzzyMatches)
	fmt.Fprintf(w, "  No Matches: %d\n", stats.NoMatches)
	fmt.Fprintf(w, "  Missing Fields: %d\n", stats.MissingFields)
}
