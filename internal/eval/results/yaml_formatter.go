package results

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/lehigh-university-libraries/booklens/internal/eval/metrics"
	"gopkg.in/yaml.v3"
)

// DefaultDir is where reports are written.
const DefaultDir = "evals"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// EvalConfig represents the configuration section of the eval YAML
type EvalConfig struct {
	Name        string  `yaml:"name"`
	Mode        string  `yaml:"mode"`
	Provider    string  `yaml:"provider,omitempty"`
	Model       string  `yaml:"model,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
	DatasetPath string  `yaml:"datasetpath"`
	SampleSize  int     `yaml:"samplesize"`
	Concurrency int     `yaml:"concurrency"`
	Timestamp   string  `yaml:"timestamp"`
}

// EvalResult represents a single evaluation result
type EvalResult struct {
	Identifier    string             `yaml:"identifier"`
	Query         string             `yaml:"query"`
	Error         string             `yaml:"error,omitempty"`
	Title         metrics.FieldMatch `yaml:"title"`
	Author        metrics.FieldMatch `yaml:"author"`
	ISBN          metrics.FieldMatch `yaml:"isbn"`
	Link          string             `yaml:"link,omitempty"`
	LinkCanonical bool               `yaml:"linkcanonical"`
	OverallScore  float64            `yaml:"overallscore"`
	DurationMS    int64              `yaml:"durationms"`
}

// EvalSpec represents the complete evaluation report
type EvalSpec struct {
	Config  EvalConfig                `yaml:"config"`
	Summary *metrics.AggregateResults `yaml:"summary"`
	Results []EvalResult              `yaml:"results"`
}

// NewEvalSpec assembles a report from per-row results
func NewEvalSpec(cfg EvalConfig, results []metrics.EvaluationResult) *EvalSpec {
	rep := &EvalSpec{
		Config:  cfg,
		Summary: metrics.AggregateEvaluationResults(results),
		Results: make([]EvalResult, 0, len(results)),
	}

	for _, r := range results {
		er := EvalResult{
			Identifier: r.Row.ID,
			Query:      r.Row.Query(),
			Error:      r.Error,
			DurationMS: r.ProcessingTime.Milliseconds(),
			Link:       r.Actual.PriceLink,
		}
		if r.Row.HasImage() {
			er.Query = r.Row.ImagePath
		}
		if r.Comparison != nil {
			er.Title = r.Comparison.Title
			er.Author = r.Comparison.Author
			er.ISBN = r.Comparison.ISBN
			er.LinkCanonical = r.Comparison.LinkCanonical
			er.OverallScore = r.Comparison.OverallScore
		}
		rep.Results = append(rep.Results, er)
	}
	return rep
}

// SaveToYAML writes the report to <dir>/<name>-<timestamp>.yaml and returns
// the written path
func SaveToYAML(dir string, rep *EvalSpec, now time.Time) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create evals directory: %w", err)
	}

	timestamp := now.Format("2006-01-02_15-04-05")
	if rep.Config.Timestamp == "" {
		rep.Config.Timestamp = timestamp
	}

	name := unsafeName.ReplaceAllString(rep.Config.Name, "_")
	if name == "" {
		name = "eval"
	}
	filename := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", name, timestamp))

	data, err := yaml.Marshal(rep)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	return filename, nil
}

// LoadYAML reads a report written by SaveToYAML
func LoadYAML(path string) (*EvalSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var rep EvalSpec
	if err := yaml.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &rep, nil
}
