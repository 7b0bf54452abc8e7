package metrics

import (
	"strings"

	"github.com/lehigh-university-libraries/booklens/internal/eval/dataset"
	"github.com/lehigh-university-libraries/booklens/internal/models"
	"github.com/lehigh-university-libraries/booklens/internal/normalize"
	"github.com/lehigh-university-libraries/booklens/internal/verify"
)

// Match methods
const (
	MethodExact           = "exact"
	MethodSubstring       = "substring"
	MethodFuzzyHigh       = "fuzzy_high"
	MethodFuzzyMedium     = "fuzzy_medium"
	MethodNoMatch         = "no_match"
	MethodBothMissing     = "both_missing"
	MethodExpectedMissing = "expected_missing"
	MethodActualMissing   = "actual_missing"
)

// FieldMatch represents the comparison result for a single field
type FieldMatch struct {
	Expected string  `json:"expected" yaml:"expected"`
	Actual   string  `json:"actual" yaml:"actual"`
	Score    float64 `json:"score" yaml:"score"`
	Method   string  `json:"method" yaml:"method"`
}

// Comparison holds the field-level verdict for one resolved row
type Comparison struct {
	Title         FieldMatch `json:"title" yaml:"title"`
	Author        FieldMatch `json:"author" yaml:"author"`
	ISBN          FieldMatch `json:"isbn" yaml:"isbn"`
	LinkCanonical bool       `json:"linkCanonical" yaml:"linkcanonical"`
	OverallScore  float64    `json:"overallScore" yaml:"overallscore"`
}

// Compare scores a resolved record against the expected row. Title and author
// are compared after title normalization, the ISBN must match exactly and the
// purchase link must be the canonical search link for the record.
func Compare(row dataset.Row, got models.BookRecord) *Comparison {
	c := &Comparison{
		Title:  compareField(row.Title, got.Title),
		Author: compareField(row.Author, got.Author),
		ISBN:   compareExact(normalize.ISBN(row.ISBN), normalize.ISBN(got.ISBN)),
	}

	link := normalize.BestLink(got.Title, got.Author, got.ISBN)
	c.LinkCanonical = link != "" && got.PriceLink == link

	scores := []float64{c.Title.Score, c.Author.Score}
	if c.ISBN.Method != MethodExpectedMissing && c.ISBN.Method != MethodBothMissing {
		scores = append(scores, c.ISBN.Score)
	}
	c.OverallScore = calculateAverage(scores)
	return c
}

// compareField performs fuzzy comparison on normalized text
func compareField(expected, actual string) FieldMatch {
	match := FieldMatch{
		Expected: expected,
		Actual:   actual,
	}

	expNorm := verify.NormalizeTitle(expected)
	actNorm := verify.NormalizeTitle(actual)

	if m, ok := missing(expNorm, actNorm); ok {
		match.Score, match.Method = m.Score, m.Method
		return match
	}

	if expNorm == actNorm {
		match.Score = 1.0
		match.Method = MethodExact
		return match
	}

	if strings.Contains(actNorm, expNorm) || strings.Contains(expNorm, actNorm) {
		match.Score = 0.8
		match.Method = MethodSubstring
		return match
	}

	similarity := calculateSimilarity(expNorm, actNorm)
	match.Score = similarity
	switch {
	case similarity > 0.7:
		match.Method = MethodFuzzyHigh
	case similarity > 0.4:
		match.Method = MethodFuzzyMedium
	default:
		match.Method = MethodNoMatch
	}
	return match
}

func compareExact(expected, actual string) FieldMatch {
	match := FieldMatch{Expected: expected, Actual: actual}
	if m, ok := missing(expected, actual); ok {
		match.Score, match.Method = m.Score, m.Method
		return match
	}
	if expected == actual {
		match.Score = 1.0
		match.Method = MethodExact
		return match
	}
	match.Method = MethodNoMatch
	return match
}

func missing(expected, actual string) (FieldMatch, bool) {
	switch {
	case expected == "" && actual == "":
		return FieldMatch{Score: 0.5, Method: MethodBothMissing}, true
	case expected == "":
		return FieldMatch{Method: MethodExpectedMissing}, true
	case actual == "":
		return FieldMatch{Method: MethodActualMissing}, true
	}
	return FieldMatch{}, false
}

// calculateSimilarity calculates similarity ratio (0.0 to 1.0) using Levenshtein distance
func calculateSimilarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}

	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) == 0 || len(r2) == 0 {
		return 0.0
	}

	maxLen := max(len(r1), len(r2))
	return 1.0 - float64(levenshteinDistance(r1, r2))/float64(maxLen)
}

// levenshteinDistance calculates the edit distance between two rune slices
func levenshteinDistance(s1, s2 []rune) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}
