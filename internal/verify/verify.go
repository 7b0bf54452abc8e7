// Package verify cross-checks a model-generated book guess against a public
// catalog and corrects title, author and ISBN.
package verify

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/lehigh-university-libraries/booklens/internal/catalog"
	"github.com/lehigh-university-libraries/booklens/internal/models"
)

// CandidateLimit is how many catalog hits are considered.
const CandidateLimit = 5

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	isbn13   = regexp.MustCompile(`^\d{13}$`)
	isbn10   = regexp.MustCompile(`^\d{10}$`)
)

// Searcher finds catalog entries by title.
type Searcher interface {
	SearchTitle(ctx context.Context, title string, limit int) ([]catalog.Doc, error)
}

// Verifier corrects book records against a catalog.
type Verifier struct {
	catalog Searcher
}

// New returns a Verifier backed by s.
func New(s Searcher) *Verifier {
	return &Verifier{catalog: s}
}

// Verify looks the record's title up in the catalog. It always returns a
// usable record: on failure the input comes back unchanged together with the
// error, so callers can choose to ignore it.
func (v *Verifier) Verify(ctx context.Context, r models.BookRecord) (models.BookRecord, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return r, nil
	}

	docs, err := v.catalog.SearchTitle(ctx, title, CandidateLimit)
	if err != nil {
		return r, fmt.Errorf("verify %q: %w", title, err)
	}
	if len(docs) == 0 {
		return r, nil
	}

	best := pick(docs, title)

	out := r.Clone()
	if best.Title != "" {
		out.Title = best.Title
	}
	if len(best.AuthorNames) > 0 && best.AuthorNames[0] != "" {
		out.Author = best.AuthorNames[0]
	}
	out.ISBN = chooseISBN(best.ISBN)
	return out, nil
}

// NormalizeTitle lower-cases s and collapses every run of characters outside
// [a-z0-9] into one space.
func NormalizeTitle(s string) string {
	return strings.TrimSpace(nonAlnum.ReplaceAllString(strings.ToLower(s), " "))
}

// pick returns the first doc whose normalized title equals the query, or the
// first doc when none does.
func pick(docs []catalog.Doc, title string) catalog.Doc {
	want := NormalizeTitle(title)
	for _, d := range docs {
		if NormalizeTitle(d.Title) == want {
			return d
		}
	}
	return docs[0]
}

func chooseISBN(codes []string) string {
	for _, c := range codes {
		if isbn13.MatchString(c) {
			return c
		}
	}
	for _, c := range codes {
		if isbn10.MatchString(c) {
			return c
		}
	}
	return ""
}
