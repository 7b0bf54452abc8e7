// Package normalize turns a verified book record into its canonical form:
// sanitized recommendations, a single trusted purchase link and a
// schema-complete record.
package normalize

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/booklens/internal/models"
)

const (
	// MaxRecommendations caps the recommendation list.
	MaxRecommendations = 5
	// MaxSummaryWords caps the summary length.
	MaxSummaryWords = 100

	canonicalSearchURL = "https://www.tokopedia.com/search?st=product&q="
	preferredDomain    = "gramedia.com"
	preferredSearchURL = "https://www.gramedia.com/search?keyword="
	fallbackSearchURL  = "https://www.google.com/search?q=site%3Agramedia.com+"
)

var (
	placeholderPattern = regexp.MustCompile(`(?i)^(judul\s*buku|book\s*title)\s*\d+$`)
	absoluteURLPattern = regexp.MustCompile(`(?i)^https?://`)
)

// BestLink builds the canonical marketplace search URL. An ISBN wins over
// title and author; an empty string is returned only when all three are empty.
func BestLink(title, author, isbn string) string {
	if q := strings.TrimSpace(isbn); q != "" {
		return canonicalSearchURL + url.QueryEscape(q)
	}
	if q := joinNonEmpty(title, author); q != "" {
		return canonicalSearchURL + url.QueryEscape(q)
	}
	return ""
}

// PreferredLink keeps a link that already points at the preferred marketplace
// and replaces anything else (including relative links) with a constructed
// search link. With no ISBN and no title the link is returned as-is.
func PreferredLink(link, title, author, isbn string) string {
	title = strings.TrimSpace(title)
	isbn = strings.TrimSpace(isbn)

	if !strings.Contains(strings.ToLower(link), preferredDomain) {
		switch {
		case isbn != "":
			link = preferredSearchURL + url.QueryEscape(isbn)
		case title != "":
			link = fallbackSearchURL + url.QueryEscape(joinNonEmpty(title, author))
		}
	}

	if link != "" && !absoluteURLPattern.MatchString(link) {
		if isbn != "" {
			return preferredSearchURL + url.QueryEscape(isbn)
		}
		return fallbackSearchURL + url.QueryEscape(joinNonEmpty(title, author))
	}
	return link
}

// Recommendations trims entries, drops empties and placeholder titles,
// removes exact duplicates keeping first occurrence and truncates to
// MaxRecommendations. The result is never nil.
func Recommendations(raw []string) []string {
	out := make([]string, 0, MaxRecommendations)
	seen := make(map[string]struct{}, len(raw))
	for _, entry := range raw {
		entry = strings.TrimSpace(entry)
		if entry == "" || placeholderPattern.MatchString(entry) {
			continue
		}
		if _, dup := seen[entry]; dup {
			continue
		}
		seen[entry] = struct{}{}
		out = append(out, entry)
		if len(out) == MaxRecommendations {
			break
		}
	}
	return out
}

// ParseRecommendations sanitizes a newline or comma separated list.
func ParseRecommendations(s string) []string {
	return Recommendations(strings.FieldsFunc(s, isDelimiter))
}

// ISBN strips separators and returns the code only if it is exactly 10 or 13
// digits.
func ISBN(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == ' ':
		default:
			return ""
		}
	}
	code := b.String()
	if len(code) == 10 || len(code) == 13 {
		return code
	}
	return ""
}

// Summary caps free text at MaxSummaryWords words.
func Summary(s string) string {
	s = strings.TrimSpace(s)
	words := strings.Fields(s)
	if len(words) <= MaxSummaryWords {
		return s
	}
	return strings.Join(words[:MaxSummaryWords], " ")
}

// DisplayRating clamps a rating string to 1..5 for display. The stored value
// is left untouched. Unparsable ratings yield 0.
func DisplayRating(rating string) int {
	rating = strings.TrimSpace(rating)
	n, err := strconv.Atoi(rating)
	if err != nil {
		f, ferr := strconv.ParseFloat(rating, 64)
		if ferr != nil {
			return 0
		}
		n = int(f + 0.5)
	}
	if n < 1 {
		return 1
	}
	if n > 5 {
		return 5
	}
	return n
}

// SanitizeRecommendations runs recommendation sanitation over a record in place.
func SanitizeRecommendations(r *models.BookRecord) {
	r.Recommendations = Recommendations(r.Recommendations)
}

// Finalize applies the final normalization pass: trimmed fields, validated
// ISBN, capped summary, sanitized recommendations and the canonical link.
// Finalize(Finalize(r)) equals Finalize(r).
func Finalize(r models.BookRecord) models.BookRecord {
	out := r.Clone()
	out.Title = strings.TrimSpace(out.Title)
	out.Author = strings.TrimSpace(out.Author)
	out.Genre = strings.TrimSpace(out.Genre)
	out.Rating = models.FlexString(strings.TrimSpace(string(out.Rating)))
	out.Price = strings.TrimSpace(out.Price)
	out.ISBN = ISBN(out.ISBN)
	out.Summary = Summary(out.Summary)
	SanitizeRecommendations(&out)
	out.PriceLink = BestLink(out.Title, out.Author, out.ISBN)
	return out
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func isDelimiter(r rune) bool {
	return r == '\n' || r == ','
}
