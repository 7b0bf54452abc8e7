package normalize

import (
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lehigh-university-libraries/booklens/internal/models"
)

func TestRecommendations(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "drops placeholders and duplicates",
			input:    []string{"Book Title 1", "Real Title", "Real Title"},
			expected: []string{"Real Title"},
		},
		{
			name:     "indonesian placeholder",
			input:    []string{"Judul Buku 1", "Sang Pemimpi"},
			expected: []string{"Sang Pemimpi"},
		},
		{
			name:     "placeholder match is case insensitive and tolerates spacing",
			input:    []string{"judul  buku 12", "BOOK TITLE 3", "booktitle4", "Edensor"},
			expected: []string{"Edensor"},
		},
		{
			name:     "dedupe is case sensitive",
			input:    []string{"Edensor", "edensor"},
			expected: []string{"Edensor", "edensor"},
		},
		{
			name:     "trims and drops empties",
			input:    []string{"  Maryamah Karpov ", "", "   "},
			expected: []string{"Maryamah Karpov"},
		},
		{
			name:     "caps at five keeping order",
			input:    []string{"A", "B", "C", "A", "D", "E", "F", "G"},
			expected: []string{"A", "B", "C", "D", "E"},
		},
		{
			name:     "nil input yields empty slice",
			input:    nil,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recommendations(tt.input)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("Recommendations mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRecommendations(t *testing.T) {
	got := ParseRecommendations("Sang Pemimpi, Edensor\nJudul Buku 2\n\nSang Pemimpi")
	expected := []string{"Sang Pemimpi", "Edensor"}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("ParseRecommendations mismatch (-want +got):\n%s", diff)
	}
}

func TestBestLink(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		author    string
		isbn      string
		wantQuery string
		wantEmpty bool
	}{
		{name: "isbn wins", title: "Laskar Pelangi", author: "Andrea Hirata", isbn: "9789793062792", wantQuery: "9789793062792"},
		{name: "title and author", title: "Laskar Pelangi", author: "Andrea Hirata", wantQuery: "Laskar Pelangi Andrea Hirata"},
		{name: "title only", title: " Laskar Pelangi ", wantQuery: "Laskar Pelangi"},
		{name: "author only", author: "Andrea Hirata", wantQuery: "Andrea Hirata"},
		{name: "nothing", wantEmpty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := BestLink(tt.title, tt.author, tt.isbn)
			if tt.wantEmpty {
				if link != "" {
					t.Errorf("Expected empty link, got %s", link)
				}
				return
			}
			u, err := url.Parse(link)
			if err != nil {
				t.Fatalf("Invalid URL %q: %v", link, err)
			}
			if u.Scheme != "https" || u.Host != "www.tokopedia.com" {
				t.Errorf("Expected canonical https marketplace link, got %s", link)
			}
			if q := u.Query().Get("q"); q != tt.wantQuery {
				t.Errorf("Expected query %q, got %q", tt.wantQuery, q)
			}
		})
	}
}

func TestPreferredLink(t *testing.T) {
	tests := []struct {
		name     string
		link     string
		title    string
		author   string
		isbn     string
		wantHost string
	}{
		{name: "keeps preferred domain", link: "https://www.gramedia.com/products/laskar-pelangi", title: "Laskar Pelangi", wantHost: "www.gramedia.com"},
		{name: "replaces other domain with isbn search", link: "https://shopee.co.id/x", title: "Laskar Pelangi", isbn: "9789793062792", wantHost: "www.gramedia.com"},
		{name: "replaces other domain with title search", link: "https://shopee.co.id/x", title: "Laskar Pelangi", author: "Andrea Hirata", wantHost: "www.google.com"},
		{name: "relative preferred link is rebuilt", link: "/gramedia.com/search", title: "Laskar Pelangi", wantHost: "www.google.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := PreferredLink(tt.link, tt.title, tt.author, tt.isbn)
			u, err := url.Parse(link)
			if err != nil {
				t.Fatalf("Invalid URL %q: %v", link, err)
			}
			if u.Host != tt.wantHost {
				t.Errorf("Expected host %s, got %s (%s)", tt.wantHost, u.Host, link)
			}
		})
	}

	if got := PreferredLink("", "", "", ""); got != "" {
		t.Errorf("Expected empty link with no inputs, got %s", got)
	}
}

func TestISBN(t *testing.T) {
	tests := map[string]string{
		"9789793062792":     "9789793062792",
		"978-979-3062-79-2": "9789793062792",
		"0143039431":        "0143039431",
		"014303943X":        "",
		"12345":             "",
		"":                  "",
	}
	for input, expected := range tests {
		if got := ISBN(input); got != expected {
			t.Errorf("ISBN(%q): expected %q, got %q", input, expected, got)
		}
	}
}

func TestSummary(t *testing.T) {
	long := strings.Repeat("kata ", 150)
	got := Summary(long)
	if n := len(strings.Fields(got)); n != MaxSummaryWords {
		t.Errorf("Expected %d words, got %d", MaxSummaryWords, n)
	}
	if Summary("  pendek saja ") != "pendek saja" {
		t.Errorf("Short summary should only be trimmed")
	}
}

func TestDisplayRating(t *testing.T) {
	tests := map[string]int{
		"4":   4,
		"0":   1,
		"-3":  1,
		"9":   5,
		"4.6": 5,
		"":    0,
		"n/a": 0,
	}
	for input, expected := range tests {
		if got := DisplayRating(input); got != expected {
			t.Errorf("DisplayRating(%q): expected %d, got %d", input, expected, got)
		}
	}
}

func TestFinalize(t *testing.T) {
	in := models.BookRecord{
		Title:           " Laskar Pelangi ",
		Author:          "Andrea Hirata",
		Rating:          "9",
		PriceLink:       "https://evil.example.com/buy",
		ISBN:            "978-979-3062-79-2",
		Recommendations: models.Recommendations{"Judul Buku 1", "Sang Pemimpi", "Sang Pemimpi"},
	}

	out := Finalize(in)

	if out.Title != "Laskar Pelangi" {
		t.Errorf("Expected trimmed title, got %q", out.Title)
	}
	if out.ISBN != "9789793062792" {
		t.Errorf("Expected cleaned ISBN, got %q", out.ISBN)
	}
	if !strings.HasPrefix(out.PriceLink, "https://www.tokopedia.com/") || !strings.Contains(out.PriceLink, "9789793062792") {
		t.Errorf("Expected canonical ISBN link, got %s", out.PriceLink)
	}
	if out.Rating != "9" {
		t.Errorf("Rating must not be corrected in storage, got %s", out.Rating)
	}
	if diff := cmp.Diff(models.Recommendations{"Sang Pemimpi"}, out.Recommendations); diff != "" {
		t.Errorf("Recommendations mismatch (-want +got):\n%s", diff)
	}
	if in.Recommendations[0] != "Judul Buku 1" {
		t.Errorf("Finalize mutated its input")
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	records := []models.BookRecord{
		{Title: "Bumi Manusia", Author: "Pramoedya Ananta Toer", Summary: strings.Repeat("kata  ", 120)},
		{Title: "Cantik Itu Luka", ISBN: "9786020312583", Recommendations: models.Recommendations{"A", "A", "Book Title 2", "B"}},
		{},
	}
	for _, r := range records {
		once := Finalize(r)
		twice := Finalize(once)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("Finalize not idempotent (-once +twice):\n%s", diff)
		}
	}
}
