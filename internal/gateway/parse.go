package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/booklens/internal/models"
)

var emptyObject = json.RawMessage(`{}`)

// ParseObject extracts the JSON object from a model response. Markdown code
// fences are removed first. Anything that is not a JSON object yields {}.
func ParseObject(content string) json.RawMessage {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &obj); err != nil || obj == nil {
		if content != "" {
			slog.Warn("Failed to parse model response as JSON object", "err", err, "length", len(content))
		}
		return emptyObject
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(content)); err != nil {
		return emptyObject
	}
	return buf.Bytes()
}

// ParseRecord decodes a model response into a book record. Malformed payloads
// produce an empty record rather than an error. A field of the wrong JSON type
// does not discard the rest of the record.
func ParseRecord(content []byte) models.BookRecord {
	obj := ParseObject(string(content))

	var rec models.BookRecord
	err := json.Unmarshal(obj, &rec)
	if err == nil {
		return rec
	}
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) {
		slog.Warn("Model response does not match the book record", "err", err)
		return models.BookRecord{}
	}
	slog.Debug("Coercing mistyped book record fields", "err", err)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(obj, &fields); err != nil {
		return models.BookRecord{}
	}
	coerce := func(key string, dst *string, keepNumbers bool) {
		if raw, ok := fields[key]; ok {
			*dst = coerceText(raw, keepNumbers)
		}
	}
	coerce("judul", &rec.Title, true)
	coerce("penulis", &rec.Author, true)
	coerce("genre", &rec.Genre, true)
	coerce("isbn", &rec.ISBN, true)
	coerce("summary", &rec.Summary, true)
	// a non-string price counts as missing so enrichment still runs
	coerce("harga", &rec.Price, false)
	coerce("hargaLink", &rec.PriceLink, false)
	return rec
}

// coerceText renders a JSON value as text. Arrays of scalars are joined with
// ", ". Objects, booleans and null become "".
func coerceText(raw json.RawMessage, keepNumbers bool) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '[':
		if !keepNumbers {
			return ""
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return ""
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if item = bytes.TrimSpace(item); len(item) > 0 && (item[0] == '[' || item[0] == '{') {
				continue
			}
			if s := coerceText(item, true); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	if !keepNumbers {
		return ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	return n.String()
}
