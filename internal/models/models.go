package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// BookRecord is the canonical book description returned to the user.
// JSON keys follow the gateway prompt contract so a raw model payload decodes
// into it unchanged.
type BookRecord struct {
	Title           string          `json:"judul"`
	Author          string          `json:"penulis"`
	Genre           string          `json:"genre"`
	Rating          FlexString      `json:"rating"`
	Price           string          `json:"harga"`
	PriceLink       string          `json:"hargaLink"`
	ISBN            string          `json:"isbn,omitempty"`
	Summary         string          `json:"summary"`
	Recommendations Recommendations `json:"rekomendasi"`
}

// Clone returns a copy that shares no slices with r.
func (r BookRecord) Clone() BookRecord {
	out := r
	if r.Recommendations != nil {
		out.Recommendations = append(Recommendations{}, r.Recommendations...)
	}
	return out
}

// HistoryEntry is a saved lookup result.
type HistoryEntry struct {
	ID string `json:"id"`
	BookRecord
	CreatedAt time.Time `json:"createdAt"`
}

// BookList is a user-defined named collection.
type BookList struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListItem is a book stored in a BookList.
type ListItem struct {
	ID string `json:"id"`
	BookRecord
	CreatedAt time.Time `json:"createdAt"`
}

// FlexString decodes from a JSON string or number. Models are inconsistent
// about quoting numeric fields such as rating.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// booleans and objects are dropped rather than failing the whole record
		*f = ""
		return nil
	}
	if i, err := n.Int64(); err == nil {
		*f = FlexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = FlexString(n.String())
	return nil
}

// Recommendations decodes from a JSON array of strings or from a single
// newline/comma separated string.
type Recommendations []string

func (r *Recommendations) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = nil
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Recommendations(strings.FieldsFunc(s, func(c rune) bool { return c == '\n' || c == ',' }))
		return nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out := make(Recommendations, 0, len(raw))
		for _, item := range raw {
			var s FlexString
			if err := s.UnmarshalJSON(item); err != nil {
				continue
			}
			out = append(out, string(s))
		}
		*r = out
		return nil
	default:
		*r = nil
		return nil
	}
}
