package dataset

import "strings"

// Row is one labelled lookup: the query sent through BookLens and the
// bibliographic data it should resolve to.
type Row struct {
	ID         string `json:"id" parquet:"id"`
	TitleQuery string `json:"title_query" parquet:"title_query"`
	ImagePath  string `json:"image_path,omitempty" parquet:"image_path,optional"`
	Title      string `json:"title" parquet:"title"`
	Author     string `json:"author" parquet:"author"`
	ISBN       string `json:"isbn" parquet:"isbn,optional"`
}

// Query returns the title query, falling back to the expected title when the
// row does not carry one.
func (r Row) Query() string {
	if q := strings.TrimSpace(r.TitleQuery); q != "" {
		return q
	}
	return strings.TrimSpace(r.Title)
}

// HasImage reports whether the row should be resolved from a photo.
func (r Row) HasImage() bool {
	return strings.TrimSpace(r.ImagePath) != ""
}
