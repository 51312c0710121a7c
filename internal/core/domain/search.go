package domain

import "strings"

// Query result count bounds.
const (
	DefaultK = 10
	MinK     = 1
	MaxK     = 50
)

// Query is an ephemeral search request.
type Query struct {
	// Text is the search text. Must be non-empty after trimming.
	Text string

	// K is the requested result count. Zero means DefaultK;
	// anything outside [MinK, MaxK] is rejected.
	K int

	// Vendors, Families and Models restrict the candidate documents.
	// Each set, when non-empty, requires the document field to be one
	// of its members; the sets combine with logical AND.
	Vendors  []string
	Families []string
	Models   []string
}

// Normalize trims the query text and applies the default K.
func (q Query) Normalize() Query {
	q.Text = strings.TrimSpace(q.Text)
	if q.K == 0 {
		q.K = DefaultK
	}
	return q
}

// Validate checks the query after Normalize.
func (q Query) Validate() error {
	if q.Text == "" {
		return ErrInvalidQuery
	}
	if q.K < MinK || q.K > MaxK {
		return ErrInvalidQuery
	}
	return nil
}

// Filter returns the document-level restriction the query carries.
func (q Query) Filter() Filter {
	return Filter{Vendors: q.Vendors, Families: q.Families, Models: q.Models}
}

// Filter restricts candidate documents for both the lexical and the
// vector path. An empty set places no restriction on that field.
type Filter struct {
	Vendors  []string
	Families []string
	Models   []string
}

// IsZero reports whether the filter restricts nothing.
func (f Filter) IsZero() bool {
	return len(f.Vendors) == 0 && len(f.Families) == 0 && len(f.Models) == 0
}

// Citation is a single search result referencing a source document and
// its estimated page range. Score is a fused relevance value: higher is
// better, but the scale is only meaningful for ordering.
type Citation struct {
	DocID     int64   `json:"doc_id"`
	Title     string  `json:"title"`
	Vendor    string  `json:"vendor,omitempty"`
	Family    string  `json:"family,omitempty"`
	Model     string  `json:"model,omitempty"`
	PageStart int     `json:"page_start"`
	PageEnd   int     `json:"page_end"`
	Snippet   string  `json:"snippet"`
	Score     float64 `json:"score"`
}
