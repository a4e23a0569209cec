// Package passage models retrieved text units and their identity.
package passage

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Delimiter separates a passage title from its body in the canonical
// serialized form "<title> | <content>".
const Delimiter = " | "

// Passage is a single retrieved text unit.
type Passage struct {
	Title   string
	Content string
	// SourceQuery is the index of the retrieval query that produced this
	// passage; Rank is its 0-based position in that query's result list.
	SourceQuery int
	Rank        int
}

// FromText parses the canonical "<title> | <content>" form. When the
// delimiter is absent the whole string becomes the title.
func FromText(text string, sourceQuery, rank int) Passage {
	title, content, found := strings.Cut(text, Delimiter)
	if !found {
		content = ""
	}
	return Passage{
		Title:       title,
		Content:     content,
		SourceQuery: sourceQuery,
		Rank:        rank,
	}
}

// Text returns the canonical serialized form.
func (p Passage) Text() string {
	if p.Content == "" {
		return p.Title
	}
	return p.Title + Delimiter + p.Content
}

// Key returns the passage's dedup key.
func (p Passage) Key() string {
	return Key(p.Title)
}

var fold = cases.Fold()

// Key canonicalizes a raw passage string into its dedup key: the text before
// the first " | " (the whole string when absent), NFKC-normalized,
// case-folded, and trimmed. Total and idempotent; any input, including the
// empty string, yields a valid key.
func Key(s string) string {
	title, _, _ := strings.Cut(s, Delimiter)
	title = norm.NFKC.String(title)
	title = fold.String(title)
	return strings.TrimSpace(title)
}
