// Package knowledge holds the agricultural knowledge corpus: the document
// model, the built-in fallback document set, the embedding index computed
// over the corpus, and the Library that owns the immutable corpus+index
// snapshot for the lifetime of the process.
package knowledge

import (
	"fmt"
)

// Document is a single unit of agricultural knowledge. Documents are
// immutable once loaded into a Corpus.
type Document struct {
	// ID is the unique identifier of this document within the corpus.
	ID string `json:"id"`

	// Title is the human-readable document title.
	Title string `json:"title"`

	// Content is the full text used for embedding and keyword scoring.
	Content string `json:"content"`

	// URL is the origin of the document, surfaced to callers as a source link.
	URL string `json:"url"`

	// Snippet is a pre-shortened excerpt of Content used for display.
	// Always no longer than Content.
	Snippet string `json:"snippet"`
}

// Validate checks the per-document invariants.
func (d Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("knowledge: document has empty id")
	}
	if len(d.Snippet) > len(d.Content) {
		return fmt.Errorf("knowledge: document %q snippet longer than content", d.ID)
	}
	return nil
}

// validateSet checks the collection invariants: every document valid and
// no duplicate IDs.
func validateSet(docs []Document) error {
	seen := make(map[string]bool, len(docs))
	for _, d := range docs {
		if err := d.Validate(); err != nil {
			return err
		}
		if seen[d.ID] {
			return fmt.Errorf("knowledge: duplicate document id %q", d.ID)
		}
		seen[d.ID] = true
	}
	return nil
}
