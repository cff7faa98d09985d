package knowledge

import (
	"context"
	"log/slog"
)

// DocumentSource is the interface for an external document store from which
// the corpus is loaded (e.g. the SQLite docs table). Implementations must be
// safe to call from multiple goroutines.
type DocumentSource interface {
	// FetchAllDocuments returns every document held by the source in its
	// stable storage order, or an error when the source is unreachable.
	FetchAllDocuments(ctx context.Context) ([]Document, error)
}

// Corpus is the loaded, read-only document set. The document order is the
// load order and is significant: it is the tie-breaker for equal similarity
// scores during retrieval.
type Corpus struct {
	// docs is the ordered document set. Never mutated after Load.
	docs []Document
}

// Load builds a Corpus from the given source, falling back to the built-in
// document set when the source is nil, unreachable, or empty. Load never
// fails: with the built-in fallback the returned corpus is always non-empty
// unless the source itself returned an invalid set AND the builtin set is
// somehow rejected, which would be a programming error.
//
// Load is idempotent; calling it again re-fetches from the source.
func Load(ctx context.Context, source DocumentSource, log *slog.Logger) *Corpus {
	if log == nil {
		log = slog.Default()
	}

	if source != nil {
		docs, err := source.FetchAllDocuments(ctx)
		switch {
		case err != nil:
			log.Warn("knowledge: document source unavailable, using built-in set",
				slog.Any("error", err))
		case len(docs) == 0:
			log.Info("knowledge: document source empty, using built-in set")
		case validateSet(docs) != nil:
			log.Warn("knowledge: document source returned invalid set, using built-in set",
				slog.Any("error", validateSet(docs)))
		default:
			log.Info("knowledge: corpus loaded from document source",
				slog.Int("documents", len(docs)))
			return &Corpus{docs: docs}
		}
	}

	docs := BuiltinDocuments()
	log.Info("knowledge: using built-in corpus", slog.Int("documents", len(docs)))
	return &Corpus{docs: docs}
}

// NewCorpus builds a Corpus directly from a document slice. Used by tests and
// by callers that already hold a validated set. Returns an error if the set
// violates the collection invariants.
func NewCorpus(docs []Document) (*Corpus, error) {
	if err := validateSet(docs); err != nil {
		return nil, err
	}
	copied := make([]Document, len(docs))
	copy(copied, docs)
	return &Corpus{docs: copied}, nil
}

// Documents returns the ordered document set. Callers must not mutate the
// returned slice.
func (c *Corpus) Documents() []Document {
	if c == nil {
		return nil
	}
	return c.docs
}

// Len returns the number of documents in the corpus.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.docs)
}
