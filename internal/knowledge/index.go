package knowledge

import (
	"context"
	"log/slog"
)

// Embedder converts text into dense vector embeddings of a fixed dimension.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Index holds one embedding vector per corpus document, computed once at
// build time and reused across queries. An Index with no vectors is a valid
// value: HasIndex reports false and callers fall back to keyword retrieval.
type Index struct {
	// vectors is parallel to the corpus document order. Empty when the
	// embedding backend was unavailable at build time.
	vectors [][]float32
}

// BuildIndex embeds every document's content and returns the resulting Index.
// If embedder is nil or the embedding call fails, an empty Index is returned
// rather than an error — embedding availability is a capability, not a
// precondition.
func BuildIndex(ctx context.Context, embedder Embedder, corpus *Corpus, log *slog.Logger) *Index {
	if log == nil {
		log = slog.Default()
	}
	if embedder == nil || corpus.Len() == 0 {
		return &Index{}
	}

	texts := make([]string, 0, corpus.Len())
	for _, d := range corpus.Documents() {
		texts = append(texts, d.Content)
	}

	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		log.Warn("knowledge: corpus embedding failed, index disabled",
			slog.Any("error", err))
		return &Index{}
	}
	if len(vectors) != corpus.Len() {
		log.Warn("knowledge: embedder returned wrong vector count, index disabled",
			slog.Int("want", corpus.Len()), slog.Int("got", len(vectors)))
		return &Index{}
	}

	log.Info("knowledge: similarity index built",
		slog.Int("vectors", len(vectors)))
	return &Index{vectors: vectors}
}

// HasIndex reports whether embeddings are available for similarity search.
func (i *Index) HasIndex() bool {
	return i != nil && len(i.vectors) > 0
}

// Vector returns the embedding for the document at corpus position n.
// Callers must check HasIndex first; n must be within the corpus bounds.
func (i *Index) Vector(n int) []float32 {
	return i.vectors[n]
}

// Len returns the number of indexed vectors.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.vectors)
}
