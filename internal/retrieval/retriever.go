package retrieval

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/farm-guru/farmguru-go/internal/knowledge"
	"github.com/farm-guru/farmguru-go/internal/logging"
)

const (
	// defaultTopK is the number of results returned when the caller passes
	// a non-positive k.
	defaultTopK = 3

	// remoteThreshold is the minimum cosine similarity required of remote
	// vector-search results. Applies to the remote tier only.
	remoteThreshold = 0.3

	// remoteTimeout bounds the remote search round trip. On expiry the
	// retriever falls through to the local tiers — no retries.
	remoteTimeout = 30 * time.Second
)

// TieredRetriever implements Retriever over a knowledge.Library, degrading
// from remote vector search to local embedding similarity to keyword
// overlap as capabilities become unavailable.
type TieredRetriever struct {
	// library supplies the corpus and index snapshot per call.
	library *knowledge.Library

	// embedder embeds the query text. Nil disables both vector tiers.
	embedder knowledge.Embedder

	// remote is the optional remote vector-search collaborator. Nil skips
	// the remote tier.
	remote VectorSearcher
}

// NewTieredRetriever constructs a TieredRetriever. embedder and remote may
// both be nil, in which case every call uses keyword overlap.
func NewTieredRetriever(library *knowledge.Library, embedder knowledge.Embedder, remote VectorSearcher) *TieredRetriever {
	return &TieredRetriever{library: library, embedder: embedder, remote: remote}
}

// Retrieve returns the top-k most relevant documents for query, descending
// by similarity under whichever strategy was used. It never fails: remote
// and embedding errors degrade silently to the next tier, and an empty
// corpus short-circuits to an empty result.
func (r *TieredRetriever) Retrieve(ctx context.Context, query string, k int) []RetrievedDocument {
	if k <= 0 {
		k = defaultTopK
	}

	corpus, index := r.library.Current()
	if corpus.Len() == 0 {
		return nil
	}

	log := logging.FromContext(ctx)

	// Tier 1: remote vector search. Requires both an embedder (for the
	// query vector) and a remote collaborator.
	if r.remote != nil && r.embedder != nil {
		if docs, ok := r.remoteSearch(ctx, query, k, log); ok {
			return docs
		}
	}

	// Tier 2: local cosine similarity against the prebuilt corpus index.
	if index.HasIndex() && r.embedder != nil {
		if docs, ok := r.localSearch(ctx, query, k, corpus, index, log); ok {
			return docs
		}
	}

	// Tier 3: keyword overlap. Total — always produces a ranking (possibly
	// empty when nothing overlaps).
	return keywordSearch(corpus, query, k)
}

// remoteSearch embeds the query and delegates top-k lookup to the remote
// collaborator. Returns ok=false on any failure so the caller falls through;
// remote errors are logged but never surfaced.
func (r *TieredRetriever) remoteSearch(ctx context.Context, query string, k int, log *slog.Logger) ([]RetrievedDocument, bool) {
	searchCtx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	vectors, err := r.embedder.Embed(searchCtx, []string{query})
	if err != nil || len(vectors) == 0 {
		log.Warn("retrieval: query embedding failed, falling back", slog.Any("error", err))
		return nil, false
	}

	docs, err := r.remote.Search(searchCtx, vectors[0], remoteThreshold, k)
	if err != nil {
		log.Warn("retrieval: remote vector search failed, falling back", slog.Any("error", err))
		return nil, false
	}
	if len(docs) == 0 {
		// An empty remote result is not a failure of the tier, but the
		// local tiers may still find matches the remote store lacks.
		return nil, false
	}
	return docs, true
}

// localSearch embeds the query and ranks every corpus document by cosine
// similarity against the prebuilt index, stable on ties by load order.
func (r *TieredRetriever) localSearch(ctx context.Context, query string, k int, corpus *knowledge.Corpus, index *knowledge.Index, log *slog.Logger) ([]RetrievedDocument, bool) {
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil || len(vectors) == 0 {
		log.Warn("retrieval: query embedding failed, falling back to keywords", slog.Any("error", err))
		return nil, false
	}
	queryVec := vectors[0]

	docs := corpus.Documents()
	scored := make([]RetrievedDocument, 0, len(docs))
	for i, doc := range docs {
		scored = append(scored, RetrievedDocument{
			Document:   doc,
			Similarity: Cosine(queryVec, index.Vector(i)),
			Strategy:   StrategyEmbedding,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, true
}

// Cosine returns the cosine similarity of two vectors: their dot product
// divided by the product of their magnitudes. Returns 0 for mismatched
// lengths or zero vectors.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
