// Package retrieval implements top-k document retrieval for farmer queries.
// A single Retriever selects among three strategies by availability: remote
// vector search (Qdrant), local embedding similarity against the corpus
// index, and keyword overlap. Whichever strategy produces results owns the
// whole ranking for that call — scores from different strategies use
// different scales and are never mixed.
package retrieval

import (
	"context"

	"github.com/farm-guru/farmguru-go/internal/knowledge"
)

// Strategy identifies which retrieval tier produced a result set.
type Strategy string

const (
	// StrategyRemote is remote vector search delegated to Qdrant.
	// Similarity is cosine similarity in [-1, 1].
	StrategyRemote Strategy = "remote"

	// StrategyEmbedding is local cosine similarity against the corpus index.
	// Similarity is cosine similarity in [-1, 1].
	StrategyEmbedding Strategy = "embedding"

	// StrategyKeyword is lowercase token-overlap scoring. Similarity is a
	// non-negative integer overlap count and is NOT comparable to cosine
	// similarity values.
	StrategyKeyword Strategy = "keyword"
)

// RetrievedDocument is a corpus document annotated with the similarity score
// assigned during one retrieval call. It is ephemeral — produced per query,
// never persisted.
type RetrievedDocument struct {
	knowledge.Document

	// Similarity is the score under the strategy that produced this result.
	// Its scale depends on Strategy; see the Strategy constants.
	Similarity float64 `json:"similarity"`

	// Strategy is the retrieval tier that produced this result. All results
	// of a single Retrieve call share the same strategy.
	Strategy Strategy `json:"strategy"`
}

// VectorSearcher is the interface for a remote vector-search collaborator.
// Implementations must be safe to call from multiple goroutines.
type VectorSearcher interface {
	// Search returns up to k documents whose stored embeddings score at
	// least threshold cosine similarity against queryEmbedding, ordered by
	// descending similarity.
	Search(ctx context.Context, queryEmbedding []float32, threshold float32, k int) ([]RetrievedDocument, error)
}

// Retriever is the caller-facing retrieval contract consumed by the
// assistant and the rule-engine endpoints.
type Retriever interface {
	// Retrieve returns the top-k most relevant documents for query, ordered
	// by descending similarity. It never returns an error: every failure
	// tier degrades to the next strategy, and an empty corpus yields an
	// empty result.
	Retrieve(ctx context.Context, query string, k int) []RetrievedDocument
}
