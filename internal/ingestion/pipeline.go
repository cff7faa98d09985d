// Package ingestion implements the corpus ingestion pipeline.
// It takes the knowledge documents, chunks long contents, embeds each chunk,
// and upserts the results into the remote vector store so tier-1 retrieval
// can serve them. This pipeline is invoked by the `farmguru ingest` CLI
// command.
package ingestion

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/farm-guru/farmguru-go/internal/knowledge"
)

// VectorStore is the point-management surface of the remote vector store.
// *retrieval.QdrantStore satisfies it; tests inject a fake.
type VectorStore interface {
	// Upsert writes documents and their embeddings, parallel slices.
	Upsert(ctx context.Context, docs []knowledge.Document, embeddings [][]float32) error

	// Delete removes previously upserted points by ID. Deleting an ID that
	// was never stored is not an error.
	Delete(ctx context.Context, ids []string) error
}

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// ChunkSize is the maximum number of characters per document chunk.
	// Defaults to 1000 if zero.
	ChunkSize int

	// ChunkOverlap is the number of characters to overlap between consecutive
	// chunks. Defaults to 100 if zero or out of range.
	ChunkOverlap int

	// BatchSize is the number of chunk texts sent to the embedder per call.
	// Defaults to 16 if zero.
	BatchSize int
}

// Pipeline orchestrates the chunk → embed → upsert flow for the knowledge
// corpus.
type Pipeline struct {
	// embedder converts text chunks into dense vector embeddings.
	embedder knowledge.Embedder

	// store persists the embedded chunks.
	store VectorStore

	// cfg holds the resolved pipeline configuration.
	cfg *Config
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
func NewPipeline(embedder knowledge.Embedder, store VectorStore, cfg *Config) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap <= 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = 100
		if cfg.ChunkOverlap >= cfg.ChunkSize {
			cfg.ChunkOverlap = cfg.ChunkSize / 10
		}
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}

	return &Pipeline{
		embedder: embedder,
		store:    store,
		cfg:      cfg,
	}, nil
}

// Ingest chunks, embeds, and stores all provided documents.
// It processes documents sequentially and returns the first error
// encountered. Progress is reported via the optional progress callback.
func (p *Pipeline) Ingest(ctx context.Context, docs []knowledge.Document, progress func(msg string)) error {
	if progress == nil {
		progress = func(string) {}
	}

	start := time.Now()
	total := 0

	for _, doc := range docs {
		chunks := p.chunk(doc.Content)
		if len(chunks) == 0 {
			progress(fmt.Sprintf("skipping %s: empty content", doc.ID))
			continue
		}
		progress(fmt.Sprintf("chunked %s into %d chunks", doc.ID, len(chunks)))

		chunkDocs := make([]knowledge.Document, 0, len(chunks))
		for i, chunk := range chunks {
			chunkDocs = append(chunkDocs, knowledge.Document{
				ID:      chunkID(doc.ID, i),
				Title:   doc.Title,
				Content: chunk,
				URL:     doc.URL,
				Snippet: doc.Snippet,
			})
		}

		for batchStart := 0; batchStart < len(chunkDocs); batchStart += p.cfg.BatchSize {
			batchEnd := batchStart + p.cfg.BatchSize
			if batchEnd > len(chunkDocs) {
				batchEnd = len(chunkDocs)
			}
			batch := chunkDocs[batchStart:batchEnd]

			texts := make([]string, len(batch))
			for i, d := range batch {
				texts[i] = d.Content
			}

			embeddings, err := p.embedder.Embed(ctx, texts)
			if err != nil {
				return fmt.Errorf("ingestion: embedding failed for %s: %w", doc.ID, err)
			}

			if err := p.store.Upsert(ctx, batch, embeddings); err != nil {
				return fmt.Errorf("ingestion: upsert failed for %s: %w", doc.ID, err)
			}
		}

		// Re-ingesting shortened content would leave points at higher chunk
		// indices behind. Chunk IDs are derived from (doc ID, index), so a
		// bounded sweep past the new tail clears them. Best-effort: a failed
		// sweep leaves stale points, not wrong ones.
		if err := p.store.Delete(ctx, staleChunkIDs(doc.ID, len(chunkDocs))); err != nil {
			progress(fmt.Sprintf("stale chunk sweep failed for %s: %v", doc.ID, err))
		}

		total += len(chunkDocs)
		progress(fmt.Sprintf("ingested %d chunks from %s", len(chunkDocs), doc.ID))
	}

	progress(fmt.Sprintf("ingested %d chunks from %d documents in %s",
		total, len(docs), time.Since(start).Round(time.Millisecond)))
	return nil
}

// chunk splits text into overlapping chunks of cfg.ChunkSize characters.
func (p *Pipeline) chunk(text string) []string {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return nil
	}

	var chunks []string
	size := p.cfg.ChunkSize
	overlap := p.cfg.ChunkOverlap

	for start := 0; start < len(text); start += size - overlap {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}

	return chunks
}

// staleChunkSweep is how many chunk indices past the new tail are cleared
// after each document's upsert.
const staleChunkSweep = 32

// staleChunkIDs returns the derived IDs for the sweep window starting at the
// first index the document no longer uses.
func staleChunkIDs(docID string, from int) []string {
	ids := make([]string, 0, staleChunkSweep)
	for i := from; i < from+staleChunkSweep; i++ {
		ids = append(ids, chunkID(docID, i))
	}
	return ids
}

// chunkID generates a deterministic ID for a document chunk based on its
// parent document ID and chunk index.
func chunkID(docID string, index int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", docID, index)))
	return fmt.Sprintf("%x", h[:16])
}
