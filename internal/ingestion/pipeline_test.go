package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/farm-guru/farmguru-go/internal/knowledge"
)

// fakeEmbedder returns a one-dimensional vector per text.
type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}

// fakeVectorStore records every upserted document and deleted ID.
type fakeVectorStore struct {
	err       error
	deleteErr error
	docs      []knowledge.Document
	deleted   []string
}

func (f *fakeVectorStore) Upsert(_ context.Context, docs []knowledge.Document, embeddings [][]float32) error {
	if f.err != nil {
		return f.err
	}
	if len(docs) != len(embeddings) {
		return errors.New("docs and embeddings length mismatch")
	}
	f.docs = append(f.docs, docs...)
	return nil
}

func (f *fakeVectorStore) Delete(_ context.Context, ids []string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, ids...)
	return nil
}

func TestNewPipeline_RequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := NewPipeline(nil, &fakeVectorStore{}, nil); err == nil {
		t.Error("expected error for nil embedder")
	}
	if _, err := NewPipeline(&fakeEmbedder{}, nil, nil); err == nil {
		t.Error("expected error for nil store")
	}
}

func TestNewPipeline_Defaults(t *testing.T) {
	t.Parallel()

	p, err := NewPipeline(&fakeEmbedder{}, &fakeVectorStore{}, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if p.cfg.ChunkSize != 1000 || p.cfg.ChunkOverlap != 100 || p.cfg.BatchSize != 16 {
		t.Errorf("unexpected defaults: %+v", p.cfg)
	}

	// Overlap at or above the chunk size is rescaled, not accepted.
	p, err = NewPipeline(&fakeEmbedder{}, &fakeVectorStore{}, &Config{ChunkSize: 50, ChunkOverlap: 60})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if p.cfg.ChunkOverlap >= p.cfg.ChunkSize {
		t.Errorf("overlap %d not reduced below chunk size %d", p.cfg.ChunkOverlap, p.cfg.ChunkSize)
	}
}

func TestChunk(t *testing.T) {
	t.Parallel()

	p, _ := NewPipeline(&fakeEmbedder{}, &fakeVectorStore{}, &Config{ChunkSize: 10, ChunkOverlap: 3})

	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"whitespace only", "   \n  ", 0},
		{"fits one chunk", "short", 1},
		{"exact size", strings.Repeat("a", 10), 1},
		{"two chunks", strings.Repeat("a", 15), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := p.chunk(tt.text); len(got) != tt.want {
				t.Errorf("chunk(%d chars) produced %d chunks, want %d", len(tt.text), len(got), tt.want)
			}
		})
	}
}

func TestChunk_Overlap(t *testing.T) {
	t.Parallel()

	p, _ := NewPipeline(&fakeEmbedder{}, &fakeVectorStore{}, &Config{ChunkSize: 10, ChunkOverlap: 3})

	chunks := p.chunk("abcdefghijklmnopqrstuvwxyz")

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// Each successor starts 3 characters before its predecessor's end.
	if !strings.HasPrefix(chunks[1], chunks[0][len(chunks[0])-3:]) {
		t.Errorf("chunk 1 %q does not overlap chunk 0 %q by 3", chunks[1], chunks[0])
	}
	// No content lost: stitched chunks cover the full text.
	if !strings.HasSuffix(chunks[len(chunks)-1], "z") {
		t.Errorf("last chunk %q misses the tail", chunks[len(chunks)-1])
	}
}

func TestIngest(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{}
	st := &fakeVectorStore{}
	p, _ := NewPipeline(emb, st, &Config{ChunkSize: 10, ChunkOverlap: 2, BatchSize: 2})

	docs := []knowledge.Document{
		{ID: "long", Title: "Long Doc", Content: strings.Repeat("a", 30), URL: "http://x"},
		{ID: "empty", Title: "Empty Doc", Content: "   "},
		{ID: "short", Title: "Short Doc", Content: "tiny"},
	}

	var msgs []string
	if err := p.Ingest(t.Context(), docs, func(msg string) { msgs = append(msgs, msg) }); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	// "long" chunks to 4 pieces (stride 8), "empty" is skipped, "short" is 1.
	if len(st.docs) != 5 {
		t.Fatalf("expected 5 upserted chunks, got %d", len(st.docs))
	}

	// Chunk IDs are derived, stable, and unique.
	seen := map[string]bool{}
	for _, d := range st.docs {
		if seen[d.ID] {
			t.Errorf("duplicate chunk id %q", d.ID)
		}
		seen[d.ID] = true
		if d.ID == "long" || d.ID == "short" {
			t.Errorf("chunk kept the parent document id %q", d.ID)
		}
	}
	if chunkID("long", 0) != st.docs[0].ID {
		t.Errorf("chunk id not deterministic: %q vs %q", chunkID("long", 0), st.docs[0].ID)
	}

	// Chunks inherit the parent's title and URL.
	if st.docs[0].Title != "Long Doc" || st.docs[0].URL != "http://x" {
		t.Errorf("chunk lost parent metadata: %+v", st.docs[0])
	}

	// 4 chunks at batch size 2 → 2 calls, plus 1 for the short doc.
	if emb.calls != 3 {
		t.Errorf("expected 3 embed calls, got %d", emb.calls)
	}

	foundSkip := false
	for _, m := range msgs {
		if strings.Contains(m, "skipping empty") {
			foundSkip = true
		}
	}
	if !foundSkip {
		t.Errorf("empty document skip not reported: %v", msgs)
	}
}

func TestIngest_SweepsStaleChunks(t *testing.T) {
	t.Parallel()

	st := &fakeVectorStore{}
	p, _ := NewPipeline(&fakeEmbedder{}, st, &Config{ChunkSize: 10, ChunkOverlap: 2})

	doc := knowledge.Document{ID: "long", Content: strings.Repeat("a", 30)}
	if err := p.Ingest(t.Context(), []knowledge.Document{doc}, nil); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	// 4 chunks upserted, so the sweep starts at index 4.
	if len(st.deleted) != staleChunkSweep {
		t.Fatalf("expected %d swept ids, got %d", staleChunkSweep, len(st.deleted))
	}
	if st.deleted[0] != chunkID("long", 4) {
		t.Errorf("sweep starts at %q, want %q", st.deleted[0], chunkID("long", 4))
	}
	for _, d := range st.docs {
		for _, id := range st.deleted {
			if d.ID == id {
				t.Fatalf("swept id %q overlaps a live chunk", id)
			}
		}
	}
}

func TestIngest_SweepFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	st := &fakeVectorStore{deleteErr: errors.New("unavailable")}
	p, _ := NewPipeline(&fakeEmbedder{}, st, nil)

	var msgs []string
	err := p.Ingest(t.Context(), []knowledge.Document{{ID: "a", Content: "text"}}, func(msg string) { msgs = append(msgs, msg) })
	if err != nil {
		t.Fatalf("sweep failure must not fail the ingest: %v", err)
	}

	found := false
	for _, m := range msgs {
		if strings.Contains(m, "stale chunk sweep failed") {
			found = true
		}
	}
	if !found {
		t.Errorf("sweep failure not reported: %v", msgs)
	}
}

func TestIngest_EmbedderFailure(t *testing.T) {
	t.Parallel()

	p, _ := NewPipeline(&fakeEmbedder{err: errors.New("backend down")}, &fakeVectorStore{}, nil)

	err := p.Ingest(t.Context(), []knowledge.Document{{ID: "a", Content: "text"}}, nil)
	if err == nil {
		t.Fatal("expected error from failing embedder")
	}
	if !strings.Contains(err.Error(), "embedding failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestIngest_UpsertFailure(t *testing.T) {
	t.Parallel()

	p, _ := NewPipeline(&fakeEmbedder{}, &fakeVectorStore{err: errors.New("unavailable")}, nil)

	err := p.Ingest(t.Context(), []knowledge.Document{{ID: "a", Content: "text"}}, nil)
	if err == nil {
		t.Fatal("expected error from failing store")
	}
	if !strings.Contains(err.Error(), "upsert failed") {
		t.Errorf("unexpected error: %v", err)
	}
}
