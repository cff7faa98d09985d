package knowledge

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

// fakeEmbedder is a test double for the Embedder interface.
type fakeEmbedder struct {
	// vectors is returned by Embed when err is nil.
	vectors [][]float32
	// err is returned by Embed.
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func TestBuildIndex_NilEmbedder(t *testing.T) {
	t.Parallel()

	corpus, _ := NewCorpus(testDocs())
	index := BuildIndex(t.Context(), nil, corpus, slog.Default())

	if index.HasIndex() {
		t.Error("expected no index without an embedder")
	}
}

func TestBuildIndex_EmbedderError_YieldsEmptyIndex(t *testing.T) {
	t.Parallel()

	corpus, _ := NewCorpus(testDocs())
	index := BuildIndex(t.Context(), &fakeEmbedder{err: errors.New("backend down")}, corpus, slog.Default())

	if index.HasIndex() {
		t.Error("expected empty index after embedding failure")
	}
}

func TestBuildIndex_WrongVectorCount_YieldsEmptyIndex(t *testing.T) {
	t.Parallel()

	corpus, _ := NewCorpus(testDocs())
	index := BuildIndex(t.Context(), &fakeEmbedder{vectors: [][]float32{{1}}}, corpus, slog.Default())

	if index.HasIndex() {
		t.Error("expected empty index for mismatched vector count")
	}
}

func TestBuildIndex_Success(t *testing.T) {
	t.Parallel()

	corpus, _ := NewCorpus(testDocs())
	index := BuildIndex(t.Context(), &fakeEmbedder{}, corpus, slog.Default())

	if !index.HasIndex() {
		t.Fatal("expected index to be built")
	}
	if index.Len() != corpus.Len() {
		t.Errorf("expected %d vectors, got %d", corpus.Len(), index.Len())
	}
}

func TestLibrary_ReloadSwapsSnapshot(t *testing.T) {
	t.Parallel()

	src := &fakeSource{docs: testDocs()}
	lib := NewLibrary(t.Context(), src, nil, slog.Default())

	corpus, _ := lib.Current()
	if corpus.Len() != 2 {
		t.Fatalf("expected 2 documents, got %d", corpus.Len())
	}

	src.docs = append(testDocs(), Document{ID: "c", Title: "Third", Content: "epsilon"})
	lib.Reload(t.Context())

	reloaded, _ := lib.Current()
	if reloaded.Len() != 3 {
		t.Errorf("expected 3 documents after reload, got %d", reloaded.Len())
	}

	// The old snapshot must stay valid for in-flight readers.
	if corpus.Len() != 2 {
		t.Errorf("old snapshot mutated: got %d documents", corpus.Len())
	}
}
