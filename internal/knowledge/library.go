package knowledge

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// snapshot pairs a corpus with the index built over it. Snapshots are
// immutable; a reload builds a fresh snapshot and swaps the pointer.
type snapshot struct {
	corpus *Corpus
	index  *Index
}

// Library owns the current corpus+index snapshot. Reads are lock-free and
// in-flight queries keep working against the snapshot they observed even
// while a reload builds its replacement.
type Library struct {
	// source is the optional external document store; nil means the
	// built-in document set is always used.
	source DocumentSource

	// embedder is the optional embedding backend; nil disables the index.
	embedder Embedder

	// log is the structured logger for load/reload events.
	log *slog.Logger

	// current holds the active snapshot. Never nil after NewLibrary.
	current atomic.Pointer[snapshot]
}

// NewLibrary loads the initial corpus and builds its index. It never fails:
// the built-in document set guarantees a non-empty corpus, and a missing
// embedding backend simply yields an empty index.
func NewLibrary(ctx context.Context, source DocumentSource, embedder Embedder, log *slog.Logger) *Library {
	if log == nil {
		log = slog.Default()
	}
	l := &Library{source: source, embedder: embedder, log: log}
	l.current.Store(l.build(ctx))
	return l
}

// build constructs a fresh snapshot from the source and embedder.
func (l *Library) build(ctx context.Context) *snapshot {
	corpus := Load(ctx, l.source, l.log)
	index := BuildIndex(ctx, l.embedder, corpus, l.log)
	return &snapshot{corpus: corpus, index: index}
}

// Current returns the active corpus and index. The returned values are
// immutable and remain valid after a concurrent Reload.
func (l *Library) Current() (*Corpus, *Index) {
	s := l.current.Load()
	return s.corpus, s.index
}

// Reload re-fetches the corpus from the source, rebuilds the index, and
// atomically swaps the snapshot. Queries running during the reload keep the
// snapshot they started with.
func (l *Library) Reload(ctx context.Context) {
	l.current.Store(l.build(ctx))
	corpus, index := l.Current()
	l.log.Info("knowledge: library reloaded",
		slog.Int("documents", corpus.Len()),
		slog.Bool("indexed", index.HasIndex()),
	)
}
