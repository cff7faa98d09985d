package commands

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/farm-guru/farmguru-go/internal/assistant"
	"github.com/farm-guru/farmguru-go/internal/embedder"
	"github.com/farm-guru/farmguru-go/internal/knowledge"
	"github.com/farm-guru/farmguru-go/internal/provider"
	"github.com/farm-guru/farmguru-go/internal/retrieval"
	"github.com/farm-guru/farmguru-go/internal/store"
	"github.com/farm-guru/farmguru-go/internal/synthesis"
)

// pipeline bundles the answering stack shared by `serve` and `ask`.
type pipeline struct {
	// assistant is the query-answering entry point.
	assistant *assistant.Assistant
	// retriever is the tiered retriever behind the assistant, shared with
	// the rule engines.
	retriever retrieval.Retriever
	// library is the reloadable corpus+index snapshot.
	library *knowledge.Library
	// store is the optional SQLite persistence layer. May be nil.
	store store.Store
	// remote is the optional Qdrant tier. May be nil.
	remote *retrieval.QdrantStore
	// generator is the optional generation backend. Nil means demo mode.
	generator synthesis.Generator
	// close releases the pipeline's resources.
	close func()
}

// buildPipeline constructs the full retrieval-and-synthesis stack from the
// environment. Every optional dependency degrades: no store, no qdrant, and
// no model backend each remove a capability without failing startup.
func buildPipeline(ctx context.Context, log *slog.Logger) (*pipeline, error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	gen, err := provider.NewFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	if gen == nil {
		log.Info("model provider not configured, running in demo mode")
	} else {
		log.Info("model provider initialised", slog.String("provider", os.Getenv("MODEL_PROVIDER")))
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		log.Warn("embedder unavailable, retrieval degrades to keyword tier", slog.Any("error", err))
		emb = nil
	}

	st := openStore(log)
	if st != nil {
		closers = append(closers, func() { _ = st.Close() })
	}

	remote := openQdrant(ctx, log)
	if remote != nil {
		closers = append(closers, func() { _ = remote.Close() })
	}

	// A nil *SQLiteStore must not become a non-nil DocumentSource interface.
	var source knowledge.DocumentSource
	if st != nil {
		source = st
	}
	library := knowledge.NewLibrary(ctx, source, emb, log)

	var searcher retrieval.VectorSearcher
	if remote != nil {
		searcher = remote
	}
	retriever := retrieval.NewTieredRetriever(library, emb, searcher)

	synth := synthesis.NewSynthesizer(gen, modelNameFromEnv())

	var persistStore store.Store
	if st != nil {
		persistStore = st
	}

	return &pipeline{
		assistant: assistant.New(retriever, synth, persistStore),
		retriever: retriever,
		library:   library,
		store:     persistStore,
		remote:    remote,
		generator: gen,
		close:     closeAll,
	}, nil
}

// openStore opens the SQLite store from FARMGURU_DB, defaulting to
// ~/.farmguru/farmguru.db. "disabled" or any open failure yields nil —
// persistence is optional.
func openStore(log *slog.Logger) *store.SQLiteStore {
	dbPath := os.Getenv("FARMGURU_DB")
	if dbPath == "disabled" {
		log.Info("store: disabled via FARMGURU_DB=disabled")
		return nil
	}
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			log.Warn("store: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil
		}
	}

	st, err := store.Open(dbPath)
	if err != nil {
		log.Warn("store: failed to open, disabling", slog.Any("error", err))
		return nil
	}
	log.Info("store: opened", slog.String("path", dbPath))
	return st
}

// openQdrant connects the remote retrieval tier when QDRANT_HOST is set.
// Connection failures disable the tier rather than failing startup.
func openQdrant(ctx context.Context, log *slog.Logger) *retrieval.QdrantStore {
	host := os.Getenv("QDRANT_HOST")
	if host == "" {
		return nil
	}

	if err := embedder.ValidateForRetrieval(log); err != nil {
		log.Warn("qdrant: embedding configuration invalid, remote tier disabled", slog.Any("error", err))
		return nil
	}

	backend := embedder.ResolveBackend()
	remote, err := retrieval.NewQdrantStore(ctx, &retrieval.QdrantConfig{
		Host:       host,
		Port:       getEnvInt("QDRANT_PORT", 6334),
		Collection: getEnvOrDefault("QDRANT_COLLECTION", "farmguru-docs"),
		VectorSize: uint64(embedder.DefaultDimensions(backend)), //nolint:gosec // dimensions are bounded
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     os.Getenv("QDRANT_TLS") == "true",
	})
	if err != nil {
		log.Warn("qdrant: connection failed, remote tier disabled", slog.Any("error", err))
		return nil
	}

	log.Info("qdrant: remote retrieval tier ready",
		slog.String("host", host),
		slog.String("collection", getEnvOrDefault("QDRANT_COLLECTION", "farmguru-docs")),
	)
	return remote
}

// modelNameFromEnv resolves the display name of the active generation model
// for answer metadata. Empty when no provider is configured.
func modelNameFromEnv() string {
	switch os.Getenv("MODEL_PROVIDER") {
	case "ollama":
		return getEnvOrDefault("OLLAMA_MODEL", "llama3")
	case "openai":
		return getEnvOrDefault("OPENAI_MODEL", "gpt-4o")
	case "azure":
		return os.Getenv("AZURE_OPENAI_DEPLOYMENT")
	case "gemini":
		return getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-pro")
	case "ark":
		return os.Getenv("ARK_MODEL")
	default:
		return ""
	}
}

// getEnvOrDefault returns the env var value or def when unset.
func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the env var parsed as int, or def when unset or invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
