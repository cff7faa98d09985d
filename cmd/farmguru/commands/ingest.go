package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/farm-guru/farmguru-go/internal/embedder"
	"github.com/farm-guru/farmguru-go/internal/ingestion"
	"github.com/farm-guru/farmguru-go/internal/knowledge"
	"github.com/farm-guru/farmguru-go/internal/logging"
	"github.com/farm-guru/farmguru-go/internal/retrieval"
)

// NewIngestCmd constructs the `farmguru ingest` command, which embeds the
// knowledge corpus and upserts it into the Qdrant vector store so the remote
// retrieval tier can serve it.
func NewIngestCmd() *cobra.Command {
	var chunkSize int
	var chunkOverlap int

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Embed the knowledge corpus into the Qdrant vector store",
		Long: `Embed the knowledge corpus and index it in Qdrant.

The corpus comes from the SQLite document store when present, otherwise the
built-in document set is ingested. Long documents are chunked before
embedding.

Required environment variables:
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: farmguru-docs)
  QDRANT_API_KEY       Optional API key for authenticated clusters
  MODEL_PROVIDER       Embedding backend: ollama, openai, azure (default: ollama)
  EMBEDDING_*          Provider-specific overrides (see README)

Examples:
  farmguru ingest
  farmguru ingest --chunk-size 500
  QDRANT_HOST=qdrant.internal farmguru ingest`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if err := embedder.ValidateForRetrieval(log); err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("ingest: failed to initialise embedder: %w", err)
			}
			if emb == nil {
				return fmt.Errorf("ingest: no embedding backend configured, set MODEL_PROVIDER or EMBEDDING_PROVIDER")
			}
			log.Info("embedder initialised", slog.String("provider", embedder.ResolveBackend()))

			qdrantHost := getEnvOrDefault("QDRANT_HOST", "localhost")
			qdrantPort := getEnvInt("QDRANT_PORT", 6334)
			collection := getEnvOrDefault("QDRANT_COLLECTION", "farmguru-docs")
			vectorSize := uint64(embedder.DefaultDimensions(embedder.ResolveBackend())) //nolint:gosec // dimensions are bounded

			remote, err := retrieval.NewQdrantStore(ctx, &retrieval.QdrantConfig{
				Host:       qdrantHost,
				Port:       qdrantPort,
				Collection: collection,
				VectorSize: vectorSize,
				APIKey:     os.Getenv("QDRANT_API_KEY"),
				UseTLS:     os.Getenv("QDRANT_TLS") == "true",
			})
			if err != nil {
				return fmt.Errorf("ingest: failed to connect to Qdrant at %s:%d: %w", qdrantHost, qdrantPort, err)
			}
			defer remote.Close()
			log.Info("qdrant store ready",
				slog.String("host", qdrantHost),
				slog.Int("port", qdrantPort),
				slog.String("collection", collection),
			)

			// Documents come from the SQLite store when present, else builtin.
			var source knowledge.DocumentSource
			if st := openStore(log); st != nil {
				defer st.Close()
				source = st
			}
			corpus := knowledge.Load(ctx, source, log)

			pipeline, err := ingestion.NewPipeline(emb, remote, &ingestion.Config{
				ChunkSize:    chunkSize,
				ChunkOverlap: chunkOverlap,
			})
			if err != nil {
				return fmt.Errorf("ingest: failed to create pipeline: %w", err)
			}

			log.Info("starting ingestion", slog.Int("documents", corpus.Len()))

			if err := pipeline.Ingest(ctx, corpus.Documents(), func(msg string) {
				log.Info(msg)
			}); err != nil {
				return fmt.Errorf("ingest: pipeline failed: %w", err)
			}

			log.Info("ingestion complete", slog.Int("documents", corpus.Len()))
			return nil
		},
	}

	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Maximum characters per chunk (default 1000)")
	cmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", 0, "Characters of overlap between chunks (default 100)")

	return cmd
}
