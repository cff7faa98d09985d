package server

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/qdrant/go-client/qdrant"

	"github.com/farm-guru/farmguru-go/internal/synthesis"
)

// QdrantPinger probes a Qdrant instance using its native HealthCheck RPC.
// It satisfies the Pinger interface and is used by GET /api/ready.
type QdrantPinger struct {
	// client is the Qdrant gRPC client to probe.
	client *qdrant.Client
}

// NewQdrantPinger constructs a QdrantPinger for the given Qdrant client.
func NewQdrantPinger(client *qdrant.Client) *QdrantPinger {
	return &QdrantPinger{client: client}
}

// Name returns the dependency label used in readiness responses.
func (p *QdrantPinger) Name() string { return "qdrant" }

// Ping calls the Qdrant HealthCheck RPC.
// Returns nil if Qdrant is reachable, or a descriptive error otherwise.
func (p *QdrantPinger) Ping(ctx context.Context) error {
	_, err := p.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// GeneratorPinger probes the generation backend by sending a minimal
// single-token request. Register it only when a backend is configured —
// demo deployments have no generator and should stay ready without it.
type GeneratorPinger struct {
	// gen is the generation backend to probe.
	gen synthesis.Generator
	// name identifies the backend in readiness responses (e.g. "ollama").
	name string
}

// NewGeneratorPinger constructs a GeneratorPinger for the given backend.
func NewGeneratorPinger(gen synthesis.Generator, name string) *GeneratorPinger {
	return &GeneratorPinger{gen: gen, name: name}
}

// Name returns the backend label used in readiness responses.
func (p *GeneratorPinger) Name() string { return p.name }

// Ping sends a one-word generate request to the backend. A probe does consume
// tokens, so readiness checks should not be scheduled aggressively.
func (p *GeneratorPinger) Ping(ctx context.Context) error {
	resp, err := p.gen.Generate(ctx, []*schema.Message{schema.UserMessage("ping")})
	if err != nil {
		return fmt.Errorf("generate failed: %w", err)
	}
	if resp == nil {
		return fmt.Errorf("generate returned nil response")
	}
	return nil
}
