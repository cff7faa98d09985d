package synthesis

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/farm-guru/farmguru-go/internal/logging"
	"github.com/farm-guru/farmguru-go/internal/retrieval"
)

// generationTimeout bounds the generative call. On expiry the synthesizer
// falls back to the deterministic rules — no retries.
const generationTimeout = 30 * time.Second

// sourceLimit caps how many retrieved documents become citations.
const sourceLimit = 3

// snippetExcerptLen is the display length of a source snippet excerpt.
const snippetExcerptLen = 100

// Generator is the subset of the eino chat-model surface the synthesizer
// needs. model.ToolCallingChatModel satisfies it.
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Synthesizer produces a structured Answer for each query. Safe for
// concurrent use; all state is read-only after construction.
type Synthesizer struct {
	// gen is the optional generative backend. Nil means demo mode — every
	// answer comes from the deterministic rules.
	gen Generator

	// modelName is reported in Meta.Model on generated answers.
	modelName string
}

// NewSynthesizer constructs a Synthesizer. gen may be nil (demo mode).
func NewSynthesizer(gen Generator, modelName string) *Synthesizer {
	return &Synthesizer{gen: gen, modelName: modelName}
}

// Synthesize returns a complete Answer for the query given the retrieved
// evidence and optional image context. It is total: generation failures of
// any kind degrade to the deterministic rules and are never surfaced.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, docs []retrieval.RetrievedDocument, imageContext string) Answer {
	if s.gen != nil {
		if ans, ok := s.attemptGeneration(ctx, query, docs, imageContext); ok {
			return ans
		}
	}
	return s.fallback(query, docs, imageContext)
}

// attemptGeneration invokes the generative backend once and validates its
// output against the answer schema. ok=false on any failure — timeout,
// transport error, malformed JSON, missing fields.
func (s *Synthesizer) attemptGeneration(ctx context.Context, query string, docs []retrieval.RetrievedDocument, imageContext string) (Answer, bool) {
	genCtx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	log := logging.FromContext(ctx)

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(buildUserPrompt(query, docs, imageContext)),
	}

	// Temperature 0 at the call site covers backends whose constructors
	// leave the server default in place (ollama, gemini).
	out, err := s.gen.Generate(genCtx, messages, model.WithTemperature(0))
	if err != nil {
		log.Warn("synthesis: generation failed, using fallback", slog.Any("error", err))
		return Answer{}, false
	}

	ans, err := parseGenerated(out.Content)
	if err != nil {
		log.Warn("synthesis: generation output rejected, using fallback", slog.Any("error", err))
		return Answer{}, false
	}

	ans.Meta = Meta{
		Mode:          ModeAI,
		Model:         s.modelName,
		RetrievedDocs: len(docs),
		Strategy:      docsStrategy(docs),
	}
	return *ans, true
}

// fallback is the deterministic synthesis path. Total over its inputs,
// including empty docs.
func (s *Synthesizer) fallback(query string, docs []retrieval.RetrievedDocument, imageContext string) Answer {
	features := queryFeatures{lower: strings.ToLower(query), imageContext: imageContext}

	cited := docs
	if len(cited) > sourceLimit {
		cited = cited[:sourceLimit]
	}

	var snippets []string
	sources := make([]Source, 0, len(cited))
	for _, doc := range cited {
		if doc.Snippet != "" {
			snippets = append(snippets, doc.Snippet)
		}
		title := doc.Title
		if title == "" {
			title = "Agricultural Resource"
		}
		sources = append(sources, Source{
			Title:   title,
			URL:     doc.URL,
			Snippet: excerpt(doc.Snippet),
		})
	}

	mode := ModeFallback
	if s.gen == nil {
		mode = ModeDemo
	}

	return Answer{
		Answer:     selectAnswer(features, snippets),
		Confidence: fallbackConfidence(len(docs)),
		Actions:    selectActions(features),
		Sources:    sources,
		Meta: Meta{
			Mode:          mode,
			RetrievedDocs: len(docs),
			Strategy:      docsStrategy(docs),
		},
	}
}

// docsStrategy names the retrieval tier that produced the evidence set. All
// documents of one retrieval call share the same strategy.
func docsStrategy(docs []retrieval.RetrievedDocument) string {
	if len(docs) == 0 {
		return ""
	}
	return string(docs[0].Strategy)
}

// fallbackConfidence maps the retrieval count to the deterministic
// confidence: 0.4 base plus 0.1 per document, counting at most 3, capped at
// 0.8. Independent of query content.
func fallbackConfidence(retrieved int) float64 {
	if retrieved > 3 {
		retrieved = 3
	}
	c := 0.4 + 0.1*float64(retrieved)
	if c > 0.8 {
		c = 0.8
	}
	return c
}

// excerpt returns the first snippetExcerptLen characters of s followed by an
// ellipsis marker.
func excerpt(s string) string {
	runes := []rune(s)
	if len(runes) > snippetExcerptLen {
		runes = runes[:snippetExcerptLen]
	}
	return string(runes) + "..."
}
