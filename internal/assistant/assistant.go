// Package assistant wires retrieval and synthesis into the query-answering
// core: fetch evidence, resolve image context, synthesize a structured
// answer, and persist the exchange when a store is configured.
package assistant

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/farm-guru/farmguru-go/internal/logging"
	"github.com/farm-guru/farmguru-go/internal/retrieval"
	"github.com/farm-guru/farmguru-go/internal/store"
	"github.com/farm-guru/farmguru-go/internal/synthesis"
)

// topK is the number of documents retrieved per query.
const topK = 3

// Assistant answers farmer queries. Safe for concurrent use.
type Assistant struct {
	// retriever supplies evidence documents for each query.
	retriever retrieval.Retriever

	// synthesizer turns query plus evidence into a structured answer.
	synthesizer *synthesis.Synthesizer

	// store is the optional persistence layer for image lookups and query
	// history. Nil disables both; answering still works.
	store store.Store
}

// New constructs an Assistant. st may be nil.
func New(retriever retrieval.Retriever, synthesizer *synthesis.Synthesizer, st store.Store) *Assistant {
	return &Assistant{retriever: retriever, synthesizer: synthesizer, store: st}
}

// AnswerQuery produces a complete answer for the query text. imageID, when
// non-empty, references a previously uploaded image whose label becomes
// additional context. The call is total: store and backend failures degrade,
// they never surface.
func (a *Assistant) AnswerQuery(ctx context.Context, userID, text, imageID string) synthesis.Answer {
	log := logging.FromContext(ctx)

	docs := a.retriever.Retrieve(ctx, text, topK)
	log.Info("assistant: retrieved evidence", slog.Int("documents", len(docs)))

	imageContext := a.resolveImageContext(ctx, imageID)

	ans := a.synthesizer.Synthesize(ctx, text, docs, imageContext)

	a.persist(ctx, userID, text, &ans)

	return ans
}

// RetrieveDocuments exposes raw retrieval for collaborators that score their
// own evidence (chemical recommendations, policy matching).
func (a *Assistant) RetrieveDocuments(ctx context.Context, query string, k int) []retrieval.RetrievedDocument {
	return a.retriever.Retrieve(ctx, query, k)
}

// resolveImageContext looks up the uploaded image's label. Empty on any
// failure or when no store is configured.
func (a *Assistant) resolveImageContext(ctx context.Context, imageID string) string {
	if imageID == "" || a.store == nil {
		return ""
	}
	img, err := a.store.GetImage(ctx, imageID)
	if err != nil {
		logging.FromContext(ctx).Warn("assistant: image lookup failed",
			slog.String("image_id", imageID), slog.Any("error", err))
		return ""
	}
	if img == nil || img.Label == "" {
		return ""
	}
	return "Image shows: " + img.Label
}

// persist records the exchange and stamps the answer with its query ID.
// Failures are logged, not surfaced.
func (a *Assistant) persist(ctx context.Context, userID, text string, ans *synthesis.Answer) {
	if a.store == nil {
		return
	}
	payload, err := json.Marshal(ans)
	if err != nil {
		logging.FromContext(ctx).Warn("assistant: answer encoding failed", slog.Any("error", err))
		return
	}
	id, err := a.store.InsertQuery(ctx, userID, text, payload, ans.Confidence)
	if err != nil {
		logging.FromContext(ctx).Warn("assistant: query persistence failed", slog.Any("error", err))
		return
	}
	ans.Meta.QueryID = id
}
