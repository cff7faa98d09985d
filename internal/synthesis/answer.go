// Package synthesis turns a farmer query plus retrieved evidence into a
// structured, confidence-scored answer. Generation via the configured chat
// model is attempted first when one exists; any failure degrades to a
// deterministic rule-based rendering that is total over its inputs.
package synthesis

// Answer modes reported in Meta.Mode.
const (
	// ModeAI means the answer came from the generative backend and passed
	// schema validation.
	ModeAI = "ai"
	// ModeFallback means a generative backend is configured but the answer
	// came from the deterministic rules (backend failed or was rejected).
	ModeFallback = "fallback"
	// ModeDemo means no generative backend is configured at all.
	ModeDemo = "demo"
)

// Source is a citation attached to an answer: one retrieved document reduced
// to what the caller displays.
type Source struct {
	// Title is the document title.
	Title string `json:"title"`

	// URL is the document's reference link, possibly empty.
	URL string `json:"url"`

	// Snippet is a display excerpt, truncated to 100 characters.
	Snippet string `json:"snippet"`
}

// Meta carries answer provenance.
type Meta struct {
	// Mode is one of ModeAI, ModeFallback, ModeDemo.
	Mode string `json:"mode"`

	// Model is the generative model name, set only when Mode is ModeAI.
	Model string `json:"model,omitempty"`

	// RetrievedDocs is the number of documents retrieval produced for this
	// query, before truncation to the source limit.
	RetrievedDocs int `json:"retrieved_docs"`

	// Strategy names the retrieval tier that produced the evidence (remote,
	// embedding, or keyword) so callers can interpret the per-document
	// similarity scale. Empty when retrieval found nothing.
	Strategy string `json:"strategy,omitempty"`

	// QueryID references the persisted query record, when persistence is
	// configured.
	QueryID string `json:"query_id,omitempty"`
}

// Answer is the synthesized response for one query. Confidence is bounded to
// [0, 0.8] on the deterministic path; Actions always has exactly 3 entries
// there as well.
type Answer struct {
	// Answer is the free-text advice.
	Answer string `json:"answer"`

	// Confidence is the answer confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// Actions is an ordered list of concrete next steps.
	Actions []string `json:"actions"`

	// Sources lists the documents the answer draws on, at most 3.
	Sources []Source `json:"sources"`

	// Meta carries provenance for the answer.
	Meta Meta `json:"meta"`
}
