package synthesis

import (
	"fmt"
	"strings"

	"github.com/farm-guru/farmguru-go/internal/retrieval"
)

// systemPrompt frames the generative call. The JSON envelope is mandatory:
// anything that fails to parse into the answer schema is discarded and the
// deterministic rules take over.
const systemPrompt = `You are Farm-Guru, an AI agricultural assistant. Based on the context and query, provide helpful farming advice.

Respond with practical, actionable advice. Be concise but comprehensive.

Respond ONLY with a JSON object of this exact shape, no markdown fencing:

{
  "answer": "<free-text advice>",
  "confidence": <number between 0 and 1>,
  "actions": ["<next step>", "..."],
  "sources": [{ "title": "<title>", "url": "<url>", "snippet": "<short excerpt>" }]
}`

// buildUserPrompt assembles the user message: retrieved evidence first, then
// the query, then the optional image context.
func buildUserPrompt(query string, docs []retrieval.RetrievedDocument, imageContext string) string {
	var sb strings.Builder

	sb.WriteString("Context:\n")
	for _, doc := range docs {
		content := doc.Content
		if content == "" {
			content = doc.Snippet
		}
		fmt.Fprintf(&sb, "Title: %s\nContent: %s\n", doc.Title, content)
	}

	fmt.Fprintf(&sb, "\nQuery: %s\n", query)

	if imageContext != "" {
		fmt.Fprintf(&sb, "\nImage Context: %s\n", imageContext)
	}

	return sb.String()
}
