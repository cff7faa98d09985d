package retrieval

import (
	"sort"
	"strings"

	"github.com/farm-guru/farmguru-go/internal/knowledge"
)

// titleWeight is the multiplier applied to query tokens found in a document
// title. Title matches count double relative to content matches.
const titleWeight = 2

// keywordSearch scores every corpus document by lowercase token overlap with
// the query and returns the top-k, descending by score, stable on ties.
// Documents with zero overlap are excluded entirely.
func keywordSearch(corpus *knowledge.Corpus, query string, k int) []RetrievedDocument {
	queryWords := tokenize(query)
	if len(queryWords) == 0 {
		return nil
	}

	var scored []RetrievedDocument
	for _, doc := range corpus.Documents() {
		titleHits := overlap(queryWords, tokenize(doc.Title))
		contentHits := overlap(queryWords, tokenize(doc.Content))

		score := titleWeight*titleHits + contentHits
		if score == 0 {
			continue
		}
		scored = append(scored, RetrievedDocument{
			Document:   doc,
			Similarity: float64(score),
			Strategy:   StrategyKeyword,
		})
	}

	// Stable sort keeps corpus load order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// tokenize splits text into a lowercase word set. Plain whitespace splitting,
// no stemming and no punctuation stripping — the scoring contract is defined
// over raw whitespace-delimited tokens.
func tokenize(text string) map[string]bool {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// overlap returns the number of tokens present in both sets.
func overlap(a, b map[string]bool) int {
	// Iterate the smaller set.
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for w := range a {
		if b[w] {
			n++
		}
	}
	return n
}
