package synthesis

import (
	"encoding/json"
	"fmt"
)

// generatedAnswer mirrors Answer with pointer fields so field presence can be
// distinguished from zero values during validation.
type generatedAnswer struct {
	Answer     *string   `json:"answer"`
	Confidence *float64  `json:"confidence"`
	Actions    *[]string `json:"actions"`
	Sources    *[]Source `json:"sources"`
}

// parseGenerated parses a generative backend response into an Answer. It is
// strict: the output must be a JSON object carrying all of answer,
// confidence, actions, and sources, with confidence in [0, 1]. Any violation
// is an error — the caller treats it exactly like a transport failure and
// falls back to the deterministic rules.
func parseGenerated(output string) (*Answer, error) {
	var gen generatedAnswer
	if err := json.Unmarshal([]byte(output), &gen); err != nil {
		return nil, fmt.Errorf("synthesis: malformed generation output: %w", err)
	}

	switch {
	case gen.Answer == nil:
		return nil, fmt.Errorf("synthesis: generation output missing field %q", "answer")
	case gen.Confidence == nil:
		return nil, fmt.Errorf("synthesis: generation output missing field %q", "confidence")
	case gen.Actions == nil:
		return nil, fmt.Errorf("synthesis: generation output missing field %q", "actions")
	case gen.Sources == nil:
		return nil, fmt.Errorf("synthesis: generation output missing field %q", "sources")
	}

	if *gen.Confidence < 0 || *gen.Confidence > 1 {
		return nil, fmt.Errorf("synthesis: generated confidence %v outside [0, 1]", *gen.Confidence)
	}

	return &Answer{
		Answer:     *gen.Answer,
		Confidence: *gen.Confidence,
		Actions:    *gen.Actions,
		Sources:    *gen.Sources,
	}, nil
}
