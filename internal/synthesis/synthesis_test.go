package synthesis

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/farm-guru/farmguru-go/internal/knowledge"
	"github.com/farm-guru/farmguru-go/internal/retrieval"
)

// fakeGenerator is a test double for the Generator interface.
type fakeGenerator struct {
	// content is returned as the message content when err is nil.
	content string
	// err is returned by Generate.
	err error
	// opts records the model options of the last Generate call.
	opts []model.Option
}

func (f *fakeGenerator) Generate(_ context.Context, _ []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.content, nil), nil
}

func retrievedDocs(n int) []retrieval.RetrievedDocument {
	out := make([]retrieval.RetrievedDocument, 0, n)
	titles := []string{"Wheat Irrigation Guidelines", "Pest Management Basics", "Soil Health Primer", "Market Outlook", "Seed Selection"}
	for i := 0; i < n; i++ {
		out = append(out, retrieval.RetrievedDocument{
			Document: knowledge.Document{
				ID:      titles[i%len(titles)],
				Title:   titles[i%len(titles)],
				Content: "content",
				Snippet: "Snippet " + titles[i%len(titles)],
			},
			Similarity: 0.5,
			Strategy:   retrieval.StrategyKeyword,
		})
	}
	return out
}

func TestSynthesize_DemoMode_NilGenerator(t *testing.T) {
	t.Parallel()

	s := NewSynthesizer(nil, "")
	ans := s.Synthesize(t.Context(), "When should I irrigate wheat?", retrievedDocs(2), "")

	if ans.Meta.Mode != ModeDemo {
		t.Errorf("expected mode %q, got %q", ModeDemo, ans.Meta.Mode)
	}
	if !strings.HasPrefix(ans.Answer, "For irrigation timing, consider soil moisture") {
		t.Errorf("expected irrigation answer, got %q", ans.Answer)
	}
	if len(ans.Actions) != 3 {
		t.Errorf("expected exactly 3 actions, got %d", len(ans.Actions))
	}
	if want := 0.6; math.Abs(ans.Confidence-want) > 1e-9 {
		t.Errorf("confidence = %v, want %v for 2 retrieved documents", ans.Confidence, want)
	}
	if ans.Meta.RetrievedDocs != 2 {
		t.Errorf("retrieved_docs = %d, want 2", ans.Meta.RetrievedDocs)
	}
}

func TestSynthesize_GenerationFailure_FallsBack(t *testing.T) {
	t.Parallel()

	s := NewSynthesizer(&fakeGenerator{err: errors.New("backend down")}, "llama3")
	ans := s.Synthesize(t.Context(), "How do I manage pests on my tomatoes?", retrievedDocs(1), "")

	if ans.Meta.Mode != ModeFallback {
		t.Errorf("expected mode %q after generation failure, got %q", ModeFallback, ans.Meta.Mode)
	}
	if !strings.HasPrefix(ans.Answer, "For pest and disease management") {
		t.Errorf("expected pest answer, got %q", ans.Answer)
	}
	if ans.Meta.Model != "" {
		t.Errorf("model must not be reported on the fallback path, got %q", ans.Meta.Model)
	}
}

func TestSynthesize_MalformedGeneration_FallsBack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"not json", "I think you should irrigate in the morning."},
		{"missing fields", `{"answer": "irrigate at dawn"}`},
		{"confidence out of range", `{"answer": "a", "confidence": 1.5, "actions": [], "sources": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := NewSynthesizer(&fakeGenerator{content: tt.content}, "llama3")
			ans := s.Synthesize(t.Context(), "When should I irrigate?", nil, "")
			if ans.Meta.Mode != ModeFallback {
				t.Errorf("expected fallback for rejected output, got mode %q", ans.Meta.Mode)
			}
		})
	}
}

func TestSynthesize_ValidGeneration(t *testing.T) {
	t.Parallel()

	content := `{
		"answer": "Irrigate when the top 6 inches of soil are dry.",
		"confidence": 0.9,
		"actions": ["Check soil moisture"],
		"sources": [{"title": "Guide", "url": "", "snippet": "..."}]
	}`
	s := NewSynthesizer(&fakeGenerator{content: content}, "llama3")
	ans := s.Synthesize(t.Context(), "When should I irrigate?", retrievedDocs(2), "")

	if ans.Meta.Mode != ModeAI {
		t.Fatalf("expected mode %q, got %q", ModeAI, ans.Meta.Mode)
	}
	if ans.Meta.Model != "llama3" {
		t.Errorf("model = %q, want llama3", ans.Meta.Model)
	}
	if ans.Meta.RetrievedDocs != 2 {
		t.Errorf("retrieved_docs = %d, want 2", ans.Meta.RetrievedDocs)
	}
	if ans.Meta.Strategy != string(retrieval.StrategyKeyword) {
		t.Errorf("strategy = %q, want %q", ans.Meta.Strategy, retrieval.StrategyKeyword)
	}
	if ans.Answer != "Irrigate when the top 6 inches of soil are dry." {
		t.Errorf("unexpected answer %q", ans.Answer)
	}
	if ans.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", ans.Confidence)
	}
}

func TestSynthesize_GenerationPinsTemperature(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{content: `{"answer": "a", "confidence": 0.5, "actions": [], "sources": []}`}
	s := NewSynthesizer(gen, "llama3")
	s.Synthesize(t.Context(), "When should I irrigate?", nil, "")

	opts := model.GetCommonOptions(&model.Options{}, gen.opts...)
	if opts.Temperature == nil {
		t.Fatal("generate call carried no temperature option")
	}
	if *opts.Temperature != 0 {
		t.Errorf("temperature = %v, want 0", *opts.Temperature)
	}
}

func TestSynthesize_MetaReportsStrategy(t *testing.T) {
	t.Parallel()

	s := NewSynthesizer(nil, "")

	ans := s.Synthesize(t.Context(), "When should I irrigate wheat?", retrievedDocs(2), "")
	if ans.Meta.Strategy != string(retrieval.StrategyKeyword) {
		t.Errorf("strategy = %q, want %q", ans.Meta.Strategy, retrieval.StrategyKeyword)
	}

	empty := s.Synthesize(t.Context(), "anything", nil, "")
	if empty.Meta.Strategy != "" {
		t.Errorf("strategy = %q, want empty without evidence", empty.Meta.Strategy)
	}
}

func TestSynthesize_EmptyEvidence_Demo(t *testing.T) {
	t.Parallel()

	s := NewSynthesizer(nil, "")
	ans := s.Synthesize(t.Context(), "Tell me something", nil, "")

	if ans.Answer != referralMessage {
		t.Errorf("expected referral message, got %q", ans.Answer)
	}
	if ans.Confidence != 0.4 {
		t.Errorf("confidence = %v, want 0.4 with no evidence", ans.Confidence)
	}
	if len(ans.Sources) != 0 {
		t.Errorf("expected no sources, got %d", len(ans.Sources))
	}
	if len(ans.Actions) != 3 {
		t.Fatalf("expected 3 default actions, got %d", len(ans.Actions))
	}
	if ans.Actions[0] != defaultActions[0] {
		t.Errorf("expected default actions, got %v", ans.Actions)
	}
}

func TestFallbackConfidence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		retrieved int
		want      float64
	}{
		{0, 0.4},
		{1, 0.5},
		{2, 0.6},
		{3, 0.7},
		{4, 0.7},
		{10, 0.7},
	}

	for _, tt := range tests {
		if got := fallbackConfidence(tt.retrieved); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("fallbackConfidence(%d) = %v, want %v", tt.retrieved, got, tt.want)
		}
	}
}

func TestFallback_SourceShaping(t *testing.T) {
	t.Parallel()

	longSnippet := strings.Repeat("x", 150)
	docs := []retrieval.RetrievedDocument{
		{Document: knowledge.Document{ID: "1", Title: "", Content: longSnippet, Snippet: longSnippet}},
		{Document: knowledge.Document{ID: "2", Title: "Two", Content: "c", Snippet: "c"}},
		{Document: knowledge.Document{ID: "3", Title: "Three", Content: "c", Snippet: "c"}},
		{Document: knowledge.Document{ID: "4", Title: "Four", Content: "c", Snippet: "c"}},
	}

	s := NewSynthesizer(nil, "")
	ans := s.Synthesize(t.Context(), "anything", docs, "")

	if len(ans.Sources) != 3 {
		t.Fatalf("expected sources capped at 3, got %d", len(ans.Sources))
	}
	if ans.Sources[0].Title != "Agricultural Resource" {
		t.Errorf("expected default title for untitled document, got %q", ans.Sources[0].Title)
	}
	if got := ans.Sources[0].Snippet; len([]rune(got)) != 103 || !strings.HasSuffix(got, "...") {
		t.Errorf("expected 100-character excerpt with ellipsis, got %d chars", len([]rune(got)))
	}
	if ans.Meta.RetrievedDocs != 4 {
		t.Errorf("retrieved_docs = %d, want the pre-truncation count of 4", ans.Meta.RetrievedDocs)
	}
}

func TestSelectAnswer_Cascade(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		image      string
		snippets   []string
		wantPrefix string
	}{
		{
			name:       "image outranks irrigation keywords",
			query:      "should I water this?",
			image:      "tomato leaf",
			wantPrefix: "From the uploaded image of tomato leaf,",
		},
		{
			name:       "image with disease keyword",
			query:      "is this a disease?",
			image:      "tomato leaf with spots",
			wantPrefix: "Based on the uploaded image showing tomato leaf with spots,",
		},
		{
			name:       "irrigation",
			query:      "when to irrigate wheat",
			wantPrefix: "For irrigation timing, consider soil moisture",
		},
		{
			name:       "pest",
			query:      "aphid insect attack",
			wantPrefix: "For pest and disease management",
		},
		{
			name:       "planting",
			query:      "best time to sow mustard",
			wantPrefix: "Planting timing depends on local climate",
		},
		{
			name:       "market",
			query:      "onion price today",
			wantPrefix: "Market prices fluctuate",
		},
		{
			name:       "generic with evidence",
			query:      "general advice",
			snippets:   []string{"Rotate crops."},
			wantPrefix: "Based on agricultural best practices: Rotate crops.",
		},
		{
			name:       "generic without evidence",
			query:      "general advice",
			wantPrefix: referralMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q := queryFeatures{lower: strings.ToLower(tt.query), imageContext: tt.image}
			got := selectAnswer(q, tt.snippets)
			if !strings.HasPrefix(got, tt.wantPrefix) {
				t.Errorf("selectAnswer(%q) = %q, want prefix %q", tt.query, got, tt.wantPrefix)
			}
		})
	}
}

func TestSelectAnswer_IrrigationUsesFirstSnippet(t *testing.T) {
	t.Parallel()

	q := queryFeatures{lower: "when to irrigate"}
	got := selectAnswer(q, []string{"Irrigate at crown root initiation.", "ignored"})

	if !strings.HasSuffix(got, "Irrigate at crown root initiation.") {
		t.Errorf("expected first snippet appended as evidence, got %q", got)
	}
}

func TestSelectActions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		image string
		want  []string
	}{
		{
			name:  "irrigation category",
			query: "when to water wheat",
			want: []string{
				"Check soil moisture levels",
				"Monitor weather forecast",
				"Adjust irrigation schedule accordingly",
			},
		},
		{
			name:  "diagnosis outranks irrigation when both match",
			query: "disease after watering",
			want: []string{
				"Consult local KVK for expert diagnosis",
				"Monitor crop daily for changes",
				"Consider soil testing if needed",
			},
		},
		{
			name:  "image triggers diagnosis",
			query: "what is this",
			image: "leaf photo",
			want: []string{
				"Consult local KVK for expert diagnosis",
				"Monitor crop daily for changes",
				"Consider soil testing if needed",
			},
		},
		{
			name:  "no category match yields defaults",
			query: "hello",
			want:  defaultActions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q := queryFeatures{lower: strings.ToLower(tt.query), imageContext: tt.image}
			got := selectActions(q)
			if len(got) != 3 {
				t.Fatalf("expected exactly 3 actions, got %d", len(got))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("action[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseGenerated(t *testing.T) {
	t.Parallel()

	valid := `{"answer": "a", "confidence": 0.5, "actions": ["x"], "sources": []}`

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", valid, false},
		{"not json", "plain text", true},
		{"missing answer", `{"confidence": 0.5, "actions": [], "sources": []}`, true},
		{"missing confidence", `{"answer": "a", "actions": [], "sources": []}`, true},
		{"missing actions", `{"answer": "a", "confidence": 0.5, "sources": []}`, true},
		{"missing sources", `{"answer": "a", "confidence": 0.5, "actions": []}`, true},
		{"confidence below zero", `{"answer": "a", "confidence": -0.1, "actions": [], "sources": []}`, true},
		{"confidence above one", `{"answer": "a", "confidence": 1.1, "actions": [], "sources": []}`, true},
		{"confidence at bounds", `{"answer": "a", "confidence": 1, "actions": [], "sources": []}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ans, err := parseGenerated(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseGenerated: %v", err)
			}
			if ans.Answer == "" {
				t.Error("expected parsed answer text")
			}
		})
	}
}

func TestExcerpt(t *testing.T) {
	t.Parallel()

	if got := excerpt("short"); got != "short..." {
		t.Errorf("excerpt(short) = %q", got)
	}
	long := strings.Repeat("a", 200)
	if got := excerpt(long); len(got) != 103 {
		t.Errorf("excerpt of long string has %d chars, want 103", len(got))
	}
}
