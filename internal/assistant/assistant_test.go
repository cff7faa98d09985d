package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/farm-guru/farmguru-go/internal/knowledge"
	"github.com/farm-guru/farmguru-go/internal/retrieval"
	"github.com/farm-guru/farmguru-go/internal/store"
	"github.com/farm-guru/farmguru-go/internal/synthesis"
)

// fakeRetriever is a test double for retrieval.Retriever.
type fakeRetriever struct {
	docs []retrieval.RetrievedDocument
	// lastQuery records the query text passed to Retrieve.
	lastQuery string
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, _ int) []retrieval.RetrievedDocument {
	f.lastQuery = query
	return f.docs
}

// fakeStore is a test double for store.Store. Only the methods the assistant
// touches are meaningful; the rest satisfy the interface.
type fakeStore struct {
	images    map[string]*store.ImageRecord
	insertErr error
	imageErr  error

	insertedQuestion string
	insertedResponse json.RawMessage
}

func (f *fakeStore) InsertQuery(_ context.Context, _, question string, response json.RawMessage, _ float64) (string, error) {
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.insertedQuestion = question
	f.insertedResponse = response
	return "42", nil
}

func (f *fakeStore) GetImage(_ context.Context, id string) (*store.ImageRecord, error) {
	if f.imageErr != nil {
		return nil, f.imageErr
	}
	return f.images[id], nil
}

func (f *fakeStore) RecentQueries(context.Context, string, int) ([]store.QueryRecord, error) {
	return nil, nil
}
func (f *fakeStore) InsertImage(context.Context, *store.ImageRecord) (string, error) {
	return "", nil
}
func (f *fakeStore) FetchAllDocuments(context.Context) ([]knowledge.Document, error) {
	return nil, nil
}
func (f *fakeStore) ReplaceDocuments(context.Context, []knowledge.Document) error { return nil }
func (f *fakeStore) ListSchemes(context.Context, string, string) ([]store.SchemeRecord, error) {
	return nil, nil
}
func (f *fakeStore) ReplaceSchemes(context.Context, []store.SchemeRecord) error { return nil }
func (f *fakeStore) Close() error                                               { return nil }

func demoAssistant(r retrieval.Retriever, st store.Store) *Assistant {
	return New(r, synthesis.NewSynthesizer(nil, ""), st)
}

func TestAnswerQuery_PersistsAndStampsQueryID(t *testing.T) {
	t.Parallel()

	st := &fakeStore{}
	a := demoAssistant(&fakeRetriever{}, st)

	ans := a.AnswerQuery(t.Context(), "farmer-1", "when should I irrigate wheat?", "")

	if ans.Meta.QueryID != "42" {
		t.Errorf("query id = %q, want the store-assigned id 42", ans.Meta.QueryID)
	}
	if st.insertedQuestion != "when should I irrigate wheat?" {
		t.Errorf("persisted question = %q", st.insertedQuestion)
	}

	// The persisted payload must be the full answer envelope.
	var persisted synthesis.Answer
	if err := json.Unmarshal(st.insertedResponse, &persisted); err != nil {
		t.Fatalf("persisted response is not a valid answer: %v", err)
	}
	if persisted.Answer != ans.Answer {
		t.Errorf("persisted answer text differs from returned answer")
	}
}

func TestAnswerQuery_StoreFailureTolerated(t *testing.T) {
	t.Parallel()

	st := &fakeStore{insertErr: errors.New("disk full")}
	a := demoAssistant(&fakeRetriever{}, st)

	ans := a.AnswerQuery(t.Context(), "", "irrigation advice", "")

	if ans.Answer == "" {
		t.Error("expected an answer despite persistence failure")
	}
	if ans.Meta.QueryID != "" {
		t.Errorf("query id must stay empty on persistence failure, got %q", ans.Meta.QueryID)
	}
}

func TestAnswerQuery_NilStore(t *testing.T) {
	t.Parallel()

	a := demoAssistant(&fakeRetriever{}, nil)
	ans := a.AnswerQuery(t.Context(), "", "irrigation advice", "img-1")

	if ans.Answer == "" {
		t.Error("expected an answer without a store")
	}
	if ans.Meta.QueryID != "" {
		t.Errorf("query id set without a store: %q", ans.Meta.QueryID)
	}
}

func TestAnswerQuery_ImageContextResolution(t *testing.T) {
	t.Parallel()

	st := &fakeStore{images: map[string]*store.ImageRecord{
		"7": {ID: "7", Label: "tomato leaf with early blight", Confidence: 0.7},
	}}
	a := demoAssistant(&fakeRetriever{}, st)

	ans := a.AnswerQuery(t.Context(), "", "is this a disease?", "7")

	// The image rule must fire, quoting the resolved label.
	want := "Image shows: tomato leaf with early blight"
	if !contains(ans.Answer, want) {
		t.Errorf("answer %q does not quote image context %q", ans.Answer, want)
	}
}

func TestAnswerQuery_MissingImageTolerated(t *testing.T) {
	t.Parallel()

	st := &fakeStore{images: map[string]*store.ImageRecord{}}
	a := demoAssistant(&fakeRetriever{}, st)

	ans := a.AnswerQuery(t.Context(), "", "is this a disease?", "no-such-id")

	if contains(ans.Answer, "uploaded image") {
		t.Errorf("image rule fired without image context: %q", ans.Answer)
	}
}

func TestAnswerQuery_ImageLookupFailureTolerated(t *testing.T) {
	t.Parallel()

	st := &fakeStore{imageErr: errors.New("db locked")}
	a := demoAssistant(&fakeRetriever{}, st)

	if ans := a.AnswerQuery(t.Context(), "", "irrigation advice", "7"); ans.Answer == "" {
		t.Error("expected an answer despite image lookup failure")
	}
}

func TestRetrieveDocuments_Passthrough(t *testing.T) {
	t.Parallel()

	r := &fakeRetriever{docs: []retrieval.RetrievedDocument{
		{Document: knowledge.Document{ID: "d1", Title: "Doc"}, Similarity: 0.5},
	}}
	a := demoAssistant(r, nil)

	docs := a.RetrieveDocuments(t.Context(), "wheat rust", 5)

	if len(docs) != 1 || docs[0].ID != "d1" {
		t.Fatalf("expected the retriever's result set, got %+v", docs)
	}
	if r.lastQuery != "wheat rust" {
		t.Errorf("query passed to retriever = %q", r.lastQuery)
	}
}

func contains(s, sub string) bool {
	return strings.Contains(s, sub)
}
