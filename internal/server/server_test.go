package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scholarnet/internal/config"
	"scholarnet/internal/docstore"
	"scholarnet/internal/mcq"
	"scholarnet/internal/models"
	"scholarnet/internal/qa"
	"scholarnet/internal/summarizer"
	"scholarnet/internal/vectorindex"
)

type stubSummarizer struct {
	result *summarizer.Result
	err    error
	last   summarizer.Request
}

func (s *stubSummarizer) Summarize(_ context.Context, req summarizer.Request) (*summarizer.Result, error) {
	s.last = req
	return s.result, s.err
}

type stubMCQ struct {
	result *mcq.Result
	err    error
}

func (s *stubMCQ) Generate(context.Context, mcq.Request) (*mcq.Result, error) {
	return s.result, s.err
}

type stubQA struct {
	result *qa.Result
	err    error
}

func (s *stubQA) Answer(context.Context, qa.Request) (*qa.Result, error) {
	return s.result, s.err
}

type fakeIndex struct {
	entries []vectorindex.Entry
}

func (f *fakeIndex) Add(_ context.Context, entries []vectorindex.Entry) error {
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeIndex) Search(context.Context, string, int) ([]vectorindex.Hit, error) {
	return nil, nil
}

func (f *fakeIndex) Get(_ context.Context, filter map[string]string) ([]vectorindex.Entry, error) {
	var out []vectorindex.Entry
	for _, e := range f.entries {
		ok := true
		for k, v := range filter {
			if e.Metadata[k] != v {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeIndex) Delete(_ context.Context, filter map[string]string) (bool, error) {
	var kept []vectorindex.Entry
	deleted := false
	for _, e := range f.entries {
		if e.Metadata[models.MetaDocumentID] == filter[models.MetaDocumentID] {
			deleted = true
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return deleted, nil
}

func newTestServer(summ Summarizer, gen MCQGenerator, answerer Answerer, index vectorindex.Index) *Server {
	sessions := qa.NewSessionStore(qa.EvictionPolicy{TTL: time.Hour, MaxSessions: 100})
	return New(docstore.New(index), summ, gen, answerer, sessions, config.UploadConfig{
		Dir:           "/tmp",
		MaxFileSizeMB: 10,
		ChunkSize:     1000,
		ChunkOverlap:  200,
	})
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echoContentType, echoJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

const (
	echoContentType = "Content-Type"
	echoJSON        = "application/json"
)

func TestHealth(t *testing.T) {
	s := newTestServer(&stubSummarizer{}, &stubMCQ{}, &stubQA{}, &fakeIndex{})
	rec := doRequest(t, s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestSummarizeEndpoint(t *testing.T) {
	summ := &stubSummarizer{result: &summarizer.Result{
		Summary:     "short version",
		SummaryType: summarizer.TypeConcise,
		Source:      "text",
		Info:        summarizer.ProcessingInfo{Strategy: summarizer.StrategyDirect, WordCount: 2},
	}}
	s := newTestServer(summ, &stubMCQ{}, &stubQA{}, &fakeIndex{})

	rec := doRequest(t, s, http.MethodPost, "/api/summarize",
		`{"text":"some long document","summary_type":"concise","max_length":200}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if summ.last.SummaryType != "concise" || summ.last.MaxLength != 200 {
		t.Fatalf("engine saw request %+v", summ.last)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp["summary"] != "short version" {
		t.Fatalf("summary = %v", resp["summary"])
	}
	if _, ok := resp["processing_info"]; !ok {
		t.Fatal("response missing processing_info")
	}
}

func TestSummarizeInvalidRequestMapsTo400(t *testing.T) {
	summ := &stubSummarizer{err: summarizer.ErrInvalidRequest}
	s := newTestServer(summ, &stubMCQ{}, &stubQA{}, &fakeIndex{})

	rec := doRequest(t, s, http.MethodPost, "/api/summarize", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSummarizeNotFoundMapsTo404(t *testing.T) {
	summ := &stubSummarizer{err: docstore.ErrNotFound}
	s := newTestServer(summ, &stubMCQ{}, &stubQA{}, &fakeIndex{})

	rec := doRequest(t, s, http.MethodPost, "/api/summarize", `{"document_id":"missing"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestMCQEndpoint(t *testing.T) {
	gen := &stubMCQ{result: &mcq.Result{
		Questions: []mcq.Question{{
			Question: "What is indexing?",
			Options: []mcq.Option{
				{Text: "a", IsCorrect: true}, {Text: "b"}, {Text: "c"}, {Text: "d"},
			},
		}},
		Total:    1,
		Rejected: 1,
		Source:   "text",
	}}
	s := newTestServer(&stubSummarizer{}, gen, &stubQA{}, &fakeIndex{})

	rec := doRequest(t, s, http.MethodPost, "/api/mcq", `{"text":"material","num_questions":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Total    int `json:"total_questions"`
		Rejected int `json:"rejected"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || resp.Rejected != 1 {
		t.Fatalf("total = %d, rejected = %d", resp.Total, resp.Rejected)
	}
}

func TestQAEndpointAndErrorMapping(t *testing.T) {
	answerer := &stubQA{result: &qa.Result{
		Answer:    "Chunks overlap to preserve context.",
		Sources:   []string{"excerpt..."},
		SessionID: "sess-1",
	}}
	s := newTestServer(&stubSummarizer{}, &stubMCQ{}, answerer, &fakeIndex{})

	rec := doRequest(t, s, http.MethodPost, "/api/qa", `{"question":"why overlap?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["session_id"] != "sess-1" {
		t.Fatalf("session_id = %v", resp["session_id"])
	}

	answerer.result = nil
	answerer.err = qa.ErrInvalidRequest
	rec = doRequest(t, s, http.MethodPost, "/api/qa", `{"question":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	answerer.err = errors.New("backend exploded")
	rec = doRequest(t, s, http.MethodPost, "/api/qa", `{"question":"q"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestSessionRoutes(t *testing.T) {
	s := newTestServer(&stubSummarizer{}, &stubMCQ{}, &stubQA{}, &fakeIndex{})
	id := s.sessions.GetOrCreate("")
	s.sessions.AppendExchange(id, "q", "a")

	rec := doRequest(t, s, http.MethodGet, "/api/qa/sessions", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), id) {
		t.Fatalf("sessions listing: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, "/api/qa/history/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	var hist struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &hist); err != nil {
		t.Fatal(err)
	}
	if hist.Count != 2 {
		t.Fatalf("history count = %d, want 2", hist.Count)
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/qa/history/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}
	rec = doRequest(t, s, http.MethodDelete, "/api/qa/history/unknown", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("clear unknown status = %d, want 404", rec.Code)
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/qa/session/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doRequest(t, s, http.MethodDelete, "/api/qa/session/"+id, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestDocumentRoutes(t *testing.T) {
	index := &fakeIndex{}
	s := newTestServer(&stubSummarizer{}, &stubMCQ{}, &stubQA{}, index)

	ctx := context.Background()
	docID, _, err := s.store.Ingest(ctx, "notes.txt", strings.Repeat("a", 1500), 1, 1000, 200)
	if err != nil {
		t.Fatal(err)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/documents/list", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listing struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatal(err)
	}
	if listing.Count != 1 {
		t.Fatalf("count = %d, want 1", listing.Count)
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/documents/"+docID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doRequest(t, s, http.MethodDelete, "/api/documents/"+docID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestUploadRejectsUnsupportedFormat(t *testing.T) {
	s := newTestServer(&stubSummarizer{}, &stubMCQ{}, &stubQA{}, &fakeIndex{})

	body := &strings.Builder{}
	body.WriteString("--boundary\r\n")
	body.WriteString(`Content-Disposition: form-data; name="file"; filename="image.png"` + "\r\n\r\n")
	body.WriteString("not a document\r\n--boundary--\r\n")

	req := httptest.NewRequest(http.MethodPost, "/api/pdf-upload", strings.NewReader(body.String()))
	req.Header.Set(echoContentType, "multipart/form-data; boundary=boundary")
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
