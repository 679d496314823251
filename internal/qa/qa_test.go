package qa

import (
	"context"
	"errors"
	"strings"
	"testing"

	"scholarnet/internal/vectorindex"
)

type stubCompletion struct {
	prompts []string
	answer  string
	err     error
}

func (s *stubCompletion) Complete(_ context.Context, _ string, _ float64, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

type stubIndex struct {
	hits     []vectorindex.Hit
	err      error
	searches int
}

func (s *stubIndex) Add(context.Context, []vectorindex.Entry) error { return nil }

func (s *stubIndex) Search(_ context.Context, _ string, _ int) ([]vectorindex.Hit, error) {
	s.searches++
	return s.hits, s.err
}

func (s *stubIndex) Get(context.Context, map[string]string) ([]vectorindex.Entry, error) {
	return nil, nil
}

func (s *stubIndex) Delete(context.Context, map[string]string) (bool, error) {
	return false, nil
}

func TestAnswerWithDirectContext(t *testing.T) {
	completion := &stubCompletion{answer: " because of the overlap \n"}
	index := &stubIndex{}
	engine := NewEngine(completion, index, NewSessionStore(EvictionPolicy{}), Config{})

	res, err := engine.Answer(context.Background(), Request{
		Question: "Why do chunks overlap?",
		Context:  strings.Repeat("c", 5000),
	})
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}

	if index.searches != 0 {
		t.Error("direct context must not trigger retrieval")
	}
	if res.Sources != nil {
		t.Errorf("expected no sources for direct context, got %v", res.Sources)
	}
	if res.Answer != "because of the overlap" {
		t.Errorf("answer not trimmed: %q", res.Answer)
	}
	if res.SessionID == "" {
		t.Error("expected a session id in the result")
	}

	prompt := completion.prompts[0]
	if !strings.Contains(prompt, noHistorySentinel) {
		t.Error("fresh session prompt must carry the no-history sentinel")
	}
	if !strings.Contains(prompt, "Provide a clear explanation of WHY something happens") {
		t.Error("prompt missing the explanation instruction")
	}
	// The 5000-char context must be capped at 4000.
	if strings.Contains(prompt, strings.Repeat("c", 4001)) {
		t.Error("context not capped to 4000 characters")
	}
	if !strings.Contains(prompt, strings.Repeat("c", 4000)) {
		t.Error("capped context missing from prompt")
	}
}

func TestAnswerWithRetrieval(t *testing.T) {
	long := strings.Repeat("p", 400)
	completion := &stubCompletion{answer: "retrieved answer"}
	index := &stubIndex{hits: []vectorindex.Hit{
		{Text: long},
		{Text: "short passage"},
	}}
	engine := NewEngine(completion, index, NewSessionStore(EvictionPolicy{}), Config{})

	res, err := engine.Answer(context.Background(), Request{Question: "What is a vector index?"})
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}

	if index.searches != 1 {
		t.Fatalf("expected 1 retrieval, got %d", index.searches)
	}
	if len(res.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(res.Sources))
	}
	if res.Sources[0] != strings.Repeat("p", 150)+"..." {
		t.Errorf("source excerpt not capped to 150 chars: %q", res.Sources[0])
	}
	if res.Sources[1] != "short passage..." {
		t.Errorf("unexpected short source: %q", res.Sources[1])
	}

	prompt := completion.prompts[0]
	if !strings.Contains(prompt, strings.Repeat("p", 300)) {
		t.Error("prompt missing the 300-char passage excerpt")
	}
	if strings.Contains(prompt, strings.Repeat("p", 301)) {
		t.Error("passage excerpt not capped to 300 characters")
	}
}

func TestAnswerCarriesHistoryVerbatim(t *testing.T) {
	completion := &stubCompletion{answer: "The overlap keeps context at chunk borders."}
	engine := NewEngine(completion, &stubIndex{}, NewSessionStore(EvictionPolicy{}), Config{})

	first, err := engine.Answer(context.Background(), Request{
		Question: "Why do chunks overlap?",
		Context:  "chunking notes",
	})
	if err != nil {
		t.Fatalf("first answer failed: %v", err)
	}

	completion.answer = "More detail about borders."
	_, err = engine.Answer(context.Background(), Request{
		Question:  "tell me more",
		Context:   "chunking notes",
		SessionID: first.SessionID,
	})
	if err != nil {
		t.Fatalf("second answer failed: %v", err)
	}

	prompt := completion.prompts[1]
	if !strings.Contains(prompt, "USER: Why do chunks overlap?") {
		t.Error("history missing the first question verbatim")
	}
	if !strings.Contains(prompt, "ASSISTANT: The overlap keeps context at chunk borders.") {
		t.Error("history missing the first answer verbatim")
	}
	if strings.Contains(prompt, noHistorySentinel) {
		t.Error("follow-up prompt must not carry the no-history sentinel")
	}
}

func TestAnswerSessionReuseAcrossQuestions(t *testing.T) {
	completion := &stubCompletion{answer: "ok"}
	store := NewSessionStore(EvictionPolicy{})
	engine := NewEngine(completion, &stubIndex{}, store, Config{})

	res, err := engine.Answer(context.Background(), Request{Question: "what is x", Context: "ctx"})
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}

	msgs, err := store.History(res.SessionID)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected exactly one stored exchange, got %d messages", len(msgs))
	}
	if msgs[0].Content != "what is x" || msgs[1].Content != "ok" {
		t.Errorf("unexpected stored exchange: %+v", msgs)
	}
}

func TestAnswerErrors(t *testing.T) {
	engine := NewEngine(&stubCompletion{}, &stubIndex{}, NewSessionStore(EvictionPolicy{}), Config{})
	if _, err := engine.Answer(context.Background(), Request{Question: "   "}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest for blank question, got %v", err)
	}

	failing := &stubIndex{err: errors.New("index down")}
	engine = NewEngine(&stubCompletion{}, failing, NewSessionStore(EvictionPolicy{}), Config{})
	if _, err := engine.Answer(context.Background(), Request{Question: "anything"}); err == nil {
		t.Error("expected retrieval failure to surface")
	}
}
