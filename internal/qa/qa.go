// Package qa answers questions about stored documents, steering the
// prompt by question type and keeping a windowed conversation history per
// session.
package qa

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"scholarnet/internal/llm"
	"scholarnet/internal/vectorindex"
)

// ErrInvalidRequest is returned when the question is empty.
var ErrInvalidRequest = errors.New("invalid qa request")

const noHistorySentinel = "No previous conversation"

type Config struct {
	Model       string
	Temperature float64

	// Last HistoryPairs question/answer exchanges are rendered into the
	// prompt.
	HistoryPairs int
	// Caller-supplied context is capped to ContextCap characters.
	ContextCap int
	// Passages fetched per retrieval.
	RetrievalK int
	// Leading characters of each retrieved passage used as context.
	PassageExcerptLen int
	// Leading characters of each returned source excerpt.
	SourceExcerptLen int
}

func (c *Config) setDefaults() {
	if c.Temperature == 0 {
		c.Temperature = 0.3
	}
	if c.HistoryPairs == 0 {
		c.HistoryPairs = 3
	}
	if c.ContextCap == 0 {
		c.ContextCap = 4000
	}
	if c.RetrievalK == 0 {
		c.RetrievalK = 3
	}
	if c.PassageExcerptLen == 0 {
		c.PassageExcerptLen = 300
	}
	if c.SourceExcerptLen == 0 {
		c.SourceExcerptLen = 150
	}
}

// Request is one question. Context, when set, bypasses retrieval.
type Request struct {
	Question  string
	Context   string
	SessionID string
}

// Result carries the answer and, for retrieval-backed answers, the source
// excerpts it was grounded on.
type Result struct {
	Answer    string
	Sources   []string
	SessionID string
}

type Engine struct {
	llm      llm.CompletionService
	index    vectorindex.Index
	sessions *SessionStore
	cfg      Config
}

func NewEngine(completion llm.CompletionService, index vectorindex.Index, sessions *SessionStore, cfg Config) *Engine {
	cfg.setDefaults()
	return &Engine{llm: completion, index: index, sessions: sessions, cfg: cfg}
}

// Sessions exposes the underlying session store for management
// operations.
func (e *Engine) Sessions() *SessionStore {
	return e.sessions
}

func (e *Engine) Answer(ctx context.Context, req Request) (*Result, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question must not be empty", ErrInvalidRequest)
	}

	sessionID := e.sessions.GetOrCreate(req.SessionID)
	history := e.renderHistory(sessionID)
	questionType, instruction := classifyQuestion(question)

	log.Debug().
		Str("session_id", sessionID).
		Str("question_type", questionType).
		Bool("direct_context", req.Context != "").
		Msg("answering question")

	var contextText string
	var sources []string
	if req.Context != "" {
		contextText = req.Context
		if len(contextText) > e.cfg.ContextCap {
			contextText = contextText[:e.cfg.ContextCap]
		}
	} else {
		hits, err := e.index.Search(ctx, question, e.cfg.RetrievalK)
		if err != nil {
			return nil, fmt.Errorf("retrieving context: %w", err)
		}

		passages := make([]string, len(hits))
		sources = make([]string, len(hits))
		for i, h := range hits {
			passages[i] = excerpt(h.Text, e.cfg.PassageExcerptLen)
			sources[i] = excerpt(h.Text, e.cfg.SourceExcerptLen) + "..."
		}
		contextText = strings.Join(passages, "\n\n")
	}

	raw, err := e.llm.Complete(ctx, e.cfg.Model, e.cfg.Temperature,
		answerPrompt(history, contextText, question, instruction))
	if err != nil {
		return nil, fmt.Errorf("answering question: %w", err)
	}
	answer := strings.TrimSpace(raw)

	e.sessions.AppendExchange(sessionID, question, answer)

	return &Result{
		Answer:    answer,
		Sources:   sources,
		SessionID: sessionID,
	}, nil
}

// renderHistory formats the recent exchanges as role-tagged lines, or the
// sentinel for a fresh session.
func (e *Engine) renderHistory(sessionID string) string {
	msgs := e.sessions.Recent(sessionID, e.cfg.HistoryPairs)
	if len(msgs) == 0 {
		return noHistorySentinel
	}

	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = strings.ToUpper(m.Role) + ": " + m.Content
	}
	return strings.Join(lines, "\n\n")
}

func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
