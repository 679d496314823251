// Package mcq generates multiple choice quizzes from documents and
// validates the model's JSON output before accepting any question.
package mcq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"scholarnet/internal/chunker"
	"scholarnet/internal/docstore"
	"scholarnet/internal/llm"
	"scholarnet/internal/models"
)

// ErrParse marks model output that is not a valid question array. It is
// swallowed per chunk: callers get fewer questions, never the raw error.
var ErrParse = errors.New("mcq response parse failed")

// ErrInvalidRequest is returned when neither text nor a document id is
// supplied.
var ErrInvalidRequest = errors.New("invalid mcq request")

const (
	defaultNumQuestions = 10
	optionsPerQuestion  = 4
)

type Config struct {
	Model       string
	Temperature float64

	// Texts above DirectMaxChars are sampled chunk-wise instead of sent
	// in one call.
	DirectMaxChars int
	ChunkSize      int
	// At most MaxChunks chunks are sampled from a long document.
	MaxChunks int
	// Character cap applied to the text of a single completion request.
	ChunkInputCap int
	// Lower bound of questions requested per sampled chunk.
	MinPerChunk int
}

func (c *Config) setDefaults() {
	if c.Temperature == 0 {
		c.Temperature = 0.3
	}
	if c.DirectMaxChars == 0 {
		c.DirectMaxChars = 50000
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 15000
	}
	if c.MaxChunks == 0 {
		c.MaxChunks = 5
	}
	if c.ChunkInputCap == 0 {
		c.ChunkInputCap = 10000
	}
	if c.MinPerChunk == 0 {
		c.MinPerChunk = 2
	}
}

// Option is one of exactly four answers of a question.
type Option struct {
	Text      string `json:"option"`
	IsCorrect bool   `json:"is_correct"`
}

type Question struct {
	Question    string   `json:"question"`
	Options     []Option `json:"options"`
	Explanation string   `json:"explanation,omitempty"`
}

type Request struct {
	Text         string
	DocumentID   string
	NumQuestions int
}

// Result may carry fewer questions than requested; Rejected counts
// structurally invalid questions that were discarded.
type Result struct {
	Questions []Question
	Total     int
	Rejected  int
	Source    string
}

type Engine struct {
	llm   llm.CompletionService
	store *docstore.Store
	cfg   Config
}

func NewEngine(completion llm.CompletionService, store *docstore.Store, cfg Config) *Engine {
	cfg.setDefaults()
	return &Engine{llm: completion, store: store, cfg: cfg}
}

func (e *Engine) Generate(ctx context.Context, req Request) (*Result, error) {
	text := req.Text
	source := ""

	if text == "" && req.DocumentID != "" {
		doc, err := e.store.GetByID(ctx, req.DocumentID)
		if err != nil {
			return nil, err
		}
		text = doc.Text
		source = doc.Metadata[models.MetaSource]
	}
	if text == "" {
		return nil, fmt.Errorf("%w: either text or document id must be provided", ErrInvalidRequest)
	}

	num := req.NumQuestions
	if num <= 0 {
		num = defaultNumQuestions
	}

	var questions []Question
	rejected := 0

	if len(text) > e.cfg.DirectMaxChars {
		// Sample chunks from different parts so questions cover the whole
		// document.
		chunks, err := chunker.Split(text, e.cfg.ChunkSize, 0)
		if err != nil {
			return nil, err
		}
		perChunk := num / len(chunks)
		if perChunk < e.cfg.MinPerChunk {
			perChunk = e.cfg.MinPerChunk
		}
		if len(chunks) > e.cfg.MaxChunks {
			chunks = chunks[:e.cfg.MaxChunks]
		}

		for i, chunk := range chunks {
			want := perChunk
			if remaining := num - len(questions); want > remaining {
				want = remaining
			}
			accepted, bad, err := e.fromChunk(ctx, chunk, want)
			if err != nil {
				return nil, fmt.Errorf("generating questions for chunk %d: %w", i+1, err)
			}
			questions = append(questions, accepted...)
			rejected += bad
			if len(questions) >= num {
				break
			}
		}
		if len(questions) > num {
			questions = questions[:num]
		}
	} else {
		accepted, bad, err := e.fromChunk(ctx, text, num)
		if err != nil {
			return nil, err
		}
		questions = accepted
		rejected = bad
	}

	return &Result{
		Questions: questions,
		Total:     len(questions),
		Rejected:  rejected,
		Source:    source,
	}, nil
}

// fromChunk asks the model for n questions about one chunk of text.
// Parse failures degrade to an empty result for the chunk.
func (e *Engine) fromChunk(ctx context.Context, text string, n int) ([]Question, int, error) {
	if n <= 0 {
		return nil, 0, nil
	}
	if len(text) > e.cfg.ChunkInputCap {
		text = text[:e.cfg.ChunkInputCap]
	}

	raw, err := e.llm.Complete(ctx, e.cfg.Model, e.cfg.Temperature, questionPrompt(text, n))
	if err != nil {
		return nil, 0, err
	}

	accepted, rejected, err := parseQuestions(raw)
	if err != nil {
		log.Warn().Err(err).Msg("discarding unparseable mcq response")
		return nil, 0, nil
	}
	return accepted, rejected, nil
}

// parseQuestions decodes the model output and keeps only questions with
// exactly four options and exactly one correct answer. Invalid questions
// are discarded, not repaired.
func parseQuestions(raw string) ([]Question, int, error) {
	cleaned := stripCodeFence(raw)

	var decoded []Question
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var accepted []Question
	rejected := 0
	for _, q := range decoded {
		if !validQuestion(q) {
			rejected++
			continue
		}
		accepted = append(accepted, q)
	}
	return accepted, rejected, nil
}

func validQuestion(q Question) bool {
	if q.Question == "" || len(q.Options) != optionsPerQuestion {
		return false
	}
	correct := 0
	for _, opt := range q.Options {
		if opt.IsCorrect {
			correct++
		}
	}
	return correct == 1
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
