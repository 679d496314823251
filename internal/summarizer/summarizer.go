// Package summarizer turns documents of any size into summaries by
// picking one of three strategies: a single completion for short texts, a
// sequential refine loop for medium ones and concurrent map-reduce for
// long ones.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"scholarnet/internal/chunker"
	"scholarnet/internal/docstore"
	"scholarnet/internal/llm"
	"scholarnet/internal/models"
)

// Summary styles.
const (
	TypeConcise     = "concise"
	TypeExplanatory = "explanatory"
)

// Strategies.
const (
	StrategyAuto      = "auto"
	StrategyDirect    = "direct"
	StrategyRefine    = "refine"
	StrategyMapReduce = "map-reduce"
)

const defaultMaxLength = 500

// ErrInvalidRequest is returned for requests that cannot be summarized
// (no input, unknown strategy).
var ErrInvalidRequest = errors.New("invalid summarize request")

// Config carries the strategy-selection thresholds and chunking
// parameters. Zero fields are replaced with the defaults the thresholds
// were tuned for.
type Config struct {
	Model       string
	Temperature float64

	// Auto strategy selection by character count: direct at or below
	// DirectMaxChars, refine at or below RefineMaxChars, map-reduce above.
	DirectMaxChars int
	RefineMaxChars int

	ChunkSize    int
	ChunkOverlap int
	// Map-reduce issues at most BatchSize chunk summaries concurrently.
	BatchSize int
	// Per-chunk word target cap for map-reduce.
	ChunkSummaryMaxWords int
	// Character cap applied to the text of a single completion request.
	DirectInputCap int
}

func (c *Config) setDefaults() {
	if c.Temperature == 0 {
		c.Temperature = 0.3
	}
	if c.DirectMaxChars == 0 {
		c.DirectMaxChars = 20000
	}
	if c.RefineMaxChars == 0 {
		c.RefineMaxChars = 60000
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 20000
	}
	if c.ChunkOverlap == 0 {
		c.ChunkOverlap = 1000
	}
	if c.BatchSize == 0 {
		c.BatchSize = 10
	}
	if c.ChunkSummaryMaxWords == 0 {
		c.ChunkSummaryMaxWords = 400
	}
	if c.DirectInputCap == 0 {
		c.DirectInputCap = 100000
	}
}

// Request describes one summarization. Either Text or DocumentID must be
// set; DocumentID resolves through the document store.
type Request struct {
	Text        string
	DocumentID  string
	SummaryType string
	MaxLength   int
	Strategy    string
}

// ProcessingInfo reports how the summary was produced so callers can
// audit cost and latency.
type ProcessingInfo struct {
	Strategy        string `json:"strategy"`
	OriginalLength  int    `json:"original_length"`
	WordCount       int    `json:"word_count"`
	ChunksProcessed int    `json:"chunks_processed"`
}

type Result struct {
	Summary     string
	SummaryType string
	Source      string
	Info        ProcessingInfo
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

func (e *Engine) Summarize(ctx context.Context, req Request) (*Result, error) {
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

	summaryType := req.SummaryType
	if summaryType != TypeConcise && summaryType != TypeExplanatory {
		summaryType = TypeExplanatory
	}
	maxLength := req.MaxLength
	if maxLength <= 0 {
		maxLength = defaultMaxLength
	}

	charCount := len(text)
	wordCount := len(strings.Fields(text))

	strategy := req.Strategy
	if strategy == "" || strategy == StrategyAuto {
		strategy = e.selectStrategy(charCount)
	}

	log.Info().
		Str("strategy", strategy).
		Int("chars", charCount).
		Int("words", wordCount).
		Msg("summarizing document")

	var summary string
	var chunksProcessed int
	var err error
	switch strategy {
	case StrategyDirect:
		summary, err = e.direct(ctx, text, summaryType, maxLength)
		chunksProcessed = 1
	case StrategyRefine:
		summary, chunksProcessed, err = e.refine(ctx, text, summaryType, maxLength)
	case StrategyMapReduce:
		summary, chunksProcessed, err = e.mapReduce(ctx, text, summaryType, maxLength)
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", ErrInvalidRequest, strategy)
	}
	if err != nil {
		return nil, err
	}

	return &Result{
		Summary:     strings.TrimSpace(summary),
		SummaryType: summaryType,
		Source:      source,
		Info: ProcessingInfo{
			Strategy:        strategy,
			OriginalLength:  charCount,
			WordCount:       wordCount,
			ChunksProcessed: chunksProcessed,
		},
	}, nil
}

func (e *Engine) selectStrategy(charCount int) string {
	switch {
	case charCount <= e.cfg.DirectMaxChars:
		return StrategyDirect
	case charCount <= e.cfg.RefineMaxChars:
		return StrategyRefine
	default:
		return StrategyMapReduce
	}
}

func (e *Engine) direct(ctx context.Context, text, summaryType string, maxLength int) (string, error) {
	if len(text) > e.cfg.DirectInputCap {
		text = text[:e.cfg.DirectInputCap]
	}
	out, err := e.llm.Complete(ctx, e.cfg.Model, e.cfg.Temperature, stylePrompt(summaryType, text, maxLength))
	if err != nil {
		return "", fmt.Errorf("direct summarization: %w", err)
	}
	return out, nil
}

// refine summarizes the first chunk and then folds every later chunk into
// the running summary. Sequential by construction.
func (e *Engine) refine(ctx context.Context, text, summaryType string, maxLength int) (string, int, error) {
	chunks, err := chunker.Split(text, e.cfg.ChunkSize, e.cfg.ChunkOverlap)
	if err != nil {
		return "", 0, err
	}
	if len(chunks) <= 1 {
		summary, err := e.direct(ctx, text, summaryType, maxLength)
		return summary, 1, err
	}

	current, err := e.llm.Complete(ctx, e.cfg.Model, e.cfg.Temperature, stylePrompt(summaryType, chunks[0], maxLength/2))
	if err != nil {
		return "", 0, fmt.Errorf("initial summary: %w", err)
	}

	for i, chunk := range chunks[1:] {
		log.Debug().Int("chunk", i+2).Int("total", len(chunks)).Msg("refining summary")
		current, err = e.llm.Complete(ctx, e.cfg.Model, e.cfg.Temperature, refinePrompt(current, chunk, summaryType, maxLength))
		if err != nil {
			return "", 0, fmt.Errorf("refining with chunk %d: %w", i+2, err)
		}
	}
	return current, len(chunks), nil
}

// mapReduce summarizes every chunk independently, in batches of at most
// BatchSize concurrent completion calls, then runs one combining pass
// over the concatenation. Chunk summaries are recombined in original
// chunk order regardless of completion order.
func (e *Engine) mapReduce(ctx context.Context, text, summaryType string, maxLength int) (string, int, error) {
	chunks, err := chunker.Split(text, e.cfg.ChunkSize, e.cfg.ChunkOverlap)
	if err != nil {
		return "", 0, err
	}
	if len(chunks) <= 1 {
		summary, err := e.direct(ctx, text, summaryType, maxLength)
		return summary, 1, err
	}

	perChunk := maxLength / len(chunks)
	if perChunk > e.cfg.ChunkSummaryMaxWords {
		perChunk = e.cfg.ChunkSummaryMaxWords
	}

	summaries := make([]string, len(chunks))
	for start := 0; start < len(chunks); start += e.cfg.BatchSize {
		end := start + e.cfg.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		log.Debug().Int("from", start).Int("to", end).Int("total", len(chunks)).Msg("summarizing chunk batch")

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				out, err := e.llm.Complete(gctx, e.cfg.Model, e.cfg.Temperature, chunkPrompt(chunks[i], perChunk))
				if err != nil {
					return fmt.Errorf("summarizing chunk %d: %w", i+1, err)
				}
				summaries[i] = strings.TrimSpace(out)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return "", 0, err
		}
	}

	combined := strings.Join(summaries, "\n\n")
	final, err := e.llm.Complete(ctx, e.cfg.Model, e.cfg.Temperature, stylePrompt(summaryType, combined, maxLength))
	if err != nil {
		return "", 0, fmt.Errorf("combining chunk summaries: %w", err)
	}
	return final, len(chunks), nil
}
