// Package docstore keeps document chunks in a vector index, keyed by an
// opaque document id carried in every chunk's metadata.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"scholarnet/internal/chunker"
	"scholarnet/internal/models"
	"scholarnet/internal/vectorindex"
)

// ErrNotFound is returned when no chunks match the requested document id.
var ErrNotFound = errors.New("document not found")

// Writes to the underlying index are batched to keep embedding requests
// bounded.
const addBatchSize = 50

// Document is a reconstructed stored document.
type Document struct {
	DocumentID string
	Text       string
	Metadata   map[string]string
	ChunkCount int
}

// Summary is one row of the document listing.
type Summary struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Pages      int    `json:"pages"`
}

type Store struct {
	index vectorindex.Index
}

func New(index vectorindex.Index) *Store {
	return &Store{index: index}
}

// Add stores the chunks of one document. Every chunk's metadata is tagged
// with the document id before writing. Re-adding an existing id appends;
// there is no versioning.
func (s *Store) Add(ctx context.Context, documentID string, chunks []models.Chunk, metadatas []map[string]string) error {
	if documentID == "" {
		return fmt.Errorf("document id must be provided")
	}
	if len(metadatas) != 0 && len(metadatas) != len(chunks) {
		return fmt.Errorf("got %d metadata entries for %d chunks", len(metadatas), len(chunks))
	}

	entries := make([]vectorindex.Entry, len(chunks))
	for i, c := range chunks {
		meta := map[string]string{}
		if len(metadatas) != 0 {
			for k, v := range metadatas[i] {
				meta[k] = v
			}
		}
		meta[models.MetaDocumentID] = documentID
		meta[models.MetaChunkIndex] = strconv.Itoa(c.Index)
		meta[models.MetaTotalChunks] = strconv.Itoa(c.Total)

		entries[i] = vectorindex.Entry{
			ID:       documentID + "-" + uuid.NewString(),
			Text:     c.Text,
			Metadata: meta,
		}
	}

	for start := 0; start < len(entries); start += addBatchSize {
		end := start + addBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		if err := s.index.Add(ctx, entries[start:end]); err != nil {
			return fmt.Errorf("storing chunk batch: %w", err)
		}
	}

	log.Info().Str("document_id", documentID).Int("chunks", len(chunks)).Msg("document stored")
	return nil
}

// GetByID reconstructs the full text of a document from its stored
// chunks, joined in chunk-index order with a blank-line separator.
func (s *Store) GetByID(ctx context.Context, documentID string) (*Document, error) {
	entries, err := s.index.Get(ctx, map[string]string{models.MetaDocumentID: documentID})
	if err != nil {
		return nil, fmt.Errorf("fetching document %s: %w", documentID, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, documentID)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return chunkIndex(entries[i]) < chunkIndex(entries[j])
	})

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}

	return &Document{
		DocumentID: documentID,
		Text:       strings.Join(texts, "\n\n"),
		Metadata:   entries[0].Metadata,
		ChunkCount: len(entries),
	}, nil
}

// ListAll returns one summary per distinct document id in the index.
func (s *Store) ListAll(ctx context.Context) ([]Summary, error) {
	entries, err := s.index.Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	seen := map[string]bool{}
	var out []Summary
	for _, e := range entries {
		id := e.Metadata[models.MetaDocumentID]
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		pages, _ := strconv.Atoi(e.Metadata[models.MetaPages])
		out = append(out, Summary{
			DocumentID: id,
			Filename:   e.Metadata[models.MetaSource],
			Pages:      pages,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentID < out[j].DocumentID })
	return out, nil
}

// DeleteByID removes every chunk of the document and reports whether
// anything was deleted.
func (s *Store) DeleteByID(ctx context.Context, documentID string) (bool, error) {
	return s.index.Delete(ctx, map[string]string{models.MetaDocumentID: documentID})
}

// Ingest chunks extracted text and stores it under a fresh document id.
func (s *Store) Ingest(ctx context.Context, filename, text string, pages, chunkSize, overlap int) (string, int, error) {
	texts, err := chunker.Split(text, chunkSize, overlap)
	if err != nil {
		return "", 0, err
	}
	if len(texts) == 0 {
		return "", 0, fmt.Errorf("no chunks produced from %s", filename)
	}

	documentID := uuid.NewString()
	chunks := make([]models.Chunk, len(texts))
	metadatas := make([]map[string]string, len(texts))
	for i, t := range texts {
		chunks[i] = models.Chunk{Text: t, Index: i, Total: len(texts), DocumentID: documentID}
		metadatas[i] = map[string]string{
			models.MetaSource: filename,
			models.MetaPages:  strconv.Itoa(pages),
		}
	}

	if err := s.Add(ctx, documentID, chunks, metadatas); err != nil {
		return "", 0, err
	}
	return documentID, len(chunks), nil
}

func chunkIndex(e vectorindex.Entry) int {
	i, err := strconv.Atoi(e.Metadata[models.MetaChunkIndex])
	if err != nil {
		return 0
	}
	return i
}
