package vectorindex

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
)

const chromemCompress = false

// ChromemIndex stores passages in a chromem-go collection. chromem has no
// list-by-metadata operation, so a sidecar map of stored entries backs Get;
// the collection itself answers similarity queries and metadata deletes.
type ChromemIndex struct {
	collection *chromem.Collection

	mu      sync.RWMutex
	entries map[string]Entry
}

// NewChromemIndex opens (or creates) the named collection. With inMemory
// set the index lives only for the process, matching the persistence
// scope of the rest of the pipeline.
func NewChromemIndex(dbPath, collectionName string, inMemory bool, embedder *embeddings.EmbedderImpl) (*ChromemIndex, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, chromemCompress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	}

	embedFunc := chromem.EmbeddingFunc(func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	})

	collection, err := db.GetOrCreateCollection(collectionName, nil, embedFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}

	return &ChromemIndex{
		collection: collection,
		entries:    make(map[string]Entry),
	}, nil
}

func (x *ChromemIndex) Add(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(entries))
	for i, e := range entries {
		docs[i] = chromem.Document{
			ID:       e.ID,
			Content:  e.Text,
			Metadata: e.Metadata,
		}
	}

	if err := x.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}

	x.mu.Lock()
	for _, e := range entries {
		x.entries[e.ID] = e
	}
	x.mu.Unlock()
	return nil
}

func (x *ChromemIndex) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if query == "" {
		return nil, fmt.Errorf("query must be provided")
	}

	// chromem rejects nResults larger than the collection size.
	if count := x.collection.Count(); k > count {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}

	results, err := x.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{Text: r.Content, Metadata: r.Metadata, Similarity: r.Similarity}
	}
	return hits, nil
}

func (x *ChromemIndex) Get(_ context.Context, filter map[string]string) ([]Entry, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []Entry
	for _, e := range x.entries {
		if matches(e.Metadata, filter) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (x *ChromemIndex) Delete(ctx context.Context, filter map[string]string) (bool, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	var ids []string
	for id, e := range x.entries {
		if matches(e.Metadata, filter) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return false, nil
	}

	if err := x.collection.Delete(ctx, nil, nil, ids...); err != nil {
		return false, fmt.Errorf("failed to delete documents: %v", err)
	}
	for _, id := range ids {
		delete(x.entries, id)
	}
	log.Debug().Int("count", len(ids)).Msg("deleted documents from collection")
	return true, nil
}
