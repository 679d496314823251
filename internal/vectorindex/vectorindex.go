// Package vectorindex abstracts the similarity-search store behind a small
// interface with two backends: an in-process chromem-go collection and a
// Postgres table with pgvector ordering.
package vectorindex

import "context"

// Entry is one stored passage with its metadata.
type Entry struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// Hit is one similarity-search result, best match first.
type Hit struct {
	Text       string
	Metadata   map[string]string
	Similarity float32
}

// Index is the vector store boundary consumed by the document store and
// the QA retriever. Get and Delete match entries whose metadata contains
// every key/value pair of filter; an empty filter matches everything.
type Index interface {
	Add(ctx context.Context, entries []Entry) error
	Search(ctx context.Context, query string, k int) ([]Hit, error)
	Get(ctx context.Context, filter map[string]string) ([]Entry, error)
	Delete(ctx context.Context, filter map[string]string) (bool, error)
}

func matches(meta, filter map[string]string) bool {
	for k, v := range filter {
		if meta[k] != v {
			return false
		}
	}
	return true
}
