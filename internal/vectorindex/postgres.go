package vectorindex

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"scholarnet/internal/models"
)

type chunkRow struct {
	bun.BaseModel `bun:"table:document_chunks,alias:dc"`
	ID            string    `bun:"id,pk"`
	Content       string    `bun:"content,notnull"`
	Embedding     []float32 `bun:"embedding,notnull,type:vector(768)"`
	DocumentID    string    `bun:"document_id"`
	Source        string    `bun:"source"`
	ChunkIndex    string    `bun:"chunk_index"`
	TotalChunks   string    `bun:"total_chunks"`
	Pages         string    `bun:"pages"`
}

// filterColumns maps metadata keys to their columns. Filters on other
// keys are rejected rather than silently ignored.
var filterColumns = map[string]string{
	models.MetaDocumentID: "document_id",
	models.MetaSource:     "source",
}

// PostgresIndex stores passages in a pgvector-enabled Postgres table and
// embeds texts itself before writing or searching.
type PostgresIndex struct {
	db       *bun.DB
	embedder *embeddings.EmbedderImpl
}

// ConnectDB opens a Postgres connection for the index.
func ConnectDB(url, password string) (*sql.DB, error) {
	dsn := url + "?sslmode=disable"
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(password))), nil
}

// NewPostgresIndex wraps sqldb with bun and creates the chunk table if it
// does not exist.
func NewPostgresIndex(ctx context.Context, sqldb *sql.DB, debug bool, embedder *embeddings.EmbedderImpl) (*PostgresIndex, error) {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if _, err := db.NewCreateTable().Model((*chunkRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("creating chunk table: %w", err)
	}
	return &PostgresIndex{db: db, embedder: embedder}, nil
}

func (x *PostgresIndex) Add(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([]chunkRow, len(entries))
	for i, e := range entries {
		emb, err := x.embedder.EmbedQuery(ctx, e.Text)
		if err != nil {
			return fmt.Errorf("embedding chunk %s: %w", e.ID, err)
		}
		rows[i] = chunkRow{
			ID:          e.ID,
			Content:     e.Text,
			Embedding:   emb,
			DocumentID:  e.Metadata[models.MetaDocumentID],
			Source:      e.Metadata[models.MetaSource],
			ChunkIndex:  e.Metadata[models.MetaChunkIndex],
			TotalChunks: e.Metadata[models.MetaTotalChunks],
			Pages:       e.Metadata[models.MetaPages],
		}
	}

	if _, err := x.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("inserting chunks: %w", err)
	}
	return nil
}

func (x *PostgresIndex) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if query == "" {
		return nil, fmt.Errorf("query must be provided")
	}
	if k <= 0 {
		return nil, nil
	}

	queryEmbedding, err := x.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	var rows []chunkRow
	err = x.db.NewSelect().
		Model(&rows).
		OrderExpr("embedding <-> ?", queryEmbedding).
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}

	hits := make([]Hit, len(rows))
	for i, r := range rows {
		hits[i] = Hit{Text: r.Content, Metadata: r.metadata()}
	}
	return hits, nil
}

func (x *PostgresIndex) Get(ctx context.Context, filter map[string]string) ([]Entry, error) {
	var rows []chunkRow
	q := x.db.NewSelect().Model(&rows).Order("id ASC")
	q, err := applyFilter(q, filter)
	if err != nil {
		return nil, err
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("fetching chunks: %w", err)
	}

	entries := make([]Entry, len(rows))
	for i, r := range rows {
		entries[i] = Entry{ID: r.ID, Text: r.Content, Metadata: r.metadata()}
	}
	return entries, nil
}

func (x *PostgresIndex) Delete(ctx context.Context, filter map[string]string) (bool, error) {
	q := x.db.NewDelete().Model((*chunkRow)(nil))
	for key, value := range filter {
		col, ok := filterColumns[key]
		if !ok {
			return false, fmt.Errorf("unsupported filter key %q", key)
		}
		q = q.Where("? = ?", bun.Ident(col), value)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("deleting chunks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	log.Debug().Int64("count", n).Msg("deleted chunk rows")
	return n > 0, nil
}

func applyFilter(q *bun.SelectQuery, filter map[string]string) (*bun.SelectQuery, error) {
	for key, value := range filter {
		col, ok := filterColumns[key]
		if !ok {
			return nil, fmt.Errorf("unsupported filter key %q", key)
		}
		q = q.Where("? = ?", bun.Ident(col), value)
	}
	return q, nil
}

func (r chunkRow) metadata() map[string]string {
	meta := map[string]string{
		models.MetaDocumentID:  r.DocumentID,
		models.MetaSource:      r.Source,
		models.MetaChunkIndex:  r.ChunkIndex,
		models.MetaTotalChunks: r.TotalChunks,
		models.MetaPages:       r.Pages,
	}
	for k, v := range meta {
		if v == "" {
			delete(meta, k)
		}
	}
	return meta
}
