package models

// Metadata keys shared between the document store, the upload pipeline and
// the QA retriever. Every stored chunk carries at least MetaDocumentID.
const (
	MetaDocumentID  = "document_id"
	MetaSource      = "source"
	MetaChunkIndex  = "chunk_index"
	MetaTotalChunks = "total_chunks"
	MetaPages       = "pages"
)

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Chunk is one bounded segment of a larger document, indexed within
// [0, Total).
type Chunk struct {
	Text       string
	Index      int
	Total      int
	DocumentID string
}
