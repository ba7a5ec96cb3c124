package domain

import (
	"context"
)

// DecodedDocument is an open handle over a validated paginated document.
// It owns native resources and must be closed on every code path.
type DecodedDocument interface {
	// PageCount returns the number of pages in the document.
	PageCount() int
	// PageText extracts the text of one page (0-indexed) in reading order.
	PageText(page int) (string, error)
	// Close releases the underlying document resources.
	Close() error
}

// Segmenter is the sentence-boundary collaborator. It is loaded once per
// process and safe for concurrent use; it also defines what a token is.
type Segmenter interface {
	// Sentences splits text into non-empty sentences with byte offsets.
	Sentences(text string) []Sentence
	// Tokenize splits text into tokens with byte offsets.
	Tokenize(text string) []Sentence
	// CountTokens returns the number of tokens in text.
	CountTokens(text string) int
}

// FileStore persists uploaded document bytes on shared storage. Stored
// names are always freshly generated, never caller supplied.
type FileStore interface {
	// Save writes content under a generated unique name, preserving the
	// original extension, and returns the stored path.
	Save(ctx context.Context, content []byte, originalFilename string) (string, error)
	// Delete removes a previously stored file. Deleting a missing file is
	// not an error.
	Delete(ctx context.Context, path string) error
}

// DocumentStore provides transactional persistence for documents and chunks.
type DocumentStore interface {
	// Begin opens a transaction covering one ingestion invocation.
	Begin(ctx context.Context) (IngestTx, error)
	// RecordFailure writes a document row in failed status outside any
	// open transaction, so the failure survives a rollback.
	RecordFailure(ctx context.Context, doc *Document) error
	// GetDocumentByID fetches a document record, or ErrDocumentNotFound.
	GetDocumentByID(ctx context.Context, id string) (*Document, error)
	// GetChunksByDocument returns a document's chunks in index order.
	GetChunksByDocument(ctx context.Context, documentID string) ([]Chunk, error)
}

// IngestTx is the unit of work for a single ingestion. Either Commit or
// Rollback must be called exactly once.
type IngestTx interface {
	CreateDocument(ctx context.Context, doc *Document) error
	SetStatus(ctx context.Context, documentID string, status ProcessingStatus) error
	UpdateFileInfo(ctx context.Context, documentID string, filePath string, pageCount int) error
	InsertChunks(ctx context.Context, chunks []Chunk) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetUploadPath() string
	GetMaxFileSize() int64
	GetMinFileSize() int64
	GetDatabaseURL() string
	GetLogLevel() string
	GetChunkConfig() ChunkConfig
	GetAllowedContentTypes() []string
}
