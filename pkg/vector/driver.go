// Package vector provides interfaces and implementations for vector storage of
// manual chunks.
package vector

import "context"

// Metadata is the chunk metadata persisted alongside each embedding. It is
// everything retrieval needs to filter, boost, and cite without re-reading
// the source PDF.
type Metadata struct {
	// State is the two-letter jurisdiction code ("CA", "TX", "WA").
	State string

	// Title is the friendly document title derived from the filename.
	Title string

	// SourceFile is the PDF filename the chunk was cut from.
	SourceFile string

	// Page is the 1-based page number within the source file.
	Page int

	// ChunkIndex is the chunk's file-global position.
	ChunkIndex int

	// HasTimeKeywords marks chunks mentioning time-of-day restrictions.
	HasTimeKeywords bool

	// MatchedKeywords lists which configured keywords matched.
	MatchedKeywords []string

	// CharCount is the chunk text length in runes.
	CharCount int
}

// Document represents a stored chunk with its embedding and metadata.
type Document struct {
	// ID is the chunk's stable identifier; re-adding the same ID replaces
	// the stored document.
	ID string

	// Text is the chunk text.
	Text string

	// Embedding is the vector representation of Text.
	Embedding []float32

	Metadata Metadata
}

// Filter narrows a similarity query.
type Filter struct {
	// State restricts results to one jurisdiction. Retrieval always sets
	// it; an empty value means no state restriction at the driver level.
	State string

	// TimeTagged, when non-nil, restricts results by the
	// HasTimeKeywords flag.
	TimeTagged *bool
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	Document

	// Distance is the raw distance reported by the store (lower = closer).
	Distance float32

	// Score is the similarity derived as 1/(1+Distance), so higher is
	// more similar regardless of the backing store's distance metric.
	Score float32
}

// Driver handles storage and retrieval of chunk embeddings.
type Driver interface {
	// Add upserts documents with their embeddings. Documents with an
	// existing ID are replaced, which makes re-ingestion idempotent.
	Add(ctx context.Context, docs []Document) error

	// Query finds the topK most similar documents to the given embedding,
	// honoring the filter.
	Query(ctx context.Context, embedding []float32, topK int, filter Filter) ([]QueryResult, error)

	// Count returns the total number of stored documents.
	Count(ctx context.Context) (int, error)

	// StateCounts returns the number of stored documents per state code.
	StateCounts(ctx context.Context) (map[string]int, error)

	// SetEmbeddingModel records the embedding model used at ingestion.
	SetEmbeddingModel(ctx context.Context, model string) error

	// EmbeddingModel returns the recorded embedding model, or empty when
	// nothing has been ingested yet.
	EmbeddingModel(ctx context.Context) (string, error)

	// Reset drops all stored documents and the recorded model.
	Reset(ctx context.Context) error

	// Close releases any resources held by the driver.
	Close() error
}
