// Package embeddings
package embeddings

import "context"

// Embedder provides text embedding capabilities.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Model returns the embedding model name. The vector store records it
	// at ingestion so queries can refuse a mismatched model.
	Model() string

	// Close releases any resources held by the embedder.
	Close() error
}
