package vector

import "errors"

var (
	// ErrNotFound is returned when a document is not found in the vector store.
	ErrNotFound = errors.New("document not found")

	// ErrNoCollection is returned when querying a store that has never been
	// ingested into. Callers surface it as "run ingestion first".
	ErrNoCollection = errors.New("vector store is empty: run ingestion first")

	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")

	// ErrModelMismatch is returned when the query-time embedding model does
	// not match the model recorded at ingestion.
	ErrModelMismatch = errors.New("embedding model does not match ingested collection")
)
