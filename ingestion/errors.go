package ingestion

import "errors"

var (
	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrProvisioning is returned when the index could not be provisioned.
	ErrProvisioning = errors.New("index provisioning failed")

	// ErrEmbeddingMismatch is returned when the embedder returns a different number of vectors than chunks.
	ErrEmbeddingMismatch = errors.New("embedding result mismatch")
)
