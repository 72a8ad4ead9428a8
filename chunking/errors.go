package chunking

import "errors"

var (
	// ErrInvalidChunkSize is returned when the chunk size is not positive.
	ErrInvalidChunkSize = errors.New("chunk size must be positive")

	// ErrInvalidOverlap is returned when the overlap is negative or not smaller than the chunk size.
	ErrInvalidOverlap = errors.New("invalid chunk overlap")

	// ErrNoSeparators is returned when an empty separator list is supplied.
	ErrNoSeparators = errors.New("at least one separator required")
)
