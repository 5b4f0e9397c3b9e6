// Package rag implements the retrieval core: chunking, cosine ranking,
// citation formatting and context assembly. Everything here is a pure,
// synchronous transform; embedding and storage I/O live elsewhere.
package rag

import "fmt"

// ValidationError reports malformed input: a wrong embedding dimension, an
// unknown source type, or invalid chunking parameters. Never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// AccessError reports a tenant-scope violation, such as querying
// private-vault chunks without a tenant. It is fatal, never retried, and
// must be recorded as a security event.
type AccessError struct {
	Reason string
}

func (e *AccessError) Error() string {
	return "access denied: " + e.Reason
}

// DimensionMismatchError reports a candidate whose embedding length differs
// from the query vector. It is recoverable: the candidate is skipped and
// logged, the query continues.
type DimensionMismatchError struct {
	ChunkID string
	Want    int
	Got     int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch for chunk %s: want %d, got %d", e.ChunkID, e.Want, e.Got)
}

// ValidateDimension checks an embedding against the configured
// dimensionality before it is persisted.
func ValidateDimension(embedding []float32, dimensions int) error {
	if len(embedding) != dimensions {
		return &ValidationError{Reason: fmt.Sprintf("embedding has %d dimensions, expected %d", len(embedding), dimensions)}
	}
	return nil
}
