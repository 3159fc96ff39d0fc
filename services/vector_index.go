package services

import (
	"context"

	"pdfrag/models"
)

// VectorIndex is the storage and retrieval capability the pipelines depend
// on: an external collection of (vector, text, metadata) records supporting
// filtered nearest-neighbor search. Records are additive; the only deletion
// this system performs is the per-document compensating cleanup.
type VectorIndex interface {
	// EnsureReady provisions the index if it does not exist and blocks
	// until it is usable. Safe to call on every startup.
	EnsureReady(ctx context.Context) error

	// Upsert appends records to the index. Record IDs are assigned by the
	// implementation.
	Upsert(ctx context.Context, records []models.VectorRecord) error

	// Query returns up to k records most similar to the vector, ordered by
	// descending score. A non-empty docID restricts results to records
	// tagged with that document.
	Query(ctx context.Context, vector []float32, k int, docID string) ([]models.ScoredChunk, error)

	// DeleteByDoc removes every record tagged with the given document.
	DeleteByDoc(ctx context.Context, docID string) error
}
