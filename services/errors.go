package services

import "errors"

// Sentinel errors for the ingestion and answering pipelines. Callers match
// them with errors.Is; the concrete cause is wrapped alongside.
var (
	// ErrExtraction means the uploaded stream could not be parsed as a PDF.
	ErrExtraction = errors.New("pdf extraction failed")

	// ErrDimensionMismatch means the embedding provider returned vectors
	// whose length does not match the configured index dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndexProvisioning means the vector index could not be created or
	// did not report ready in time.
	ErrIndexProvisioning = errors.New("index provisioning failed")

	// ErrUpsert means writing vector records to the index failed. Records
	// written before the failure are cleaned up best-effort, not
	// transactionally.
	ErrUpsert = errors.New("vector upsert failed")

	// ErrAnswering wraps any retrieval or model-invocation failure during
	// question answering.
	ErrAnswering = errors.New("answering failed")
)
