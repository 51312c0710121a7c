package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateDocument indicates a document with the same source
	// path already exists. Benign during ingestion: the path is skipped.
	ErrDuplicateDocument = errors.New("duplicate document")

	// ErrExtraction indicates the external extractor failed for a
	// document. Recorded as a per-document warning, never fatal to a batch.
	ErrExtraction = errors.New("extraction failed")

	// ErrInsufficientText indicates the extracted text was too short to
	// index. Recorded as a per-document warning.
	ErrInsufficientText = errors.New("insufficient text extracted")

	// ErrEmbedding indicates an embedding call failed or timed out.
	// Per-chunk it leaves the chunk lexical-only; per-query it degrades
	// search to lexical-only ranking.
	ErrEmbedding = errors.New("embedding failed")

	// ErrInvalidQuery indicates a malformed search request (empty text
	// or result count out of range). Request-level failure.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidInput indicates malformed input to an operation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorage indicates an infrastructure failure in the document
	// store. Surfaced to the caller; the engine does not retry.
	ErrStorage = errors.New("storage failure")
)
