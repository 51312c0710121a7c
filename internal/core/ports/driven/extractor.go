package driven

import "context"

// Extractor converts a source document into plain text.
// PDF parsing and OCR live behind this boundary; the engine only sees
// the result. An extraction failure is contained as a per-document
// warning by the ingestion pipeline.
type Extractor interface {
	// Extract reads the document at path and returns its text, page
	// count and any metadata the source format carries.
	Extract(ctx context.Context, path string) (*Extraction, error)
}

// Extraction is the extractor output for one document.
type Extraction struct {
	// Text is the extracted plain text.
	Text string

	// PageCount is the number of pages in the source document.
	PageCount int

	// Metadata carries optional classification fields found in the
	// source. Empty fields fall back to file-name derivation.
	Metadata ExtractionMetadata
}

// ExtractionMetadata is the optional metadata block of an extraction.
type ExtractionMetadata struct {
	Title  string
	Vendor string
	Family string
	Model  string
}
