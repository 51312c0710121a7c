package domain

// IngestReport summarises one ingestion batch. Per-document failures are
// contained: they appear as warnings and skips, never as a batch error.
type IngestReport struct {
	// Indexed is the number of documents stored during this batch.
	Indexed int `json:"indexed"`

	// Skipped is the number of paths that produced no new document,
	// either because they were already indexed or because they failed.
	Skipped int `json:"skipped"`

	// Warnings describes per-document failures, keyed by file name,
	// in input order.
	Warnings []string `json:"warnings"`
}
