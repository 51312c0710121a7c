package driving

import (
	"context"

	"github.com/egregore-labs/manualdex/internal/core/domain"
)

// IngestService drives document ingestion.
type IngestService interface {
	// Ingest processes each path independently: extraction, chunking,
	// embedding and storage. It fails only on malformed input (no
	// paths); per-document failures are reported in the returned
	// report's warnings.
	Ingest(ctx context.Context, paths []string) (*domain.IngestReport, error)
}
