package mcp

import (
	"github.com/egregore-labs/manualdex/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search answers retrieval queries with citations.
	Search driving.SearchService

	// Ingest indexes new manuals.
	Ingest driving.IngestService

	// Document serves stored documents and pages. Optional: without it
	// the page resources are simply absent.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Ingest == nil {
		return ErrMissingIngestService
	}
	return nil
}
