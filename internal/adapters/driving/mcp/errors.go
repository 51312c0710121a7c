// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants search and ingest equipment manuals so they can
// answer support tickets with page-level citations.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrMissingIngestService is returned when the ingest service is not provided.
var ErrMissingIngestService = errors.New("mcp: ingest service is required")
