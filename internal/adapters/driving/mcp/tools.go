package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/egregore-labs/manualdex/internal/core/domain"
)

// SearchInput is the input schema for the search_manuals tool.
type SearchInput struct {
	Query    string   `json:"query" jsonschema:"what to look up in the indexed manuals"`
	Limit    int      `json:"limit,omitempty" jsonschema:"maximum number of citations to return (default 10)"`
	Vendors  []string `json:"vendors,omitempty" jsonschema:"restrict results to these equipment vendors"`
	Families []string `json:"families,omitempty" jsonschema:"restrict results to these product families"`
	Models   []string `json:"models,omitempty" jsonschema:"restrict results to these model numbers"`
}

// SearchOutput is the output schema for the search_manuals tool.
type SearchOutput struct {
	Citations []CitationOutput `json:"citations"`
	Count     int              `json:"count"`
}

// CitationOutput is a single citation: where in which manual the answer
// lives, with a snippet of the matching text.
type CitationOutput struct {
	DocID     int64   `json:"doc_id"`
	Title     string  `json:"title"`
	Vendor    string  `json:"vendor,omitempty"`
	Family    string  `json:"family,omitempty"`
	Model     string  `json:"model,omitempty"`
	PageStart int     `json:"page_start"`
	PageEnd   int     `json:"page_end"`
	Snippet   string  `json:"snippet"`
	Score     float64 `json:"score"`
}

// IngestInput is the input schema for the ingest_manuals tool.
type IngestInput struct {
	Paths []string `json:"paths" jsonschema:"absolute paths of PDF manuals to index"`
}

// IngestOutput is the output schema for the ingest_manuals tool.
type IngestOutput struct {
	Indexed  int      `json:"indexed"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_manuals",
		Description: "Search indexed equipment manuals and return page-level citations",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_manuals",
		Description: "Index PDF manuals so they become searchable",
	}, s.handleIngest)
}

// handleSearch handles the search_manuals tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	citations, err := s.ports.Search.Search(ctx, domain.Query{
		Text:     input.Query,
		K:        input.Limit,
		Vendors:  input.Vendors,
		Families: input.Families,
		Models:   input.Models,
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Citations: make([]CitationOutput, len(citations)),
		Count:     len(citations),
	}

	for i := range citations {
		output.Citations[i] = CitationOutput{
			DocID:     citations[i].DocID,
			Title:     citations[i].Title,
			Vendor:    citations[i].Vendor,
			Family:    citations[i].Family,
			Model:     citations[i].Model,
			PageStart: citations[i].PageStart,
			PageEnd:   citations[i].PageEnd,
			Snippet:   citations[i].Snippet,
			Score:     citations[i].Score,
		}
	}

	return nil, output, nil
}

// handleIngest handles the ingest_manuals tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	report, err := s.ports.Ingest.Ingest(ctx, input.Paths)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		Indexed:  report.Indexed,
		Skipped:  report.Skipped,
		Warnings: report.Warnings,
	}, nil
}
