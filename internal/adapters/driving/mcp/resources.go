package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const uriScheme = "manualdex://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Template for document metadata.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "docs/{docId}",
		Name:        "document",
		Description: "Metadata of an indexed manual",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)

	// Template for page text.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "docs/{docId}/pages/{page}",
		Name:        "document-page",
		Description: "Text of one estimated page of an indexed manual",
		MIMEType:    "text/plain",
	}, s.handlePageResource)
}

// handleDocumentResource returns the metadata of one document.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docID, _, ok := parseDocURI(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Document.Get(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	info := struct {
		ID         int64  `json:"id"`
		Title      string `json:"title"`
		Vendor     string `json:"vendor,omitempty"`
		Family     string `json:"family,omitempty"`
		Model      string `json:"model,omitempty"`
		SourcePath string `json:"source_path"`
		PageCount  int    `json:"page_count"`
	}{doc.ID, doc.Title, doc.Vendor, doc.Family, doc.Model, doc.SourcePath, doc.PageCount}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling document: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handlePageResource returns the chunk text covering one page.
func (s *Server) handlePageResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docID, page, ok := parseDocURI(req.Params.URI)
	if !ok || page == 0 {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	chunks, err := s.ports.Document.PageChunks(ctx, docID, page)
	if err != nil {
		return nil, fmt.Errorf("getting page chunks: %w", err)
	}

	var text strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(chunk.Text)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     text.String(),
		}},
	}, nil
}

// parseDocURI parses manualdex://docs/{docId} and
// manualdex://docs/{docId}/pages/{page}. A zero page means the URI
// addressed the document itself.
func parseDocURI(uri string) (docID int64, page int, ok bool) {
	const prefix = uriScheme + "docs/"
	if !strings.HasPrefix(uri, prefix) {
		return 0, 0, false
	}

	rest := strings.TrimPrefix(uri, prefix)
	parts := strings.Split(rest, "/")

	switch len(parts) {
	case 1:
		docID, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return 0, 0, false
		}
		return docID, 0, true
	case 3:
		if parts[1] != "pages" {
			return 0, 0, false
		}
		docID, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return 0, 0, false
		}
		page, err := strconv.Atoi(parts[2])
		if err != nil {
			return 0, 0, false
		}
		return docID, page, true
	default:
		return 0, 0, false
	}
}
