package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egregore-labs/manualdex/internal/core/domain"
)

type stubSearch struct {
	citations []domain.Citation
	err       error
	query     domain.Query
}

func (s *stubSearch) Search(_ context.Context, query domain.Query) ([]domain.Citation, error) {
	s.query = query
	return s.citations, s.err
}

type stubIngest struct {
	report *domain.IngestReport
	err    error
	paths  []string
}

func (s *stubIngest) Ingest(_ context.Context, paths []string) (*domain.IngestReport, error) {
	s.paths = paths
	return s.report, s.err
}

type stubDocuments struct {
	doc    *domain.Document
	chunks []domain.Chunk
}

func (s *stubDocuments) Get(_ context.Context, _ int64) (*domain.Document, error) {
	return s.doc, nil
}

func (s *stubDocuments) PageChunks(_ context.Context, _ int64, _ int) ([]domain.Chunk, error) {
	return s.chunks, nil
}

func (s *stubDocuments) Delete(_ context.Context, _ int64) error {
	return nil
}

func (s *stubDocuments) Stats(_ context.Context) (int64, int64, error) {
	return int64(1), int64(len(s.chunks)), nil
}

func newTestMCPServer(t *testing.T, search *stubSearch, ingest *stubIngest, docs *stubDocuments) *Server {
	t.Helper()
	if search == nil {
		search = &stubSearch{}
	}
	if ingest == nil {
		ingest = &stubIngest{}
	}
	ports := &Ports{Search: search, Ingest: ingest}
	if docs != nil {
		ports.Document = docs
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestNewServer_Validation(t *testing.T) {
	_, err := NewServer(&Ports{Ingest: &stubIngest{}})
	assert.ErrorIs(t, err, ErrMissingSearchService)

	_, err = NewServer(&Ports{Search: &stubSearch{}})
	assert.ErrorIs(t, err, ErrMissingIngestService)
}

func TestHandleSearch(t *testing.T) {
	search := &stubSearch{citations: []domain.Citation{
		{DocID: 1, Title: "Spyder Guide", Vendor: "honeywell", PageStart: 14, PageEnd: 16, Snippet: "MAC address", Score: 0.8},
	}}
	server := newTestMCPServer(t, search, nil, nil)

	_, output, err := server.handleSearch(context.Background(), nil, SearchInput{
		Query:   "MS/TP addressing",
		Limit:   5,
		Vendors: []string{"honeywell"},
	})
	require.NoError(t, err)

	assert.Equal(t, "MS/TP addressing", search.query.Text)
	assert.Equal(t, 5, search.query.K)
	assert.Equal(t, []string{"honeywell"}, search.query.Vendors)

	require.Equal(t, 1, output.Count)
	assert.Equal(t, int64(1), output.Citations[0].DocID)
	assert.Equal(t, 14, output.Citations[0].PageStart)
	assert.Equal(t, "MAC address", output.Citations[0].Snippet)
}

func TestHandleSearch_Error(t *testing.T) {
	search := &stubSearch{err: domain.ErrInvalidQuery}
	server := newTestMCPServer(t, search, nil, nil)

	_, _, err := server.handleSearch(context.Background(), nil, SearchInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestHandleIngest(t *testing.T) {
	ingest := &stubIngest{report: &domain.IngestReport{
		Indexed:  1,
		Skipped:  1,
		Warnings: []string{"broken.pdf: insufficient text extracted"},
	}}
	server := newTestMCPServer(t, nil, ingest, nil)

	_, output, err := server.handleIngest(context.Background(), nil, IngestInput{
		Paths: []string{"/docs/a.pdf", "/docs/broken.pdf"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"/docs/a.pdf", "/docs/broken.pdf"}, ingest.paths)
	assert.Equal(t, 1, output.Indexed)
	assert.Equal(t, 1, output.Skipped)
	assert.Len(t, output.Warnings, 1)
}

func TestHandleIngest_Error(t *testing.T) {
	ingest := &stubIngest{err: errors.New("no paths")}
	server := newTestMCPServer(t, nil, ingest, nil)

	_, _, err := server.handleIngest(context.Background(), nil, IngestInput{})
	assert.Error(t, err)
}

func TestParseDocURI(t *testing.T) {
	docID, page, ok := parseDocURI("manualdex://docs/7")
	assert.True(t, ok)
	assert.Equal(t, int64(7), docID)
	assert.Zero(t, page)

	docID, page, ok = parseDocURI("manualdex://docs/7/pages/14")
	assert.True(t, ok)
	assert.Equal(t, int64(7), docID)
	assert.Equal(t, 14, page)

	_, _, ok = parseDocURI("manualdex://docs/abc")
	assert.False(t, ok)
	_, _, ok = parseDocURI("manualdex://docs/7/chapters/2")
	assert.False(t, ok)
	_, _, ok = parseDocURI("other://docs/7")
	assert.False(t, ok)
}
