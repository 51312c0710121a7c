package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egregore-labs/manualdex/internal/core/domain"
)

type fakeSearch struct {
	citations []domain.Citation
	query     domain.Query
}

func (f *fakeSearch) Search(_ context.Context, query domain.Query) ([]domain.Citation, error) {
	f.query = query
	return f.citations, nil
}

type fakeIngest struct {
	report *domain.IngestReport
	paths  []string
}

func (f *fakeIngest) Ingest(_ context.Context, paths []string) (*domain.IngestReport, error) {
	f.paths = paths
	return f.report, nil
}

type fakeDocuments struct {
	doc       *domain.Document
	chunks    []domain.Chunk
	deletedID int64
}

func (f *fakeDocuments) Get(_ context.Context, _ int64) (*domain.Document, error) {
	return f.doc, nil
}

func (f *fakeDocuments) PageChunks(_ context.Context, _ int64, _ int) ([]domain.Chunk, error) {
	return f.chunks, nil
}

func (f *fakeDocuments) Delete(_ context.Context, id int64) error {
	f.deletedID = id
	return nil
}

func (f *fakeDocuments) Stats(_ context.Context) (int64, int64, error) {
	docs := int64(0)
	if f.doc != nil {
		docs = 1
	}
	return docs, int64(len(f.chunks)), nil
}

// setupTestServices installs fake services and returns a cleanup func.
func setupTestServices(search *fakeSearch, ingest *fakeIngest, docs *fakeDocuments) func() {
	if search == nil {
		search = &fakeSearch{}
	}
	if ingest == nil {
		ingest = &fakeIngest{report: &domain.IngestReport{}}
	}
	if docs == nil {
		docs = &fakeDocuments{}
	}
	services = &Services{Search: search, Ingest: ingest, Documents: docs}
	return func() { services = nil }
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Reset flag values changed by earlier Execute calls; cobra keeps
	// flag state across runs of the shared rootCmd.
	for _, cmd := range rootCmd.Commands() {
		cmd.Flags().Visit(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := execute(t, "search")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_PrintsCitations(t *testing.T) {
	search := &fakeSearch{citations: []domain.Citation{
		{DocID: 1, Title: "Spyder Guide", Vendor: "honeywell", PageStart: 14, PageEnd: 16, Snippet: "set the MAC address", Score: 0.812},
	}}
	defer setupTestServices(search, nil, nil)()

	out, err := execute(t, "search", "MS/TP addressing", "--limit", "5", "--vendor", "honeywell")
	require.NoError(t, err)

	assert.Equal(t, "MS/TP addressing", search.query.Text)
	assert.Equal(t, 5, search.query.K)
	assert.Equal(t, []string{"honeywell"}, search.query.Vendors)

	assert.Contains(t, out, "Spyder Guide (honeywell)")
	assert.Contains(t, out, "pp. 14-16")
	assert.Contains(t, out, "set the MAC address")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	search := &fakeSearch{citations: []domain.Citation{{DocID: 3, Title: "Guide", PageStart: 2, PageEnd: 2}}}
	defer setupTestServices(search, nil, nil)()

	out, err := execute(t, "search", "query", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"doc_id": 3`)
}

func TestSearchCmd_NoResults(t *testing.T) {
	defer setupTestServices(nil, nil, nil)()

	out, err := execute(t, "search", "nothing matches")
	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestIngestCmd(t *testing.T) {
	ingest := &fakeIngest{report: &domain.IngestReport{
		Indexed:  1,
		Skipped:  1,
		Warnings: []string{"broken.pdf: insufficient text extracted"},
	}}
	defer setupTestServices(nil, ingest, nil)()

	out, err := execute(t, "ingest", "/docs/a.pdf", "/docs/broken.pdf")
	require.NoError(t, err)

	assert.Equal(t, []string{"/docs/a.pdf", "/docs/broken.pdf"}, ingest.paths)
	assert.Contains(t, out, "Indexed 1, skipped 1")
	assert.Contains(t, out, "warning: broken.pdf")
}

func TestDocShowCmd(t *testing.T) {
	docs := &fakeDocuments{doc: &domain.Document{
		ID: 7, Title: "Guide", Vendor: "trane", SourcePath: "/docs/a.pdf",
		PageCount: 10, CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}}
	defer setupTestServices(nil, nil, docs)()

	out, err := execute(t, "doc", "show", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Title:   Guide")
	assert.Contains(t, out, "Vendor:  trane")
	assert.Contains(t, out, "Pages:   10")
}

func TestStatsCmd(t *testing.T) {
	docs := &fakeDocuments{
		doc:    &domain.Document{ID: 1},
		chunks: []domain.Chunk{{Text: "a"}, {Text: "b"}},
	}
	defer setupTestServices(nil, nil, docs)()

	out, err := execute(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Documents: 1")
	assert.Contains(t, out, "Chunks:    2")
}

func TestDocPageCmd(t *testing.T) {
	docs := &fakeDocuments{chunks: []domain.Chunk{{Text: "wiring instructions"}}}
	defer setupTestServices(nil, nil, docs)()

	out, err := execute(t, "doc", "page", "7", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "wiring instructions")
}

func TestDocDeleteCmd(t *testing.T) {
	docs := &fakeDocuments{}
	defer setupTestServices(nil, nil, docs)()

	out, err := execute(t, "doc", "delete", "7")
	require.NoError(t, err)
	assert.Equal(t, int64(7), docs.deletedID)
	assert.Contains(t, out, "Deleted document 7")
}

func TestDocCmd_InvalidID(t *testing.T) {
	defer setupTestServices(nil, nil, nil)()

	_, err := execute(t, "doc", "show", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid document id")
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "manualdex")
}
