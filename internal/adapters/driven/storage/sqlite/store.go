package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/egregore-labs/manualdex/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/egregore-labs/manualdex/internal/core/domain"
	"github.com/egregore-labs/manualdex/internal/core/ports/driven"
)

// Interface conformance.
var (
	_ driven.DocumentStore = (*Store)(nil)
	_ driven.LexicalIndex  = (*Store)(nil)
)

// Store is the SQLite-backed document store. It also serves as the
// lexical index: chunk text is mirrored into an FTS5 table inside the
// same transactions that insert and delete chunk rows.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.manualdex/data/manuals.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".manualdex", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "manuals.db")

	// WAL keeps search reads from blocking on ingestion writes
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Foreign keys enforce the chunk cascade on document deletion
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// CreateDocument stores a new document and returns its assigned ID.
func (s *Store) CreateDocument(ctx context.Context, doc *domain.Document) (int64, error) {
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO docs (title, vendor, family, model, source_path, page_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.Title, nullString(doc.Vendor), nullString(doc.Family), nullString(doc.Model),
		doc.SourcePath, doc.PageCount, doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", domain.ErrDuplicateDocument, doc.SourcePath)
		}
		return 0, fmt.Errorf("inserting document: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting document id: %w", err)
	}

	doc.ID = id
	return id, nil
}

// AddChunks stores all chunks for a document in one transaction,
// mirroring their text into the FTS table. Chunk IDs are assigned in
// place on success.
func (s *Store) AddChunks(ctx context.Context, docID int64, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	insertChunk, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (doc_id, text, page_start, page_end, embedding)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer insertChunk.Close()

	insertFTS, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks_fts (rowid, text) VALUES (?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing fts insert: %w", err)
	}
	defer insertFTS.Close()

	for i := range chunks {
		res, err := insertChunk.ExecContext(ctx, docID, chunks[i].Text,
			chunks[i].PageStart, chunks[i].PageEnd, float32SliceToBytes(chunks[i].Embedding))
		if err != nil {
			return fmt.Errorf("inserting chunk: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting chunk id: %w", err)
		}

		if _, err := insertFTS.ExecContext(ctx, id, chunks[i].Text); err != nil {
			return fmt.Errorf("indexing chunk text: %w", err)
		}

		chunks[i].ID = id
		chunks[i].DocID = docID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id int64) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, vendor, family, model, source_path, page_count, created_at, updated_at
		FROM docs WHERE id = ?
	`, id)

	return scanDocument(row)
}

// FindByPath returns the ID of the document with the given source path.
func (s *Store) FindByPath(ctx context.Context, path string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM docs WHERE source_path = ?", path).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("finding document by path: %w", err)
	}
	return id, true, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *Store) GetChunk(ctx context.Context, id int64) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, doc_id, text, page_start, page_end, embedding
		FROM chunks WHERE id = ?
	`, id)

	var chunk domain.Chunk
	var embeddingBlob []byte
	if err := row.Scan(&chunk.ID, &chunk.DocID, &chunk.Text,
		&chunk.PageStart, &chunk.PageEnd, &embeddingBlob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
	return &chunk, nil
}

// GetChunks retrieves all chunks for a document in insertion order.
func (s *Store) GetChunks(ctx context.Context, docID int64) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, doc_id, text, page_start, page_end, embedding
		FROM chunks WHERE doc_id = ?
		ORDER BY id
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// GetChunksForPage returns chunks whose estimated page range covers the page.
func (s *Store) GetChunksForPage(ctx context.Context, docID int64, page int) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, doc_id, text, page_start, page_end, embedding
		FROM chunks
		WHERE doc_id = ? AND page_start <= ? AND page_end >= ?
		ORDER BY id
	`, docID, page, page)
	if err != nil {
		return nil, fmt.Errorf("querying chunks for page: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// EmbeddedChunks returns the chunk vectors of all filtered chunks that
// have a stored embedding.
func (s *Store) EmbeddedChunks(ctx context.Context, filter domain.Filter) ([]domain.ChunkVector, error) {
	query := `
		SELECT c.id, c.embedding
		FROM chunks c
		JOIN docs d ON d.id = c.doc_id
		WHERE c.embedding IS NOT NULL`

	conditions, args := filterConditions(filter)
	for _, cond := range conditions {
		query += " AND " + cond
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying embedded chunks: %w", err)
	}
	defer rows.Close()

	var vectors []domain.ChunkVector //nolint:prealloc // size unknown from query
	for rows.Next() {
		var cv domain.ChunkVector
		var blob []byte
		if err := rows.Scan(&cv.ChunkID, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk vector: %w", err)
		}
		cv.Embedding = bytesToFloat32Slice(blob)
		vectors = append(vectors, cv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunk vectors: %w", err)
	}

	return vectors, nil
}

// DeleteDocument removes a document, its chunks and their FTS entries.
func (s *Store) DeleteDocument(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM chunks_fts WHERE rowid IN (SELECT id FROM chunks WHERE doc_id = ?)
	`, id); err != nil {
		return fmt.Errorf("deleting fts entries: %w", err)
	}

	// The foreign key cascade removes the chunk rows.
	if _, err := tx.ExecContext(ctx, "DELETE FROM docs WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}

// Stats reports the stored document and chunk counts.
func (s *Store) Stats(ctx context.Context) (docs, chunks int64, err error) {
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM docs").Scan(&docs); err != nil {
		return 0, 0, fmt.Errorf("counting documents: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&chunks); err != nil {
		return 0, 0, fmt.Errorf("counting chunks: %w", err)
	}
	return docs, chunks, nil
}

// ==================== Lexical Index ====================

// Search runs a BM25-ranked full-text query over chunk text, restricted
// to filtered documents. FTS5 reports better matches with lower scores,
// so ascending score order is best-first.
func (s *Store) Search(
	ctx context.Context, query string, filter domain.Filter, limit int,
) ([]driven.LexicalHit, error) {
	match := buildMatchQuery(query)
	if match == "" {
		return nil, nil
	}

	sqlQuery := `
		SELECT c.id, bm25(chunks_fts) AS score
		FROM chunks_fts
		JOIN chunks c ON c.id = chunks_fts.rowid
		JOIN docs d ON d.id = c.doc_id
		WHERE chunks_fts MATCH ?`
	args := []any{match}

	conditions, filterArgs := filterConditions(filter)
	for _, cond := range conditions {
		sqlQuery += " AND " + cond
	}
	args = append(args, filterArgs...)

	sqlQuery += " ORDER BY bm25(chunks_fts) LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("full-text query: %w", err)
	}
	defer rows.Close()

	var hits []driven.LexicalHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var hit driven.LexicalHit
		if err := rows.Scan(&hit.ChunkID, &hit.Score); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}

	return hits, nil
}

// buildMatchQuery turns free text into an FTS5 MATCH expression. Each
// term is quoted so punctuation like "MS/TP" cannot break the query
// syntax, and terms are OR-joined: lexical recall feeds rank fusion,
// which rewards chunks matching more terms with better BM25 ranks.
func buildMatchQuery(query string) string {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return ""
	}

	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " OR ")
}

// ==================== Helper Functions ====================

// filterConditions renders a domain filter into SQL conditions over the
// joined docs table. Both search paths use this, so they always see the
// same candidate document set.
func filterConditions(filter domain.Filter) (conditions []string, args []any) {
	add := func(column string, values []string) {
		if len(values) == 0 {
			return
		}
		placeholders := strings.Repeat("?,", len(values))
		conditions = append(conditions,
			fmt.Sprintf("d.%s IN (%s)", column, placeholders[:len(placeholders)-1]))
		for _, v := range values {
			args = append(args, v)
		}
	}

	add("vendor", filter.Vendors)
	add("family", filter.Families)
	add("model", filter.Models)
	return conditions, args
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// nullString converts empty strings to NULL for optional columns.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var vendor, family, model sql.NullString
	var createdAt, updatedAt sql.NullTime

	if err := row.Scan(&doc.ID, &doc.Title, &vendor, &family, &model,
		&doc.SourcePath, &doc.PageCount, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Vendor = vendor.String
	doc.Family = family.String
	doc.Model = model.String
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		doc.UpdatedAt = updatedAt.Time
	}

	return &doc, nil
}

// scanChunks scans chunk rows.
func scanChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var embeddingBlob []byte
		if err := rows.Scan(&chunk.ID, &chunk.DocID, &chunk.Text,
			&chunk.PageStart, &chunk.PageEnd, &embeddingBlob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// float32SliceToBytes converts a []float32 to a little-endian byte slice
// for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
