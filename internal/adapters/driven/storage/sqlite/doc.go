// Package sqlite implements the document store and the lexical index on
// a single SQLite database. The FTS5 table backing the lexical index is
// maintained by the store inside the same transactions that write and
// delete chunks, so the index can never drift from the rows it covers.
package sqlite
