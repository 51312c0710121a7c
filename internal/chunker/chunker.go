// Package chunker splits extracted document text into overlapping
// word-windows with estimated page ranges.
package chunker

import (
	"strings"

	"github.com/egregore-labs/manualdex/internal/core/domain"
)

// DefaultChunkSize is the default number of words per chunk.
const DefaultChunkSize = 900

// DefaultOverlap is the default number of overlapping words between
// consecutive chunks.
const DefaultOverlap = 150

// WordsPerPage is the heuristic used to estimate page ranges. Page
// estimates are derived from word offsets, not real page boundaries.
const WordsPerPage = 300

// Chunker splits text into fixed-size overlapping word-windows.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in words.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in words.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must stay below the chunk size or the window never advances
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// ChunkSize returns the configured words per chunk.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the configured overlap in words.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Split cuts text into chunks. The window advances by chunkSize-overlap
// words each step. Once at least one chunk exists, a trailing remainder
// of fewer than half a chunk is dropped rather than emitted or merged;
// the bounded loss at document ends is accepted for stable page
// estimates on the final chunk.
//
// Empty or whitespace-only text produces no chunks. Text shorter than
// one chunk produces exactly one.
func (c *Chunker) Split(text string) []domain.Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.chunkSize - c.overlap
	estimated := len(words)/step + 1
	chunks := make([]domain.Chunk, 0, estimated)

	for start := 0; start < len(words); start += step {
		end := start + c.chunkSize
		if end > len(words) {
			end = len(words)
		}

		window := words[start:end]
		if len(window) < c.chunkSize/2 && len(chunks) > 0 {
			break
		}

		chunks = append(chunks, domain.Chunk{
			Text:      strings.Join(window, " "),
			PageStart: start/WordsPerPage + 1,
			PageEnd:   (start+len(window))/WordsPerPage + 1,
		})
	}

	return chunks
}
