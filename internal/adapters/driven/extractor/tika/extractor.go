// Package tika extracts PDF text through an Apache Tika server. Tika
// runs as a sidecar; this adapter streams the file to it twice, once
// for plain text and once for metadata.
package tika

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/egregore-labs/manualdex/internal/chunker"
	"github.com/egregore-labs/manualdex/internal/core/domain"
	"github.com/egregore-labs/manualdex/internal/core/ports/driven"
)

var _ driven.Extractor = (*Extractor)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:9998"
	DefaultTimeout = 2 * time.Minute
)

// Config holds configuration for the Tika extractor.
type Config struct {
	// BaseURL is the Tika server base URL (default: http://localhost:9998).
	BaseURL string

	// Timeout is the per-file request timeout (default: 2m).
	Timeout time.Duration
}

// Extractor extracts text and metadata from PDFs via a Tika server.
type Extractor struct {
	client  *http.Client
	baseURL string
}

// NewExtractor creates a Tika-backed extractor.
func NewExtractor(cfg Config) *Extractor {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Extractor{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
	}
}

// Ping checks that the Tika server answers, retrying briefly so a
// sidecar that is still starting does not fail the whole run.
func (e *Extractor) Ping(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = 15 * time.Second

	return backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/tika", http.NoBody)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := e.client.Do(req)
		if err != nil {
			return fmt.Errorf("tika: ping failed: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("tika: ping returned status %d", resp.StatusCode)
		}
		return nil
	}, backoff.WithContext(policy, ctx))
}

// Extract pulls the plain text and metadata of the file at path.
func (e *Extractor) Extract(ctx context.Context, path string) (*driven.Extraction, error) {
	text, err := e.extractText(ctx, path)
	if err != nil {
		return nil, err
	}

	extraction := &driven.Extraction{Text: text}

	meta, err := e.extractMetadata(ctx, path)
	if err != nil {
		// Text alone is enough to index; metadata only enriches it
		meta = map[string]any{}
	}

	extraction.Metadata.Title = metaString(meta, "dc:title")
	extraction.PageCount = metaInt(meta, "xmpTPg:NPages")
	if extraction.PageCount < 1 {
		extraction.PageCount = estimatePages(text)
	}

	return extraction, nil
}

func (e *Extractor) extractText(ctx context.Context, path string) (string, error) {
	resp, err := e.put(ctx, path, "/tika", "text/plain")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: tika returned status %d for %s", domain.ErrExtraction, resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading text response: %v", domain.ErrExtraction, err)
	}
	return string(body), nil
}

func (e *Extractor) extractMetadata(ctx context.Context, path string) (map[string]any, error) {
	resp, err := e.put(ctx, path, "/meta", "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: tika metadata returned status %d", domain.ErrExtraction, resp.StatusCode)
	}

	var meta map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("%w: decoding metadata: %v", domain.ErrExtraction, err)
	}
	return meta, nil
}

func (e *Extractor) put(ctx context.Context, path, endpoint, accept string) (*http.Response, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", domain.ErrExtraction, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, e.baseURL+endpoint, file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: creating request: %v", domain.ErrExtraction, err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := e.client.Do(req)
	if err != nil {
		// client.Do closes the request body
		return nil, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	return resp, nil
}

// metaString reads a Tika metadata value, which may be a string or an
// array of strings.
func metaString(meta map[string]any, key string) string {
	switch v := meta[key].(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

func metaInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return 0
}

// estimatePages approximates a page count from text length when the
// document carries no page metadata.
func estimatePages(text string) int {
	words := len(strings.Fields(text))
	pages := (words + chunker.WordsPerPage - 1) / chunker.WordsPerPage
	if pages < 1 {
		pages = 1
	}
	return pages
}
