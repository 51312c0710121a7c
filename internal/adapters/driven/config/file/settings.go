// Package file loads runtime settings from a TOML file. Every field
// has a working default so the binary runs with no config at all;
// secrets come from the environment, never the file.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/egregore-labs/manualdex/internal/chunker"
	"github.com/egregore-labs/manualdex/internal/core/services"
)

// Settings is the full runtime configuration.
type Settings struct {
	// DataDir holds the SQLite database (default: ~/.manualdex/data).
	DataDir string `toml:"data_dir"`

	Chunking  ChunkingSettings  `toml:"chunking"`
	Embedding EmbeddingSettings `toml:"embedding"`
	Vector    VectorSettings    `toml:"vector"`
	Search    SearchSettings    `toml:"search"`
	Ingest    IngestSettings    `toml:"ingest"`
	Tika      TikaSettings      `toml:"tika"`
	HTTP      HTTPSettings      `toml:"http"`
}

// ChunkingSettings controls how extracted text is split.
type ChunkingSettings struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// EmbeddingSettings selects and configures the embedding provider.
type EmbeddingSettings struct {
	// Provider is "ollama" or "openai".
	Provider   string `toml:"provider"`
	BaseURL    string `toml:"base_url"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
	RateLimit  int    `toml:"rate_limit"`

	// APIKey is read from OPENAI_API_KEY, not from the file.
	APIKey string `toml:"-"`
}

// VectorSettings selects the vector index backend.
type VectorSettings struct {
	// Provider is "bruteforce" or "qdrant".
	Provider   string `toml:"provider"`
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	Collection string `toml:"collection"`
}

// SearchSettings tunes retrieval.
type SearchSettings struct {
	MaxResults int `toml:"max_results"`
}

// IngestSettings tunes the ingestion pipeline.
type IngestSettings struct {
	Concurrency         int `toml:"concurrency"`
	EmbedTimeoutSeconds int `toml:"embed_timeout_seconds"`
}

// EmbedTimeout returns the per-chunk embedding timeout.
func (s IngestSettings) EmbedTimeout() time.Duration {
	return time.Duration(s.EmbedTimeoutSeconds) * time.Second
}

// TikaSettings configures the text extraction sidecar.
type TikaSettings struct {
	BaseURL string `toml:"base_url"`
}

// HTTPSettings configures the HTTP API server.
type HTTPSettings struct {
	Addr string `toml:"addr"`
}

// Defaults returns settings with every field at its default value.
func Defaults() Settings {
	return Settings{
		Chunking: ChunkingSettings{
			Size:    chunker.DefaultChunkSize,
			Overlap: chunker.DefaultOverlap,
		},
		Embedding: EmbeddingSettings{
			Provider:   "ollama",
			Model:      "all-minilm",
			Dimensions: 384,
		},
		Vector: VectorSettings{
			Provider:   "bruteforce",
			Host:       "localhost",
			Port:       6334,
			Collection: "manual_chunks",
		},
		Search: SearchSettings{
			MaxResults: services.DefaultMaxResults,
		},
		Ingest: IngestSettings{
			Concurrency:         services.DefaultConcurrency,
			EmbedTimeoutSeconds: int(services.DefaultEmbedTimeout / time.Second),
		},
		Tika: TikaSettings{
			BaseURL: "http://localhost:9998",
		},
		HTTP: HTTPSettings{
			Addr: "localhost:8787",
		},
	}
}

// Load reads settings from path, falling back to defaults for absent
// fields. An empty path means ~/.manualdex/config.toml; a missing file
// is not an error.
func Load(path string) (Settings, error) {
	settings := Defaults()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return settings, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".manualdex", "config.toml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			settings.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
			return settings, nil
		}
		return settings, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("parsing config %s: %w", path, err)
	}

	settings.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")

	if err := settings.Validate(); err != nil {
		return settings, fmt.Errorf("config %s: %w", path, err)
	}
	return settings, nil
}

// Validate rejects values the pipeline cannot run with.
func (s Settings) Validate() error {
	if s.Chunking.Size <= 0 {
		return fmt.Errorf("chunking.size must be positive, got %d", s.Chunking.Size)
	}
	if s.Chunking.Overlap < 0 || s.Chunking.Overlap >= s.Chunking.Size {
		return fmt.Errorf("chunking.overlap must be in [0, size), got %d", s.Chunking.Overlap)
	}
	if s.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", s.Embedding.Dimensions)
	}
	switch s.Embedding.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("embedding.provider must be ollama or openai, got %q", s.Embedding.Provider)
	}
	switch s.Vector.Provider {
	case "bruteforce", "qdrant":
	default:
		return fmt.Errorf("vector.provider must be bruteforce or qdrant, got %q", s.Vector.Provider)
	}
	if s.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive, got %d", s.Search.MaxResults)
	}
	if s.Ingest.Concurrency <= 0 {
		return fmt.Errorf("ingest.concurrency must be positive, got %d", s.Ingest.Concurrency)
	}
	return nil
}
