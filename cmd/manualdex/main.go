package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	configfile "github.com/egregore-labs/manualdex/internal/adapters/driven/config/file"
	"github.com/egregore-labs/manualdex/internal/adapters/driven/embedding/ollama"
	"github.com/egregore-labs/manualdex/internal/adapters/driven/embedding/openai"
	"github.com/egregore-labs/manualdex/internal/adapters/driven/extractor/tika"
	"github.com/egregore-labs/manualdex/internal/adapters/driven/storage/sqlite"
	"github.com/egregore-labs/manualdex/internal/adapters/driven/vector/bruteforce"
	"github.com/egregore-labs/manualdex/internal/adapters/driven/vector/qdrantindex"
	"github.com/egregore-labs/manualdex/internal/adapters/driving/cli"
	"github.com/egregore-labs/manualdex/internal/chunker"
	"github.com/egregore-labs/manualdex/internal/core/ports/driven"
	"github.com/egregore-labs/manualdex/internal/core/services"
	"github.com/egregore-labs/manualdex/internal/logger"
)

func main() {
	// .env is optional; it carries OPENAI_API_KEY in dev setups
	godotenv.Load() //nolint:errcheck

	cli.SetInitializer(buildServices)
	cli.Execute()
}

// buildServices wires adapters into the core services from the config
// file at configPath.
func buildServices(configPath string) (*cli.Services, error) {
	settings, err := configfile.Load(configPath)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	logger.Debug("store ready at %s", store.Path())

	embedder, err := buildEmbedder(settings.Embedding)
	if err != nil {
		store.Close()
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := embedder.Ping(pingCtx); err != nil {
		logger.Warn("embedding provider unreachable, ingest will degrade to lexical-only: %v", err)
	}
	cancel()

	vectorIndex, err := buildVectorIndex(settings, store)
	if err != nil {
		store.Close()
		return nil, err
	}

	splitter := chunker.New(
		chunker.WithChunkSize(settings.Chunking.Size),
		chunker.WithOverlap(settings.Chunking.Overlap),
	)

	extractor := tika.NewExtractor(tika.Config{BaseURL: settings.Tika.BaseURL})

	ingest := services.NewIngestPipeline(store, extractor, embedder, vectorIndex, splitter,
		services.WithConcurrency(settings.Ingest.Concurrency),
		services.WithEmbedTimeout(settings.Ingest.EmbedTimeout()),
	)
	search := services.NewSearchService(store, store, vectorIndex, embedder,
		services.WithMaxResults(settings.Search.MaxResults),
	)
	documents := services.NewDocumentService(store, vectorIndex)

	return &cli.Services{
		Search:    search,
		Ingest:    ingest,
		Documents: documents,
		Close: func() error {
			var errs []error
			if embedder != nil {
				errs = append(errs, embedder.Close())
			}
			if vectorIndex != nil {
				errs = append(errs, vectorIndex.Close())
			}
			errs = append(errs, store.Close())
			return errors.Join(errs...)
		},
	}, nil
}

func buildEmbedder(cfg configfile.EmbeddingSettings) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
	default:
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			RateLimit:  cfg.RateLimit,
			Timeout:    30 * time.Second,
		}), nil
	}
}

func buildVectorIndex(settings configfile.Settings, store *sqlite.Store) (driven.VectorIndex, error) {
	if settings.Vector.Provider == "qdrant" {
		return qdrantindex.NewIndex(
			settings.Vector.Host,
			settings.Vector.Port,
			settings.Vector.Collection,
			settings.Embedding.Dimensions,
		)
	}
	return bruteforce.NewIndex(store), nil
}
