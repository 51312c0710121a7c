// Package qdrantindex implements vector search against a Qdrant server
// over gRPC. It exists for deployments whose corpus outgrows the
// brute-force scan; the point ID is the chunk ID, and document metadata
// rides along as payload so filters run server-side.
package qdrantindex

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"

	"github.com/egregore-labs/manualdex/internal/core/domain"
	"github.com/egregore-labs/manualdex/internal/core/ports/driven"
	"github.com/egregore-labs/manualdex/internal/logger"
)

var _ driven.VectorIndex = (*Index)(nil)

// Index is a Qdrant-backed vector index.
type Index struct {
	client     *qdrant.Client
	collection string
}

// NewIndex connects to Qdrant, verifies it is reachable and ensures the
// collection exists with the given vector dimension.
func NewIndex(host string, port int, collection string, dimensions int) (*Index, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("creating qdrant client: %w", err)
	}

	idx := &Index{
		client:     client,
		collection: collection,
	}

	ctx := context.Background()
	if err := idx.healthCheckWithRetry(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("qdrant unreachable at %s:%d: %w", host, port, err)
	}

	if err := idx.ensureCollection(ctx, dimensions); err != nil {
		client.Close()
		return nil, err
	}

	return idx, nil
}

func (idx *Index) healthCheckWithRetry(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		result, err := idx.client.HealthCheck(ctx)
		if err != nil {
			logger.Debug("qdrant health check failed, retrying: %v", err)
			return err
		}
		if result == nil || result.Title == "" {
			return fmt.Errorf("health check returned empty response")
		}
		return nil
	}, backoff.WithContext(policy, ctx))
}

// ensureCollection creates the collection if missing. Safe to call on
// every startup.
func (idx *Index) ensureCollection(ctx context.Context, dimensions int) error {
	collections, err := idx.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}
	for _, name := range collections {
		if name == idx.collection {
			return nil
		}
	}

	err = idx.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: idx.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", idx.collection, err)
	}

	// Payload indexes keep metadata filters from scanning every point
	for _, field := range []string{"vendor", "family", "model"} {
		_, err := idx.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: idx.collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("creating payload index for %s: %w", field, err)
		}
	}

	return nil
}

// Add upserts one chunk embedding, keyed by chunk ID.
func (idx *Index) Add(ctx context.Context, record driven.VectorRecord) error {
	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDNum(uint64(record.ChunkID)),
		Vectors: qdrant.NewVectors(record.Embedding...),
		Payload: qdrant.NewValueMap(map[string]any{
			"doc_id": record.DocID,
			"vendor": record.Vendor,
			"family": record.Family,
			"model":  record.Model,
		}),
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 15 * time.Second

	err := backoff.Retry(func() error {
		_, err := idx.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: idx.collection,
			Points:         []*qdrant.PointStruct{point},
		})
		return err
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return fmt.Errorf("upserting chunk %d: %w", record.ChunkID, err)
	}
	return nil
}

// Delete removes a chunk's point. Deleting an absent point is not an
// error.
func (idx *Index) Delete(ctx context.Context, chunkID int64) error {
	_, err := idx.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: idx.collection,
		Points:         qdrant.NewPointsSelector(qdrant.NewIDNum(uint64(chunkID))),
	})
	if err != nil {
		return fmt.Errorf("deleting chunk %d: %w", chunkID, err)
	}
	return nil
}

// Search returns the k nearest chunks by cosine similarity.
func (idx *Index) Search(
	ctx context.Context, embedding []float32, filter domain.Filter, k int,
) ([]driven.VectorHit, error) {
	if len(embedding) == 0 || k <= 0 {
		return nil, nil
	}

	results, err := idx.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: idx.collection,
		Query:          qdrant.NewQuery(embedding...),
		Filter:         buildFilter(filter),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(false),
	})
	if err != nil {
		return nil, fmt.Errorf("querying qdrant: %w", err)
	}

	hits := make([]driven.VectorHit, 0, len(results))
	for _, point := range results {
		hits = append(hits, driven.VectorHit{
			ChunkID:    int64(point.GetId().GetNum()),
			Similarity: float64(point.GetScore()),
		})
	}
	return hits, nil
}

// Close closes the client connection.
func (idx *Index) Close() error {
	if idx.client != nil {
		return idx.client.Close()
	}
	return nil
}

// buildFilter renders a domain filter as Qdrant payload conditions.
// Each populated field becomes a must-match-any condition.
func buildFilter(filter domain.Filter) *qdrant.Filter {
	if filter.IsZero() {
		return nil
	}

	var must []*qdrant.Condition
	if len(filter.Vendors) > 0 {
		must = append(must, qdrant.NewMatchKeywords("vendor", filter.Vendors...))
	}
	if len(filter.Families) > 0 {
		must = append(must, qdrant.NewMatchKeywords("family", filter.Families...))
	}
	if len(filter.Models) > 0 {
		must = append(must, qdrant.NewMatchKeywords("model", filter.Models...))
	}

	return &qdrant.Filter{Must: must}
}
