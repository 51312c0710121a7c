package driven

import "context"

// EmbeddingService generates fixed-dimension vector embeddings from text.
// The engine depends only on this capability, not on any provider.
//
// Calls may block on network I/O and must honour context cancellation;
// a timed-out call is treated as an embedding failure, not a fatal error.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 384, 768).
	// Stored chunk embeddings always have exactly this dimension.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the provider is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
