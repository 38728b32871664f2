package vector

import (
	"context"
	"fmt"

	"github.com/MohitNilvarn/TAP/internal/ai"
)

// Task types passed through to the embedding provider. Documents and
// queries are embedded asymmetrically so retrieval quality holds up.
const (
	TaskTypeDocument = "RETRIEVAL_DOCUMENT"
	TaskTypeQuery    = "RETRIEVAL_QUERY"
)

const DefaultEmbedBatchSize = 32

// Embedder turns text into vectors in document batches or single
// queries. Output order always matches input order.
type Embedder struct {
	inner     ai.IEmbedder
	batchSize int
}

func NewEmbedder(inner ai.IEmbedder, batchSize int) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatchSize
	}
	return &Embedder{inner: inner, batchSize: batchSize}
}

func (e *Embedder) ModelName() string {
	return e.inner.ModelName()
}

// EmbedDocuments embeds every text with the document task type. An empty
// input yields an empty result without touching the provider.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := e.inner.EmbedBatch(ctx, texts[start:end], TaskTypeDocument)
		if err != nil {
			return nil, fmt.Errorf("embed documents %d..%d: %w", start, end-1, err)
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("embed documents %d..%d: got %d vectors for %d texts",
				start, end-1, len(vectors), end-start)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	values, err := e.inner.Embed(ctx, text, TaskTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return values, nil
}
