package retrieval

import (
	"context"

	"github.com/kailas-cloud/docrag/internal/domain/answer"
	"github.com/kailas-cloud/docrag/internal/domain/record"
)

// Extractor turns a source document into plain text.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Index is the read side of the vector index.
type Index interface {
	Query(ctx context.Context, vector []float32, topK int) ([]record.Match, error)
}

// Generator produces grounded answer text.
type Generator interface {
	Generate(ctx context.Context, p answer.Prompt) (answer.Generation, error)
}
