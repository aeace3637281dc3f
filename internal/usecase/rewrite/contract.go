package rewrite

import (
	"context"

	"github.com/kailas-cloud/docrag/internal/domain/answer"
)

// Extractor turns a document file into plain text.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Generator produces text from a single-turn prompt.
type Generator interface {
	Generate(ctx context.Context, p answer.Prompt) (answer.Generation, error)
}
