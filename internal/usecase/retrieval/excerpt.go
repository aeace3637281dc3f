package retrieval

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/domain/chunk"
	"github.com/kailas-cloud/docrag/internal/domain/record"
	"github.com/kailas-cloud/docrag/internal/extract"
)

// unknownSource names matches stored without a filename.
const unknownSource = "unknown"

type chunkKey struct {
	filename string
	budget   int
}

// excerpts rebuilds chunk text from live source files. Each file is extracted
// once and chunked once per budget. Not safe for concurrent use; one per request.
type excerpts struct {
	root      string
	extractor Extractor
	texts     map[string]string
	chunks    map[chunkKey][]string
}

func newExcerpts(root string, ex Extractor) *excerpts {
	return &excerpts{
		root:      root,
		extractor: ex,
		texts:     make(map[string]string),
		chunks:    make(map[chunkKey][]string),
	}
}

// cite pairs a match with its excerpt. A zero ChunkChars in the match falls back to fallbackBudget.
func (e *excerpts) cite(ctx context.Context, m record.Match, fallbackBudget int) (record.Citation, error) {
	filename := m.Metadata.SourceFilename
	if filename == "" {
		filename = unknownSource
	}
	budget := m.Metadata.ChunkChars
	if budget <= 0 {
		budget = fallbackBudget
	}

	chunks, err := e.load(ctx, filename, budget)
	if err != nil {
		return record.Citation{}, err
	}
	idx := m.Metadata.ChunkIndex
	if idx < 0 || idx >= len(chunks) {
		return record.Citation{}, fmt.Errorf("%s chunk %d of %d: %w", filename, idx, len(chunks), domain.ErrChunkOutOfRange)
	}

	return record.Citation{
		ID:         m.ID,
		Score:      m.Score,
		Source:     filename,
		ChunkIndex: idx,
		Excerpt:    chunks[idx],
	}, nil
}

func (e *excerpts) load(ctx context.Context, filename string, budget int) ([]string, error) {
	key := chunkKey{filename: filename, budget: budget}
	if c, ok := e.chunks[key]; ok {
		return c, nil
	}

	raw, err := e.text(ctx, filename)
	if err != nil {
		return nil, err
	}
	c := chunk.Chunks(raw, budget)
	e.chunks[key] = c
	return c, nil
}

func (e *excerpts) text(ctx context.Context, filename string) (string, error) {
	if t, ok := e.texts[filename]; ok {
		return t, nil
	}
	if e.root == "" {
		return "", fmt.Errorf("document root is required to load source excerpts: %w", domain.ErrConfiguration)
	}
	path := filepath.Join(e.root, filepath.Base(filename))
	if !extract.Exists(path) {
		return "", fmt.Errorf("%s: %w", path, domain.ErrSourceNotFound)
	}

	raw, err := e.extractor.Extract(ctx, path)
	if err != nil {
		return "", fmt.Errorf("extract source %s: %w", filename, err)
	}
	e.texts[filename] = raw
	return raw, nil
}
