package retrieval

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/domain/answer"
	"github.com/kailas-cloud/docrag/internal/domain/record"
	"github.com/kailas-cloud/docrag/internal/extract"
	"github.com/kailas-cloud/docrag/internal/extract/extracttest"
)

// countingExtractor reads real DOCX files and counts calls per path.
type countingExtractor struct {
	inner *extract.DOCX
	calls map[string]int
}

func newCountingExtractor() *countingExtractor {
	return &countingExtractor{inner: extract.NewDOCX(), calls: make(map[string]int)}
}

func (c *countingExtractor) Extract(ctx context.Context, path string) (string, error) {
	c.calls[path]++
	return c.inner.Extract(ctx, path)
}

type stubEmbedder struct {
	vector []float32
	err    error
	texts  []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	s.texts = append(s.texts, text)
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	return domain.EmbeddingResult{Embedding: s.vector, TotalTokens: 4}, nil
}

type stubIndex struct {
	matches []record.Match
	err     error
	gotK    int
}

func (s *stubIndex) Query(_ context.Context, _ []float32, topK int) ([]record.Match, error) {
	s.gotK = topK
	if s.err != nil {
		return nil, s.err
	}
	return s.matches[:min(topK, len(s.matches))], nil
}

type stubGenerator struct {
	text   string
	err    error
	calls  int
	prompt answer.Prompt
}

func (s *stubGenerator) Generate(_ context.Context, p answer.Prompt) (answer.Generation, error) {
	s.calls++
	s.prompt = p
	if s.err != nil {
		return answer.Generation{}, s.err
	}
	return answer.Generation{Text: s.text, PromptTokens: 20, CompletionTokens: 5}, nil
}

func match(filename string, idx, chunkChars int, score float64) record.Match {
	return record.Match{
		ID:    record.ID("doc", idx),
		Score: score,
		Metadata: record.Metadata{
			DocumentID:     "doc",
			ChunkIndex:     idx,
			ChunkCount:     10,
			SourceFilename: filename,
			ChunkChars:     chunkChars,
		},
	}
}

// docRoot creates a document root holding contract.docx.
func docRoot(t *testing.T, paragraphs ...string) string {
	t.Helper()
	root := t.TempDir()
	extracttest.WriteDOCX(t, filepath.Join(root, "contract.docx"), paragraphs...)
	return root
}
