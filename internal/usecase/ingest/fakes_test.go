package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/domain/record"
	"github.com/kailas-cloud/docrag/internal/repository/filestore"
)

type stubExtractor struct {
	texts map[string]string
	err   error
}

func (s *stubExtractor) Extract(_ context.Context, path string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	text, ok := s.texts[path]
	if !ok {
		return "", fmt.Errorf("file not found: %w", domain.ErrExtraction)
	}
	return text, nil
}

// stubEmbedder returns one deterministic vector per text, minus drop vectors.
type stubEmbedder struct {
	dim   int
	drop  int
	calls int
	err   error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := s.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: res.Embeddings[0]}, nil
}

func (s *stubEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	s.calls++
	if s.err != nil {
		return domain.BatchEmbeddingResult{}, s.err
	}
	out := make([][]float32, 0, len(texts))
	for i := range len(texts) - s.drop {
		v := make([]float32, s.dim)
		v[i%s.dim] = 1
		out = append(out, v)
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: len(texts)}, nil
}

type stubIndex struct {
	upserted  []record.Record
	upsertErr error
	deleted   []string
	deleteN   int
	deleteErr error
}

func (s *stubIndex) Upsert(_ context.Context, records []record.Record) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserted = append(s.upserted, records...)
	return nil
}

func (s *stubIndex) DeleteBySource(_ context.Context, filename, keep string) (int, error) {
	s.deleted = append(s.deleted, filename+"|"+keep)
	return s.deleteN, s.deleteErr
}

type stubUploads struct {
	path     string
	err      error
	got      filestore.Upload
	rejected bool
}

func (s *stubUploads) Save(u filestore.Upload, apply func(path string) error) (string, error) {
	s.got = u
	if s.err != nil {
		return "", s.err
	}
	if err := apply(s.path); err != nil {
		s.rejected = true
		return "", err
	}
	return s.path, nil
}

var errIndexDown = errors.New("index down")
