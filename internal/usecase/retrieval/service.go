// Package retrieval answers queries from the vector index with excerpts
// reconstructed from the source documents.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/domain/answer"
	"github.com/kailas-cloud/docrag/internal/domain/chunk"
	"github.com/kailas-cloud/docrag/internal/domain/record"
	"github.com/kailas-cloud/docrag/internal/logger"
	"github.com/kailas-cloud/docrag/internal/metrics"
)

// Input length bounds, in characters after whitespace normalization.
const (
	MinQueryChars    = 3
	MinQuestionChars = 5
	MaxInputChars    = 2000
)

// DefaultQueryTimeout bounds one index query.
const DefaultQueryTimeout = 15 * time.Second

// Config carries the retrieval settings and the index query timeout.
type Config struct {
	domain.RetrievalConfig
	QueryTimeout time.Duration
}

// Service runs semantic search and grounded question answering.
type Service struct {
	extractor Extractor
	embedder  domain.Embedder
	index     Index
	generator Generator
	cfg       Config
}

// New creates a retrieval service. Zero-valued settings take the defaults.
func New(extractor Extractor, embedder domain.Embedder, index Index, generator Generator, cfg Config) *Service {
	def := domain.DefaultRetrievalConfig()
	if cfg.SearchChunkChars <= 0 {
		cfg.SearchChunkChars = def.SearchChunkChars
	}
	if cfg.QAChunkChars <= 0 {
		cfg.QAChunkChars = def.QAChunkChars
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = def.DefaultTopK
	}
	if cfg.MaxTopK <= 0 {
		cfg.MaxTopK = def.MaxTopK
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultQueryTimeout
	}
	return &Service{
		extractor: extractor,
		embedder:  embedder,
		index:     index,
		generator: generator,
		cfg:       cfg,
	}
}

// Search returns the topK nearest chunks to query in index order,
// each with its excerpt rebuilt from the source document.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]record.Citation, error) {
	cleaned, err := sanitize("query", query, MinQueryChars,
		"Query too short; please provide a longer query.",
		"Query too long; please keep under 2000 characters.")
	if err != nil {
		return nil, err
	}

	matches, err := s.retrieve(ctx, cleaned, topK)
	if err != nil {
		return nil, err
	}

	ex := newExcerpts(s.cfg.DocRoot, s.extractor)
	results := make([]record.Citation, 0, len(matches))
	for _, m := range matches {
		c, err := ex.cite(ctx, m, s.cfg.SearchChunkChars)
		if err != nil {
			return nil, fmt.Errorf("reconstruct excerpt %s: %w", m.ID, err)
		}
		results = append(results, c)
	}

	logger.FromContext(ctx).Debug("search completed",
		zap.Int("top_k", topK), zap.Int("results", len(results)))
	return results, nil
}

// Answer generates an answer grounded in the retrieved sources. When nothing
// is retrieved or the best score is below the relevance threshold it returns
// answer.NoMatch without calling the generator. Generation failures are
// returned as errors wrapping domain.ErrGenerationUnconfigured or
// domain.ErrGenerationFailed.
func (s *Service) Answer(ctx context.Context, question string, topK int) (answer.Answer, error) {
	log := logger.FromContext(ctx)

	cleaned, err := sanitize("question", question, MinQuestionChars,
		"Question too short; need at least 5 characters.",
		"Question too long; keep under 2000 characters.")
	if err != nil {
		return answer.Answer{}, err
	}

	matches, err := s.retrieve(ctx, cleaned, topK)
	if err != nil {
		return answer.Answer{}, err
	}

	if len(matches) == 0 || matches[0].Score < s.cfg.MinRelevanceScore {
		top := 0.0
		if len(matches) > 0 {
			top = matches[0].Score
		}
		log.Debug("relevance gate rejected evidence",
			zap.Float64("top_score", top), zap.Float64("threshold", s.cfg.MinRelevanceScore))
		metrics.AnswerOutcomesTotal.WithLabelValues(string(answer.NoEvidence)).Inc()
		return answer.NoMatch(), nil
	}

	ex := newExcerpts(s.cfg.DocRoot, s.extractor)
	sources := make([]record.Citation, 0, len(matches))
	for _, m := range matches {
		c, err := ex.cite(ctx, m, s.cfg.QAChunkChars)
		if err != nil {
			return answer.Answer{}, fmt.Errorf("reconstruct excerpt %s: %w", m.ID, err)
		}
		sources = append(sources, c)
	}

	gen, err := s.generator.Generate(ctx, answer.Prompt{System: SystemPrompt, User: userPrompt(cleaned, sources)})
	if err != nil {
		metrics.AnswerOutcomesTotal.WithLabelValues(generationFailureLabel(err)).Inc()
		return answer.Answer{}, fmt.Errorf("generate answer: %w", err)
	}
	domain.UsageFromContext(ctx).AddGenerationTokens(gen.PromptTokens + gen.CompletionTokens)
	metrics.AnswerOutcomesTotal.WithLabelValues(string(answer.Grounded)).Inc()

	log.Debug("answer generated",
		zap.Float64("top_score", matches[0].Score), zap.Int("sources", len(sources)))
	return answer.Answer{Text: gen.Text, Outcome: answer.Grounded, Sources: sources}, nil
}

// retrieve embeds text and queries the index.
func (s *Service) retrieve(ctx context.Context, text string, topK int) ([]record.Match, error) {
	k, err := s.topK(topK)
	if err != nil {
		return nil, err
	}

	emb, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	qctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()
	matches, err := s.index.Query(qctx, emb.Embedding, k)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	return matches, nil
}

// topK applies the default for 0 and rejects values outside 1..MaxTopK.
func (s *Service) topK(k int) (int, error) {
	if k == 0 {
		return s.cfg.DefaultTopK, nil
	}
	if k < 1 || k > s.cfg.MaxTopK {
		return 0, domain.NewValidationError("top_k", fmt.Sprintf("must be between 1 and %d", s.cfg.MaxTopK))
	}
	return k, nil
}

// sanitize normalizes whitespace and checks the length bounds.
func sanitize(field, text string, minChars int, tooShort, tooLong string) (string, error) {
	cleaned := chunk.Normalize(text)
	n := utf8.RuneCountInString(cleaned)
	if n < minChars {
		return "", domain.NewValidationError(field, tooShort)
	}
	if n > MaxInputChars {
		return "", domain.NewValidationError(field, tooLong)
	}
	return cleaned, nil
}

func generationFailureLabel(err error) string {
	if errors.Is(err, domain.ErrGenerationUnconfigured) {
		return "generation_unconfigured"
	}
	return "generation_failed"
}
