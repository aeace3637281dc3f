// Package rewrite rewrites documents and answers general questions with the
// text generator, without retrieval.
package rewrite

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/domain/answer"
	"github.com/kailas-cloud/docrag/internal/domain/chunk"
	"github.com/kailas-cloud/docrag/internal/logger"
)

// Input limits, in characters.
const (
	MaxGoalsChars    = 500
	MaxNotesChars    = 1000
	MinQuestionChars = 5
	MaxQuestionChars = 2000
)

// Service wraps the generator with the rewrite and persona prompts.
type Service struct {
	extractor Extractor
	generator Generator
}

// New creates a rewrite service.
func New(extractor Extractor, generator Generator) *Service {
	return &Service{extractor: extractor, generator: generator}
}

// Rewrite returns text rewritten according to goals and notes.
func (s *Service) Rewrite(ctx context.Context, text string, goals []string, notes string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", domain.NewValidationError("text", "Document text is empty.")
	}
	cleanedGoals, err := cleanGoals(goals)
	if err != nil {
		return "", err
	}
	cleanedNotes := strings.TrimSpace(notes)
	if utf8.RuneCountInString(cleanedNotes) > MaxNotesChars {
		return "", domain.NewValidationError("notes", "Notes too long; please keep under 1000 characters.")
	}

	gen, err := s.generate(ctx, RewritePrompt, rewriteUserPrompt(text, cleanedGoals, cleanedNotes))
	if err != nil {
		return "", fmt.Errorf("rewrite: %w", err)
	}
	logger.FromContext(ctx).Debug("document rewritten",
		zap.Int("input_chars", len(text)), zap.Int("output_chars", len(gen.Text)))
	return gen.Text, nil
}

// RewriteFile extracts the document at path and rewrites its text.
func (s *Service) RewriteFile(ctx context.Context, path string, goals []string, notes string) (string, error) {
	text, err := s.extractor.Extract(ctx, path)
	if err != nil {
		return "", fmt.Errorf("extract document: %w", err)
	}
	return s.Rewrite(ctx, text, goals, notes)
}

// Ask answers a general question with the persona prompt.
func (s *Service) Ask(ctx context.Context, question string) (string, error) {
	cleaned := chunk.Normalize(question)
	n := utf8.RuneCountInString(cleaned)
	if n < MinQuestionChars {
		return "", domain.NewValidationError("question", "Question too short; need at least 5 characters.")
	}
	if n > MaxQuestionChars {
		return "", domain.NewValidationError("question", "Question too long; keep under 2000 characters.")
	}

	gen, err := s.generate(ctx, PersonaPrompt, askUserPrompt(cleaned))
	if err != nil {
		return "", fmt.Errorf("ask: %w", err)
	}
	return gen.Text, nil
}

func (s *Service) generate(ctx context.Context, system, user string) (answer.Generation, error) {
	gen, err := s.generator.Generate(ctx, answer.Prompt{System: system, User: user})
	if err != nil {
		return answer.Generation{}, err //nolint:wrapcheck // callers add the operation
	}
	domain.UsageFromContext(ctx).AddGenerationTokens(gen.PromptTokens + gen.CompletionTokens)
	return gen, nil
}

// cleanGoals drops blank goals and enforces the total length limit.
func cleanGoals(goals []string) ([]string, error) {
	var cleaned []string
	total := 0
	for _, g := range goals {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		cleaned = append(cleaned, g)
		total += utf8.RuneCountInString(g)
	}
	if total > MaxGoalsChars {
		return nil, domain.NewValidationError("goals", "Goals too long; please keep under 500 characters total.")
	}
	return cleaned, nil
}
