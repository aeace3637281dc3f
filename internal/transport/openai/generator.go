package openai

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/domain/answer"
	"github.com/kailas-cloud/docrag/internal/metrics"
)

// Defaults of the chat completion provider.
const (
	DefaultChatModel         = "gpt-4o-mini"
	DefaultMaxTokens         = 350
	DefaultTemperature       = 0.3
	DefaultGenerationTimeout = 15 * time.Second
)

// GeneratorConfig holds the text generation settings.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature *float32 // nil means DefaultTemperature; 0 is honored
	Timeout     time.Duration
	Logger      *zap.Logger
}

// Generator produces text with an OpenAI-compatible chat completions API.
type Generator struct {
	client      *openai.Client
	apiKey      string
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
}

// NewGenerator creates a chat completion generator. Zero-valued settings take the defaults,
// except Temperature, which only defaults when nil.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultChatModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := float32(DefaultTemperature)
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = baseURL

	return &Generator{
		client:      openai.NewClientWithConfig(clientCfg),
		apiKey:      cfg.APIKey,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
		logger:      log,
	}
}

// Configured reports whether a credential is set.
func (g *Generator) Configured() bool { return g.apiKey != "" }

// Generate runs a single-turn completion.
// Returns domain.ErrGenerationUnconfigured without a credential and
// domain.ErrGenerationFailed for any provider failure or empty reply.
func (g *Generator) Generate(ctx context.Context, p answer.Prompt) (answer.Generation, error) {
	if g.apiKey == "" {
		return answer.Generation{}, fmt.Errorf("generation API key is not set: %w", domain.ErrGenerationUnconfigured)
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if p.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: p.User})

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		MaxTokens:   g.maxTokens,
		Temperature: wireTemperature(g.temperature),
	})
	metrics.GenerationRequestDuration.WithLabelValues(g.model).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.model, "error").Inc()
		g.logger.Warn("generation request failed", zap.String("model", g.model), zap.Error(err))
		return answer.Generation{}, wrapAPIError("generation", err, domain.ErrGenerationFailed)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		metrics.GenerationRequestsTotal.WithLabelValues(g.model, "error").Inc()
		return answer.Generation{}, fmt.Errorf("empty completion: %w", domain.ErrGenerationFailed)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.model, "success").Inc()
	metrics.GenerationTokensTotal.WithLabelValues(g.model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.GenerationTokensTotal.WithLabelValues(g.model, "completion").Add(float64(resp.Usage.CompletionTokens))

	return answer.Generation{
		Text:             strings.TrimSpace(resp.Choices[0].Message.Content),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// wireTemperature maps 0 to the smallest positive float32. The request field is
// omitempty, and an omitted temperature makes the provider fall back to 1.0.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}
