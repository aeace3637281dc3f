// Package app assembles the docrag component graph from configuration.
// It is the composition root shared by the API server and the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docrag/internal/config"
	"github.com/kailas-cloud/docrag/internal/db/valkey"
	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/extract"
	"github.com/kailas-cloud/docrag/internal/metrics"
	"github.com/kailas-cloud/docrag/internal/repository/embcache"
	"github.com/kailas-cloud/docrag/internal/repository/filestore"
	"github.com/kailas-cloud/docrag/internal/repository/vector"
	openaiTransport "github.com/kailas-cloud/docrag/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/docrag/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/docrag/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/docrag/internal/usecase/ingest"
	retrievaluc "github.com/kailas-cloud/docrag/internal/usecase/retrieval"
	rewriteuc "github.com/kailas-cloud/docrag/internal/usecase/rewrite"
)

// embeddingCacheNamespace is appended to the vector key prefix for cached embeddings.
const embeddingCacheNamespace = "emb_cache:"

// App holds the wired services.
type App struct {
	Store     *valkey.Store
	Index     *vector.Repo
	Uploads   *filestore.Store
	Generator *openaiTransport.Generator
	Ingest    *ingestuc.Service
	Retrieval *retrievaluc.Service
	Rewrite   *rewriteuc.Service
	Health    *healthuc.Service
}

// New connects to the database, ensures the vector index and builds the services.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	store, err := valkey.NewStore(valkey.Config{
		Driver:   valkey.Driver(cfg.Database.Driver),
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}

	if err := store.WaitForReady(ctx, config.Seconds(cfg.Database.ReadinessTimeout)); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.String("driver", string(store.Driver())))

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	index, err := vector.New(store, vector.Config{
		KeyPrefix:          cfg.Vector.KeyPrefix,
		IndexName:          cfg.Vector.IndexName,
		Dimensions:         cfg.Vector.Dimensions,
		HNSWM:              cfg.Vector.HNSWM,
		HNSWEFConstruction: cfg.Vector.HNSWEFConstruct,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := index.EnsureIndex(ctx); err != nil {
		store.Close()
		return nil, err
	}

	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    config.Seconds(cfg.Embedding.TimeoutSec),
		Logger:     logger,
	})
	embedder := BuildEmbedder(base, store, cfg, logger)
	logger.Info("Embedder created",
		zap.String("model", base.Model()),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", cfg.Embedding.Cache.Enabled),
	)

	generator := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:      cfg.Generation.APIKey,
		BaseURL:     cfg.Generation.BaseURL,
		Model:       cfg.Generation.Model,
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: cfg.Generation.Temperature,
		Timeout:     config.Seconds(cfg.Generation.TimeoutSec),
		Logger:      logger,
	})
	if !generator.Configured() {
		logger.Warn("Generation API key is not set; Q&A, ask and rewrite will be unavailable")
	}

	uploads := filestore.New(cfg.Retrieval.DocRoot, cfg.Ingest.MaxUploadBytes)
	extractor := extract.NewDOCX()

	return &App{
		Store:     store,
		Index:     index,
		Uploads:   uploads,
		Generator: generator,
		Ingest: ingestuc.New(extractor, embedder, index, uploads, ingestuc.Config{
			ChunkChars:        cfg.Retrieval.IngestChunkChars,
			SupersedePrevious: cfg.Ingest.SupersedePrevious,
			UpsertTimeout:     config.Seconds(cfg.Vector.UpsertTimeoutSec),
		}),
		Retrieval: retrievaluc.New(extractor, embedder, index, generator, retrievaluc.Config{
			RetrievalConfig: RetrievalConfig(cfg),
			QueryTimeout:    config.Seconds(cfg.Vector.QueryTimeoutSec),
		}),
		Rewrite: rewriteuc.New(extractor, generator),
		Health:  healthuc.New(store, base, index, generator),
	}, nil
}

// Close releases the database connection.
func (a *App) Close() {
	a.Store.Close()
}

// RetrievalConfig maps the retrieval section onto the domain settings.
func RetrievalConfig(cfg *config.Config) domain.RetrievalConfig {
	return domain.RetrievalConfig{
		DocRoot:           cfg.Retrieval.DocRoot,
		MinRelevanceScore: cfg.Retrieval.MinRelevanceScore,
		IngestChunkChars:  cfg.Retrieval.IngestChunkChars,
		SearchChunkChars:  cfg.Retrieval.SearchChunkChars,
		QAChunkChars:      cfg.Retrieval.QAChunkChars,
		DefaultTopK:       cfg.Retrieval.DefaultTopK,
		MaxTopK:           cfg.Retrieval.MaxTopK,
	}
}

// KVStore is the key-value surface the embedding cache needs.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// BuildEmbedder assembles the decorator chain: provider -> Cached -> Instrumented.
// The cache layer is skipped when disabled or when kv is nil.
func BuildEmbedder(base domain.Embedder, kv KVStore, cfg *config.Config, logger *zap.Logger) domain.Embedder {
	embedder := base
	if cfg.Embedding.Cache.Enabled && kv != nil {
		embedder = embcache.New(base, kv, embcache.Config{
			KeyPrefix:  cfg.Vector.KeyPrefix + embeddingCacheNamespace,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			TTL:        config.Seconds(cfg.Embedding.Cache.TTLSec),
		}, metrics.EmbeddingCacheTotal, logger)
	}

	model := cfg.Embedding.Model
	if model == "" {
		model = openaiTransport.DefaultEmbeddingModel
	}
	return embeddinguc.NewInstrumentedEmbedder(embedder, "openai", model, logger)
}
