// Package ingest turns documents into indexed vector records.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/domain/chunk"
	"github.com/kailas-cloud/docrag/internal/domain/record"
	"github.com/kailas-cloud/docrag/internal/logger"
	"github.com/kailas-cloud/docrag/internal/metrics"
	"github.com/kailas-cloud/docrag/internal/repository/filestore"
)

// DefaultUpsertTimeout bounds the index write of one document.
const DefaultUpsertTimeout = 60 * time.Second

// Result summarizes one ingested document. Chunk text is not returned.
type Result struct {
	DocumentID      string
	Filename        string
	ChunkCount      int
	VectorsUpserted int
	Superseded      int
}

// Config tunes the pipeline.
type Config struct {
	ChunkChars int
	// SupersedePrevious deletes older records of the same filename after a successful upsert.
	SupersedePrevious bool
	UpsertTimeout     time.Duration
}

// Service runs the ingestion pipeline.
type Service struct {
	extractor Extractor
	embedder  domain.Embedder
	index     Index
	uploads   Uploads
	cfg       Config
}

// New creates an ingestion service. uploads may be nil when IngestUpload is not used.
func New(extractor Extractor, embedder domain.Embedder, index Index, uploads Uploads, cfg Config) *Service {
	if cfg.ChunkChars <= 0 {
		cfg.ChunkChars = domain.DefaultRetrievalConfig().IngestChunkChars
	}
	if cfg.UpsertTimeout <= 0 {
		cfg.UpsertTimeout = DefaultUpsertTimeout
	}
	return &Service{
		extractor: extractor,
		embedder:  embedder,
		index:     index,
		uploads:   uploads,
		cfg:       cfg,
	}
}

// Ingest extracts, chunks, embeds and indexes the document at path.
func (s *Service) Ingest(ctx context.Context, path string) (Result, error) {
	filename := filepath.Base(path)
	ctx, log := logger.With(ctx, zap.String("filename", filename))

	raw, err := s.extractor.Extract(ctx, path)
	if err != nil {
		return Result{}, fmt.Errorf("extract %s: %w", filename, err)
	}

	chunks := chunk.Chunks(raw, s.cfg.ChunkChars)
	if len(chunks) == 0 {
		return Result{}, fmt.Errorf("%s: %w", filename, domain.ErrEmptyContent)
	}

	emb, err := domain.EmbedBatch(ctx, s.embedder, chunks)
	if err != nil {
		return Result{}, fmt.Errorf("embed chunks: %w", err)
	}
	if len(emb.Embeddings) != len(chunks) {
		return Result{}, fmt.Errorf("embedding count %d does not match chunk count %d: %w",
			len(emb.Embeddings), len(chunks), domain.ErrConsistency)
	}

	docID := newDocumentID()
	log = log.With(zap.String("document_id", docID))
	records := make([]record.Record, len(chunks))
	for i, vec := range emb.Embeddings {
		records[i] = record.New(docID, filename, i, len(chunks), s.cfg.ChunkChars, vec)
	}

	upsertCtx, cancel := context.WithTimeout(ctx, s.cfg.UpsertTimeout)
	defer cancel()
	if err := s.index.Upsert(upsertCtx, records); err != nil {
		return Result{}, fmt.Errorf("upsert records: %w", err)
	}
	metrics.IngestChunks.Observe(float64(len(chunks)))

	res := Result{
		DocumentID:      docID,
		Filename:        filename,
		ChunkCount:      len(chunks),
		VectorsUpserted: len(records),
	}

	if s.cfg.SupersedePrevious {
		n, err := s.index.DeleteBySource(ctx, filename, docID)
		if err != nil {
			// The new records are already searchable; stale ones only duplicate hits.
			log.Warn("delete superseded records failed", zap.Error(err))
		}
		res.Superseded = n
	}

	log.Info("document ingested",
		zap.Int("chunk_count", res.ChunkCount),
		zap.Int("superseded", res.Superseded),
	)
	return res, nil
}

// IngestUpload stores the upload in the document root so that excerpts can be
// reconstructed later, then ingests it. A failed ingestion leaves the document
// root as it was before the upload.
func (s *Service) IngestUpload(ctx context.Context, u filestore.Upload) (Result, error) {
	if s.uploads == nil {
		return Result{}, fmt.Errorf("upload storage is not configured: %w", domain.ErrConfiguration)
	}
	var res Result
	_, err := s.uploads.Save(u, func(path string) error {
		var ierr error
		res, ierr = s.Ingest(ctx, path)
		return ierr
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// newDocumentID returns 32 lowercase hex characters.
func newDocumentID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
