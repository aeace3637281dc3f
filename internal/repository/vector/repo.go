// Package vector stores chunk vectors in a Valkey/Redis FT index and runs
// nearest-neighbor queries against it.
package vector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/docrag/internal/db"
	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/domain/record"
)

// deleteBatch bounds the number of records looked up or deleted per round-trip.
const deleteBatch = 500

// store is the consumer interface for the vector index (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, keys ...string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchTag(ctx context.Context, q *db.TagQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Config names the index and fixes its vector geometry.
type Config struct {
	KeyPrefix          string // e.g. "docrag:"
	IndexName          string // e.g. "chunks"
	Dimensions         int
	HNSWM              int
	HNSWEFConstruction int
}

// Repo implements the vector index over a db.Store.
type Repo struct {
	store store
	cfg   Config
}

// New creates a vector repository. Missing index name or dimensions is a configuration error.
func New(s store, cfg Config) (*Repo, error) {
	if strings.TrimSpace(cfg.IndexName) == "" {
		return nil, fmt.Errorf("vector index name is required: %w", domain.ErrConfiguration)
	}
	if !db.IsValidIdentifier(cfg.KeyPrefix+cfg.IndexName) {
		return nil, fmt.Errorf("vector index name %q contains invalid characters: %w",
			cfg.KeyPrefix+cfg.IndexName, domain.ErrConfiguration)
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("vector dimensions must be positive: %w", domain.ErrConfiguration)
	}
	return &Repo{store: s, cfg: cfg}, nil
}

// EnsureIndex creates the FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName())
	if err != nil {
		return fmt.Errorf("check index %s: %w: %w", r.indexName(), domain.ErrVectorIndex, err)
	}
	if exists {
		return nil
	}

	def, err := buildIndex(r.indexName(), r.keyPrefix(), r.cfg)
	if err != nil {
		return fmt.Errorf("build index definition: %w: %w", domain.ErrConfiguration, err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w: %w", r.indexName(), domain.ErrVectorIndex, err)
	}
	return nil
}

// Upsert writes records in one pipelined round-trip. Last write wins per id.
// An empty batch is a no-op.
func (r *Repo) Upsert(ctx context.Context, records []record.Record) error {
	if len(records) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(records))
	for i := range records {
		rec := &records[i]
		if len(rec.Vector) != r.cfg.Dimensions {
			return fmt.Errorf("record %s has %d dimensions, index expects %d: %w",
				rec.ID, len(rec.Vector), r.cfg.Dimensions, domain.ErrConsistency)
		}
		items[i] = db.HashSetItem{Key: r.recordKey(rec.ID), Fields: buildHashFields(rec)}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d records: %w: %w", len(records), domain.ErrVectorIndex, err)
	}
	return nil
}

// Query returns up to topK nearest records, best first, with metadata.
func (r *Repo) Query(ctx context.Context, vector []float32, topK int) ([]record.Match, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName(),
		VectorField:  record.FieldVector,
		Vector:       vector,
		K:            topK,
		ReturnFields: metadataFields,
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w: %w", r.indexName(), domain.ErrVectorIndex, err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	matches := make([]record.Match, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		m, err := parseMatch(r.recordID(e.Key), e)
		if err != nil {
			return nil, fmt.Errorf("decode match %s: %w: %w", e.Key, domain.ErrVectorIndex, err)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// DeleteBySource removes every record of filename whose document id differs from keepDocumentID.
// Records are looked up through the source_filename TAG, so the cost follows the number of matches.
// Returns the number of deleted records.
func (r *Repo) DeleteBySource(ctx context.Context, filename, keepDocumentID string) (int, error) {
	var stale []string
	for offset := 0; ; offset += deleteBatch {
		res, err := r.store.SearchTag(ctx, &db.TagQuery{
			IndexName:    r.indexName(),
			Field:        record.FieldSourceFilename,
			Value:        filename,
			ReturnFields: []string{record.FieldDocumentID},
			Offset:       offset,
			Limit:        deleteBatch,
		})
		if err != nil {
			return 0, fmt.Errorf("find records of %q: %w: %w", filename, domain.ErrVectorIndex, err)
		}
		for _, e := range res.Entries {
			if e.Fields[record.FieldDocumentID] != keepDocumentID {
				stale = append(stale, e.Key)
			}
		}
		if len(res.Entries) < deleteBatch || offset+deleteBatch >= res.Total {
			break
		}
	}

	deleted := 0
	for start := 0; start < len(stale); start += deleteBatch {
		batch := stale[start:min(start+deleteBatch, len(stale))]
		if err := r.store.Del(ctx, batch...); err != nil {
			return deleted, fmt.Errorf("delete %d records: %w: %w", len(batch), domain.ErrVectorIndex, err)
		}
		deleted += len(batch)
	}
	return deleted, nil
}

// Count returns the number of stored records.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName(), "*")
	if err != nil {
		return 0, fmt.Errorf("count %s: %w: %w", r.indexName(), domain.ErrVectorIndex, err)
	}
	return n, nil
}

func (r *Repo) keyPrefix() string {
	return r.cfg.KeyPrefix + r.cfg.IndexName + ":"
}

func (r *Repo) indexName() string {
	return r.keyPrefix() + "idx"
}

func (r *Repo) recordKey(id string) string {
	return r.keyPrefix() + id
}

func (r *Repo) recordID(key string) string {
	return strings.TrimPrefix(key, r.keyPrefix())
}
