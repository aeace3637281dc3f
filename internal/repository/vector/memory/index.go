// Package memory provides a brute-force in-process vector index for tests
// and local runs without a database.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/domain/record"
)

type entry struct {
	rec record.Record
	seq int
}

// Index keeps records in memory and ranks them by cosine similarity.
// Ties keep insertion order. Safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	dim     int
	records map[string]entry
	seq     int
}

// New creates an empty index. dim <= 0 accepts any vector length.
func New(dim int) *Index {
	return &Index{dim: dim, records: make(map[string]entry)}
}

// EnsureIndex is a no-op.
func (x *Index) EnsureIndex(context.Context) error { return nil }

// Upsert stores records. An existing id is overwritten in place and keeps its position.
func (x *Index) Upsert(_ context.Context, records []record.Record) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for i := range records {
		if x.dim > 0 && len(records[i].Vector) != x.dim {
			return fmt.Errorf("record %s has %d dimensions, index expects %d: %w",
				records[i].ID, len(records[i].Vector), x.dim, domain.ErrConsistency)
		}
	}
	for _, r := range records {
		e, ok := x.records[r.ID]
		if !ok {
			e.seq = x.seq
			x.seq++
		}
		e.rec = r
		x.records[r.ID] = e
	}
	return nil
}

// Query returns up to topK records ordered by descending similarity.
func (x *Index) Query(_ context.Context, vector []float32, topK int) ([]record.Match, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	type scored struct {
		e     entry
		score float64
	}
	all := make([]scored, 0, len(x.records))
	for _, e := range x.records {
		all = append(all, scored{e: e, score: cosine(vector, e.rec.Vector)})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].e.seq < all[j].e.seq
	})

	if topK < len(all) {
		all = all[:max(topK, 0)]
	}
	out := make([]record.Match, len(all))
	for i, s := range all {
		out[i] = record.Match{ID: s.e.rec.ID, Score: s.score, Metadata: s.e.rec.Metadata}
	}
	return out, nil
}

// DeleteBySource removes records of filename that belong to another document.
func (x *Index) DeleteBySource(_ context.Context, filename, keepDocumentID string) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	n := 0
	for id, e := range x.records {
		m := e.rec.Metadata
		if m.SourceFilename == filename && m.DocumentID != keepDocumentID {
			delete(x.records, id)
			n++
		}
	}
	return n, nil
}

// Count returns the number of stored records.
func (x *Index) Count(context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.records), nil
}

// cosine returns the similarity clamped to [0, 1], matching the database score.
func cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := range n {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		na += float64(v) * float64(v)
	}
	for _, v := range b {
		nb += float64(v) * float64(v)
	}
	if na == 0 || nb == 0 {
		return 0
	}
	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(0, math.Min(1, s))
}
