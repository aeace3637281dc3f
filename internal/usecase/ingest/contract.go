package ingest

import (
	"context"

	"github.com/kailas-cloud/docrag/internal/domain/record"
	"github.com/kailas-cloud/docrag/internal/repository/filestore"
)

// Extractor turns a document file into plain text.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Index is the write side of the vector index.
type Index interface {
	Upsert(ctx context.Context, records []record.Record) error
	DeleteBySource(ctx context.Context, filename, keepDocumentID string) (int, error)
}

// Uploads persists client uploads into the document root. The upload is kept
// only if apply succeeds on the stored path.
type Uploads interface {
	Save(u filestore.Upload, apply func(path string) error) (string, error)
}
