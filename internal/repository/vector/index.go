package vector

import (
	"github.com/kailas-cloud/docrag/internal/db"
	"github.com/kailas-cloud/docrag/internal/domain/record"
)

// filenameTagSeparator is not allowed in Windows file names, so a whole
// filename stays one tag.
const filenameTagSeparator = "|"

// buildIndex describes the chunk schema: two TAG fields for ownership,
// three NUMERIC fields for position and an HNSW cosine vector.
func buildIndex(name, prefix string, cfg Config) (*db.IndexDefinition, error) {
	return db.NewIndex(name).
		Prefix(prefix).
		Tag(record.FieldDocumentID, "", false).
		Tag(record.FieldSourceFilename, filenameTagSeparator, true).
		Numeric(record.FieldChunkIndex).
		Numeric(record.FieldChunkCount).
		Numeric(record.FieldChunkChars).
		VectorHNSW(record.FieldVector, cfg.Dimensions, db.DistanceCosine, cfg.HNSWM, cfg.HNSWEFConstruction).
		Build()
}
