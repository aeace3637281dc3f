package vector

import (
	"github.com/kailas-cloud/docrag/internal/db"
	"github.com/kailas-cloud/docrag/internal/domain/record"
)

// metadataFields are returned with every KNN hit.
var metadataFields = []string{
	record.FieldDocumentID,
	record.FieldChunkIndex,
	record.FieldChunkCount,
	record.FieldSourceFilename,
	record.FieldChunkChars,
}

// buildHashFields converts a record into a flat map for HSET.
func buildHashFields(rec *record.Record) map[string]string {
	m := rec.Metadata.Fields()
	m[record.FieldVector] = string(db.EncodeVector(rec.Vector))
	return m
}

// parseMatch converts a KNN entry back into a match.
func parseMatch(id string, e db.SearchEntry) (record.Match, error) {
	meta, err := record.MetadataFromFields(e.Fields)
	if err != nil {
		return record.Match{}, err
	}
	return record.Match{ID: id, Score: e.Score, Metadata: meta}, nil
}
