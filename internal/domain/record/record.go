// Package record defines vector records, query matches and source citations.
package record

import (
	"fmt"
	"strconv"
)

// Metadata is stored alongside every vector and returned with every match.
type Metadata struct {
	DocumentID     string
	ChunkIndex     int
	ChunkCount     int
	SourceFilename string
	// ChunkChars is the budget that produced ChunkIndex. Zero on records
	// written before the budget was recorded.
	ChunkChars int
}

// Record is one embedded chunk of a document.
type Record struct {
	ID       string
	Vector   []float32
	Metadata Metadata
}

// Match is a single nearest-neighbor hit.
type Match struct {
	ID       string
	Score    float64
	Metadata Metadata
}

// Citation is a match paired with its excerpt reconstructed from the live source file.
type Citation struct {
	ID         string
	Score      float64
	Source     string
	ChunkIndex int
	Excerpt    string
}

// ID returns the record id of a document chunk: "{documentID}-{chunkIndex}".
func ID(documentID string, chunkIndex int) string {
	return documentID + "-" + strconv.Itoa(chunkIndex)
}

// New builds the record for chunk i of a document with total chunks.
func New(documentID, filename string, i, total, chunkChars int, vector []float32) Record {
	return Record{
		ID:     ID(documentID, i),
		Vector: vector,
		Metadata: Metadata{
			DocumentID:     documentID,
			ChunkIndex:     i,
			ChunkCount:     total,
			SourceFilename: filename,
			ChunkChars:     chunkChars,
		},
	}
}

// Hash field names used to persist metadata.
const (
	FieldDocumentID     = "doc_id"
	FieldChunkIndex     = "chunk_index"
	FieldChunkCount     = "chunk_count"
	FieldSourceFilename = "source_filename"
	FieldChunkChars     = "chunk_chars"
	FieldVector         = "vector"
)

// Fields encodes metadata as flat string fields.
func (m Metadata) Fields() map[string]string {
	return map[string]string{
		FieldDocumentID:     m.DocumentID,
		FieldChunkIndex:     strconv.Itoa(m.ChunkIndex),
		FieldChunkCount:     strconv.Itoa(m.ChunkCount),
		FieldSourceFilename: m.SourceFilename,
		FieldChunkChars:     strconv.Itoa(m.ChunkChars),
	}
}

// MetadataFromFields decodes flat string fields. A missing chunk index decodes
// as -1 so that reconstruction rejects it as out of range.
func MetadataFromFields(f map[string]string) (Metadata, error) {
	m := Metadata{
		DocumentID:     f[FieldDocumentID],
		SourceFilename: f[FieldSourceFilename],
		ChunkIndex:     -1,
	}
	var err error
	if v, ok := f[FieldChunkIndex]; ok {
		if m.ChunkIndex, err = parseInt(v); err != nil {
			return Metadata{}, fmt.Errorf("%s: %w", FieldChunkIndex, err)
		}
	}
	if v, ok := f[FieldChunkCount]; ok {
		if m.ChunkCount, err = parseInt(v); err != nil {
			return Metadata{}, fmt.Errorf("%s: %w", FieldChunkCount, err)
		}
	}
	if v, ok := f[FieldChunkChars]; ok {
		if m.ChunkChars, err = parseInt(v); err != nil {
			return Metadata{}, fmt.Errorf("%s: %w", FieldChunkChars, err)
		}
	}
	return m, nil
}

// parseInt accepts integers and integral floats ("3", "3.0"): numeric fields
// can come back from the index in either form.
func parseInt(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	return int(f), nil
}
