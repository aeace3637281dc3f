package record

import "testing"

func TestID(t *testing.T) {
	if got := ID("abc123", 7); got != "abc123-7" {
		t.Errorf("ID = %q, want abc123-7", got)
	}
}

func TestNew(t *testing.T) {
	r := New("doc", "contract.docx", 2, 5, 200, []float32{1})
	if r.ID != "doc-2" {
		t.Errorf("ID = %q", r.ID)
	}
	want := Metadata{DocumentID: "doc", ChunkIndex: 2, ChunkCount: 5, SourceFilename: "contract.docx", ChunkChars: 200}
	if r.Metadata != want {
		t.Errorf("metadata = %+v, want %+v", r.Metadata, want)
	}
}

func TestMetadata_FieldsRoundTrip(t *testing.T) {
	m := Metadata{DocumentID: "d", ChunkIndex: 3, ChunkCount: 9, SourceFilename: "a b.docx", ChunkChars: 800}
	got, err := MetadataFromFields(m.Fields())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != m {
		t.Errorf("got %+v, want %+v", got, m)
	}
}

func TestMetadataFromFields_MissingIndex(t *testing.T) {
	got, err := MetadataFromFields(map[string]string{FieldSourceFilename: "x.docx"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ChunkIndex != -1 {
		t.Errorf("ChunkIndex = %d, want -1", got.ChunkIndex)
	}
	if got.ChunkChars != 0 {
		t.Errorf("ChunkChars = %d, want 0", got.ChunkChars)
	}
}

func TestMetadataFromFields_FloatNumerics(t *testing.T) {
	got, err := MetadataFromFields(map[string]string{FieldChunkIndex: "4.0", FieldChunkCount: "10"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ChunkIndex != 4 || got.ChunkCount != 10 {
		t.Errorf("got %+v", got)
	}
}

func TestMetadataFromFields_Invalid(t *testing.T) {
	if _, err := MetadataFromFields(map[string]string{FieldChunkIndex: "abc"}); err == nil {
		t.Fatal("expected error for non-numeric chunk index")
	}
}
