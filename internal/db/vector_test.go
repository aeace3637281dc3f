package db

import (
	"slices"
	"testing"
)

func TestEncodeVector_LittleEndianFloat32(t *testing.T) {
	b := EncodeVector([]float32{1.0})
	if string(b) != "\x00\x00\x80\x3f" {
		t.Fatalf("unexpected encoding %q", b)
	}
	if len(EncodeVector(nil)) != 0 {
		t.Fatal("empty vector must encode to zero bytes")
	}
}

func TestDecodeVector(t *testing.T) {
	want := []float32{0.25, -1.5, 3}
	got, err := DecodeVector(EncodeVector(want))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	if _, err := DecodeVector([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for truncated data")
	}
}
