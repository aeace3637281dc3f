package filestore

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/docrag/internal/domain"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		upload  Upload
		want    string
		wantErr string
	}{
		{"docx", Upload{Filename: "contract.docx"}, "contract.docx", ""},
		{"uppercase", Upload{Filename: "Contract.DOCX"}, "Contract.DOCX", ""},
		{"path stripped", Upload{Filename: "../../etc/contract.docx"}, "contract.docx", ""},
		{"octet stream", Upload{Filename: "a.docx", ContentType: "application/octet-stream"}, "a.docx", ""},
		{"missing name", Upload{}, "", "Filename missing"},
		{"pdf", Upload{Filename: "a.pdf"}, "", "Unsupported file type"},
		{"text content type", Upload{Filename: "a.docx", ContentType: "text/plain"}, "", "Unsupported content type"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Validate(tc.upload)
			if tc.wantErr != "" {
				if !errors.Is(err, domain.ErrValidation) || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected validation error %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("name = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSave_WritesUnderRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "docs")
	s := New(root, 0)

	path, err := s.Save(Upload{Filename: "a.docx", Body: strings.NewReader("payload")}, nil)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if path != filepath.Join(root, "a.docx") {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "payload" {
		t.Errorf("stored content = %q, %v", data, err)
	}

	entries, _ := os.ReadDir(root)
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestSave_ReplacesExistingFile(t *testing.T) {
	root := t.TempDir()
	s := New(root, 0)
	writeFile(t, filepath.Join(root, "a.docx"), "v1")

	var seen string
	path, err := s.Save(Upload{Filename: "a.docx", Body: strings.NewReader("v2")}, func(p string) error {
		data, _ := os.ReadFile(p)
		seen = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if seen != "v2" {
		t.Errorf("apply saw %q, want the new upload", seen)
	}
	assertContent(t, path, "v2")
	assertOnlyEntries(t, root, "a.docx")
}

func TestSave_ApplyFailureRemovesNewFile(t *testing.T) {
	root := t.TempDir()
	s := New(root, 0)
	errIngest := errors.New("no text content")

	_, err := s.Save(Upload{Filename: "a.docx", Body: strings.NewReader("v1")}, func(string) error {
		return errIngest
	})
	if !errors.Is(err, errIngest) {
		t.Fatalf("expected apply error, got %v", err)
	}
	assertOnlyEntries(t, root)
}

func TestSave_ApplyFailureRestoresPreviousFile(t *testing.T) {
	root := t.TempDir()
	s := New(root, 0)
	writeFile(t, filepath.Join(root, "a.docx"), "v1")
	errIngest := errors.New("provider down")

	_, err := s.Save(Upload{Filename: "a.docx", Body: strings.NewReader("v2")}, func(string) error {
		return errIngest
	})
	if !errors.Is(err, errIngest) {
		t.Fatalf("expected apply error, got %v", err)
	}
	assertContent(t, filepath.Join(root, "a.docx"), "v1")
	assertOnlyEntries(t, root, "a.docx")
}

func TestSave_TooLarge(t *testing.T) {
	root := t.TempDir()
	s := New(root, 4)

	_, err := s.Save(Upload{Filename: "a.docx", Body: bytes.NewReader([]byte("12345"))}, nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Errorf("rejected upload must not be kept: %v", entries)
	}
}

func TestSave_NoRoot(t *testing.T) {
	_, err := New("", 0).Save(Upload{Filename: "a.docx", Body: strings.NewReader("x")}, nil)
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestSaveTemp_Cleanup(t *testing.T) {
	s := New("", 0)
	path, cleanup, err := s.SaveTemp(Upload{Filename: "a.docx", Body: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("save temp: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("temp file missing: %v", err)
	}
	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("temp file not removed: %v", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func assertContent(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil || string(data) != want {
		t.Errorf("%s = %q (%v), want %q", path, data, err, want)
	}
}

func assertOnlyEntries(t *testing.T, dir string, names ...string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Name())
	}
	if strings.Join(got, ",") != strings.Join(names, ",") {
		t.Errorf("entries = %v, want %v", got, names)
	}
}
