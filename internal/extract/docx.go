// Package extract turns office documents into plain paragraph-ordered text.
package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/docrag/internal/domain"
)

// Extension is the only file extension accepted by DOCX.
const Extension = ".docx"

const documentPart = "word/document.xml"

// DOCX extracts text from WordprocessingML documents.
// Body paragraphs come first, followed by the paragraphs of every table cell;
// empty paragraphs are skipped and the rest are joined with newlines.
type DOCX struct{}

// NewDOCX creates a DOCX extractor.
func NewDOCX() *DOCX {
	return &DOCX{}
}

// Extract reads the file at path. All failures wrap domain.ErrExtraction.
func (d *DOCX) Extract(_ context.Context, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("file path is required: %w", domain.ErrExtraction)
	}
	if !strings.EqualFold(filepath.Ext(path), Extension) {
		return "", fmt.Errorf("unsupported file type %q, only %s is supported: %w",
			filepath.Ext(path), Extension, domain.ErrExtraction)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("file not found: %w", domain.ErrExtraction)
		}
		return "", fmt.Errorf("invalid or corrupted DOCX file: %w", domain.ErrExtraction)
	}
	defer zr.Close()

	return extractText(&zr.Reader)
}

// Exists reports whether path names a regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func extractText(zr *zip.Reader) (string, error) {
	for _, f := range zr.File {
		if f.Name != documentPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: invalid or corrupted DOCX file: %w", documentPart, domain.ErrExtraction)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("read %s: invalid or corrupted DOCX file: %w", documentPart, domain.ErrExtraction)
		}
		return parseDocument(data)
	}
	return "", fmt.Errorf("missing %s: invalid or corrupted DOCX file: %w", documentPart, domain.ErrExtraction)
}

type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
		Tables     []table     `xml:"tbl"`
	} `xml:"body"`
}

type table struct {
	Rows []struct {
		Cells []struct {
			Paragraphs []paragraph `xml:"p"`
		} `xml:"tc"`
	} `xml:"tr"`
}

// paragraph collects the visible text of a w:p element: w:t text, w:tab as a
// tab and w:br/w:cr as line breaks, including runs nested in hyperlinks.
type paragraph struct {
	text string
}

func (p *paragraph) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	inText := false
	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return fmt.Errorf("decode paragraph: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			depth--
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	p.text = b.String()
	return nil
}

func parseDocument(data []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parse %s: invalid or corrupted DOCX file: %w", documentPart, domain.ErrExtraction)
	}

	var parts []string
	add := func(p paragraph) {
		if text := strings.TrimSpace(p.text); text != "" {
			parts = append(parts, text)
		}
	}

	for _, p := range doc.Body.Paragraphs {
		add(p)
	}
	for _, tbl := range doc.Body.Tables {
		for _, row := range tbl.Rows {
			for _, cell := range row.Cells {
				for _, p := range cell.Paragraphs {
					add(p)
				}
			}
		}
	}

	return strings.Join(parts, "\n"), nil
}
