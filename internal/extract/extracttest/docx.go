// Package extracttest builds DOCX fixtures for tests.
package extracttest

import (
	"archive/zip"
	"encoding/xml"
	"os"
	"strings"
	"testing"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

// Document describes the content of a fixture.
type Document struct {
	Paragraphs []string
	// Table rows, each a list of cell texts.
	Table [][]string
}

// WriteDOCX writes a minimal DOCX file with one paragraph per element of paragraphs.
func WriteDOCX(t testing.TB, path string, paragraphs ...string) {
	t.Helper()
	Write(t, path, Document{Paragraphs: paragraphs})
}

// Write writes doc as a minimal DOCX file at path.
func Write(t testing.TB, path string, doc Document) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	writePart(t, zw, "[Content_Types].xml", contentTypes)
	writePart(t, zw, "word/document.xml", DocumentXML(doc))
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
}

// DocumentXML renders the word/document.xml part for doc.
func DocumentXML(doc Document) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range doc.Paragraphs {
		writeParagraph(&b, p)
	}
	if len(doc.Table) > 0 {
		b.WriteString("<w:tbl>")
		for _, row := range doc.Table {
			b.WriteString("<w:tr>")
			for _, cell := range row {
				b.WriteString("<w:tc>")
				writeParagraph(&b, cell)
				b.WriteString("</w:tc>")
			}
			b.WriteString("</w:tr>")
		}
		b.WriteString("</w:tbl>")
	}
	b.WriteString("</w:body></w:document>")
	return b.String()
}

func writeParagraph(b *strings.Builder, text string) {
	b.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
	_ = xml.EscapeText(b, []byte(text))
	b.WriteString("</w:t></w:r></w:p>")
}

func writePart(t testing.TB, zw *zip.Writer, name, content string) {
	t.Helper()
	w, err := zw.Create(name)
	if err != nil {
		t.Fatalf("create part %s: %v", name, err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("write part %s: %v", name, err)
	}
}
