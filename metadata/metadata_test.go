package metadata

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractMetadata(t *testing.T) {
	cases := []string{
		"image/jpeg",
		"application/pdf",
		docxMIME,
		"unknown",
	}
	for _, mime := range cases {
		meta := ExtractMetadata("", mime, 1024)
		if meta == nil {
			t.Fatalf("metadata map nil for %s", mime)
		}
	}
}

func writeDOCX(t *testing.T, core string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("docProps/core.xml")
	if err != nil {
		t.Fatalf("entry: %v", err)
	}
	if _, err := w.Write([]byte(core)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return path
}

func TestExtractDOCXMetadata(t *testing.T) {
	path := writeDOCX(t, `<?xml version="1.0"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title>Layer notes</dc:title>
<dc:description>HINT: the answer is "orbit"</dc:description>
</cp:coreProperties>`)

	meta := ExtractMetadata(path, docxMIME, 0)
	if meta["title"] != "Layer notes" {
		t.Fatalf("unexpected metadata: %v", meta)
	}
	text := Text(meta)
	if !strings.Contains(text, `description: HINT: the answer is "orbit"`) {
		t.Fatalf("unexpected text: %q", text)
	}
	if strings.Index(text, "description") > strings.Index(text, "title") {
		t.Fatalf("fields not sorted: %q", text)
	}
}

func TestExtractDOCXMetadataRespectsLimit(t *testing.T) {
	path := writeDOCX(t, `<coreProperties><title>`+strings.Repeat("x", 2048)+`</title></coreProperties>`)
	if meta := ExtractMetadata(path, docxMIME, 128); len(meta) != 0 {
		t.Fatalf("expected oversized core.xml to be skipped: %v", meta)
	}
}

func TestTextSkipsNonStrings(t *testing.T) {
	text := Text(map[string]interface{}{"pages": 3, "blank": " ", "author": "Ada"})
	if text != "author: Ada\n" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestSupported(t *testing.T) {
	if !Supported("application/pdf") || Supported("text/plain") {
		t.Fatal("unexpected support table")
	}
}
