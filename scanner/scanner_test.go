package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"layercrack/archive"
	"layercrack/config"
	"layercrack/logger"
)

func init() {
	logger.Init("error")
}

func testConfig() *config.Config {
	return &config.Config{
		HashAlgorithms:  []string{"sha256"},
		MaxFileSize:     1 << 20,
		ContentReadMode: "auto",
		StreamChunkSize: 4096,
		MmapMinSize:     128 * 1024,
	}
}

func mustWrite(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func buildLayer(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "notes.txt"), []byte("HINT: think of gravity\n"))
	mustWrite(t, filepath.Join(root, "blob.bin"), []byte{0x00, 0x01, 0x02, 0xff, 0x00})
	mustWrite(t, filepath.Join(root, "old.gz"), []byte{0x1f, 0x8b, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00})
	mustWrite(t, filepath.Join(root, "broken.rar"), []byte("not really a rar"))
	for _, name := range []string{"z-last.zip", filepath.Join("deeper", "a-first.zip")} {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		files := []archive.FileSpec{{Name: "x.txt", Data: []byte("inner")}}
		if err := archive.WriteZip(path, "pw", archive.AES256, files); err != nil {
			t.Fatalf("zip: %v", err)
		}
	}
	return root
}

func TestScanDirClassifiesFiles(t *testing.T) {
	root := buildLayer(t)
	records, err := ScanDir(context.Background(), root, testConfig())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	byPath := map[string]FileRecord{}
	for i, r := range records {
		byPath[r.RelPath] = r
		if i > 0 && records[i-1].RelPath >= r.RelPath {
			t.Fatalf("records not sorted: %s before %s", records[i-1].RelPath, r.RelPath)
		}
	}
	if len(records) != 6 {
		t.Fatalf("expected 6 records, got %d", len(records))
	}

	notes := byPath["notes.txt"]
	if notes.Kind != KindText || !strings.Contains(notes.Text, "gravity") {
		t.Fatalf("unexpected text record: %+v", notes)
	}
	if len(notes.Hashes["sha256"]) != 64 {
		t.Fatalf("missing sha256: %v", notes.Hashes)
	}
	if byPath["blob.bin"].Kind != KindBinary || byPath["blob.bin"].Text != "" {
		t.Fatalf("unexpected binary record: %+v", byPath["blob.bin"])
	}
	gz := byPath["old.gz"]
	if gz.Kind != KindArchive || gz.ArchiveFormat != "gz" || gz.Openable {
		t.Fatalf("unexpected gz record: %+v", gz)
	}
	rar := byPath["broken.rar"]
	if rar.Kind != KindArchive || rar.Openable {
		t.Fatalf("unexpected rar record: %+v", rar)
	}
	inner := byPath["deeper/a-first.zip"]
	if inner.Kind != KindArchive || inner.ArchiveFormat != "zip" || !inner.Openable {
		t.Fatalf("unexpected zip record: %+v", inner)
	}

	first, ok := FirstArchive(records)
	if !ok || first.RelPath != "deeper/a-first.zip" {
		t.Fatalf("unexpected nested archive: %+v", first)
	}
	if got := len(Archives(records)); got != 4 {
		t.Fatalf("expected 4 archive records, got %d", got)
	}
}

func TestScanDirExcludePatterns(t *testing.T) {
	root := buildLayer(t)
	cfg := testConfig()
	cfg.ExcludePatterns = []string{"notes.*"}
	records, err := ScanDir(context.Background(), root, cfg)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	for _, r := range records {
		if r.RelPath == "notes.txt" && r.Text != "" {
			t.Fatal("excluded file should not be mined")
		}
	}
}

func TestScanDirLargeTextSkipped(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "big.txt"), []byte(strings.Repeat("a", 2048)))
	cfg := testConfig()
	cfg.MaxFileSize = 1024
	records, err := ScanDir(context.Background(), root, cfg)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(records) != 1 || records[0].Text != "" || records[0].Size != 2048 {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestScanDirSkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "real.txt"), []byte("hello"))
	if err := os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	records, err := ScanDir(context.Background(), root, testConfig())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(records) != 1 || records[0].RelPath != "real.txt" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestScanDirMissingRoot(t *testing.T) {
	if _, err := ScanDir(context.Background(), filepath.Join(t.TempDir(), "missing"), testConfig()); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestScanDirCancelled(t *testing.T) {
	root := buildLayer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ScanDir(ctx, root, testConfig()); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestLooksLikeText(t *testing.T) {
	if !looksLikeText([]byte("plain words\n")) {
		t.Fatal("plain text rejected")
	}
	if looksLikeText([]byte{0x00, 'a'}) {
		t.Fatal("NUL byte accepted")
	}
	cut := []byte("caf\xc3")
	if !looksLikeText(cut) {
		t.Fatal("text with truncated rune rejected")
	}
}

func TestIsHidden(t *testing.T) {
	if !isHidden(".secret") || isHidden("visible") || isHidden("..") {
		t.Fatal("unexpected hidden classification")
	}
}
