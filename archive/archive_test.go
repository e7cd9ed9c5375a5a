package archive

import (
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, password string, method Method, files ...FileSpec) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.zip")
	if err := WriteZip(path, password, method, files); err != nil {
		t.Fatalf("WriteZip: %v", err)
	}
	return path
}

func TestZipCheckAndExtract(t *testing.T) {
	path := writeFixture(t, "s3cret", AES256,
		FileSpec{Name: "notes/readme.txt", Data: []byte("hello layer")},
		FileSpec{Name: "big.bin", Data: bytes.Repeat([]byte{7}, 4096)},
	)

	h, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	if h.Format() != FormatZip {
		t.Fatalf("format = %s", h.Format())
	}
	entries := h.Entries()
	if len(entries) != 2 || !entries[0].Encrypted || entries[1].Size != 4096 {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	if res := h.Check("wrong"); res.Outcome != WrongPassword {
		t.Fatalf("Check(wrong) = %s", res.Outcome)
	}
	if res := h.Check("s3cret"); res.Outcome != Success {
		t.Fatalf("Check(right) = %s (%v)", res.Outcome, res.Err)
	}

	dest := t.TempDir()
	if res := h.Extract("wrong", dest); res.Outcome != WrongPassword {
		t.Fatalf("Extract(wrong) = %s", res.Outcome)
	}
	res := h.Extract("s3cret", dest)
	if res.Outcome != Success || res.Files != 2 || res.Bytes != 4096+11 {
		t.Fatalf("Extract(right) = %+v", res)
	}
	data, err := os.ReadFile(filepath.Join(dest, "notes", "readme.txt"))
	if err != nil || string(data) != "hello layer" {
		t.Fatalf("extracted content = %q, %v", data, err)
	}
}

func TestZipCryptoWrongPassword(t *testing.T) {
	path := writeFixture(t, "legacy", ZipCrypto, FileSpec{Name: "a.txt", Data: []byte("legacy content for zipcrypto")})
	h, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()
	if res := h.Check("legacy"); res.Outcome != Success {
		t.Fatalf("Check(right) = %s (%v)", res.Outcome, res.Err)
	}
	if res := h.Check("nope"); res.Outcome != WrongPassword {
		t.Fatalf("Check(wrong) = %s", res.Outcome)
	}
}

func TestUnencryptedZipAcceptsAnyPassword(t *testing.T) {
	path := writeFixture(t, "", ZipCrypto, FileSpec{Name: "plain.txt", Data: []byte("plain")})
	h, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()
	if res := h.Check("anything"); res.Outcome != Success {
		t.Fatalf("Check = %s", res.Outcome)
	}
}

func TestExtractRejectsUnsafeEntries(t *testing.T) {
	path := writeFixture(t, "pw", AES256, FileSpec{Name: "../escape.txt", Data: []byte("x")})
	h, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	root := t.TempDir()
	dest := filepath.Join(root, "out")
	res := h.Extract("pw", dest)
	if res.Outcome != Corrupt || !errors.Is(res.Err, ErrUnsafeEntry) {
		t.Fatalf("expected unsafe entry rejection, got %+v", res)
	}
	if _, err := os.Stat(filepath.Join(root, "escape.txt")); !os.IsNotExist(err) {
		t.Fatalf("entry escaped extraction root: %v", err)
	}
}

func TestOpenRejectsNonArchives(t *testing.T) {
	dir := t.TempDir()

	text := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(text, []byte("just some text"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(text); !errors.Is(err, ErrNotAnArchive) {
		t.Fatalf("expected ErrNotAnArchive, got %v", err)
	}

	empty := filepath.Join(dir, "empty.zip")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(empty); !errors.Is(err, ErrNotAnArchive) {
		t.Fatalf("expected ErrNotAnArchive for empty file, got %v", err)
	}

	broken := filepath.Join(dir, "broken.zip")
	if err := os.WriteFile(broken, append([]byte("PK\x03\x04"), bytes.Repeat([]byte{0xAB}, 64)...), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(broken); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestSniffUnsupportedContainer(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte("compressed"))
	zw.Close()

	format, err := SniffBytes(buf.Bytes())
	if !errors.Is(err, ErrUnsupportedFormat) || format != "gz" {
		t.Fatalf("SniffBytes = %q, %v", format, err)
	}
}

func TestInspect(t *testing.T) {
	path := writeFixture(t, "pw", AES256,
		FileSpec{Name: "a.txt", Data: []byte("aaa")},
		FileSpec{Name: "b.txt", Data: []byte("bbbb")},
	)
	info, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.Format != FormatZip || len(info.Entries) != 2 || info.Encrypted != 2 || info.Size == 0 {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestRarErrorClassification(t *testing.T) {
	if res := classifyRar(errors.New("rardecode: incorrect password")); res.Outcome != WrongPassword {
		t.Fatalf("password error classified as %s", res.Outcome)
	}
	if res := classifyRar(errors.New("rardecode: bad file checksum")); res.Outcome != WrongPassword {
		t.Fatalf("checksum error classified as %s", res.Outcome)
	}
	res := classifyRar(errors.New("rardecode: invalid file block"))
	if res.Outcome != Corrupt || !errors.Is(res.Err, ErrCorrupt) {
		t.Fatalf("block error classified as %+v", res)
	}
}

func TestFormatsRegistered(t *testing.T) {
	got := Formats()
	if len(got) != 2 || got[0] != FormatRar || got[1] != FormatZip {
		t.Fatalf("Formats = %v", got)
	}
}
