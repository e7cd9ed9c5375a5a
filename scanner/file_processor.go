package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/h2non/filetype"

	"layercrack/archive"
	"layercrack/logger"
	"layercrack/tracing"
)

const sniffBytes = 261

// processFile builds the record for one extracted file. Module failures
// are logged and leave their fields empty; only cancellation aborts.
func processFile(ctx context.Context, root, path string, info os.FileInfo, s *Scanner) (FileRecord, error) {
	ctx, endTask := tracing.StartTask(ctx, "scan_file")
	tracing.Log(ctx, "file", path)
	defer endTask()

	record := FileRecord{Path: path, RelPath: RelTo(root, path)}
	fc := &FileContext{Path: path, RelPath: record.RelPath, Info: info, Cfg: s.cfg, matcher: s.matcher}
	for _, module := range s.modules {
		if !module.Enabled(s.cfg) {
			continue
		}
		if err := module.Collect(ctx, fc, &record); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return record, err
			}
			logger.Debugf("Module %s failed for %s: %v", module.Name(), path, err)
		}
	}
	return record, nil
}

func getFileAttributes(info os.FileInfo) []string {
	var attrs []string
	mode := info.Mode()
	if mode&os.ModeSymlink != 0 {
		attrs = append(attrs, "symlink")
	}
	if isHidden(info.Name()) {
		attrs = append(attrs, "hidden")
	}
	if mode&0o222 == 0 {
		attrs = append(attrs, "read-only")
	}
	if mode&0o111 != 0 {
		attrs = append(attrs, "executable")
	}
	return attrs
}

func isHidden(name string) bool {
	return name != "." && name != ".." && strings.HasPrefix(name, ".")
}

func mimeFromHead(head []byte) string {
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown || kind.MIME.Value == "" {
		return "unknown"
	}
	return kind.MIME.Value
}

// classify decides the record kind. Magic bytes win; the .zip and .rar
// extensions mark an archive even when the header is damaged.
func classify(head []byte, mimeType, path string) (Kind, string, bool) {
	format, err := archive.SniffBytes(head)
	switch {
	case err == nil:
		return KindArchive, string(format), true
	case errors.Is(err, archive.ErrUnsupportedFormat):
		return KindArchive, string(format), false
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".zip", ".rar":
		return KindArchive, strings.TrimPrefix(ext, "."), false
	}
	switch {
	case filetype.IsDocument(head) || mimeType == "application/pdf":
		return KindDocument, "", false
	case filetype.IsImage(head):
		return KindImage, "", false
	case isTextMIME(mimeType):
		return KindText, "", false
	case mimeType == "unknown" && looksLikeText(head):
		return KindText, "", false
	}
	return KindBinary, "", false
}

func isTextMIME(mimeType string) bool {
	return strings.HasPrefix(mimeType, "text/") ||
		strings.Contains(mimeType, "json") ||
		strings.Contains(mimeType, "xml") ||
		strings.Contains(mimeType, "html") ||
		strings.Contains(mimeType, "javascript")
}

func looksLikeText(sample []byte) bool {
	if len(sample) == 0 {
		return true
	}
	// A multi-byte rune cut by the sample boundary is still text.
	if !utf8.Valid(sample) {
		trimmed := sample
		for i := 0; i < utf8.UTFMax-1 && len(trimmed) > 0 && !utf8.Valid(trimmed); i++ {
			trimmed = trimmed[:len(trimmed)-1]
		}
		if !utf8.Valid(trimmed) {
			return false
		}
	}
	var control int
	for _, b := range sample {
		if b == 0 {
			return false
		}
		if b < 0x09 || (b > 0x0D && b < 0x20) {
			control++
		}
	}
	return control <= len(sample)/10
}
