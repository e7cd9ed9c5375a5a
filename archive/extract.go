package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"layercrack/utils"
)

// targetPath resolves an entry name below dest, rejecting absolute names
// and parent traversal.
func targetPath(dest, name string) (string, error) {
	clean := filepath.FromSlash(strings.TrimLeft(name, "/"))
	if clean == "" || !filepath.IsLocal(clean) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeEntry, name)
	}
	if real, err := filepath.EvalSymlinks(dest); err == nil {
		dest = real
	}
	target := filepath.Join(dest, clean)
	if !utils.Within(dest, target) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeEntry, name)
	}
	return target, nil
}

// writeEntry copies r into target, creating parent directories. Failures
// on the local side come back as ioError; read failures are returned as is.
func writeEntry(target string, r io.Reader, mode os.FileMode) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, ioError{err}
	}
	if mode.Perm() == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm()|0o200)
	if err != nil {
		return 0, ioError{err}
	}
	n, copyErr := io.Copy(localWriter{out}, r)
	closeErr := out.Close()
	if copyErr != nil {
		return n, copyErr
	}
	if closeErr != nil {
		return n, ioError{closeErr}
	}
	return n, nil
}

type localWriter struct{ w io.Writer }

func (l localWriter) Write(p []byte) (int, error) {
	n, err := l.w.Write(p)
	if err != nil {
		return n, ioError{err}
	}
	return n, nil
}

// ioError marks failures on the local side (disk full, permissions) so
// codecs do not mistake them for a bad password.
type ioError struct{ err error }

func (e ioError) Error() string { return e.err.Error() }
func (e ioError) Unwrap() error { return e.err }
