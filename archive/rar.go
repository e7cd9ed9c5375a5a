package archive

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/nwaples/rardecode"
)

type rarCodec struct{}

func (rarCodec) Format() Format { return FormatRar }

// Open lists the archive without a password. Archives with encrypted
// headers cannot be listed and report no entries until unlocked.
func (rarCodec) Open(path string) (Handle, error) {
	h := &rarHandle{path: path}
	rc, err := rardecode.OpenReader(path, "")
	if err != nil {
		if isPasswordError(err) {
			h.headersEncrypted = true
			return h, nil
		}
		return nil, corrupt(err).Err
	}
	defer rc.Close()
	for {
		hdr, err := rc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if isPasswordError(err) {
				h.headersEncrypted = true
				h.entries = nil
				break
			}
			return nil, corrupt(err).Err
		}
		h.entries = append(h.entries, Entry{
			Name:           hdr.Name,
			Size:           uint64(max(hdr.UnPackedSize, 0)),
			CompressedSize: uint64(max(hdr.PackedSize, 0)),
			IsDir:          hdr.IsDir,
			Modified:       hdr.ModificationTime,
			Encrypted:      true,
		})
	}
	return h, nil
}

type rarHandle struct {
	path             string
	entries          []Entry
	headersEncrypted bool
}

func (h *rarHandle) Path() string     { return h.path }
func (h *rarHandle) Format() Format   { return FormatRar }
func (h *rarHandle) Entries() []Entry { return h.entries }
func (h *rarHandle) Close() error     { return nil }

// Check decodes the first file entry to verify its checksum.
func (h *rarHandle) Check(password string) Result {
	return h.walk(password, "", true)
}

func (h *rarHandle) Extract(password, dest string) Result {
	return h.walk(password, dest, false)
}

func (h *rarHandle) walk(password, dest string, probeOnly bool) Result {
	rc, err := rardecode.OpenReader(h.path, password)
	if err != nil {
		return classifyRar(err)
	}
	defer rc.Close()

	res := Result{Outcome: Success, Dir: dest}
	for {
		hdr, err := rc.Next()
		if err == io.EOF {
			return res
		}
		if err != nil {
			return classifyRar(err)
		}
		if probeOnly {
			if hdr.IsDir {
				continue
			}
			if _, err := io.Copy(io.Discard, rc); err != nil {
				return classifyRar(err)
			}
			return res
		}

		target, err := targetPath(dest, hdr.Name)
		if err != nil {
			return corrupt(err)
		}
		if hdr.IsDir {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return Result{Outcome: Corrupt, Err: err}
			}
			continue
		}
		n, err := writeEntry(target, rc, hdr.Mode())
		if err != nil {
			var local ioError
			if errors.As(err, &local) {
				return Result{Outcome: Corrupt, Err: local.err}
			}
			return classifyRar(err)
		}
		res.Files++
		res.Bytes += n
	}
}

func isPasswordError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"password", "checksum", "crc", "decrypt", "encrypt"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func classifyRar(err error) Result {
	if isPasswordError(err) {
		return wrong()
	}
	return corrupt(err)
}
