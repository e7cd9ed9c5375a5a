package archive

import (
	"errors"
	"io"
	"os"
	"sort"

	"github.com/yeka/zip"
)

type zipCodec struct{}

func (zipCodec) Format() Format { return FormatZip }

func (zipCodec) Open(path string) (Handle, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, corrupt(err).Err
	}
	return &zipHandle{path: path, rc: rc}, nil
}

type zipHandle struct {
	path string
	rc   *zip.ReadCloser
}

func (h *zipHandle) Path() string   { return h.path }
func (h *zipHandle) Format() Format { return FormatZip }
func (h *zipHandle) Close() error   { return h.rc.Close() }

func (h *zipHandle) Entries() []Entry {
	out := make([]Entry, 0, len(h.rc.File))
	for _, f := range h.rc.File {
		out = append(out, Entry{
			Name:           f.Name,
			Size:           f.UncompressedSize64,
			CompressedSize: f.CompressedSize64,
			Encrypted:      f.IsEncrypted(),
			IsDir:          f.FileInfo().IsDir(),
			Modified:       f.ModTime(),
		})
	}
	return out
}

// probe picks the smallest encrypted file, or the smallest file when
// nothing is encrypted.
func (h *zipHandle) probe() *zip.File {
	files := make([]*zip.File, 0, len(h.rc.File))
	for _, f := range h.rc.File {
		if !f.FileInfo().IsDir() {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return nil
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].IsEncrypted() != files[j].IsEncrypted() {
			return files[i].IsEncrypted()
		}
		return files[i].UncompressedSize64 < files[j].UncompressedSize64
	})
	return files[0]
}

func (h *zipHandle) Check(password string) Result {
	f := h.probe()
	if f == nil {
		return Result{Outcome: Success}
	}
	if _, err := h.read(f, password, io.Discard); err != nil {
		return classifyZip(f, err)
	}
	return Result{Outcome: Success}
}

func (h *zipHandle) Extract(password, dest string) Result {
	res := Result{Outcome: Success, Dir: dest}
	for _, f := range h.rc.File {
		target, err := targetPath(dest, f.Name)
		if err != nil {
			return corrupt(err)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return Result{Outcome: Corrupt, Err: err}
			}
			continue
		}
		if f.Mode()&os.ModeSymlink != 0 {
			continue
		}
		n, err := h.extractFile(f, password, target)
		if err != nil {
			var local ioError
			if errors.As(err, &local) {
				return Result{Outcome: Corrupt, Err: local.err}
			}
			return classifyZip(f, err)
		}
		res.Files++
		res.Bytes += n
	}
	return res
}

func (h *zipHandle) extractFile(f *zip.File, password, target string) (int64, error) {
	if f.IsEncrypted() {
		f.SetPassword(password)
	}
	r, err := f.Open()
	if err != nil {
		return 0, err
	}
	defer r.Close()
	return writeEntry(target, r, f.Mode())
}

// read decrypts f fully so the CRC or HMAC is verified.
func (h *zipHandle) read(f *zip.File, password string, w io.Writer) (int64, error) {
	if f.IsEncrypted() {
		f.SetPassword(password)
	}
	r, err := f.Open()
	if err != nil {
		return 0, err
	}
	defer r.Close()
	return io.Copy(w, r)
}

// classifyZip maps a read failure to an outcome. Any failure while
// decrypting an encrypted entry is a wrong password; ZipCrypto can pass
// the header check with a wrong key and only fail later in inflate or CRC.
func classifyZip(f *zip.File, err error) Result {
	if errors.Is(err, zip.ErrAlgorithm) {
		return corrupt(err)
	}
	if f.IsEncrypted() {
		return wrong()
	}
	return corrupt(err)
}
