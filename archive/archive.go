// Package archive opens encrypted containers and reports decryption
// outcomes as values instead of errors.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/h2non/filetype"
)

type Format string

const (
	FormatZip Format = "zip"
	FormatRar Format = "rar"
)

var (
	ErrNotAnArchive      = errors.New("not an archive")
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	ErrCorrupt           = errors.New("corrupt archive")
	ErrUnsafeEntry       = errors.New("entry escapes extraction root")
)

// Outcome of a single password trial.
type Outcome int

const (
	Success Outcome = iota
	WrongPassword
	Corrupt
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case WrongPassword:
		return "wrong-password"
	case Corrupt:
		return "corrupt"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the tagged outcome of Check or Extract. Dir, Files and Bytes
// are set on a successful extraction; Err explains a Corrupt outcome.
type Result struct {
	Outcome Outcome
	Dir     string
	Files   int
	Bytes   int64
	Err     error
}

func wrong() Result { return Result{Outcome: WrongPassword} }

func corrupt(err error) Result {
	if !errors.Is(err, ErrCorrupt) && !errors.Is(err, ErrUnsafeEntry) {
		err = fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return Result{Outcome: Corrupt, Err: err}
}

type Entry struct {
	Name           string    `json:"name"`
	Size           uint64    `json:"size"`
	CompressedSize uint64    `json:"compressed_size"`
	Encrypted      bool      `json:"encrypted"`
	IsDir          bool      `json:"is_dir"`
	Modified       time.Time `json:"modified"`
}

// Handle is an opened archive. A Handle is not safe for concurrent trials;
// open one per goroutine.
type Handle interface {
	Path() string
	Format() Format
	Entries() []Entry
	// Check cheaply verifies password without writing anything.
	Check(password string) Result
	// Extract writes every entry below dest.
	Extract(password, dest string) Result
	Close() error
}

type Codec interface {
	Format() Format
	Open(path string) (Handle, error)
}

var (
	codecsMu sync.RWMutex
	codecs   = map[Format]Codec{}
)

// Register makes a codec available to Open. Later registrations for the
// same format replace earlier ones.
func Register(c Codec) {
	codecsMu.Lock()
	defer codecsMu.Unlock()
	codecs[c.Format()] = c
}

func lookup(f Format) (Codec, bool) {
	codecsMu.RLock()
	defer codecsMu.RUnlock()
	c, ok := codecs[f]
	return c, ok
}

// Formats lists the registered formats.
func Formats() []Format {
	codecsMu.RLock()
	defer codecsMu.RUnlock()
	out := make([]Format, 0, len(codecs))
	for f := range codecs {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func init() {
	Register(zipCodec{})
	Register(rarCodec{})
}

// containerTypes are filetype extensions treated as archives. Office
// documents share the zip container but are reported as documents.
var containerTypes = map[string]bool{
	"zip": true, "rar": true, "7z": true, "tar": true, "gz": true,
	"bz2": true, "xz": true, "zst": true, "lz": true, "cab": true,
}

// Sniff identifies the container format from magic bytes.
func Sniff(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, 261)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return SniffBytes(head[:n])
}

// SniffBytes is Sniff over an already read header.
func SniffBytes(head []byte) (Format, error) {
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown || !containerTypes[kind.Extension] {
		return "", ErrNotAnArchive
	}
	format := Format(kind.Extension)
	if _, ok := lookup(format); !ok {
		return format, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return format, nil
}

// Open sniffs path and opens it with the matching codec.
func Open(path string) (Handle, error) {
	format, err := Sniff(path)
	if err != nil {
		return nil, err
	}
	codec, _ := lookup(format)
	return codec.Open(path)
}

// Info summarizes an archive without any password.
type Info struct {
	Path      string  `json:"path"`
	Format    Format  `json:"format"`
	Size      int64   `json:"size"`
	Entries   []Entry `json:"entries"`
	Encrypted int     `json:"encrypted_entries"`
}

func Inspect(path string) (Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}
	h, err := Open(path)
	if err != nil {
		return Info{}, err
	}
	defer h.Close()

	info := Info{Path: path, Format: h.Format(), Size: st.Size(), Entries: h.Entries()}
	for _, e := range info.Entries {
		if e.Encrypted {
			info.Encrypted++
		}
	}
	return info, nil
}
