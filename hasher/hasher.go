// Package hasher digests extracted files for the layer report.
package hasher

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"lukechampine.com/blake3"

	"layercrack/logger"
)

const (
	bufferSmallSize      = 32 * 1024
	bufferLargeSize      = 128 * 1024
	largeBufferThreshold = 256 * 1024
)

var (
	smallPool = sync.Pool{New: func() interface{} { b := make([]byte, bufferSmallSize); return &b }}
	largePool = sync.Pool{New: func() interface{} { b := make([]byte, bufferLargeSize); return &b }}
)

var constructors = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"blake3": func() hash.Hash { return blake3.New(32, nil) },
	"xxh64":  func() hash.Hash { return xxhash.New() },
}

// Supported lists the algorithm names ComputeHashes understands.
func Supported() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ComputeHashes digests path once for every named algorithm. Unknown
// names are logged and skipped.
func ComputeHashes(path string, algorithms []string) (map[string]string, error) {
	names := make([]string, 0, len(algorithms))
	writers := make([]io.Writer, 0, len(algorithms))
	sums := make([]hash.Hash, 0, len(algorithms))
	seen := make(map[string]bool, len(algorithms))
	for _, algo := range algorithms {
		if seen[algo] {
			continue
		}
		seen[algo] = true
		newHash, ok := constructors[algo]
		if !ok {
			logger.Warnf("Unsupported hash algorithm: %s", algo)
			continue
		}
		h := newHash()
		names = append(names, algo)
		sums = append(sums, h)
		writers = append(writers, h)
	}
	hashes := make(map[string]string, len(names))
	if len(names) == 0 {
		return hashes, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return hashes, err
	}
	defer file.Close()

	pool := &smallPool
	if info, err := file.Stat(); err == nil && info.Size() >= largeBufferThreshold {
		pool = &largePool
	}
	bufPtr := pool.Get().(*[]byte)
	defer pool.Put(bufPtr)

	if _, err := io.CopyBuffer(io.MultiWriter(writers...), file, *bufPtr); err != nil {
		return hashes, err
	}
	for i, name := range names {
		hashes[name] = hex.EncodeToString(sums[i].Sum(nil))
	}
	return hashes, nil
}
