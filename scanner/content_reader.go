package scanner

import (
	"io"
	"os"
	"strings"

	"golang.org/x/exp/mmap"
)

const maxContentScanBytes int64 = 10 * 1024 * 1024

var openMmapReader = mmap.Open

// readContent loads up to maxSize bytes of path. Files above the limit
// return nil content and no error; callers treat them as unreadable text.
func readContent(path string, maxSize int64, mode string, mmapMinSize int64, chunkSize int) ([]byte, error) {
	maxSize = clampContentMaxSize(maxSize)
	if mmapMinSize <= 0 {
		mmapMinSize = 128 * 1024
	}
	if chunkSize <= 0 {
		chunkSize = 256 * 1024
	}

	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "mmap":
		return readContentMmap(path, maxSize)
	case "stream":
		return readContentStream(path, maxSize, chunkSize)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxSize {
		return nil, nil
	}
	if info.Size() >= mmapMinSize {
		if content, err := readContentMmap(path, maxSize); err == nil {
			return content, nil
		}
	}
	return readContentStream(path, maxSize, chunkSize)
}

func readContentMmap(path string, maxSize int64) ([]byte, error) {
	r, err := openMmapReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	size := int64(r.Len())
	if size > maxSize {
		return nil, nil
	}
	buf := make([]byte, size)
	if size == 0 {
		return buf, nil
	}
	if _, err := r.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}

func readContentStream(path string, maxSize int64, chunkSize int) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var content []byte
	if stat, err := file.Stat(); err == nil {
		if stat.Size() > maxSize {
			return nil, nil
		}
		content = make([]byte, 0, stat.Size())
	}
	buffer := make([]byte, chunkSize)
	for {
		n, err := file.Read(buffer)
		if n > 0 {
			if int64(len(content)+n) > maxSize {
				return nil, nil
			}
			content = append(content, buffer[:n]...)
		}
		if err == io.EOF {
			return content, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// readFileSample returns at most n leading bytes.
func readFileSample(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return buf[:read], nil
}

func clampContentMaxSize(maxSize int64) int64 {
	if maxSize <= 0 || maxSize > maxContentScanBytes {
		return maxContentScanBytes
	}
	return maxSize
}
