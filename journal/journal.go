// Package journal remembers tried candidates per archive across runs so an
// interrupted session can resume without repeating work.
package journal

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/FastFilter/xorfilter"
	"github.com/cespare/xxhash/v2"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"layercrack/logger"
)

var (
	failedPrefix = []byte("f:")
	solvedPrefix = []byte("s:")
	syncWrite    = &opt.WriteOptions{Sync: true}
	nop          = []byte{}
)

type Journal struct {
	db *leveldb.DB

	mu     sync.Mutex
	filter *xorfilter.Xor8
	fresh  map[uint64]struct{}
	loaded int
}

// Open opens or creates the journal under dir and builds a membership
// filter over every failed candidate already recorded.
func Open(dir string) (*Journal, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, err
	}
	j := &Journal{db: db, fresh: make(map[uint64]struct{})}
	if err := j.loadFilter(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) loadFilter() error {
	var keys []uint64
	it := j.db.NewIterator(util.BytesPrefix(failedPrefix), nil)
	for it.Next() {
		keys = append(keys, xxhash.Sum64(bytes.TrimPrefix(it.Key(), failedPrefix)))
	}
	it.Release()
	if err := it.Error(); err != nil {
		return err
	}
	j.loaded = len(keys)
	if len(keys) == 0 {
		return nil
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)
	filter, err := xorfilter.Populate(keys)
	if err != nil {
		logger.Warnf("Journal filter unavailable, falling back to lookups: %v", err)
		return nil
	}
	j.filter = filter
	return nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Len is the number of failed candidates present when the journal opened.
func (j *Journal) Len() int {
	return j.loaded
}

func entryKey(archive, candidate string) []byte {
	return []byte(archive + "\x00" + candidate)
}

// Tried reports whether candidate already failed against archive.
func (j *Journal) Tried(archive, candidate string) bool {
	entry := entryKey(archive, candidate)
	h := xxhash.Sum64(entry)

	j.mu.Lock()
	_, recent := j.fresh[h]
	filter := j.filter
	j.mu.Unlock()

	switch {
	case recent:
	case filter != nil:
		if !filter.Contains(h) {
			return false
		}
	case j.loaded == 0:
		return false
	}
	ok, err := j.db.Has(append(slices.Clone(failedPrefix), entry...), nil)
	if err != nil {
		logger.Warnf("Journal lookup failed: %v", err)
		return false
	}
	return ok
}

// Failed records candidate as rejected by archive.
func (j *Journal) Failed(archive, candidate string) error {
	entry := entryKey(archive, candidate)
	if err := j.db.Put(append(slices.Clone(failedPrefix), entry...), nop, nil); err != nil {
		return err
	}
	j.mu.Lock()
	j.fresh[xxhash.Sum64(entry)] = struct{}{}
	j.mu.Unlock()
	return nil
}

// MarkSolved stores the password that unlocked archive.
func (j *Journal) MarkSolved(archive, password string) error {
	return j.db.Put(append(slices.Clone(solvedPrefix), archive...), []byte(password), syncWrite)
}

// Solved returns the stored password for archive, if any.
func (j *Journal) Solved(archive string) (string, bool) {
	v, err := j.db.Get(append(slices.Clone(solvedPrefix), archive...), nil)
	if err != nil {
		if !errors.Is(err, leveldb.ErrNotFound) {
			logger.Warnf("Journal lookup failed: %v", err)
		}
		return "", false
	}
	return string(v), true
}

// Fingerprint identifies an archive by content so renamed copies share
// journal entries.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	d := xxhash.New()
	if _, err := io.Copy(d, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(d.Sum(nil)), nil
}
