package unlock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"layercrack/archive"
	"layercrack/journal"
)

func buildZip(t *testing.T, password string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layer.zip")
	files := []archive.FileSpec{
		{Name: "hint.txt", Data: []byte("HINT: nothing here")},
		{Name: "nested/data.bin", Data: []byte{1, 2, 3, 4}},
	}
	if err := archive.WriteZip(path, password, archive.AES256, files); err != nil {
		t.Fatalf("WriteZip: %v", err)
	}
	return path
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func assertNoStaging(t *testing.T, parent string) {
	t.Helper()
	for _, name := range listDir(t, parent) {
		if strings.Contains(name, "-staging-") {
			t.Fatalf("staging dir left behind: %s", name)
		}
	}
}

func TestAttemptStopsAtFirstSuccess(t *testing.T) {
	src := buildZip(t, "correct")
	work := t.TempDir()
	dest := filepath.Join(work, "layer-01")

	var counter atomic.Int64
	u := New(Options{Counter: &counter, KeepAttempts: true})
	res, err := u.Attempt(context.Background(), src, slices.Values([]string{"wrong1", "wrong2", "correct", "wrong3"}), dest)
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if !res.Found || res.Password != "correct" || res.Attempts != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if counter.Load() != 3 || len(res.Trials) != 3 || res.Trials[2].Outcome != archive.Success {
		t.Fatalf("attempt bookkeeping off: counter=%d trials=%+v", counter.Load(), res.Trials)
	}
	if res.Files != 2 {
		t.Fatalf("Files = %d", res.Files)
	}
	data, err := os.ReadFile(filepath.Join(dest, "hint.txt"))
	if err != nil || string(data) != "HINT: nothing here" {
		t.Fatalf("extracted hint = %q, %v", data, err)
	}
	assertNoStaging(t, work)
}

func TestAttemptEmptyCandidates(t *testing.T) {
	src := buildZip(t, "correct")
	dest := filepath.Join(t.TempDir(), "out")

	res, err := New(Options{}).Attempt(context.Background(), src, slices.Values([]string(nil)), dest)
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if res.Found || res.Attempts != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if names := listDir(t, dest); len(names) != 0 {
		t.Fatalf("extract dir not empty: %v", names)
	}
}

func TestAttemptExhaustedLeavesNoOutput(t *testing.T) {
	src := buildZip(t, "correct")
	work := t.TempDir()
	dest := filepath.Join(work, "out")

	res, err := New(Options{}).Attempt(context.Background(), src, slices.Values([]string{"a", "b", "c"}), dest)
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if res.Found || res.Attempts != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if names := listDir(t, dest); len(names) != 0 {
		t.Fatalf("partial output left: %v", names)
	}
	assertNoStaging(t, work)
}

func TestAttemptCorruptArchive(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.zip")
	if err := os.WriteFile(broken, append([]byte("PK\x03\x04"), make([]byte, 64)...), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := New(Options{}).Attempt(context.Background(), broken, slices.Values([]string{"a"}), filepath.Join(dir, "out"))
	if !errors.Is(err, ErrCorruptArchive) {
		t.Fatalf("expected ErrCorruptArchive, got %v", err)
	}

	text := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(text, []byte("not an archive at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = New(Options{}).Attempt(context.Background(), text, slices.Values([]string{"a"}), filepath.Join(dir, "out2"))
	if !errors.Is(err, archive.ErrNotAnArchive) {
		t.Fatalf("expected ErrNotAnArchive, got %v", err)
	}
}

func TestAttemptHonorsCancellation(t *testing.T) {
	src := buildZip(t, "correct")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := New(Options{}).Attempt(ctx, src, slices.Values([]string{"correct"}), filepath.Join(t.TempDir(), "out"))
	if !errors.Is(err, context.Canceled) || res.Found {
		t.Fatalf("expected cancellation, got %+v, %v", res, err)
	}
}

// fakeHandle accepts a fixed set of passwords and writes one file named
// after the password on extraction.
type fakeHandle struct {
	accept map[string]bool
}

func (f *fakeHandle) Path() string             { return "fake" }
func (f *fakeHandle) Format() archive.Format   { return archive.FormatZip }
func (f *fakeHandle) Entries() []archive.Entry { return nil }
func (f *fakeHandle) Close() error             { return nil }

func (f *fakeHandle) Check(password string) archive.Result {
	if f.accept[password] {
		return archive.Result{Outcome: archive.Success}
	}
	return archive.Result{Outcome: archive.WrongPassword}
}

func (f *fakeHandle) Extract(password, dest string) archive.Result {
	if !f.accept[password] {
		return archive.Result{Outcome: archive.WrongPassword}
	}
	if err := os.WriteFile(filepath.Join(dest, password+".txt"), []byte(password), 0o644); err != nil {
		return archive.Result{Outcome: archive.Corrupt, Err: err}
	}
	return archive.Result{Outcome: archive.Success, Dir: dest, Files: 1}
}

func TestParallelReportsLowestIndexWinner(t *testing.T) {
	work := t.TempDir()
	dest := filepath.Join(work, "out")
	u := New(Options{
		Workers: 4,
		OpenFn: func(string) (archive.Handle, error) {
			return &fakeHandle{accept: map[string]bool{"b": true, "d": true}}, nil
		},
	})

	res, err := u.Attempt(context.Background(), "fake.zip", slices.Values([]string{"a", "b", "c", "d", "e"}), dest)
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if !res.Found || res.Password != "b" || res.Attempts != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if names := listDir(t, dest); !slices.Equal(names, []string{"b.txt"}) {
		t.Fatalf("extract dir = %v", names)
	}
	assertNoStaging(t, work)
}

func TestParallelExhausted(t *testing.T) {
	work := t.TempDir()
	u := New(Options{
		Workers: 3,
		OpenFn: func(string) (archive.Handle, error) {
			return &fakeHandle{accept: map[string]bool{}}, nil
		},
	})
	res, err := u.Attempt(context.Background(), "fake.zip", slices.Values([]string{"a", "b", "c", "d", "e", "f", "g"}), filepath.Join(work, "out"))
	if err != nil || res.Found || res.Attempts != 7 {
		t.Fatalf("unexpected result: %+v, %v", res, err)
	}
}

func TestJournalSkipsKnownFailuresAndReplaysSolved(t *testing.T) {
	src := buildZip(t, "correct")
	j, err := journal.Open(filepath.Join(t.TempDir(), "journal"))
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	defer j.Close()

	u := New(Options{Journal: j})
	ctx := context.Background()

	first, err := u.Attempt(ctx, src, slices.Values([]string{"x", "y"}), filepath.Join(t.TempDir(), "one"))
	if err != nil || first.Found || first.Attempts != 2 {
		t.Fatalf("first run: %+v, %v", first, err)
	}

	second, err := u.Attempt(ctx, src, slices.Values([]string{"x", "y", "correct"}), filepath.Join(t.TempDir(), "two"))
	if err != nil || !second.Found || second.Attempts != 1 || second.Skipped != 2 {
		t.Fatalf("second run: %+v, %v", second, err)
	}

	third, err := u.Attempt(ctx, src, slices.Values([]string{"z", "correct"}), filepath.Join(t.TempDir(), "three"))
	if err != nil || !third.Found || third.Attempts != 1 || third.Password != "correct" {
		t.Fatalf("third run: %+v, %v", third, err)
	}
}

func TestRateLimitedAttempt(t *testing.T) {
	src := buildZip(t, "correct")
	u := New(Options{RateLimit: 1000, ProgressEvery: 1})
	res, err := u.Attempt(context.Background(), src, slices.Values([]string{"a", "correct"}), filepath.Join(t.TempDir(), "out"))
	if err != nil || !res.Found || res.Attempts != 2 {
		t.Fatalf("unexpected result: %+v, %v", res, err)
	}
}
