package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"photoflow/internal/metrics"
	"photoflow/internal/tensor"
	"photoflow/internal/transform"
)

func testTensor(t *testing.T, fill float32) *tensor.Tensor {
	t.Helper()

	tr := tensor.New(4, 4, 3)
	for i := range tr.Data {
		tr.Data[i] = fill
	}
	return tr
}

func TestKeyFilenameDeterministic(t *testing.T) {
	key := Key{MediaID: "AKx9_zB", Policy: transform.PolicyScale, TargetSize: 512}

	if key.Filename() != key.Filename() {
		t.Fatal("Filename() is not deterministic")
	}
}

func TestKeyFilenameEncodesParameters(t *testing.T) {
	base := Key{MediaID: "abc123", Policy: transform.PolicyScale, TargetSize: 512}

	variants := []Key{
		{MediaID: "abc123", Policy: transform.PolicyCrop, TargetSize: 512},
		{MediaID: "abc123", Policy: transform.PolicyScale, TargetSize: 256},
		{MediaID: "abc123", Policy: transform.PolicyOriginal, OrigWidth: 4000, OrigHeight: 3000},
		{MediaID: "abc123", Policy: transform.PolicyOriginal, OrigWidth: 2000, OrigHeight: 1500},
		{MediaID: "xyz789", Policy: transform.PolicyScale, TargetSize: 512},
	}

	seen := map[string]bool{base.Filename(): true}
	for _, k := range variants {
		name := k.Filename()
		if seen[name] {
			t.Errorf("key %+v collides with a different key (filename %s)", k, name)
		}
		seen[name] = true
	}
}

func TestKeyFilenameSanitizesID(t *testing.T) {
	key := Key{MediaID: "../../etc/passwd", Policy: transform.PolicyScale, TargetSize: 64}

	name := key.Filename()
	if filepath.Base(name) != name {
		t.Errorf("Filename() %q escapes the cache directory", name)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "image_cache"), nil)
	key := Key{MediaID: "media-1", Policy: transform.PolicyFill, TargetSize: 128}
	src := testTensor(t, 0.25)

	store.Put(key, src)

	got, err := store.Get(key)
	if err != nil {
		t.Fatalf("Get() after Put() error: %v", err)
	}
	if !src.Equal(got) {
		t.Error("round-tripped tensor differs from original")
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	store := New(t.TempDir(), nil)

	_, err := store.Get(Key{MediaID: "never-written", Policy: transform.PolicyScale, TargetSize: 64})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on unwritten key = %v, want ErrNotFound", err)
	}
}

func TestGetCorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, nil)
	key := Key{MediaID: "corrupt-1", Policy: transform.PolicyScale, TargetSize: 64}

	if err := os.WriteFile(filepath.Join(dir, key.Filename()), []byte("junk"), 0644); err != nil {
		t.Fatalf("writing corrupt entry: %v", err)
	}

	if _, err := store.Get(key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on corrupt entry = %v, want ErrNotFound", err)
	}
}

func TestPutWriteFailureIsSwallowed(t *testing.T) {
	// A file where the cache directory should be makes every write fail.
	blocked := filepath.Join(t.TempDir(), "notadir")
	if err := os.WriteFile(blocked, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	store := New(blocked, nil)
	before := testutil.ToFloat64(metrics.CacheWritesTotal)
	store.Put(Key{MediaID: "a", Policy: transform.PolicyScale, TargetSize: 64}, testTensor(t, 1))
	// Reaching this point without a panic or error is the contract.

	if got := testutil.ToFloat64(metrics.CacheWritesTotal); got != before {
		t.Errorf("swallowed write still counted: writes %v -> %v", before, got)
	}
}

func TestPutCountsOnlyCompletedWrites(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "image_cache"), nil)
	key := Key{MediaID: "counted-1", Policy: transform.PolicyScale, TargetSize: 64}

	before := testutil.ToFloat64(metrics.CacheWritesTotal)
	store.Put(key, testTensor(t, 1))
	if got := testutil.ToFloat64(metrics.CacheWritesTotal); got != before+1 {
		t.Errorf("completed write not counted: writes %v -> %v", before, got)
	}
}

func TestNoPartialFilesVisible(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, nil)

	store.Put(Key{MediaID: "m", Policy: transform.PolicyScale, TargetSize: 64}, testTensor(t, 0.5))

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != entryExt {
			t.Errorf("unexpected leftover file %s", e.Name())
		}
	}
}

func TestEvictToLimitRemovesOldestFirst(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, nil)

	// Three 1KiB files with strictly increasing mtimes.
	names := []string{"old.ten", "mid.ten", "new.ten"}
	base := time.Now().Add(-time.Hour)
	for i, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, make([]byte, 1024), 0644); err != nil {
			t.Fatal(err)
		}
		mtime := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}

	if err := store.EvictToLimit(2048); err != nil {
		t.Fatalf("EvictToLimit() error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "old.ten")); !os.IsNotExist(err) {
		t.Error("oldest file survived eviction")
	}
	for _, name := range []string{"mid.ten", "new.ten"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("newer file %s was evicted: %v", name, err)
		}
	}

	size, err := store.Size()
	if err != nil {
		t.Fatal(err)
	}
	if size > 2048 {
		t.Errorf("size after eviction = %d, want <= 2048", size)
	}
}

func TestEvictToLimitUnderLimitIsNoop(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, nil)

	path := filepath.Join(dir, "keep.ten")
	if err := os.WriteFile(path, make([]byte, 100), 0644); err != nil {
		t.Fatal(err)
	}

	if err := store.EvictToLimit(1 << 20); err != nil {
		t.Fatalf("EvictToLimit() error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("file under the limit was evicted")
	}
}

func TestClearTolerateAbsent(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "never-created"), nil)

	if err := store.Clear(); err != nil {
		t.Errorf("Clear() on absent directory = %v, want nil", err)
	}
}

func TestClearRemovesTree(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "image_cache")
	store := New(dir, nil)
	store.Put(Key{MediaID: "m", Policy: transform.PolicyScale, TargetSize: 64}, testTensor(t, 1))

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("cache directory still present after Clear()")
	}
}

func TestSizeAbsentDirIsZero(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "missing"), nil)

	size, err := store.Size()
	if err != nil {
		t.Fatalf("Size() error: %v", err)
	}
	if size != 0 {
		t.Errorf("Size() = %d, want 0", size)
	}
}
