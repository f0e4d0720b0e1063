package cache

import (
	"crypto/md5" //nolint:gosec // MD5 used for cache key disambiguation, not security
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"photoflow/internal/logging"
	"photoflow/internal/metrics"
	"photoflow/internal/tensor"
	"photoflow/internal/transform"
)

// ErrNotFound is returned by Get for absent or unreadable entries.
var ErrNotFound = errors.New("cache entry not found")

// entryExt is the file extension of serialized tensor entries.
const entryExt = ".ten"

// Key identifies one cached transformed-image entry.
type Key struct {
	MediaID    string
	Policy     transform.Policy
	TargetSize int
	// Original dimensions participate in the key only for the original
	// policy, where they determine the downloaded rendition.
	OrigWidth  int
	OrigHeight int
}

// Filename derives the deterministic file name for the key. The name
// keeps the media id and sizing parameters readable for debugging; a
// short hash of the raw id guards against collisions introduced by
// sanitizing unusual ids.
func (k Key) Filename() string {
	id := sanitizeID(k.MediaID)
	sum := md5.Sum([]byte(k.MediaID)) //nolint:gosec
	hash := fmt.Sprintf("%x", sum)[:8]

	if k.Policy == transform.PolicyOriginal {
		return fmt.Sprintf("%s_%s_original_%dx%d%s", id, hash, k.OrigWidth, k.OrigHeight, entryExt)
	}
	return fmt.Sprintf("%s_%s_%s_%d%s", id, hash, k.Policy, k.TargetSize, entryExt)
}

func sanitizeID(id string) string {
	const max = 80

	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	s := b.String()
	if len(s) > max {
		s = s[:max]
	}
	return s
}

// Store is a disk-backed tensor cache rooted at a single directory.
type Store struct {
	dir    string
	logger logging.Logger
}

// New returns a Store rooted at dir. The directory is created lazily on
// the first write.
func New(dir string, logger logging.Logger) *Store {
	return &Store{dir: dir, logger: logging.Or(logger)}
}

// Dir returns the cache root directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(key Key) string {
	return filepath.Join(s.dir, key.Filename())
}

// Put serializes the tensor under the key. Failures are logged and
// swallowed: a cache write must never fail the surrounding batch. The
// entry is written to a temporary file and renamed into place so
// concurrent readers never observe a partial file.
func (s *Store) Put(key Key, t *tensor.Tensor) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		s.logger.Warn("cache: failed to create cache dir %s: %v", s.dir, err)
		return
	}

	dst := s.path(key)
	tmp, err := os.CreateTemp(s.dir, key.Filename()+".tmp*")
	if err != nil {
		s.logger.Warn("cache: failed to create temp file for %s: %v", key.MediaID, err)
		return
	}

	if _, err := t.WriteTo(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		s.logger.Warn("cache: failed to write entry for %s: %v", key.MediaID, err)
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		s.logger.Warn("cache: failed to close entry for %s: %v", key.MediaID, err)
		return
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		s.logger.Warn("cache: failed to store entry for %s: %v", key.MediaID, err)
		return
	}

	metrics.CacheWritesTotal.Inc()
	s.logger.Debug("cache: stored %s", filepath.Base(dst))
}

// Get deserializes the tensor stored under the key. A missing file and
// a corrupt or incompatible entry both return ErrNotFound.
func (s *Store) Get(key Key) (*tensor.Tensor, error) {
	f, err := os.Open(s.path(key))
	if err != nil {
		return nil, ErrNotFound
	}
	defer f.Close()

	t, err := tensor.Read(f)
	if err != nil {
		s.logger.Warn("cache: discarding unreadable entry %s: %v", key.Filename(), err)
		return nil, ErrNotFound
	}

	s.logger.Debug("cache: hit %s", key.Filename())
	return t, nil
}

// Size returns the total size in bytes of all files under the cache
// directory. An absent directory counts as empty.
func (s *Store) Size() (int64, error) {
	var total int64
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return total, err
	}
	return total, nil
}

type cacheFile struct {
	path    string
	size    int64
	modTime int64
}

// EvictToLimit deletes the oldest-modified entries until the cache's
// total size is at or below maxBytes.
func (s *Store) EvictToLimit(maxBytes int64) error {
	total, files, err := s.listFiles()
	if err != nil {
		return err
	}

	s.logger.Info("cache: current size %.2f MB (limit %.2f MB)",
		float64(total)/(1024*1024), float64(maxBytes)/(1024*1024))

	if total <= maxBytes {
		metrics.CacheSizeBytes.Set(float64(total))
		return nil
	}

	sort.Slice(files, func(i, j int) bool { return files[i].modTime < files[j].modTime })

	for _, f := range files {
		if total <= maxBytes {
			break
		}
		if err := os.Remove(f.path); err != nil {
			s.logger.Warn("cache: failed to remove %s: %v", f.path, err)
			continue
		}
		total -= f.size
		metrics.CacheEvictionsTotal.Inc()
		s.logger.Info("cache: evicted %s (%.2f MB)", filepath.Base(f.path), float64(f.size)/(1024*1024))
	}

	metrics.CacheSizeBytes.Set(float64(total))
	s.logger.Info("cache: size after eviction %.2f MB", float64(total)/(1024*1024))
	return nil
}

func (s *Store) listFiles() (int64, []cacheFile, error) {
	var total int64
	var files []cacheFile

	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		files = append(files, cacheFile{path: path, size: info.Size(), modTime: info.ModTime().UnixNano()})
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return total, files, err
	}
	return total, files, nil
}

// Clear removes the entire cache directory tree. An absent directory is
// not an error.
func (s *Store) Clear() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to remove cache directory %s: %w", s.dir, err)
	}
	s.logger.Info("cache: cleared %s", s.dir)
	return nil
}
