// Package embcache caches computed embeddings on disk so re-running the
// embed step over an unchanged corpus is free.
package embcache

import (
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const defaultTTL = 30 * 24 * time.Hour

// Cache stores gzip-compressed JSON entries keyed by content digest,
// hop size, and model version.
type Cache struct {
	Dir string
	TTL time.Duration
}

// Entry is one cached embedding result.
type Entry struct {
	Timestamps []float64 `json:"timestamps"`
	Quantized  [][]int8  `json:"quantized"`
	HopSize    int       `json:"hop_size"`
	Version    string    `json:"version"`
	CachedAt   time.Time `json:"cached_at"`
}

func New(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".heareval", "cache")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{Dir: dir, TTL: ttl}, nil
}

// FileDigest hashes a file's contents for use as a cache identity.
func FileDigest(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func key(digest string, hopSize int, version string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%d\x00%s", digest, hopSize, version)))
	return hex.EncodeToString(h[:])
}

func (c *Cache) path(k string) string {
	return filepath.Join(c.Dir, k+".json.gz")
}

// Get returns the cached entry for (digest, hopSize, version), if fresh.
func (c *Cache) Get(digest string, hopSize int, version string) (Entry, bool) {
	p := c.path(key(digest, hopSize, version))
	file, err := os.Open(p)
	if err != nil {
		return Entry{}, false
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return Entry{}, false
	}
	defer gz.Close()

	var entry Entry
	if err := json.NewDecoder(gz).Decode(&entry); err != nil {
		return Entry{}, false
	}
	if c.TTL > 0 && time.Since(entry.CachedAt) > c.TTL {
		_ = os.Remove(p)
		return Entry{}, false
	}
	return entry, true
}

// Set stores an entry atomically.
func (c *Cache) Set(digest string, hopSize int, version string, entry Entry) error {
	entry.HopSize = hopSize
	entry.Version = version
	entry.CachedAt = time.Now()

	p := c.path(key(digest, hopSize, version))
	file, err := os.CreateTemp(c.Dir, "tmp-*.json.gz")
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(file)
	if err := json.NewEncoder(gz).Encode(entry); err != nil {
		file.Close()
		os.Remove(file.Name())
		return err
	}
	if err := gz.Close(); err != nil {
		file.Close()
		os.Remove(file.Name())
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return err
	}
	if err := os.Rename(file.Name(), p); err != nil {
		os.Remove(file.Name())
		return err
	}
	return nil
}
