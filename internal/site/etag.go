package site

import (
	"io/fs"
	"sync"
	"time"

	"github.com/johann/leptos-todo/internal/cid"
)

type etagEntry struct {
	modTime time.Time
	size    int64
	etag    string
}

// ETagCache remembers content hashes of served assets until they change on disk.
type ETagCache struct {
	mu      sync.Mutex
	entries map[string]etagEntry
}

// NewETagCache creates an empty cache.
func NewETagCache() *ETagCache {
	return &ETagCache{entries: make(map[string]etagEntry)}
}

// Get returns the ETag for name, calling read only when the cached entry is
// missing or the file's size or modification time changed.
func (c *ETagCache) Get(name string, info fs.FileInfo, read func() ([]byte, error)) (string, error) {
	c.mu.Lock()
	e, ok := c.entries[name]
	c.mu.Unlock()
	if ok && e.size == info.Size() && e.modTime.Equal(info.ModTime()) {
		return e.etag, nil
	}

	data, err := read()
	if err != nil {
		return "", err
	}
	etag, err := cid.ETag(data)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[name] = etagEntry{modTime: info.ModTime(), size: info.Size(), etag: etag}
	c.mu.Unlock()
	return etag, nil
}

// Len reports how many assets are cached.
func (c *ETagCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
