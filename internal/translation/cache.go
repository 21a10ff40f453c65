package translation

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Cache is the durable translation cache, injected into the Service at
// construction. Entries are keyed by (source language, target language,
// exact source text) and never expire. A single mutex covers both the
// in-memory map and the durable flush, so concurrent slide tasks serialize
// on cache access but not on provider calls.
type Cache struct {
	path string

	mu      sync.Mutex
	entries map[string]string
}

// NewCache creates an empty cache backed by the file at path. Call Load to
// hydrate it from disk.
func NewCache(path string) *Cache {
	return &Cache{
		path:    path,
		entries: make(map[string]string),
	}
}

// Key builds the cache key for one translation unit.
func Key(sourceLang, targetLang, text string) string {
	return sourceLang + ":" + targetLang + ":" + text
}

// Load reads the cache file if it exists. A missing file leaves the cache
// empty and is not an error.
func (c *Cache) Load() error {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cache file: %w", err)
	}

	entries := make(map[string]string)
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	return nil
}

// Get returns the cached translation for key, if any.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put stores a translation and flushes the whole cache to disk while still
// holding the lock (write-through). Full rewrites are fine at the expected
// size of a presentation's worth of sentences.
func (c *Cache) Put(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return c.flushLocked()
}

// Flush rewrites the cache file from the current in-memory state.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushLocked()
}

// Clear drops all entries and flushes the empty state.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]string)
	return c.flushLocked()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// flushLocked writes to a temp file and renames it over the real one, so a
// crash mid-write never leaves a truncated cache.
func (c *Cache) flushLocked() error {
	if c.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache temp file: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}
