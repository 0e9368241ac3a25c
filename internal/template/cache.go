package template

import (
	"sync"
	"time"

	"confkeeper/pkg/logging"
)

// Source is the subset of the persistence adapter the cache needs.
type Source interface {
	ReadText(path string) (string, error)
	ModTime(path string) (time.Time, error)
}

type cacheEntry struct {
	modTime time.Time
	lines   []Line
}

// Cache keeps the scanned lines of each template path and rescans a template
// only when its modification time changes.
type Cache struct {
	mu      sync.Mutex
	source  Source
	entries map[string]cacheEntry
}

// NewCache creates a Cache reading templates from source.
func NewCache(source Source) *Cache {
	return &Cache{
		source:  source,
		entries: make(map[string]cacheEntry),
	}
}

// Lines returns the scanned lines of the template at path.
func (c *Cache) Lines(path string) ([]Line, error) {
	modTime, statErr := c.source.ModTime(path)

	c.mu.Lock()
	entry, ok := c.entries[path]
	c.mu.Unlock()
	if ok && statErr == nil && entry.modTime.Equal(modTime) {
		return entry.lines, nil
	}

	text, err := c.source.ReadText(path)
	if err != nil {
		return nil, err
	}
	lines := Scan(text)

	if statErr == nil {
		c.mu.Lock()
		c.entries[path] = cacheEntry{modTime: modTime, lines: lines}
		c.mu.Unlock()
		logging.Debug("Template", "Scanned %d lines of %s", len(lines), path)
	}
	return lines, nil
}

// Invalidate drops the cached lines of path.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}
