// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"os"
	"sort"

	"github.com/pdiddy/osti-sync/internal/jsonfile"
)

// Cache is the persistent DOI to handle mapping. An entry is only added
// after a successful resolution and is never evicted. Cache is owned by a
// single writer per run and is not safe for concurrent use.
type Cache struct {
	entries map[string]string
	dirty   bool
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: map[string]string{}}
}

// LoadCache reads the JSON object at path. A missing file yields an empty
// cache so the first run can start from nothing.
func LoadCache(path string) (*Cache, error) {
	c := NewCache()
	if err := jsonfile.Read(path, &c.entries); err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, err
	}
	if c.entries == nil {
		c.entries = map[string]string{}
	}
	return c, nil
}

// Save atomically writes the cache to path and clears the dirty flag.
func (c *Cache) Save(path string) error {
	if err := jsonfile.Write(path, c.entries); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// Get returns the handle cached for doi.
func (c *Cache) Get(doi string) (string, bool) {
	h, ok := c.entries[doi]
	return h, ok
}

// Put records a resolved handle.
func (c *Cache) Put(doi, handle string) {
	if old, ok := c.entries[doi]; ok && old == handle {
		return
	}
	c.entries[doi] = handle
	c.dirty = true
}

// Dirty reports whether entries were added since the last Save.
func (c *Cache) Dirty() bool {
	return c.dirty
}

// Len returns the number of cached DOIs.
func (c *Cache) Len() int {
	return len(c.entries)
}

// DOIFor returns the DOI that resolved to handle. When several DOIs point at
// the same handle the lexically smallest wins.
func (c *Cache) DOIFor(handle string) (string, bool) {
	var found []string
	for doi, h := range c.entries {
		if h == handle {
			found = append(found, doi)
		}
	}
	if len(found) == 0 {
		return "", false
	}
	sort.Strings(found)
	return found[0], true
}

// Entries returns a copy of the mapping.
func (c *Cache) Entries() map[string]string {
	out := make(map[string]string, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}
