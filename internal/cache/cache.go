// Package cache persists identifier lists and bookkeeping values between
// runs so the catalog service is not re-harvested on every invocation.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const lastSavedKey = "lastSaved"

// Cache is a durable JSON object keyed by list-type names and arbitrary
// bookkeeping fields. Keys this process doesn't recognize are carried
// through saves untouched.
type Cache struct {
	path   string
	fresh  bool
	values map[string]json.RawMessage
}

// Open loads the cache file at path. A missing file yields an empty,
// fresh cache; the file is only created on the first Save.
func Open(path string) (*Cache, error) {
	c := &Cache{
		path:   path,
		values: make(map[string]json.RawMessage),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.fresh = true

			return c, nil
		}

		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	if err := json.Unmarshal(raw, &c.values); err != nil {
		return nil, fmt.Errorf("failed to parse cache file %s: %w", path, err)
	}

	return c, nil
}

// Fresh reports whether the cache file did not exist when opened.
func (c *Cache) Fresh() bool {
	return c.fresh
}

// Has reports whether a key is present, regardless of its value.
func (c *Cache) Has(key string) bool {
	_, ok := c.values[key]

	return ok
}

// IDList returns the identifier list stored under key, or nil if absent
// or not a string array.
func (c *Cache) IDList(key string) []string {
	raw, ok := c.values[key]
	if !ok {
		return nil
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil
	}

	return ids
}

// SetIDList replaces the identifier list stored under key.
func (c *Cache) SetIDList(key string, ids []string) {
	if ids == nil {
		ids = []string{}
	}

	raw, _ := json.Marshal(ids)
	c.values[key] = raw
}

// Float returns a numeric bookkeeping value, with ok=false when the key
// is absent or not a number.
func (c *Cache) Float(key string) (float64, bool) {
	raw, ok := c.values[key]
	if !ok {
		return 0, false
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}

	return v, true
}

// SetFloat stores a numeric bookkeeping value under key.
func (c *Cache) SetFloat(key string, v float64) {
	raw, _ := json.Marshal(v)
	c.values[key] = raw
}

// LastSaved returns the epoch seconds of the last Save, or 0 if the
// cache has never been saved.
func (c *Cache) LastSaved() float64 {
	v, _ := c.Float(lastSavedKey)

	return v
}

// Save rewrites the cache file, stamping lastSaved with the current time.
func (c *Cache) Save() error {
	c.SetFloat(lastSavedKey, float64(time.Now().Unix()))

	raw, err := json.MarshalIndent(c.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	if err := os.WriteFile(c.path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	c.fresh = false

	return nil
}
