package watcher

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// SeenCache remembers processed detections across restarts. It is
// backed by a bbolt file; when the file cannot be opened the cache
// degrades to in-memory only, which still dedupes within the process.
type SeenCache struct {
	db  *bbolt.DB
	mem map[string]bool
}

// OpenSeenCache opens (or creates) the cache database at path.
func OpenSeenCache(path string) *SeenCache {
	c := &SeenCache{mem: make(map[string]bool)}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err == nil {
		c.db = db
	}
	return c
}

// Close releases the underlying database.
func (c *SeenCache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Seen reports whether a key was marked before.
func (c *SeenCache) Seen(bucket, key string) bool {
	if c.mem[bucket+"/"+key] {
		return true
	}
	if c.db == nil {
		return false
	}
	var found bool
	c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b != nil {
			found = b.Get([]byte(key)) != nil
		}
		return nil
	})
	return found
}

// Mark records a key as processed.
func (c *SeenCache) Mark(bucket, key string) error {
	c.mem[bucket+"/"+key] = true
	if c.db == nil {
		return nil
	}
	err := c.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), []byte(time.Now().UTC().Format(time.RFC3339)))
	})
	if err != nil {
		return fmt.Errorf("mark seen %s/%s: %w", bucket, key, err)
	}
	return nil
}
