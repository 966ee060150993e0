package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores downloaded test sets between runs
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Clear() error
}

// Key derives the cache key of a test set from the service and its filename
func Key(baseURL, filename string) string {
	hash := sha256.Sum256([]byte(baseURL + "\x00" + filename))
	return "tortbench-v1-" + hex.EncodeToString(hash[:])
}

// New returns a two-level cache: process memory in front of files in dir.
// Entries older than ttl are ignored.
func New(dir string, ttl time.Duration) Cache {
	return &layered{
		memory: newMemory(ttl),
		disk:   newDisk(dir, ttl),
	}
}

type layered struct {
	memory *memory
	disk   *disk
}

func (c *layered) Get(key string) ([]byte, bool) {
	if val, ok := c.memory.Get(key); ok {
		return val, true
	}

	val, ok := c.disk.Get(key)
	if ok {
		c.memory.Set(key, val)
	}
	return val, ok
}

func (c *layered) Set(key string, value []byte) error {
	c.memory.Set(key, value)
	return c.disk.Set(key, value)
}

func (c *layered) Clear() error {
	c.memory.Clear()
	return c.disk.Clear()
}
