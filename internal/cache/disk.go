package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// disk keeps one file per entry; the file's modification time dates it
type disk struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

func newDisk(dir string, ttl time.Duration) *disk {
	return &disk{dir: dir, ttl: ttl, now: time.Now}
}

func (d *disk) Get(key string) ([]byte, bool) {
	p := d.path(key)

	info, err := os.Stat(p)
	if err != nil {
		return nil, false
	}
	if d.ttl > 0 && d.now().Sub(info.ModTime()) > d.ttl {
		_ = os.Remove(p)
		return nil, false
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (d *disk) Set(key string, value []byte) error {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(d.path(key), value, 0644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

func (d *disk) Clear() error {
	return os.RemoveAll(d.dir)
}

func (d *disk) path(key string) string {
	return filepath.Join(d.dir, key+".jsonl")
}
