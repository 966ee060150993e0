package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalBackend writes objects as files below a root directory
type LocalBackend struct {
	root string
}

// NewLocalBackend creates a backend rooted at root
func NewLocalBackend(root string) *LocalBackend {
	return &LocalBackend{root: root}
}

// Name identifies the backend in errors
func (b *LocalBackend) Name() string {
	return "local:" + b.root
}

// Path returns the file path of key
func (b *LocalBackend) Path(key string) string {
	return filepath.Join(b.root, filepath.FromSlash(key))
}

// Put writes data to the file of key, creating parent directories
func (b *LocalBackend) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full := b.Path(key)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".tmp-"+filepath.Base(full)+"-*")
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename file: %w", err)
	}

	return nil
}
