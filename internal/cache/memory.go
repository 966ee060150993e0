package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type memory struct {
	items *gocache.Cache
}

func newMemory(ttl time.Duration) *memory {
	return &memory{items: gocache.New(ttl, 2*ttl)}
}

func (m *memory) Get(key string) ([]byte, bool) {
	if val, ok := m.items.Get(key); ok {
		return val.([]byte), true
	}
	return nil, false
}

func (m *memory) Set(key string, value []byte) {
	m.items.SetDefault(key, value)
}

func (m *memory) Clear() {
	m.items.Flush()
}
