package pipeline

import (
	"context"
	"log/slog"

	"github.com/ljpjt/tortbench/internal/cache"
	"github.com/ljpjt/tortbench/internal/model"
)

// cachedSource serves test sets from cache, downloading on a miss
type cachedSource struct {
	next    Source
	cache   cache.Cache
	baseURL string
	logger  *slog.Logger
}

func newCachedSource(next Source, c cache.Cache, baseURL string, logger *slog.Logger) *cachedSource {
	return &cachedSource{next: next, cache: c, baseURL: baseURL, logger: logger}
}

func (s *cachedSource) Download(ctx context.Context, filename string) ([]byte, []model.Tort, error) {
	key := cache.Key(s.baseURL, filename)

	if raw, ok := s.cache.Get(key); ok {
		torts, err := model.ParseTorts(raw)
		if err == nil {
			s.logger.Info("test set served from cache", "filename", filename, "torts", len(torts))
			return raw, torts, nil
		}
		s.logger.Warn("cached test set unreadable, downloading again", "filename", filename, "error", err)
	}

	raw, torts, err := s.next.Download(ctx, filename)
	if err != nil {
		return nil, nil, err
	}
	if err := s.cache.Set(key, raw); err != nil {
		s.logger.Warn("test set not cached", "filename", filename, "error", err)
	}

	return raw, torts, nil
}
