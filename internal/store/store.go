package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/ljpjt/tortbench/internal/model"
)

// Backend persists an object under a slash-separated key.
// Writing an existing key replaces it.
type Backend interface {
	Put(ctx context.Context, key string, data []byte) error
	Name() string
}

// Store lays out run artifacts under mode-scoped keys and writes them to
// every backend in order. The first backend failure stops the write.
type Store struct {
	mode     string
	backends []Backend
}

// New creates a store for the given run mode
func New(mode string, backends ...Backend) *Store {
	return &Store{mode: mode, backends: backends}
}

// DatasetKey is the key of a raw test set
func DatasetKey(filename string) string {
	return path.Join("dataset", filename)
}

// SubmissionKey is the key of a stored submission
func SubmissionKey(mode, filename string) string {
	return path.Join("submissions", mode, filename)
}

// EvaluationKey is the key of a stored evaluation result
func EvaluationKey(mode, filename string) string {
	return path.Join("evaluation_results", mode, filename)
}

// SaveDataset stores the raw test set as downloaded
func (s *Store) SaveDataset(ctx context.Context, filename string, raw []byte) (string, error) {
	key := DatasetKey(filename)
	return key, s.put(ctx, key, raw)
}

// SaveSubmission stores the predicted torts, one JSON record per line
func (s *Store) SaveSubmission(ctx context.Context, filename string, torts []model.Tort) (string, error) {
	data, err := model.EncodeTorts(torts)
	if err != nil {
		return "", fmt.Errorf("encode submission: %w", err)
	}

	key := SubmissionKey(s.mode, filename)
	return key, s.put(ctx, key, data)
}

// SaveEvaluation stores the evaluation payload as a single JSON line
func (s *Store) SaveEvaluation(ctx context.Context, filename string, raw []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", fmt.Errorf("compact evaluation result: %w", err)
	}
	buf.WriteByte('\n')

	key := EvaluationKey(s.mode, filename)
	return key, s.put(ctx, key, buf.Bytes())
}

func (s *Store) put(ctx context.Context, key string, data []byte) error {
	for _, b := range s.backends {
		if err := b.Put(ctx, key, data); err != nil {
			return fmt.Errorf("store %s in %s: %w", key, b.Name(), err)
		}
	}
	return nil
}
