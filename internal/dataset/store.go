// Package dataset owns the on-disk landscape data: repos.json with the
// record collection and metadata.json with collection provenance. The
// collection is loaded once into an immutable in-memory snapshot; Reload
// swaps the snapshot atomically so readers never see a partial dataset.
package dataset

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/foldscape/foldscape/internal/types"
)

const (
	reposFile    = "repos.json"
	metadataFile = "metadata.json"
)

// Store serves the current dataset snapshot. Records returned by
// Records() must be treated as read-only; mutating pipelines (velocity,
// categorizer) work on copies and swap the result back in with Replace.
type Store struct {
	dataDir string

	mu       sync.RWMutex
	records  []types.Record
	metadata types.DatasetMetadata
}

// NewStore creates a store over dataDir and performs the initial load.
func NewStore(dataDir string) (*Store, error) {
	s := &Store{dataDir: dataDir}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads repos.json and metadata.json and swaps the snapshot in
// one step. On error the previous snapshot stays in place.
func (s *Store) Reload() error {
	records, err := loadRecords(filepath.Join(s.dataDir, reposFile))
	if err != nil {
		return err
	}

	meta := types.DatasetMetadata{RepoCount: len(records)}
	metaPath := filepath.Join(s.dataDir, metadataFile)
	if raw, err := os.ReadFile(metaPath); err == nil {
		if err := json.Unmarshal(raw, &meta); err != nil {
			slog.Warn("Ignoring malformed dataset metadata", "path", metaPath, "error", err)
		}
	}

	s.mu.Lock()
	s.records = records
	s.metadata = meta
	s.mu.Unlock()

	slog.Info("Dataset loaded", "repos", len(records), "collected_at", meta.CollectedAt)
	return nil
}

// loadRecords parses repos.json. The root may be a list or a keyed object;
// both shapes exist in the wild for this dataset.
func loadRecords(path string) ([]types.Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var records []types.Record
	if err := json.Unmarshal(raw, &records); err == nil {
		return records, nil
	}

	var keyed map[string]types.Record
	if err := json.Unmarshal(raw, &keyed); err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}

	records = make([]types.Record, 0, len(keyed))
	for id, rec := range keyed {
		if rec.RepoID == "" {
			rec.RepoID = id
		}
		records = append(records, rec)
	}
	return records, nil
}

// Records returns the current snapshot. The slice header is fresh on
// every call so callers can filter and reorder freely.
func (s *Store) Records() []types.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the size of the full collection.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Metadata returns the dataset provenance sidecar.
func (s *Store) Metadata() types.DatasetMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadata
}

// Replace swaps in an updated collection (after a refresh pipeline run)
// and persists it to disk with an atomic rename.
func (s *Store) Replace(records []types.Record, meta types.DatasetMetadata) error {
	if err := writeJSON(filepath.Join(s.dataDir, reposFile), records); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(s.dataDir, metadataFile), meta); err != nil {
		return err
	}

	s.mu.Lock()
	s.records = records
	s.metadata = meta
	s.mu.Unlock()

	slog.Info("Dataset replaced", "repos", len(records))
	return nil
}

// writeJSON writes via a temp file plus rename so a crash mid-write never
// leaves a truncated dataset behind.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
