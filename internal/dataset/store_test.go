package dataset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/foldscape/foldscape/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDataset(t *testing.T, dir string, repos any, meta *types.DatasetMetadata) {
	t.Helper()

	raw, err := json.Marshal(repos)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "repos.json"), raw, 0644))

	if meta != nil {
		raw, err = json.Marshal(meta)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), raw, 0644))
	}
}

func TestNewStoreLoadsListRoot(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, []types.Record{
		{RepoID: "a/b", Metadata: &types.Metadata{Name: "b", Stars: 10}},
		{RepoID: "c/d"},
	}, &types.DatasetMetadata{CollectedAt: "2025-08-01T00:00:00Z", RepoCount: 2})

	store, err := NewStore(dir)
	require.NoError(t, err)

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, "2025-08-01T00:00:00Z", store.Metadata().CollectedAt)

	records := store.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "a/b", records[0].RepoID)
}

func TestNewStoreLoadsKeyedRoot(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, map[string]types.Record{
		"a/b": {Metadata: &types.Metadata{Name: "b"}},
	}, nil)

	store, err := NewStore(dir)
	require.NoError(t, err)

	records := store.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "a/b", records[0].RepoID, "map key fills a missing repo_id")
}

func TestNewStoreMissingDataset(t *testing.T) {
	_, err := NewStore(t.TempDir())
	assert.Error(t, err)
}

func TestNewStoreMalformedDataset(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "repos.json"), []byte("{not json"), 0644))

	_, err := NewStore(dir)
	assert.Error(t, err)
}

func TestRecordsReturnsFreshSlice(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, []types.Record{{RepoID: "a/b"}, {RepoID: "c/d"}}, nil)

	store, err := NewStore(dir)
	require.NoError(t, err)

	first := store.Records()
	first[0], first[1] = first[1], first[0]

	second := store.Records()
	assert.Equal(t, "a/b", second[0].RepoID, "caller reordering must not leak into the store")
}

func TestReplacePersistsAndSwaps(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, []types.Record{{RepoID: "a/b"}}, nil)

	store, err := NewStore(dir)
	require.NoError(t, err)

	updated := []types.Record{
		{RepoID: "a/b", Metadata: &types.Metadata{Stars: 42}},
		{RepoID: "new/repo"},
	}
	meta := types.DatasetMetadata{CollectedAt: "2025-08-31T00:00:00Z", RepoCount: 2}
	require.NoError(t, store.Replace(updated, meta))

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, meta, store.Metadata())

	// A second store over the same directory sees the persisted state.
	reopened, err := NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Len())
	assert.Equal(t, "2025-08-31T00:00:00Z", reopened.Metadata().CollectedAt)
}

func TestReloadKeepsSnapshotOnError(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, []types.Record{{RepoID: "a/b"}}, nil)

	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "repos.json"), []byte("broken"), 0644))

	assert.Error(t, store.Reload())
	assert.Equal(t, 1, store.Len(), "previous snapshot survives a failed reload")
}
