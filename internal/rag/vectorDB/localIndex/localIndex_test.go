package localIndex

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akolanti/RegGuru/internal/config"
	"github.com/akolanti/RegGuru/internal/domain/commonModels"
	"github.com/akolanti/RegGuru/internal/domain/ragErrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id string, vec ...float32) commonModels.ChunkRecord {
	return commonModels.ChunkRecord{
		Id:       id,
		Text:     "text of " + id,
		Vector:   vec,
		Metadata: map[string]string{commonModels.MetaSource: "doc.pdf"},
	}
}

func liveDir(t *testing.T, store *Store) string {
	t.Helper()
	dir, err := store.CurrentDir()
	require.NoError(t, err)
	return dir
}

func TestPersistLoadRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	assert.False(t, store.Exists())

	idx, err := store.Create([]commonModels.ChunkRecord{
		record("a_0", 1, 0, 0),
		record("a_1", 0, 1, 0),
		record("a_2", 0.5, 0.5, 0),
	})
	require.NoError(t, err)
	require.NoError(t, store.Persist(idx))
	assert.True(t, store.Exists())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, idx.Dimension(), loaded.Dimension())
	assert.Equal(t, idx.Records(), loaded.Records())
	assert.NotEmpty(t, loaded.Generation())
	assert.Equal(t, idx.Generation(), loaded.Generation())

	want, err := store.Query(idx, []float32{1, 0.1, 0}, 2)
	require.NoError(t, err)
	got, err := store.Query(loaded, []float32{1, 0.1, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "a_0", got[0].Record.Id)
}

func TestMergeKeepsExistingRecords(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	idx, err := store.Create([]commonModels.ChunkRecord{record("a_0", 1, 0)})
	require.NoError(t, err)
	require.NoError(t, store.Persist(idx))

	loaded, err := store.Load()
	require.NoError(t, err)
	merged, err := store.Merge(loaded, []commonModels.ChunkRecord{record("b_0", 0, 1), record("b_1", 1, 1)})
	require.NoError(t, err)
	require.NoError(t, store.Persist(merged))

	reloaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, 3, reloaded.Len())
	ids := []string{}
	for _, r := range reloaded.Records() {
		ids = append(ids, r.Id)
	}
	assert.Equal(t, []string{"a_0", "b_0", "b_1"}, ids)
}

func TestMergeRejectsDimensionMismatch(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	idx, err := store.Create([]commonModels.ChunkRecord{record("a_0", 1, 0)})
	require.NoError(t, err)
	_, err = store.Merge(idx, []commonModels.ChunkRecord{record("b_0", 1, 0, 0)})
	assert.Error(t, err)
	assert.Equal(t, 1, idx.Len())
}

func TestCreateEmpty(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Create(nil)
	assert.ErrorIs(t, err, ragErrors.ErrEmptyInput)
}

func TestLoadMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load()
	assert.ErrorIs(t, err, ragErrors.ErrIndexNotFound)
}

func TestLoadCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(t *testing.T, store *Store)
	}{
		{
			name: "truncated vectors",
			corrupt: func(t *testing.T, store *Store) {
				path := filepath.Join(liveDir(t, store), config.IndexFileName)
				info, err := os.Stat(path)
				require.NoError(t, err)
				require.NoError(t, os.Truncate(path, info.Size()-3))
			},
		},
		{
			name: "bad magic",
			corrupt: func(t *testing.T, store *Store) {
				path := filepath.Join(liveDir(t, store), config.IndexFileName)
				data, err := os.ReadFile(path)
				require.NoError(t, err)
				copy(data, "XXXX")
				require.NoError(t, os.WriteFile(path, data, 0o640))
			},
		},
		{
			name: "sidecar not json",
			corrupt: func(t *testing.T, store *Store) {
				require.NoError(t, os.WriteFile(filepath.Join(liveDir(t, store), config.IndexSidecarName), []byte("{oops"), 0o640))
			},
		},
		{
			name: "current points outside the index",
			corrupt: func(t *testing.T, store *Store) {
				require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), currentFile), []byte("gen-x/../../etc\n"), 0o640))
			},
		},
		{
			name: "sidecar missing",
			corrupt: func(t *testing.T, store *Store) {
				require.NoError(t, os.Remove(filepath.Join(liveDir(t, store), config.IndexSidecarName)))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(t.TempDir())
			require.NoError(t, err)
			idx, err := store.Create([]commonModels.ChunkRecord{record("a_0", 1, 2), record("a_1", 3, 4)})
			require.NoError(t, err)
			require.NoError(t, store.Persist(idx))

			tt.corrupt(t, store)

			_, err = store.Load()
			assert.ErrorIs(t, err, ragErrors.ErrCorruptIndex)
		})
	}
}

func TestLoadGenerationMismatch(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	idx, err := store.Create([]commonModels.ChunkRecord{record("a_0", 1, 2)})
	require.NoError(t, err)
	require.NoError(t, store.Persist(idx))
	stale, err := os.ReadFile(filepath.Join(liveDir(t, store), config.IndexSidecarName))
	require.NoError(t, err)

	require.NoError(t, store.Persist(idx))
	require.NoError(t, os.WriteFile(filepath.Join(liveDir(t, store), config.IndexSidecarName), stale, 0o640))

	_, err = store.Load()
	assert.ErrorIs(t, err, ragErrors.ErrCorruptIndex)
	assert.ErrorIs(t, err, errGenerationMismatch)
}

// A writer that stops after moving its generation into place but before swapping
// CURRENT must leave the previous index loadable, and the next persist cleans up.
func TestInterruptedPersistKeepsPreviousIndex(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	first, err := store.Create([]commonModels.ChunkRecord{record("a_0", 1, 0)})
	require.NoError(t, err)
	require.NoError(t, store.Persist(first))
	firstDir := liveDir(t, store)

	// half-published: a complete new generation plus a lone sidecar of another, CURRENT untouched
	orphan := filepath.Join(store.Dir(), generationPrefix+newGeneration())
	require.NoError(t, os.Mkdir(orphan, 0o750))
	second, err := store.Create([]commonModels.ChunkRecord{record("a_0", 1, 0), record("b_0", 0, 1)})
	require.NoError(t, err)
	require.NoError(t, writeSidecar(filepath.Join(orphan, config.IndexSidecarName), newGeneration(), second))
	require.NoError(t, writeVectorFile(filepath.Join(orphan, config.IndexFileName), newGeneration(), second))
	lone := filepath.Join(store.Dir(), generationPrefix+newGeneration())
	require.NoError(t, os.Mkdir(lone, 0o750))
	require.NoError(t, writeSidecar(filepath.Join(lone, config.IndexSidecarName), newGeneration(), second))

	assert.True(t, store.Exists())
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
	assert.Equal(t, first.Generation(), loaded.Generation())
	assert.Equal(t, firstDir, liveDir(t, store))

	merged, err := store.Merge(loaded, []commonModels.ChunkRecord{record("c_0", 1, 1)})
	require.NoError(t, err)
	require.NoError(t, store.Persist(merged))

	reloaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())
	for _, dir := range []string{firstDir, orphan, lone} {
		_, err := os.Stat(dir)
		assert.True(t, os.IsNotExist(err), "%s should be removed", dir)
	}
}

func TestPersistKeepsOnlyLiveGeneration(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	idx, err := store.Create([]commonModels.ChunkRecord{record("a_0", 1)})
	require.NoError(t, err)
	require.NoError(t, store.Persist(idx))
	require.NoError(t, store.Persist(idx))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name())
		assert.False(t, strings.HasPrefix(e.Name(), persistPrefix), "leftover %s", e.Name())
	}
	assert.ElementsMatch(t, []string{currentFile, filepath.Base(liveDir(t, store))}, names)

	files, err := os.ReadDir(liveDir(t, store))
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.ElementsMatch(t, []string{config.IndexFileName, config.IndexSidecarName}, []string{files[0].Name(), files[1].Name()})
}

func TestPersistEmpty(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	assert.ErrorIs(t, store.Persist(nil), ragErrors.ErrEmptyInput)
	assert.False(t, store.Exists())
}
