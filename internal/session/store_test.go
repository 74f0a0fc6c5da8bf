package session

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avallone/convertd/internal/models"
	"github.com/avallone/convertd/pkg/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(logger.NewTestLogger(), t.TempDir())
	require.NoError(t, err)
	return store
}

func TestCreateDistinctSessions(t *testing.T) {
	store := newTestStore(t)

	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id, err := store.Create()
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate session id")
		seen[id] = true
		assert.DirExists(t, store.Dir(id))
	}
}

func TestFilePathRejectsTraversal(t *testing.T) {
	store := newTestStore(t)

	for _, tt := range []struct{ id, name string }{
		{"..", "f.txt"},
		{"id", ".."},
		{"id", "../f.txt"},
		{"id", "a/b.txt"},
		{"id", ""},
		{"", "f.txt"},
	} {
		_, err := store.FilePath(tt.id, tt.name)
		assert.ErrorIsf(t, err, ErrInvalidName, "id=%q name=%q", tt.id, tt.name)
	}

	path, err := store.FilePath("session", "file.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Root(), "session", "file.txt"), path)
}

func TestWriteAndReadMetadata(t *testing.T) {
	store := newTestStore(t)
	id, err := store.Create()
	require.NoError(t, err)

	jobs := []models.ConversionJob{
		{TargetFormat: "png"},
		{TargetFormat: "mp3"},
		{TargetFormat: "png"},
	}
	results := []models.ConversionResult{
		{Success: true, Category: models.CategoryImage},
		{Success: false},
		{Success: true, Category: models.CategoryImage},
	}
	require.NoError(t, store.WriteMetadata(id, jobs, results))

	meta, ok := store.ReadMetadata(id)
	require.True(t, ok)
	// Failed jobs contribute nothing; duplicates collapse.
	assert.Equal(t, []string{"png"}, meta.TargetFormats)
	assert.Equal(t, map[string]int{"image": 2}, meta.Categories)
	assert.NotZero(t, meta.Timestamp)
}

func TestReadMetadataMissing(t *testing.T) {
	store := newTestStore(t)
	_, ok := store.ReadMetadata("nope")
	assert.False(t, ok)
}

func TestArchiveIsFlatAndSkipsSidecar(t *testing.T) {
	store := newTestStore(t)
	id, err := store.Create()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(id), "x.png"), []byte("png-bytes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(id), "y.wav"), []byte("wav-bytes"), 0o644))
	require.NoError(t, store.WriteMetadata(id, nil, nil))

	path, err := store.Archive(id)
	require.NoError(t, err)
	assert.Equal(t, store.ArchivePath(id), path)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"x.png", "y.wav"}, names)
}

func TestArchiveOverwrites(t *testing.T) {
	store := newTestStore(t)
	id, err := store.Create()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(id), "a.txt"), []byte("first"), 0o644))
	_, err = store.Archive(id)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(id), "b.txt"), []byte("second"), 0o644))
	path, err := store.Archive(id)
	require.NoError(t, err)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	assert.Len(t, zr.File, 2)
}

func TestClearRemovesEverything(t *testing.T) {
	store := newTestStore(t)
	id, err := store.Create()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(id), "a.txt"), []byte("x"), 0o644))
	_, err = store.Archive(id)
	require.NoError(t, err)

	require.NoError(t, store.Clear(id))
	assert.NoDirExists(t, store.Dir(id))
	assert.NoFileExists(t, store.ArchivePath(id))

	// Clearing again is a no-op, not an error.
	require.NoError(t, store.Clear(id))
}

func TestClearRejectsBadID(t *testing.T) {
	store := newTestStore(t)
	assert.ErrorIs(t, store.Clear(".."), ErrInvalidName)
	_, err := store.Archive("../etc")
	assert.ErrorIs(t, err, ErrInvalidName)
}
