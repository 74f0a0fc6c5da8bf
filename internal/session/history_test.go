package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avallone/convertd/internal/models"
	"github.com/avallone/convertd/pkg/logger"
)

func newTestHistory(t *testing.T) (*Store, *History) {
	t.Helper()
	log := logger.NewTestLogger()
	store, err := NewStore(log, t.TempDir())
	require.NoError(t, err)
	return store, NewHistory(log, store)
}

func addSession(t *testing.T, store *Store, timestamp int64, files ...string) string {
	t.Helper()
	id, err := store.Create()
	require.NoError(t, err)
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(store.Dir(id), name), []byte("data"), 0o644))
	}
	meta := models.SessionMetadata{Timestamp: timestamp, Date: "2024-01-01T00:00:00Z"}
	data, err := json.Marshal(meta)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(id), metadataFile), data, 0o644))
	return id
}

func TestListEmptyRoot(t *testing.T) {
	_, history := newTestHistory(t)
	sessions, err := history.List()
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestListNewestFirst(t *testing.T) {
	store, history := newTestHistory(t)

	old := addSession(t, store, 100, "a.png")
	newer := addSession(t, store, 200, "b.mp3")

	sessions, err := history.List()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, newer, sessions[0].SessionID)
	assert.Equal(t, old, sessions[1].SessionID)
}

func TestListRecomputesCategories(t *testing.T) {
	store, history := newTestHistory(t)
	id := addSession(t, store, 100, "a.png", "b.png", "c.mp3")

	sessions, err := history.List()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, map[string]int{"image": 2, "audio": 1}, sessions[0].Categories)
	assert.Equal(t, 3, sessions[0].FileCount)

	// Deleting a file changes the counts on the next read; the sidecar is
	// never rewritten.
	require.NoError(t, os.Remove(filepath.Join(store.Dir(id), "b.png")))
	sessions, err = history.List()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"image": 1, "audio": 1}, sessions[0].Categories)
	assert.Equal(t, 2, sessions[0].FileCount)
}

func TestListFallsBackToModTime(t *testing.T) {
	store, history := newTestHistory(t)
	id, err := store.Create()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(id), "a.txt"), []byte("x"), 0o644))

	sessions, err := history.List()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.NotZero(t, sessions[0].Timestamp)
	assert.NotEmpty(t, sessions[0].Date)
}

func TestDeleteSession(t *testing.T) {
	store, history := newTestHistory(t)
	id := addSession(t, store, 100, "a.png")

	outcome := history.DeleteSession(id)
	assert.True(t, outcome.Deleted)
	assert.NoDirExists(t, store.Dir(id))

	outcome = history.DeleteSession(id)
	assert.False(t, outcome.Deleted)
	assert.True(t, outcome.Missing)
}

func TestDeleteFile(t *testing.T) {
	store, history := newTestHistory(t)
	id := addSession(t, store, 100, "a.png", "b.png")

	outcome := history.DeleteFile(id, "a.png")
	assert.True(t, outcome.Deleted)
	assert.NoFileExists(t, filepath.Join(store.Dir(id), "a.png"))
	// The session itself survives.
	assert.DirExists(t, store.Dir(id))

	outcome = history.DeleteFile(id, "a.png")
	assert.True(t, outcome.Missing)

	outcome = history.DeleteFile(id, "../escape")
	assert.NotEmpty(t, outcome.Error)
}

func TestDeleteBatch(t *testing.T) {
	store, history := newTestHistory(t)
	first := addSession(t, store, 100, "a.png", "b.png")
	second := addSession(t, store, 200, "c.png")

	outcomes := history.DeleteBatch(models.DeleteBatchRequest{
		Files:    []models.DeleteTarget{{SessionID: first, Filename: "a.png"}, {SessionID: first, Filename: "missing.png"}},
		Sessions: []string{second, "no-such-session"},
	})
	require.Len(t, outcomes, 4)

	assert.True(t, outcomes[0].Deleted)
	assert.True(t, outcomes[1].Missing)
	assert.True(t, outcomes[2].Deleted)
	assert.True(t, outcomes[3].Missing)

	assert.DirExists(t, store.Dir(first))
	assert.NoDirExists(t, store.Dir(second))
}
