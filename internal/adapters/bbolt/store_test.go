package bbolt

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/corey/tagsmith/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore creates a temporary bbolt store for testing.
func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

// makeTestStates creates a realistic fingerprint set.
func makeTestStates() map[string]ports.FileState {
	return map[string]ports.FileState{
		"src/main.go":       {Size: 4096, ModTime: 1700000000},
		"src/handler.go":    {Size: 2048, ModTime: 1700000100},
		"lib/session.rb":    {Size: 8192, ModTime: 1700000200},
		"pkg/util/paths.go": {Size: 512, ModTime: 1700000300},
	}
}

func TestStore_SaveLoadFileStates_Roundtrip(t *testing.T) {
	// Save a fingerprint set, load it back. Every path, size, and mtime
	// must match the original.
	store, _ := newTestStore(t)
	original := makeTestStates()

	err := store.SaveFileStates("proj-1", original)
	require.NoError(t, err)

	loaded, err := store.LoadFileStates("proj-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, original, loaded)
}

func TestStore_SaveReplacesPreviousSet(t *testing.T) {
	// A second save replaces the set wholesale: removed files must not
	// linger in the loaded result.
	store, _ := newTestStore(t)

	require.NoError(t, store.SaveFileStates("proj-1", makeTestStates()))
	require.NoError(t, store.SaveFileStates("proj-1", map[string]ports.FileState{
		"src/main.go": {Size: 5000, ModTime: 1700001000},
	}))

	loaded, err := store.LoadFileStates("proj-1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, ports.FileState{Size: 5000, ModTime: 1700001000}, loaded["src/main.go"])
}

func TestStore_ProjectScoped(t *testing.T) {
	// Two projects stored in the same bbolt file use separate buckets.
	// Project A's fingerprints are invisible to project B.
	store, _ := newTestStore(t)

	require.NoError(t, store.SaveFileStates("proj-A", makeTestStates()))
	require.NoError(t, store.SaveFileStates("proj-B", map[string]ports.FileState{
		"deploy.py": {Size: 100, ModTime: 1700000500},
	}))

	loadedA, err := store.LoadFileStates("proj-A")
	require.NoError(t, err)
	assert.Len(t, loadedA, 4)

	loadedB, err := store.LoadFileStates("proj-B")
	require.NoError(t, err)
	require.Len(t, loadedB, 1)
	assert.Contains(t, loadedB, "deploy.py")

	// Nonexistent project — nil, nil
	loadedC, err := store.LoadFileStates("proj-C")
	require.NoError(t, err)
	assert.Nil(t, loadedC)
}

func TestStore_DeleteProject(t *testing.T) {
	// DeleteProject removes all state for that project; other projects
	// are unaffected; deleting a nonexistent project is idempotent.
	store, _ := newTestStore(t)

	require.NoError(t, store.SaveFileStates("proj-A", makeTestStates()))
	require.NoError(t, store.SaveFileStates("proj-B", map[string]ports.FileState{
		"x.py": {Size: 1, ModTime: 1},
	}))

	require.NoError(t, store.DeleteProject("proj-A"))

	states, err := store.LoadFileStates("proj-A")
	require.NoError(t, err)
	assert.Nil(t, states)

	statesB, err := store.LoadFileStates("proj-B")
	require.NoError(t, err)
	assert.Contains(t, statesB, "x.py")

	assert.NoError(t, store.DeleteProject("proj-C"))
}

func TestStore_StateSurvivesRestart(t *testing.T) {
	// Save, close, reopen, load. Simulates a process restart between
	// incremental runs.
	dir := t.TempDir()
	path := filepath.Join(dir, "restart.db")

	store1, err := NewStore(path)
	require.NoError(t, err)

	original := makeTestStates()
	require.NoError(t, store1.SaveFileStates("proj-1", original))
	require.NoError(t, store1.Close())

	store2, err := NewStore(path)
	require.NoError(t, err)
	defer store2.Close()

	loaded, err := store2.LoadFileStates("proj-1")
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestStore_ConcurrentReads(t *testing.T) {
	// bbolt supports concurrent readers, single writer.
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveFileStates("proj-1", makeTestStates()))

	var wg sync.WaitGroup
	errs := make(chan error, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			states, err := store.LoadFileStates("proj-1")
			if err != nil {
				errs <- err
				return
			}
			if len(states) != 4 {
				errs <- fmt.Errorf("expected 4 states, got %d", len(states))
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent read error: %v", err)
	}
}

func TestStore_OpenTimeout_DoesNotHang(t *testing.T) {
	// When another handle holds the bbolt exclusive lock, a second open
	// should fail after the ~1s timeout instead of hanging forever.
	dir := t.TempDir()
	path := filepath.Join(dir, "locked.db")

	store1, err := NewStore(path)
	require.NoError(t, err)
	defer store1.Close()

	start := time.Now()
	store2, err := NewStore(path)
	elapsed := time.Since(start)

	require.Error(t, err, "second open should fail with lock timeout")
	assert.Nil(t, store2)
	assert.Contains(t, err.Error(), "bbolt open")
	assert.Less(t, elapsed, 3*time.Second, "should complete within 3s, not hang")
}
