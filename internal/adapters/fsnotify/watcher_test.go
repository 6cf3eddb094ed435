package fsnotify

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitForCallback waits up to timeout for the callback channel to receive a value.
func waitForCallback(ch <-chan string, timeout time.Duration) (string, bool) {
	select {
	case v := <-ch:
		return v, true
	case <-time.After(timeout):
		return "", false
	}
}

func TestWatcher_DetectsFileChange(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "test.py")
	require.NoError(t, os.WriteFile(testFile, []byte("# original"), 0644))

	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Stop()

	changed := make(chan string, 10)
	err = w.Watch(dir, func(path string) {
		changed <- path
	})
	require.NoError(t, err)

	// Give watcher time to start
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(testFile, []byte("# modified"), 0644))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for file change")
	assert.Equal(t, testFile, path)
}

func TestWatcher_DetectsNewFile(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Stop()

	changed := make(chan string, 10)
	err = w.Watch(dir, func(path string) {
		changed <- path
	})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	newFile := filepath.Join(dir, "new_file.py")
	require.NoError(t, os.WriteFile(newFile, []byte("# new"), 0644))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for new file")
	assert.Equal(t, newFile, path)
}

func TestWatcher_DetectsDeletedFile(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "to_delete.py")
	require.NoError(t, os.WriteFile(testFile, []byte("# delete me"), 0644))

	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Stop()

	changed := make(chan string, 10)
	err = w.Watch(dir, func(path string) {
		changed <- path
	})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.Remove(testFile))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for deleted file")
	assert.Equal(t, testFile, path)
}

func TestWatcher_IgnoresNonSourceFiles(t *testing.T) {
	// Changes under .git/, node_modules/, editor droppings, and tag
	// tables themselves do NOT trigger onChange. A rebuild that writes
	// "tags" must not retrigger itself.
	dir := t.TempDir()

	gitDir := filepath.Join(dir, ".git")
	require.NoError(t, os.MkdirAll(gitDir, 0755))
	nmDir := filepath.Join(dir, "node_modules")
	require.NoError(t, os.MkdirAll(nmDir, 0755))

	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Stop()

	changed := make(chan string, 10)
	err = w.Watch(dir, func(path string) {
		changed <- path
	})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref"), 0644)
	os.WriteFile(filepath.Join(nmDir, "package.json"), []byte("{}"), 0644)
	os.WriteFile(filepath.Join(dir, ".DS_Store"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "test.swp"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "tags"), []byte("main\tmain.py\t1\n"), 0644)
	os.WriteFile(filepath.Join(dir, "TAGS"), []byte("\f\nmain.py,10\n"), 0644)

	_, ok := waitForCallback(changed, 500*time.Millisecond)
	assert.False(t, ok, "should not have received callback for ignored files")

	// But a real source file should trigger
	codeFile := filepath.Join(dir, "main.py")
	require.NoError(t, os.WriteFile(codeFile, []byte("# code"), 0644))

	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for source file")
	assert.Equal(t, codeFile, path)
}

func TestWatcher_StopCleanup(t *testing.T) {
	// After Stop(), no more callbacks fire and double-stop is safe.
	dir := t.TempDir()

	w, err := NewWatcher()
	require.NoError(t, err)

	callCount := 0
	var mu sync.Mutex
	err = w.Watch(dir, func(path string) {
		mu.Lock()
		callCount++
		mu.Unlock()
	})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	require.NoError(t, w.Stop())

	mu.Lock()
	countAfterStop := callCount
	mu.Unlock()

	os.WriteFile(filepath.Join(dir, "after_stop.py"), []byte("# nope"), 0644)
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	countAfterWrite := callCount
	mu.Unlock()

	assert.Equal(t, countAfterStop, countAfterWrite, "callbacks fired after Stop()")

	assert.NoError(t, w.Stop())
}
