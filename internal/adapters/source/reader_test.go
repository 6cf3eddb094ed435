package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReader_LineAtOffsets(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.c", "int foo() {\n\treturn 0;\n}\n")

	r := NewReader()
	defer r.Close()

	line, err := r.LineAt(path, 0)
	require.NoError(t, err)
	assert.Equal(t, "int foo() {\n", line)

	line, err = r.LineAt(path, 12)
	require.NoError(t, err)
	assert.Equal(t, "\treturn 0;\n", line)

	// Backward seek works too.
	line, err = r.LineAt(path, 0)
	require.NoError(t, err)
	assert.Equal(t, "int foo() {\n", line)
}

func TestReader_SequentialReadsAvoidSeeking(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "seq.txt", "one\ntwo\nthree\n")

	r := NewReader()
	defer r.Close()

	for offset, want := range map[int64]string{0: "one\n", 4: "two\n", 8: "three\n"} {
		line, err := r.LineAt(path, offset)
		require.NoError(t, err)
		assert.Equal(t, want, line)
	}
}

func TestReader_LastLineWithoutNewline(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "nolf.txt", "first\nlast")

	r := NewReader()
	defer r.Close()

	line, err := r.LineAt(path, 6)
	require.NoError(t, err)
	assert.Equal(t, "last", line)
}

func TestReader_OffsetPastEnd(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "short.txt", "hi\n")

	r := NewReader()
	defer r.Close()

	_, err := r.LineAt(path, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "past end")
}

func TestReader_SwitchesFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "alpha\n")
	b := writeFile(t, dir, "b.txt", "beta\n")

	r := NewReader()
	defer r.Close()

	line, err := r.LineAt(a, 0)
	require.NoError(t, err)
	assert.Equal(t, "alpha\n", line)

	line, err = r.LineAt(b, 0)
	require.NoError(t, err)
	assert.Equal(t, "beta\n", line)

	line, err = r.LineAt(a, 0)
	require.NoError(t, err)
	assert.Equal(t, "alpha\n", line)
}

func TestReader_MissingFile(t *testing.T) {
	r := NewReader()
	defer r.Close()

	_, err := r.LineAt(filepath.Join(t.TempDir(), "nope.c"), 0)
	require.Error(t, err)
}

func TestReader_CloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "x.txt", "x\n")

	r := NewReader()
	_, err := r.LineAt(path, 0)
	require.NoError(t, err)

	assert.NoError(t, r.Close())
	assert.NoError(t, r.Close())

	// Reader is reusable after Close.
	line, err := r.LineAt(path, 0)
	require.NoError(t, err)
	assert.Equal(t, "x\n", line)
}
