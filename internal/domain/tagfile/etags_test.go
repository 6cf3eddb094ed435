package tagfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/tagsmith/internal/domain/tags"
)

func openEtags(t *testing.T, opts Options, reader *stubReader) (*Session, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "TAGS")
	opts.Path = path
	opts.Format = OutputEtags
	s, err := Open(opts, reader)
	require.NoError(t, err)
	return s, path
}

func TestEtags_SectionPerInputFile(t *testing.T) {
	s, path := openEtags(t, Options{}, defaultReader())

	require.NoError(t, s.BeginEtagsFile())
	_, err := s.Make(funcEntry("foo"))
	require.NoError(t, err)
	require.NoError(t, s.EndEtagsFile("a.c"))
	require.NoError(t, s.Close(true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	record := "int foo() {\x7ffoo\x011,0\n"
	want := fmt.Sprintf("\f\na.c,%d\n%s", len(record), record)
	assert.Equal(t, want, string(data))
}

func TestEtags_MultipleSections(t *testing.T) {
	reader := &stubReader{files: map[string]string{
		"a.c": "int foo() {\n",
		"b.c": "int bar() {\n",
	}}
	s, path := openEtags(t, Options{}, reader)

	require.NoError(t, s.BeginEtagsFile())
	_, err := s.Make(funcEntry("foo"))
	require.NoError(t, err)
	require.NoError(t, s.EndEtagsFile("a.c"))

	require.NoError(t, s.BeginEtagsFile())
	bar := funcEntry("bar")
	bar.InputFile = "b.c"
	_, err = s.Make(bar)
	require.NoError(t, err)
	require.NoError(t, s.EndEtagsFile("b.c"))
	require.NoError(t, s.Close(true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\f\na.c,")
	assert.Contains(t, string(data), "\f\nb.c,")
	assert.Contains(t, string(data), "int bar() {\x7fbar\x011,0\n")
	assert.Equal(t, uint64(2), s.Added())
}

func TestEtags_SortRequestDoesNotReorderSections(t *testing.T) {
	// Sections are positional; a requested sort must not tear the page
	// breaks away from their headers.
	reader := &stubReader{files: map[string]string{
		"b.c": "void zebra() {\n",
		"a.c": "int apple() {\n",
	}}
	s, path := openEtags(t, Options{Sort: Sorted}, reader)

	require.NoError(t, s.BeginEtagsFile())
	z := funcEntry("zebra")
	z.InputFile = "b.c"
	_, err := s.Make(z)
	require.NoError(t, err)
	require.NoError(t, s.EndEtagsFile("b.c"))

	require.NoError(t, s.BeginEtagsFile())
	a := funcEntry("apple")
	a.InputFile = "a.c"
	_, err = s.Make(a)
	require.NoError(t, err)
	require.NoError(t, s.EndEtagsFile("a.c"))
	require.NoError(t, s.Close(true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	zrec := "void zebra() {\x7fzebra\x011,0\n"
	arec := "int apple() {\x7fapple\x011,0\n"
	want := fmt.Sprintf("\f\nb.c,%d\n%s\f\na.c,%d\n%s", len(zrec), zrec, len(arec), arec)
	assert.Equal(t, want, string(data))
}

func TestEtags_FileEntryShortForm(t *testing.T) {
	s, path := openEtags(t, Options{}, defaultReader())

	require.NoError(t, s.BeginEtagsFile())
	e := &tags.Entry{
		Name: "a.c", Kind: tags.FileKind, InputFile: "a.c",
		LineNumber: 1, LineNumberEntry: true, FileEntry: true,
	}
	_, err := s.Make(e)
	require.NoError(t, err)
	require.NoError(t, s.EndEtagsFile("a.c"))
	require.NoError(t, s.Close(true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\x7fa.c\x011,0\n")
}

func TestEtags_OffsetIsSeekValue(t *testing.T) {
	reader := &stubReader{files: map[string]string{
		"shapes.py": "class Circle:\n    def area(self):\n",
	}}
	s, path := openEtags(t, Options{}, reader)

	require.NoError(t, s.BeginEtagsFile())
	e := &tags.Entry{
		Name: "area", Kind: funcKind, InputFile: "shapes.py",
		LineNumber: 2, FilePosition: 14,
	}
	_, err := s.Make(e)
	require.NoError(t, err)
	require.NoError(t, s.EndEtagsFile("shapes.py"))
	require.NoError(t, s.Close(true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "    def area(self):\x7farea\x012,14\n")
}

func TestEtags_UnreadableSourceContributesNothing(t *testing.T) {
	s, path := openEtags(t, Options{}, defaultReader())

	require.NoError(t, s.BeginEtagsFile())
	e := funcEntry("ghost")
	e.InputFile = "missing.c"
	_, err := s.Make(e)
	require.NoError(t, err, "an unreadable line is not a write error")
	require.NoError(t, s.EndEtagsFile("missing.c"))
	require.NoError(t, s.Close(true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\f\nmissing.c,0\n", string(data))
}

func TestEtags_IncludeSections(t *testing.T) {
	s, path := openEtags(t, Options{EtagsIncludes: []string{"lib/TAGS", "vendor/TAGS"}}, defaultReader())

	require.NoError(t, s.BeginEtagsFile())
	_, err := s.Make(funcEntry("foo"))
	require.NoError(t, err)
	require.NoError(t, s.EndEtagsFile("a.c"))
	require.NoError(t, s.Close(true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "\f\nlib/TAGS,include\n")
	assert.Contains(t, text, "\f\nvendor/TAGS,include\n")
	// Includes trail the real sections.
	assert.Less(t, strings.Index(text, "a.c,"), strings.Index(text, "lib/TAGS,include"))
	assert.Equal(t, uint64(3), s.Added(), "includes count as records")
}

func TestEtags_DoubleBeginFails(t *testing.T) {
	s, _ := openEtags(t, Options{}, defaultReader())
	defer s.Close(false)

	require.NoError(t, s.BeginEtagsFile())
	err := s.BeginEtagsFile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already open")
}

func TestEtags_EntryOutsideSectionFails(t *testing.T) {
	s, _ := openEtags(t, Options{}, defaultReader())
	defer s.Close(false)

	_, err := s.Make(funcEntry("foo"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside a file section")
}

func TestEtags_BeginIsNoopForCtagsSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags")
	s, err := Open(Options{Path: path, NoPseudoTags: true}, defaultReader())
	require.NoError(t, err)

	require.NoError(t, s.BeginEtagsFile())
	require.NoError(t, s.EndEtagsFile("a.c"))
	_, err = s.Make(funcEntry("foo"))
	require.NoError(t, err)
	require.NoError(t, s.Close(true))

	lines := readTagFile(t, path)
	require.Len(t, lines, 1)
}

func TestEtags_DanglingStageDiscardedOnClose(t *testing.T) {
	s, path := openEtags(t, Options{}, defaultReader())

	require.NoError(t, s.BeginEtagsFile())
	_, err := s.Make(funcEntry("foo"))
	require.NoError(t, err)
	staging := s.etagsName

	// No EndEtagsFile: the staged section is dropped, not spliced.
	require.NoError(t, s.Close(true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
	_, err = os.Stat(staging)
	assert.True(t, os.IsNotExist(err), "staging file must be removed")
}

func TestEtags_ValidExistingEtagsFileAccepted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "TAGS")
	require.NoError(t, os.WriteFile(path, []byte("\f\nold.c,10\nint old(){\x7fold\x011,0\n"), 0o644))

	s, err := Open(Options{Path: path, Format: OutputEtags, Append: true}, defaultReader())
	require.NoError(t, err)

	require.NoError(t, s.BeginEtagsFile())
	_, err = s.Make(funcEntry("foo"))
	require.NoError(t, err)
	require.NoError(t, s.EndEtagsFile("a.c"))
	require.NoError(t, s.Close(true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "old.c,10")
	assert.Contains(t, string(data), "\f\na.c,")
}
