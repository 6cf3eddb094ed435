package tagfile

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/tagsmith/internal/domain/fields"
	"github.com/corey/tagsmith/internal/domain/tags"
)

func openXref(t *testing.T, opts Options, reader *stubReader) (*Session, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	opts.Path = "-"
	opts.Format = OutputXref
	opts.Stdout = &out
	s, err := Open(opts, reader)
	require.NoError(t, err)
	return s, &out
}

func TestXref_BuiltinFormat2(t *testing.T) {
	s, out := openXref(t, Options{}, defaultReader())

	_, err := s.Make(funcEntry("foo"))
	require.NoError(t, err)
	require.NoError(t, s.Close(true))

	want := fmt.Sprintf("%-16s %-10s %4d %-16s %s\n",
		"foo", "function", 1, "a.c", "int foo() {")
	assert.Equal(t, want, out.String())
}

func TestXref_BuiltinFormat1OmitsKind(t *testing.T) {
	s, out := openXref(t, Options{FileFormat: 1}, defaultReader())

	_, err := s.Make(funcEntry("foo"))
	require.NoError(t, err)
	require.NoError(t, s.Close(true))

	want := fmt.Sprintf("%-16s %4d %-16s %s\n",
		"foo", 1, "a.c", "int foo() {")
	assert.Equal(t, want, out.String())
}

func TestXref_NoPseudoTagHeader(t *testing.T) {
	s, out := openXref(t, Options{}, defaultReader())
	_, err := s.Make(funcEntry("foo"))
	require.NoError(t, err)
	require.NoError(t, s.Close(true))

	assert.NotContains(t, out.String(), PseudoTagPrefix)
}

func TestXref_FileEntriesSkippedUnderBuiltinLayout(t *testing.T) {
	s, out := openXref(t, Options{}, defaultReader())

	e := &tags.Entry{
		Name: "a.c", Kind: tags.FileKind, InputFile: "a.c",
		LineNumber: 1, LineNumberEntry: true, FileEntry: true,
	}
	_, err := s.Make(e)
	require.NoError(t, err)
	require.NoError(t, s.Close(true))

	assert.Empty(t, out.String())
}

func TestXref_CustomFormat(t *testing.T) {
	s, out := openXref(t, Options{XrefFormat: "%N %{language} line=%n %% done"}, defaultReader())

	_, err := s.Make(funcEntry("foo"))
	require.NoError(t, err)
	require.NoError(t, s.Close(true))

	assert.Equal(t, "foo C line=1 % done\n", out.String())
}

func TestXref_CustomFormatWidths(t *testing.T) {
	s, out := openXref(t, Options{XrefFormat: "%8N|%-8N|"}, defaultReader())

	_, err := s.Make(funcEntry("foo"))
	require.NoError(t, err)
	require.NoError(t, s.Close(true))

	assert.Equal(t, "     foo|foo     |\n", out.String())
}

func TestXref_CustomFormatIncludesFileEntries(t *testing.T) {
	s, out := openXref(t, Options{XrefFormat: "%N"}, defaultReader())

	e := &tags.Entry{
		Name: "a.c", Kind: tags.FileKind, InputFile: "a.c",
		LineNumber: 1, LineNumberEntry: true, FileEntry: true,
	}
	_, err := s.Make(e)
	require.NoError(t, err)
	require.NoError(t, s.Close(true))

	assert.Equal(t, "a.c\n", out.String())
}

func TestXref_BadFormatFailsOnFirstEntry(t *testing.T) {
	s, _ := openXref(t, Options{XrefFormat: "%Q"}, defaultReader())
	defer s.Close(false)

	_, err := s.Make(funcEntry("foo"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field letter")
}

func TestParseXrefFormat_Errors(t *testing.T) {
	reg := fields.NewRegistry(fields.Hooks{})

	cases := []struct {
		format string
		want   string
	}{
		{"%Q", "unknown field letter"},
		{"%{nosuch}", "unknown field name"},
		{"%{name", "unterminated field name"},
		{"%-16", "truncated % specifier"},
		{"trailing %", "truncated % specifier"},
	}
	for _, c := range cases {
		_, err := parseXrefFormat(reg, c.format)
		require.Error(t, err, c.format)
		assert.Contains(t, err.Error(), c.want, c.format)
	}
}

func TestParseXrefFormat_CompilesBuiltins(t *testing.T) {
	reg := fields.NewRegistry(fields.Hooks{})

	for _, layout := range []string{xrefFormat1, xrefFormat2} {
		els, err := parseXrefFormat(reg, layout)
		require.NoError(t, err)
		assert.NotEmpty(t, els)
	}
}

func TestXref_AbsentFieldsRenderEmpty(t *testing.T) {
	s, out := openXref(t, Options{XrefFormat: "[%-6K]%N"}, defaultReader())

	e := funcEntry("foo")
	e.Kind = nil // no kind: the K column pads out empty
	_, err := s.Make(e)
	require.NoError(t, err)
	require.NoError(t, s.Close(true))

	assert.Equal(t, "[      ]foo\n", out.String())
}
