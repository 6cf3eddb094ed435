package fields

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/tagsmith/internal/domain/tags"
)

var funcKind = &tags.Kind{Letter: 'f', Name: "function", Enabled: true}

func sampleEntry() *tags.Entry {
	return &tags.Entry{
		Name:       "parse_args",
		InputFile:  "src/cli.c",
		Kind:       funcKind,
		LineNumber: 42,
		Language:   "C",
	}
}

func TestRegistry_BuiltinLookups(t *testing.T) {
	r := NewRegistry(Hooks{})

	assert.Equal(t, builtinCount, r.Count())

	assert.Equal(t, FieldName, r.ByLetter('N'))
	assert.Equal(t, FieldKind, r.ByLetter('k'))
	assert.Equal(t, FieldUnknown, r.ByLetter('Q'))

	assert.Equal(t, FieldLineNumber, r.ByName("line"))
	assert.Equal(t, FieldUnknown, r.ByName("nosuch"))

	// 'K' has no display name; only the letter finds it.
	assert.Equal(t, "", r.Name(FieldKindLong))
	assert.Equal(t, FieldKindLong, r.ByLetter('K'))
}

func TestRegistry_FixedFieldsRefuseDisable(t *testing.T) {
	var warnings []string
	r := NewRegistry(Hooks{Warnf: func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}})

	for _, ft := range []FieldType{FieldName, FieldInput, FieldPattern} {
		require.True(t, r.Fixed(ft))
		prev := r.SetEnabled(ft, false)
		assert.True(t, prev, "fixed fields start enabled")
		assert.True(t, r.Enabled(ft), "fixed field must stay enabled")
	}
	assert.Len(t, warnings, 3)
	assert.Contains(t, warnings[0], "cannot disable fixed field")
}

func TestRegistry_SetEnabledReturnsPrevious(t *testing.T) {
	r := NewRegistry(Hooks{})

	require.False(t, r.Enabled(FieldLineNumber))
	assert.False(t, r.SetEnabled(FieldLineNumber, true))
	assert.True(t, r.Enabled(FieldLineNumber))
	assert.True(t, r.SetEnabled(FieldLineNumber, false))
	assert.False(t, r.Enabled(FieldLineNumber))
}

func TestRegistry_DefineValidation(t *testing.T) {
	r := NewRegistry(Hooks{})

	_, err := r.Define(&FieldDefinition{}, "Go")
	require.Error(t, err)

	_, err = r.Define(&FieldDefinition{Name: "has space"}, "Go")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not alphanumeric")

	def := &FieldDefinition{Name: "receiver", Letter: 'x'}
	ft, err := r.Define(def, "Go")
	require.NoError(t, err)
	assert.Equal(t, builtinCount, ft)
	assert.Equal(t, byte(0), r.Letter(ft), "custom fields have no letter")
	assert.Equal(t, "Go", r.Owner(ft))
	assert.Equal(t, TypeString, r.DataType(ft))
	assert.False(t, r.Fixed(ft))
}

func TestRegistry_SiblingsChainAcrossLanguages(t *testing.T) {
	r := NewRegistry(Hooks{})

	goFT, err := r.Define(&FieldDefinition{Name: "module"}, "Go")
	require.NoError(t, err)
	rubyFT, err := r.Define(&FieldDefinition{Name: "module"}, "Ruby")
	require.NoError(t, err)

	sibs := r.Siblings("module")
	assert.Equal(t, []FieldType{goFT, rubyFT}, sibs)
	assert.Equal(t, goFT, r.ByName("module"), "ByName returns the first sibling")
}

func TestRegistry_CustomFieldPassThrough(t *testing.T) {
	r := NewRegistry(Hooks{})
	ft, err := r.Define(&FieldDefinition{Name: "section"}, "Make")
	require.NoError(t, err)

	e := sampleEntry()
	e.ParserFields = []tags.ParserField{{Field: ft, Value: "build"}}

	got := r.Render(FormatCtags, ft, e, 0)
	assert.Equal(t, "build", got.Text)

	// valueIndex past the parser field slice renders as absent.
	got = r.Render(FormatCtags, ft, e, 5)
	assert.True(t, got.Absent)
}

func TestRegistry_RenderFallbackOrder(t *testing.T) {
	r := NewRegistry(Hooks{})
	e := sampleEntry()

	// 'line' only declares a default renderer; any format reaches it.
	got := r.Render(FormatXref, FieldLineNumber, e, -1)
	assert.Equal(t, "42", got.Text)

	// 'pattern' declares only a ctags renderer: other formats get absent.
	e.Pattern = "/^int parse_args()$/"
	assert.Equal(t, "/^int parse_args()$/", r.Render(FormatCtags, FieldPattern, e, -1).Text)
	assert.True(t, r.Render(FormatEtags, FieldPattern, e, -1).Absent)
}

func TestRegistry_RenderNameEscapesControlBytes(t *testing.T) {
	var warnings []string
	r := NewRegistry(Hooks{Warnf: func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}})

	e := sampleEntry()
	e.Name = "odd\tname"
	got := r.Render(FormatCtags, FieldName, e, -1)
	assert.Equal(t, `odd\tname`, got.Text)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "control character")
}

func TestRegistry_EtagsRejectsBlankNames(t *testing.T) {
	r := NewRegistry(Hooks{})

	e := sampleEntry()
	e.Name = "operator =="
	got := r.Render(FormatEtags, FieldName, e, -1)
	assert.True(t, got.Rejected, "etags cannot carry blanks in name position")

	// ctags escapes instead of rejecting.
	got = r.Render(FormatCtags, FieldName, e, -1)
	assert.Equal(t, "operator ==", got.Text)
}

func TestRegistry_ScopeRendersViaHook(t *testing.T) {
	r := NewRegistry(Hooks{
		ScopeInfo: func(e *tags.Entry) (string, string, bool, error) {
			if e.Extension.ScopeIndex == tags.ScopeNone {
				return "", "", false, nil
			}
			return "class", "Outer.Inner", true, nil
		},
	})

	e := sampleEntry()
	assert.True(t, r.Render(FormatCtags, FieldScope, e, -1).Absent)

	e.Extension.ScopeIndex = 1
	got := r.Render(FormatCtags, FieldScope, e, -1)
	assert.Equal(t, "Outer.Inner", got.Text)

	got = r.Render(FormatCtags, FieldScopeKind, e, -1)
	assert.Equal(t, "class", got.Text)
}

func TestRegistry_HasValuePredicates(t *testing.T) {
	r := NewRegistry(Hooks{})
	e := sampleEntry()

	assert.False(t, r.HasValue(FieldSignature, e))
	e.Extension.Signature = "(int argc, char **argv)"
	assert.True(t, r.HasValue(FieldSignature, e))

	assert.False(t, r.HasValue(FieldEnd, e))
	e.Extension.EndLine = 60
	assert.True(t, r.HasValue(FieldEnd, e))

	// No predicate means always available.
	assert.True(t, r.HasValue(FieldName, e))
}

func TestRegistry_LineDirectivesSubstituteSource(t *testing.T) {
	r := NewRegistry(Hooks{LineDirectives: true})

	e := sampleEntry()
	e.SourceFile = "gen/cli.y"
	e.SourceLanguage = "YACC"
	e.SourceLineOffset = -30

	assert.Equal(t, "gen/cli.y", r.Render(FormatCtags, FieldInput, e, -1).Text)
	assert.Equal(t, "YACC", r.Render(FormatCtags, FieldLanguage, e, -1).Text)
	assert.Equal(t, "12", r.Render(FormatCtags, FieldLineNumber, e, -1).Text)
}

func TestRegistry_CompactSqueezesWhitespace(t *testing.T) {
	r := NewRegistry(Hooks{
		InputLine: func(e *tags.Entry) (string, error) {
			return "\tint   parse_args(int argc)  \n", nil
		},
	})

	got := r.Render(FormatXref, FieldCompact, sampleEntry(), -1)
	assert.Equal(t, "int parse_args(int argc)", got.Text)
}

func TestDataType_String(t *testing.T) {
	assert.Equal(t, "s--", TypeString.String())
	assert.Equal(t, "sb-", (TypeString | TypeBool).String())
	assert.Equal(t, "--i", TypeInteger.String())
}
