package fields

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/corey/tagsmith/internal/domain/tags"
)

// withDefault substitutes "-" for values the entry does not carry, matching
// the tag-file convention for optional columns.
func withDefault(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// escapeString appends s to b with tab, CR, LF and backslash escaped, the
// encoding expected inside ctags extension fields.
func escapeString(b *bytes.Buffer, s string) string {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			b.WriteString(`\\`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// escapeName is escapeString plus a warning when a name smuggles in control
// characters; scanners are not supposed to produce those.
func escapeName(r *Registry, e *tags.Entry, b *bytes.Buffer, s string) string {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c > 0x00 && c <= 0x1f) || c == 0x7f {
			if r.hooks.Warnf != nil {
				r.hooks.Warnf("unexpected control character in tag %q (%s, line %d)",
					s, e.InputFile, e.LineNumber)
			}
			break
		}
	}
	return escapeString(b, s)
}

// hasBlank reports whether s contains a space or tab, which the etags
// encoding cannot represent in name position.
func hasBlank(s string) bool {
	return strings.ContainsAny(s, " \t")
}

func (r *Registry) inputFileOf(e *tags.Entry) string {
	if r.hooks.LineDirectives && e.SourceFile != "" {
		return e.SourceFile
	}
	return e.InputFile
}

func renderName(r *Registry, e *tags.Entry, _ string, b *bytes.Buffer) Rendered {
	return text(escapeName(r, e, b, e.Name))
}

func renderNameNoEscape(r *Registry, e *tags.Entry, _ string, b *bytes.Buffer) Rendered {
	if hasBlank(e.Name) {
		return rejected()
	}
	return text(e.Name)
}

func renderInput(r *Registry, e *tags.Entry, _ string, b *bytes.Buffer) Rendered {
	return text(escapeString(b, r.inputFileOf(e)))
}

func renderInputNoEscape(r *Registry, e *tags.Entry, _ string, b *bytes.Buffer) Rendered {
	f := r.inputFileOf(e)
	if hasBlank(f) {
		return rejected()
	}
	return text(f)
}

func renderPattern(r *Registry, e *tags.Entry, _ string, b *bytes.Buffer) Rendered {
	if e.LineNumberEntry {
		return absent()
	}
	if e.Pattern != "" {
		return text(e.Pattern)
	}
	if r.hooks.Pattern == nil {
		return absent()
	}
	p, err := r.hooks.Pattern(e)
	if err != nil {
		if r.hooks.Warnf != nil {
			r.hooks.Warnf("cannot build pattern for %q: %v", e.Name, err)
		}
		return absent()
	}
	return text(p)
}

// renderCompact reproduces the input line with leading whitespace dropped
// and interior runs of whitespace squeezed to one space.
func renderCompact(r *Registry, e *tags.Entry, _ string, b *bytes.Buffer) Rendered {
	if r.hooks.InputLine == nil {
		return text("")
	}
	line, err := r.hooks.InputLine(e)
	if err != nil {
		return text("")
	}
	started := false
	pendingSpace := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '\n' || c == '\r' {
			break
		}
		if c == ' ' || c == '\t' || c == '\f' || c == '\v' {
			if started {
				pendingSpace = true
			}
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		started = true
		b.WriteByte(c)
	}
	return text(b.String())
}

func renderAccess(r *Registry, e *tags.Entry, _ string, b *bytes.Buffer) Rendered {
	return text(withDefault(e.Extension.Access))
}

func renderFileScope(r *Registry, e *tags.Entry, _ string, b *bytes.Buffer) Rendered {
	if e.FileScope {
		return text("file")
	}
	return text("-")
}

func renderInherits(r *Registry, e *tags.Entry, _ string, b *bytes.Buffer) Rendered {
	return text(escapeString(b, withDefault(e.Extension.Inheritance)))
}

func renderKindName(r *Registry, e *tags.Entry, _ string, b *bytes.Buffer) Rendered {
	if e.Kind == nil {
		return absent()
	}
	return text(e.Kind.Name)
}

func renderKindLetter(r *Registry, e *tags.Entry, _ string, b *bytes.Buffer) Rendered {
	if e.Kind == nil {
		return absent()
	}
	return text(string(e.Kind.Letter))
}

func renderLanguage(r *Registry, e *tags.Entry, _ string, b *bytes.Buffer) Rendered {
	l := e.Language
	if r.hooks.LineDirectives && e.SourceLanguage != "" {
		l = e.SourceLanguage
	}
	return text(withDefault(l))
}

func renderImplementation(r *Registry, e *tags.Entry, _ string, b *bytes.Buffer) Rendered {
	return text(withDefault(e.Extension.Implementation))
}

func renderLineNumber(r *Registry, e *tags.Entry, _ string, b *bytes.Buffer) Rendered {
	return text(strconv.FormatUint(e.EffectiveLine(r.hooks.LineDirectives), 10))
}

func renderSignature(r *Registry, e *tags.Entry, _ string, b *bytes.Buffer) Rendered {
	return text(escapeString(b, withDefault(e.Extension.Signature)))
}

func (r *Registry) scopeName(e *tags.Entry) (string, bool) {
	if r.hooks.ScopeInfo == nil {
		return "", false
	}
	_, qualified, ok, err := r.hooks.ScopeInfo(e)
	if err != nil {
		if r.hooks.Warnf != nil {
			r.hooks.Warnf("%v", err)
		}
		return "", false
	}
	return qualified, ok
}

func renderScope(r *Registry, e *tags.Entry, _ string, b *bytes.Buffer) Rendered {
	scope, ok := r.scopeName(e)
	if !ok {
		return absent()
	}
	return text(escapeName(r, e, b, scope))
}

func renderScopeNoEscape(r *Registry, e *tags.Entry, _ string, b *bytes.Buffer) Rendered {
	scope, ok := r.scopeName(e)
	if !ok {
		return absent()
	}
	if hasBlank(scope) {
		return rejected()
	}
	return text(scope)
}

func renderScopeKindName(r *Registry, e *tags.Entry, _ string, b *bytes.Buffer) Rendered {
	if r.hooks.ScopeInfo == nil {
		return absent()
	}
	kind, _, ok, err := r.hooks.ScopeInfo(e)
	if err != nil || !ok {
		return absent()
	}
	return text(kind)
}

func renderTyperef(r *Registry, e *tags.Entry, _ string, b *bytes.Buffer) Rendered {
	return text(escapeName(r, e, b, withDefault(e.Extension.TypeRef[1])))
}

func renderRole(r *Registry, e *tags.Entry, _ string, b *bytes.Buffer) Rendered {
	ri := e.Extension.RoleIndex
	if ri == tags.RoleDefinition {
		return text("")
	}
	if e.Kind == nil || ri >= len(e.Kind.Roles) {
		return absent()
	}
	return text(e.Kind.Roles[ri].Name)
}

func renderRefMarker(r *Registry, e *tags.Entry, _ string, b *bytes.Buffer) Rendered {
	if e.Extension.RoleIndex == tags.RoleDefinition {
		return text("D")
	}
	return text("R")
}

func renderEnd(r *Registry, e *tags.Entry, _ string, b *bytes.Buffer) Rendered {
	if e.Extension.EndLine == 0 {
		return absent()
	}
	return text(strconv.FormatUint(e.Extension.EndLine, 10))
}

// renderPassThrough is the default renderer supplied to custom fields that
// declare none: it emits the scanner-supplied value verbatim.
func renderPassThrough(r *Registry, e *tags.Entry, value string, b *bytes.Buffer) Rendered {
	return text(value)
}

// Availability predicates. These answer "does this entry carry a value",
// independent of whether the field is globally enabled.

func hasLanguage(e *tags.Entry) bool { return e.Language != "" }
func hasTyperef(e *tags.Entry) bool {
	return e.Extension.TypeRef[0] != "" && e.Extension.TypeRef[1] != ""
}
func hasFileScope(e *tags.Entry) bool      { return e.FileScope }
func hasInheritance(e *tags.Entry) bool    { return e.Extension.Inheritance != "" }
func hasAccess(e *tags.Entry) bool         { return e.Extension.Access != "" }
func hasImplementation(e *tags.Entry) bool { return e.Extension.Implementation != "" }
func hasSignature(e *tags.Entry) bool      { return e.Extension.Signature != "" }
func hasRole(e *tags.Entry) bool           { return e.Extension.RoleIndex != tags.RoleDefinition }
func hasEnd(e *tags.Entry) bool            { return e.Extension.EndLine != 0 }

// fixedFieldDefinitions are always enabled and refuse disabling.
var fixedFieldDefinitions = []FieldDefinition{
	{
		Letter: 'N', Name: "name", Description: "tag name (fixed field)",
		Enabled: true, DataType: TypeString,
		Render: map[Format]RenderFunc{
			FormatDefault: renderName,
			FormatEtags:   renderNameNoEscape,
		},
	},
	{
		Letter: 'F', Name: "input", Description: "input file (fixed field)",
		Enabled: true, DataType: TypeString,
		Render: map[Format]RenderFunc{
			FormatDefault: renderInput,
			FormatEtags:   renderInputNoEscape,
		},
	},
	{
		Letter: 'P', Name: "pattern", Description: "pattern (fixed field)",
		Enabled: true, DataType: TypeString,
		Render: map[Format]RenderFunc{
			FormatCtags: renderPattern,
		},
	},
}

var builtinFieldDefinitions = []FieldDefinition{
	{
		Letter: 'C', Name: "compact", Description: "compact input line (used in xref output)",
		DataType: TypeString,
		Render:   map[Format]RenderFunc{FormatDefault: renderCompact},
	},
	{
		Letter: 'a', Name: "access", Description: "access (or export) of class members",
		DataType: TypeString, HasValue: hasAccess,
		Render: map[Format]RenderFunc{FormatDefault: renderAccess},
	},
	{
		Letter: 'f', Name: "file", Description: "file-restricted scoping",
		Enabled: true, DataType: TypeBool, HasValue: hasFileScope,
		Render: map[Format]RenderFunc{FormatDefault: renderFileScope},
	},
	{
		Letter: 'i', Name: "inherits", Description: "inheritance information",
		DataType: TypeString | TypeBool, HasValue: hasInheritance,
		Render: map[Format]RenderFunc{FormatDefault: renderInherits},
	},
	{
		Letter: 'K', Description: "kind of tag as full name",
		DataType: TypeString,
		Render:   map[Format]RenderFunc{FormatDefault: renderKindName},
	},
	{
		Letter: 'k', Description: "kind of tag as a single letter",
		Enabled: true, DataType: TypeString,
		Render: map[Format]RenderFunc{FormatDefault: renderKindLetter},
	},
	{
		Letter: 'l', Name: "language", Description: "language of input file containing tag",
		DataType: TypeString, HasValue: hasLanguage,
		Render: map[Format]RenderFunc{FormatDefault: renderLanguage},
	},
	{
		Letter: 'm', Name: "implementation", Description: "implementation information",
		DataType: TypeString, HasValue: hasImplementation,
		Render: map[Format]RenderFunc{FormatDefault: renderImplementation},
	},
	{
		Letter: 'n', Name: "line", Description: "line number of tag definition",
		DataType: TypeInteger,
		Render:   map[Format]RenderFunc{FormatDefault: renderLineNumber},
	},
	{
		Letter: 'S', Name: "signature", Description: "signature of routine (prototype or parameter list)",
		DataType: TypeString, HasValue: hasSignature,
		Render: map[Format]RenderFunc{FormatDefault: renderSignature},
	},
	{
		Letter: 's', Description: "scope of tag definition",
		Enabled: true, DataType: TypeString,
		Render: map[Format]RenderFunc{
			FormatDefault: renderScope,
			FormatEtags:   renderScopeNoEscape,
		},
	},
	{
		Letter: 't', Name: "typeref", Description: "type and name of a variable or typedef",
		Enabled: true, DataType: TypeString, HasValue: hasTyperef,
		Render: map[Format]RenderFunc{FormatDefault: renderTyperef},
	},
	{
		Letter: 'z', Name: "kind", Description: "include the \"kind:\" key in kind field",
		DataType: TypeString,
		Render:   map[Format]RenderFunc{FormatDefault: renderKindName},
	},
	{
		Letter: 'r', Name: "role", Description: "role of a reference tag",
		DataType: TypeString, HasValue: hasRole,
		Render: map[Format]RenderFunc{FormatDefault: renderRole},
	},
	{
		Letter: 'R', Description: "marker (D or R) for definition vs. reference",
		DataType: TypeString,
		Render:   map[Format]RenderFunc{FormatDefault: renderRefMarker},
	},
	{
		Letter: 'Z', Name: "scope", Description: "include the \"scope:\" key in scope field",
		DataType: TypeString,
		Render: map[Format]RenderFunc{
			FormatDefault: renderScope,
			FormatEtags:   renderScopeNoEscape,
		},
	},
	{
		Letter: 'p', Name: "scopeKind", Description: "kind of scope as full name",
		DataType: TypeString,
		Render:   map[Format]RenderFunc{FormatDefault: renderScopeKindName},
	},
	{
		Letter: 'e', Name: "end", Description: "end line of the tagged construct",
		DataType: TypeInteger, HasValue: hasEnd,
		Render: map[Format]RenderFunc{FormatDefault: renderEnd},
	},
}
