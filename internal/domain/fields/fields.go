// Package fields is the catalogue of renderable tag metadata fields. Each
// field knows its letter, display name, data type, availability predicate,
// and one renderer per output format with a defined fallback order:
// format-specific renderer, then the format-agnostic default, then absent.
// Scanners may define additional fields at runtime; fields sharing a display
// name across languages are chained as siblings.
package fields

import (
	"bytes"
	"fmt"

	"github.com/corey/tagsmith/internal/domain/tags"
)

// Format selects the renderer slot for an output format. FormatDefault is
// the fallback slot consulted when no format-specific renderer exists.
type Format int

const (
	FormatDefault Format = iota
	FormatCtags
	FormatEtags
	FormatXref
)

// DataType tags a field's value shape. Used only for introspective listing
// (tagsmith fields), never for validation.
type DataType uint

const (
	TypeString DataType = 1 << iota
	TypeBool
	TypeInteger
)

// String renders the data type as the three-column flag string used by the
// field listing ("s--", "sb-", ...).
func (t DataType) String() string {
	buf := []byte("---")
	if t&TypeString != 0 {
		buf[0] = 's'
	}
	if t&TypeBool != 0 {
		buf[1] = 'b'
	}
	if t&TypeInteger != 0 {
		buf[2] = 'i'
	}
	return string(buf)
}

// FieldType is a registry handle. Built-in handles are package constants;
// custom fields get handles past Count() at definition time.
type FieldType = int

// FieldUnknown is returned by lookups that find nothing.
const FieldUnknown FieldType = -1

// Built-in field handles, in registration order. The first three are fixed:
// they cannot be disabled.
const (
	FieldName FieldType = iota
	FieldInput
	FieldPattern

	FieldCompact
	FieldAccess
	FieldFileScope
	FieldInherits
	FieldKindLong
	FieldKind
	FieldLanguage
	FieldImplementation
	FieldLineNumber
	FieldSignature
	FieldScope
	FieldTyperef
	FieldKindKey

	FieldRole
	FieldRefMarker
	FieldScopeKey
	FieldScopeKind
	FieldEnd

	builtinCount
)

// Rendered is the outcome of rendering one field for one entry.
type Rendered struct {
	Text string

	// Absent means the field has nothing to contribute for this entry.
	Absent bool

	// Rejected means the value is unsafe to place verbatim in the active
	// format (e.g. a tab inside a tab-delimited column). The caller must
	// omit the field; this is not an error.
	Rejected bool
}

func absent() Rendered   { return Rendered{Absent: true} }
func rejected() Rendered { return Rendered{Rejected: true} }
func text(s string) Rendered {
	return Rendered{Text: s}
}

// RenderFunc produces the output text for one field of one entry. value is
// the scanner-supplied value for custom fields ("" for built-ins). b is a
// per-field scratch buffer, already reset.
type RenderFunc func(r *Registry, e *tags.Entry, value string, b *bytes.Buffer) Rendered

// Hooks connects the registry to session state it must not own: scope
// resolution walks the session's cork queue and pattern/line rendering reads
// the session's input. All hooks may be nil; the dependent fields then
// render as absent.
type Hooks struct {
	// ScopeInfo resolves the enclosing scope of an entry to its kind name
	// and fully qualified name. ok is false when the entry has no scope.
	ScopeInfo func(e *tags.Entry) (kindName, qualified string, ok bool, err error)

	// Pattern builds (or fetches from cache) the search-pattern locator.
	Pattern func(e *tags.Entry) (string, error)

	// InputLine reads the raw source line an entry points at, terminator
	// included when present.
	InputLine func(e *tags.Entry) (string, error)

	// LineDirectives enables generated-code attribution: source file,
	// language, and line offset substitute for the input's.
	LineDirectives bool

	// Warnf reports recoverable data-quality problems.
	Warnf func(format string, args ...any)
}

// FieldDefinition declares one field. Custom definitions need at least a
// Name; Letter stays zero for them.
type FieldDefinition struct {
	Letter      byte
	Name        string
	Description string
	Enabled     bool
	DataType    DataType

	// Render maps format slots to renderers. A missing FormatDefault slot is
	// filled with the pass-through renderer at definition time (custom
	// fields only; built-ins always declare one).
	Render map[Format]RenderFunc

	// HasValue reports per-entry availability. nil means always available.
	HasValue func(e *tags.Entry) bool
}

type fieldObject struct {
	def      *FieldDefinition
	fixed    bool
	language string // "" for common fields
	buf      bytes.Buffer
}

// Registry holds the field table for one tagging session. It is not safe
// for concurrent use; the scratch buffers assume one render at a time.
type Registry struct {
	hooks  Hooks
	objs   []fieldObject
	byName map[string][]FieldType
}

// NewRegistry builds a registry with the fixed and built-in field tables.
func NewRegistry(hooks Hooks) *Registry {
	r := &Registry{hooks: hooks, byName: make(map[string][]FieldType)}

	// Each registry gets its own copy of the definitions; enablement is
	// per-session state.
	add := func(def FieldDefinition, fixed bool) {
		r.objs = append(r.objs, fieldObject{def: &def, fixed: fixed})
		if def.Name != "" {
			ft := len(r.objs) - 1
			r.byName[def.Name] = append(r.byName[def.Name], ft)
		}
	}
	for i := range fixedFieldDefinitions {
		add(fixedFieldDefinitions[i], true)
	}
	for i := range builtinFieldDefinitions {
		add(builtinFieldDefinitions[i], false)
	}
	if len(r.objs) != builtinCount {
		panic("fields: built-in table out of sync with handles")
	}
	return r
}

// Define registers a custom field owned by a language. The display name
// must be non-empty and alphanumeric. The new handle is appended to the
// sibling list of any field sharing the name, so several languages can
// expose identically named but independent fields.
func (r *Registry) Define(def *FieldDefinition, language string) (FieldType, error) {
	if def.Name == "" {
		return FieldUnknown, fmt.Errorf("fields: custom field needs a name")
	}
	for _, c := range def.Name {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return FieldUnknown, fmt.Errorf("fields: field name %q is not alphanumeric", def.Name)
		}
	}
	def.Letter = 0
	if def.Render == nil {
		def.Render = map[Format]RenderFunc{}
	}
	if def.Render[FormatDefault] == nil {
		def.Render[FormatDefault] = renderPassThrough
	}
	if def.DataType == 0 {
		def.DataType = TypeString
	}

	r.objs = append(r.objs, fieldObject{def: def, language: language})
	ft := len(r.objs) - 1
	r.byName[def.Name] = append(r.byName[def.Name], ft)
	return ft, nil
}

func (r *Registry) object(ft FieldType) *fieldObject {
	if ft < 0 || ft >= len(r.objs) {
		panic(fmt.Sprintf("fields: handle %d out of range", ft))
	}
	return &r.objs[ft]
}

// Count returns the number of defined fields, built-in plus custom.
func (r *Registry) Count() int { return len(r.objs) }

// Name returns the field's display name ("" for letter-only fields).
func (r *Registry) Name(ft FieldType) string { return r.object(ft).def.Name }

// Letter returns the field's one-letter shortcut (0 for custom fields).
func (r *Registry) Letter(ft FieldType) byte { return r.object(ft).def.Letter }

// Description returns the field's help text.
func (r *Registry) Description(ft FieldType) string { return r.object(ft).def.Description }

// DataType returns the field's declared value shape.
func (r *Registry) DataType(ft FieldType) DataType { return r.object(ft).def.DataType }

// Owner returns the owning language of a custom field, "" for common fields.
func (r *Registry) Owner(ft FieldType) string { return r.object(ft).language }

// Fixed reports whether the field is fixed (cannot be disabled).
func (r *Registry) Fixed(ft FieldType) bool { return r.object(ft).fixed }

// Enabled reports the field's global visibility.
func (r *Registry) Enabled(ft FieldType) bool { return r.object(ft).def.Enabled }

// SetEnabled toggles a field's global visibility and returns the previous
// state. Fixed fields refuse to be disabled; the refusal is a warning, not
// an error.
func (r *Registry) SetEnabled(ft FieldType, state bool) bool {
	obj := r.object(ft)
	old := obj.def.Enabled
	if obj.fixed {
		if !state && r.hooks.Warnf != nil {
			r.hooks.Warnf("cannot disable fixed field '%c'{%s}", obj.def.Letter, obj.def.Name)
		}
		return old
	}
	obj.def.Enabled = state
	return old
}

// ByLetter finds the field with the given one-letter shortcut.
func (r *Registry) ByLetter(letter byte) FieldType {
	for i := range r.objs {
		if r.objs[i].def.Letter == letter {
			return i
		}
	}
	return FieldUnknown
}

// ByName finds the first field with the given display name.
func (r *Registry) ByName(name string) FieldType {
	if fts := r.byName[name]; len(fts) > 0 {
		return fts[0]
	}
	return FieldUnknown
}

// Siblings returns all fields sharing a display name, in definition order.
func (r *Registry) Siblings(name string) []FieldType {
	return r.byName[name]
}

// HasValue reports whether the entry actually carries a value for the
// field. This is independent of the global enabled flag.
func (r *Registry) HasValue(ft FieldType, e *tags.Entry) bool {
	if p := r.object(ft).def.HasValue; p != nil {
		return p(e)
	}
	return true
}

// Renderable reports whether the field has any renderer at all.
func (r *Registry) Renderable(ft FieldType) bool {
	return len(r.object(ft).def.Render) > 0
}

// Render produces the field's text for an entry in the given format.
// valueIndex selects a scanner-supplied value from e.ParserFields, or -1
// for built-in fields. The fallback order is format-specific renderer,
// then the FormatDefault renderer, then absent.
func (r *Registry) Render(format Format, ft FieldType, e *tags.Entry, valueIndex int) Rendered {
	obj := r.object(ft)

	fn := obj.def.Render[format]
	if fn == nil {
		fn = obj.def.Render[FormatDefault]
	}
	if fn == nil {
		return absent()
	}

	value := ""
	if valueIndex >= 0 {
		if valueIndex >= len(e.ParserFields) {
			return absent()
		}
		value = e.ParserFields[valueIndex].Value
	}

	obj.buf.Reset()
	return fn(r, e, value, &obj.buf)
}
