// Package tags defines the tag entry model: one record per discovered symbol,
// the kind/role tables that classify it, and the cork queue that buffers
// entries so later symbols can reference enclosing scopes before those scopes
// are serialized.
package tags

// RoleDefinition is the default role: the tag marks a defining occurrence.
// Other roles (references, imports, ...) are declared per kind.
const RoleDefinition = 0

// ScopeNone is the reserved cork handle meaning "no enclosing scope".
const ScopeNone = 0

// Role describes one reason a tag of some kind may be recorded when it is
// not a defining occurrence.
type Role struct {
	Name        string
	Description string
	Enabled     bool
}

// Kind classifies a tag: a one-letter code, a full name, and the roles the
// kind declares. Scanners own their kind tables and pass pointers into
// entries; kinds are never copied.
type Kind struct {
	Letter        byte
	Name          string
	Description   string
	Enabled       bool
	ReferenceOnly bool
	Roles         []Role
}

// FileKind is the pseudo-kind used for whole-file entries.
var FileKind = &Kind{Letter: 'F', Name: "file", Description: "input file", Enabled: true}

// ParserField carries a scanner-supplied value for a custom field defined by
// that scanner's language. Field is the registry handle the value belongs to.
type ParserField struct {
	Field int
	Value string
}

// ExtensionFields holds the optional metadata attached to an entry beyond
// name/file/address.
type ExtensionFields struct {
	Access         string
	Implementation string
	Inheritance    string
	Signature      string

	// TypeRef is a two-part type reference: [0] the kind of the referent
	// (e.g. "struct"), [1] its name. Both must be set for the field to render.
	TypeRef [2]string

	// EndLine is the last line of the tagged construct, 0 if unknown.
	EndLine uint64

	// ScopeKind/ScopeName describe the enclosing scope directly. They are an
	// alternative to ScopeIndex for scanners that resolve scopes themselves.
	ScopeKind *Kind
	ScopeName string

	// ScopeIndex is a cork-queue handle referencing the enclosing scope's
	// entry. ScopeNone means top level. This is a weak reference: the queue
	// owns the entry, and the handle dies at uncork.
	ScopeIndex int

	// RoleIndex indexes into Kind.Roles. RoleDefinition for definitions.
	RoleIndex int
}

// Entry is one discovered symbol occurrence as handed over by a scanner.
// The scanner's buffers may be reused after the entry is submitted; the cork
// queue keeps its own copy.
type Entry struct {
	Name     string
	Kind     *Kind
	Language string

	// InputFile is the path recorded in the tag file.
	InputFile string

	// LineNumber is 1-based. FilePosition is the byte offset of the start of
	// that line in the input file, used to re-read the line for patterns and
	// as the etags seek value.
	LineNumber   uint64
	FilePosition int64

	// Pattern is a precomputed locator. When empty (and the entry is not a
	// line-number entry) the writer builds one from the source line.
	Pattern string

	// LineNumberEntry selects line-number addressing instead of a pattern.
	LineNumberEntry bool

	// TruncateLine cuts the recorded line just after the tag token.
	TruncateLine bool

	// Placeholder entries anchor a scope chain without being emitted.
	// Their name may be empty.
	Placeholder bool

	// FileScope marks symbols with file-restricted visibility (e.g. static).
	FileScope bool

	// FileEntry marks a whole-file tag (no specific symbol).
	FileEntry bool

	// Source* attribute generated code back to its origin. SourceLineOffset
	// is added to LineNumber when line-directive attribution is enabled.
	SourceFile       string
	SourceLanguage   string
	SourceLineOffset int64

	// ParserFields are values for language-defined custom fields.
	ParserFields []ParserField

	Extension ExtensionFields
}

// detach returns a copy of e that shares no mutable storage with the
// original. Strings are immutable in Go, so the struct copy already severs
// ownership; only the parser field slice needs duplicating.
func (e *Entry) detach() *Entry {
	c := *e
	if len(e.ParserFields) > 0 {
		c.ParserFields = make([]ParserField, len(e.ParserFields))
		copy(c.ParserFields, e.ParserFields)
	}
	return &c
}

// Valid reports whether the entry satisfies the model invariants: a
// non-empty name unless placeholder, and a role index within the kind's
// declared roles.
func (e *Entry) Valid() bool {
	if e.Name == "" && !e.Placeholder {
		return false
	}
	ri := e.Extension.RoleIndex
	if ri < RoleDefinition {
		return false
	}
	if ri > RoleDefinition && (e.Kind == nil || ri >= len(e.Kind.Roles)) {
		return false
	}
	return true
}

// EffectiveLine returns the line number to report, shifted by the source
// line offset when line-directive attribution is in effect.
func (e *Entry) EffectiveLine(lineDirectives bool) uint64 {
	ln := int64(e.LineNumber)
	if lineDirectives && e.SourceLineOffset != 0 {
		ln += e.SourceLineOffset
	}
	if ln < 0 {
		ln = 0
	}
	return uint64(ln)
}
