// Package ports defines the interfaces (contracts) that adapters must
// implement. Domain logic depends only on these interfaces, never on
// concrete implementations.
package ports

import "github.com/corey/tagsmith/internal/domain/tags"

// Symbol is one occurrence discovered by a scanner, before it becomes a tag
// entry. Scopes are expressed positionally: Parent indexes the enclosing
// symbol in the same result slice (-1 for top level), and the orchestrator
// translates that into cork-queue handles.
type Symbol struct {
	Name string
	Kind *tags.Kind

	// RoleIndex indexes Kind.Roles; tags.RoleDefinition for definitions.
	RoleIndex int

	// Line is 1-based. Offset is the byte position of the line start.
	Line    uint64
	Offset  int64
	EndLine uint64

	Signature      string
	Access         string
	Inheritance    string
	Implementation string
	TypeRef        [2]string

	// FileScope marks file-restricted visibility (static linkage etc.).
	FileScope bool

	// Parent is the index of the enclosing symbol in the returned slice,
	// -1 when the symbol is top level.
	Parent int
}

// Scanner extracts symbols from source files of one or more languages.
// The concrete implementation (tree-sitter) lives in internal/adapters/treesitter.
type Scanner interface {
	// LanguageFor maps a file path to a language name this scanner handles,
	// or "" when the file is not its business.
	LanguageFor(path string) string

	// Kinds returns the kind table for a language, for listing and for
	// kind-enablement decisions.
	Kinds(language string) []*tags.Kind

	// Scan extracts symbols from one file. Symbols must be ordered so that
	// every Parent index refers to an earlier element. Returns nil, nil for
	// files it cannot handle.
	Scan(path string, source []byte) ([]Symbol, error)

	// AllowsEmptyNames reports whether the language legitimately produces
	// unnamed tags (suppresses the empty-name warning).
	AllowsEmptyNames(language string) bool
}
