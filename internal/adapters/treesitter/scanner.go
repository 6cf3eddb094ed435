// Package treesitter implements the ports.Scanner interface using
// tree-sitter grammars. It extracts symbols (functions, classes, methods,
// types) from source files and hands them to the tagging orchestrator with
// positional scope links.
//
// Eight languages are compiled in via CGo from official tree-sitter repos,
// with an extension point for runtime .so loading via purego.
package treesitter

import (
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/corey/tagsmith/internal/domain/tags"
	"github.com/corey/tagsmith/internal/ports"
)

// rule maps one AST node kind to a tag kind. container nodes contribute
// scope: symbols found inside them reference the container via Parent.
type rule struct {
	// kind indexes langSpec.kinds; -1 defers to pick.
	kind      int
	pick      func(n *tree_sitter.Node, source []byte) int
	container bool
}

// langSpec bundles everything the scanner knows about one language.
type langSpec struct {
	name        string
	exts        []string
	kinds       []*tags.Kind
	rules       map[string]rule
	allowsEmpty bool
}

// Scanner implements ports.Scanner backed by tree-sitter grammars.
type Scanner struct {
	languages map[string]*tree_sitter.Language
	specs     map[string]*langSpec
	extToLang map[string]string
	loader    *DynamicLoader
}

// NewScanner creates a scanner with all built-in grammars registered.
func NewScanner() *Scanner {
	s := &Scanner{
		languages: make(map[string]*tree_sitter.Language),
		specs:     make(map[string]*langSpec),
		extToLang: make(map[string]string),
	}
	s.registerBuiltinLanguages()
	return s
}

// addLang registers a grammar together with its extraction spec.
func (s *Scanner) addLang(spec *langSpec, lang *tree_sitter.Language) {
	if lang == nil {
		return
	}
	s.languages[spec.name] = lang
	s.specs[spec.name] = spec
	for _, ext := range spec.exts {
		s.extToLang[ext] = spec.name
	}
}

// LanguageFor maps a file path to a language name, "" when unhandled.
func (s *Scanner) LanguageFor(path string) string {
	base := filepath.Base(path)
	if lang, ok := s.extToLang[base]; ok {
		return lang
	}
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := s.extToLang[ext]; ok {
		return lang
	}
	return ""
}

// Kinds returns the kind table for a language, nil when unknown.
func (s *Scanner) Kinds(language string) []*tags.Kind {
	if spec, ok := s.specs[language]; ok {
		return spec.kinds
	}
	return nil
}

// Languages returns the registered language names.
func (s *Scanner) Languages() []string {
	names := make([]string, 0, len(s.specs))
	for name := range s.specs {
		names = append(names, name)
	}
	return names
}

// AllowsEmptyNames reports whether the language legitimately produces
// unnamed symbols (anonymous aggregates and the like).
func (s *Scanner) AllowsEmptyNames(language string) bool {
	if spec, ok := s.specs[language]; ok {
		return spec.allowsEmpty
	}
	return false
}

// SetGrammarPaths configures dynamic grammar loading from shared libraries
// found in the given directories. Workspace-local paths should come first.
func (s *Scanner) SetGrammarPaths(paths []string) {
	s.loader = NewDynamicLoader(paths)
}

// Scan extracts symbols from one file. Returns nil, nil for files the
// scanner cannot handle; grammar trouble degrades to "no symbols" rather
// than failing the whole run.
func (s *Scanner) Scan(path string, source []byte) ([]ports.Symbol, error) {
	langName := s.LanguageFor(path)
	if langName == "" || len(source) == 0 {
		return nil, nil
	}

	lang, ok := s.languages[langName]
	if !ok && s.loader != nil {
		loaded, err := s.loader.LoadGrammar(langName)
		if err != nil {
			return nil, nil
		}
		s.languages[langName] = loaded
		lang = loaded
	} else if !ok {
		return nil, nil
	}
	spec := s.specs[langName]

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(lang); err != nil {
		return nil, err
	}

	tree := parser.Parse(source, nil)
	defer tree.Close()

	var symbols []ports.Symbol
	walk(tree.RootNode(), source, spec, -1, &symbols, 0)
	return symbols, nil
}

// maxWalkDepth bounds the AST descent. It counts every tree level, matched
// or not, so it must sit far above anything hand-written code produces;
// it only guards degenerate machine-generated trees.
const maxWalkDepth = 512

// walk recursively collects symbols. parent is the index of the enclosing
// container symbol in the output slice, -1 at top level.
func walk(n *tree_sitter.Node, source []byte, spec *langSpec, parent int, symbols *[]ports.Symbol, depth int) {
	if depth > maxWalkDepth {
		return
	}

	for i := uint(0); i < uint(n.ChildCount()); i++ {
		child := n.Child(i)
		r, matched := spec.rules[child.Kind()]
		if !matched {
			walk(child, source, spec, parent, symbols, depth+1)
			continue
		}

		kindIdx := r.kind
		if kindIdx < 0 && r.pick != nil {
			kindIdx = r.pick(child, source)
		}
		if kindIdx < 0 || kindIdx >= len(spec.kinds) {
			walk(child, source, spec, parent, symbols, depth+1)
			continue
		}

		name := extractName(child, source)
		start := child.StartPosition()
		sym := ports.Symbol{
			Name:      name,
			Kind:      spec.kinds[kindIdx],
			RoleIndex: tags.RoleDefinition,
			Line:      uint64(start.Row + 1),
			Offset:    int64(child.StartByte()) - int64(start.Column),
			EndLine:   uint64(child.EndPosition().Row + 1),
			Signature: extractSignature(child, source, name),
			FileScope: isFileScoped(child, source),
			Parent:    parent,
		}
		*symbols = append(*symbols, sym)
		idx := len(*symbols) - 1

		if r.container {
			walk(child, source, spec, idx, symbols, depth+1)
		} else {
			walk(child, source, spec, parent, symbols, depth+1)
		}
	}
}

// extractName finds the identifier node in a symbol declaration. The
// candidate list covers the name-bearing node kinds across the built-in
// grammars.
func extractName(n *tree_sitter.Node, source []byte) string {
	nameKinds := []string{
		"identifier", "name", "field_identifier", "property_identifier",
		"type_identifier", "package_identifier", "scoped_identifier", "constant",
	}
	for _, kind := range nameKinds {
		if c := childByKind(n, kind); c != nil {
			return nodeText(c, source)
		}
	}
	// C-family declarations bury the identifier inside a declarator chain.
	declKinds := []string{
		"function_declarator", "init_declarator", "pointer_declarator",
		"array_declarator", "variable_declarator",
	}
	for _, kind := range declKinds {
		if c := childByKind(n, kind); c != nil {
			if name := extractName(c, source); name != "" {
				return name
			}
		}
	}
	// Grammars that wrap the name in a "name:" field (ruby, java enums).
	if c := n.ChildByFieldName("name"); c != nil {
		return nodeText(c, source)
	}
	return ""
}

// insideAny reports whether any ancestor of n has one of the given kinds.
func insideAny(n *tree_sitter.Node, kinds ...string) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		for _, k := range kinds {
			if p.Kind() == k {
				return true
			}
		}
	}
	return false
}

// extractSignature builds name + parameter list when the node carries one.
func extractSignature(n *tree_sitter.Node, source []byte, name string) string {
	paramKinds := []string{
		"parameters", "formal_parameters", "parameter_list", "method_parameters",
	}
	for _, kind := range paramKinds {
		if p := childByKind(n, kind); p != nil {
			return name + nodeText(p, source)
		}
	}
	return ""
}

// isFileScoped detects file-restricted visibility (C static linkage).
func isFileScoped(n *tree_sitter.Node, source []byte) bool {
	if c := childByKind(n, "storage_class_specifier"); c != nil {
		return nodeText(c, source) == "static"
	}
	return false
}

// nodeText returns the source text for a node.
func nodeText(n *tree_sitter.Node, source []byte) string {
	return string(source[n.StartByte():n.EndByte()])
}

// childByKind finds the first child with the given kind.
func childByKind(n *tree_sitter.Node, kind string) *tree_sitter.Node {
	for i := uint(0); i < uint(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Kind() == kind {
			return c
		}
	}
	return nil
}
