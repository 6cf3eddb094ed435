package treesitter

// This file registers the compiled-in grammars and the per-language
// extraction specs: which AST nodes become tags, what kind they get, and
// which nodes contribute scope.

import (
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	ts_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	ts_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	ts_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	ts_ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	ts_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/corey/tagsmith/internal/domain/tags"
)

// langPtr wraps a Language() call that returns unsafe.Pointer.
func langPtr(p unsafe.Pointer) *tree_sitter.Language {
	return tree_sitter.NewLanguage(p)
}

// kind builds an enabled kind definition.
func kind(letter byte, name, description string) *tags.Kind {
	return &tags.Kind{Letter: letter, Name: name, Description: description, Enabled: true}
}

// registerBuiltinLanguages adds all compiled-in grammars to the scanner.
func (s *Scanner) registerBuiltinLanguages() {
	s.addLang(cSpec(), langPtr(ts_c.Language()))
	s.addLang(goSpec(), langPtr(ts_go.Language()))
	s.addLang(javaSpec(), langPtr(ts_java.Language()))
	s.addLang(javascriptSpec(), langPtr(ts_javascript.Language()))
	s.addLang(pythonSpec(), langPtr(ts_python.Language()))
	s.addLang(rubySpec(), langPtr(ts_ruby.Language()))
	s.addLang(rustSpec(), langPtr(ts_rust.Language()))
	s.addLang(typescriptSpec("typescript", ".ts", ".mts", ".cts"),
		langPtr(ts_typescript.LanguageTypescript()))
	s.addLang(typescriptSpec("tsx", ".tsx"), langPtr(ts_typescript.LanguageTSX()))
}

func cSpec() *langSpec {
	kinds := []*tags.Kind{
		kind('f', "function", "function definitions"),
		kind('s', "struct", "structure names"),
		kind('u', "union", "union names"),
		kind('g', "enum", "enumeration names"),
		kind('e', "enumerator", "enumerators (values inside an enumeration)"),
		kind('t', "typedef", "typedefs"),
		kind('d', "macro", "macro definitions"),
		kind('m', "member", "struct and union members"),
		kind('v', "variable", "variable definitions"),
	}
	const (
		cFunction = iota
		cStruct
		cUnion
		cEnum
		cEnumerator
		cTypedef
		cMacro
		cMember
		cVariable
	)
	hasBody := func(target int) func(n *tree_sitter.Node, source []byte) int {
		return func(n *tree_sitter.Node, source []byte) int {
			// Bare "struct foo x;" references carry no body and tag nothing.
			if childByKind(n, "field_declaration_list") == nil &&
				childByKind(n, "enumerator_list") == nil {
				return -1
			}
			return target
		}
	}
	return &langSpec{
		name: "c",
		exts: []string{".c", ".h"},
		// Anonymous aggregates are legitimate unnamed tags.
		allowsEmpty: true,
		kinds:       kinds,
		rules: map[string]rule{
			"function_definition":  {kind: cFunction},
			"struct_specifier":     {kind: -1, pick: hasBody(cStruct), container: true},
			"union_specifier":      {kind: -1, pick: hasBody(cUnion), container: true},
			"enum_specifier":       {kind: -1, pick: hasBody(cEnum), container: true},
			"enumerator":           {kind: cEnumerator},
			"type_definition":      {kind: cTypedef},
			"preproc_def":          {kind: cMacro},
			"preproc_function_def": {kind: cMacro},
			"field_declaration":    {kind: cMember},
			"declaration": {kind: -1, pick: func(n *tree_sitter.Node, source []byte) int {
				if childByKind(n, "init_declarator") != nil &&
					childByKind(n, "function_declarator") == nil {
					return cVariable
				}
				return -1
			}},
		},
	}
}

func goSpec() *langSpec {
	kinds := []*tags.Kind{
		kind('p', "package", "packages"),
		kind('f', "func", "functions"),
		kind('m', "method", "methods"),
		kind('c', "const", "constants"),
		kind('t', "type", "types"),
		kind('v', "var", "variables"),
		kind('s', "struct", "structs"),
		kind('i', "interface", "interfaces"),
	}
	const (
		goPackage = iota
		goFunc
		goMethod
		goConst
		goType
		goVar
		goStruct
		goInterface
	)
	return &langSpec{
		name:  "go",
		exts:  []string{".go"},
		kinds: kinds,
		rules: map[string]rule{
			"package_clause":       {kind: goPackage},
			"function_declaration": {kind: goFunc},
			"method_declaration":   {kind: goMethod},
			"const_spec":           {kind: goConst},
			"var_spec":             {kind: goVar},
			"type_spec": {kind: -1, container: true, pick: func(n *tree_sitter.Node, source []byte) int {
				if childByKind(n, "struct_type") != nil {
					return goStruct
				}
				if childByKind(n, "interface_type") != nil {
					return goInterface
				}
				return goType
			}},
		},
	}
}

func javaSpec() *langSpec {
	kinds := []*tags.Kind{
		kind('p', "package", "packages"),
		kind('c', "class", "classes"),
		kind('i', "interface", "interfaces"),
		kind('g', "enum", "enum types"),
		kind('e', "enumConstant", "enum constants"),
		kind('m', "method", "methods"),
		kind('f', "field", "fields"),
	}
	const (
		javaPackage = iota
		javaClass
		javaInterface
		javaEnum
		javaEnumConstant
		javaMethod
		javaField
	)
	return &langSpec{
		name:  "java",
		exts:  []string{".java"},
		kinds: kinds,
		rules: map[string]rule{
			"package_declaration":     {kind: javaPackage},
			"class_declaration":       {kind: javaClass, container: true},
			"interface_declaration":   {kind: javaInterface, container: true},
			"enum_declaration":        {kind: javaEnum, container: true},
			"enum_constant":           {kind: javaEnumConstant},
			"method_declaration":      {kind: javaMethod},
			"constructor_declaration": {kind: javaMethod},
			"field_declaration":       {kind: javaField},
		},
	}
}

func javascriptSpec() *langSpec {
	kinds := []*tags.Kind{
		kind('f', "function", "functions"),
		kind('c', "class", "classes"),
		kind('m', "method", "methods"),
		kind('v', "variable", "global variables"),
	}
	const (
		jsFunction = iota
		jsClass
		jsMethod
		jsVariable
	)
	return &langSpec{
		name:  "javascript",
		exts:  []string{".js", ".mjs", ".cjs"},
		kinds: kinds,
		rules: map[string]rule{
			"function_declaration":           {kind: jsFunction},
			"generator_function_declaration": {kind: jsFunction},
			"class_declaration":              {kind: jsClass, container: true},
			"method_definition":              {kind: jsMethod},
			"variable_declarator":            {kind: -1, pick: pickJSVariable(jsFunction, jsVariable)},
		},
	}
}

func typescriptSpec(name string, exts ...string) *langSpec {
	kinds := []*tags.Kind{
		kind('f', "function", "functions"),
		kind('c', "class", "classes"),
		kind('m', "method", "methods"),
		kind('v', "variable", "global variables"),
		kind('i', "interface", "interfaces"),
		kind('t', "alias", "type aliases"),
		kind('g', "enum", "enums"),
	}
	const (
		tsFunction = iota
		tsClass
		tsMethod
		tsVariable
		tsInterface
		tsAlias
		tsEnum
	)
	return &langSpec{
		name:  name,
		exts:  exts,
		kinds: kinds,
		rules: map[string]rule{
			"function_declaration":           {kind: tsFunction},
			"generator_function_declaration": {kind: tsFunction},
			"class_declaration":              {kind: tsClass, container: true},
			"method_definition":              {kind: tsMethod},
			"variable_declarator":            {kind: -1, pick: pickJSVariable(tsFunction, tsVariable)},
			"interface_declaration":          {kind: tsInterface, container: true},
			"type_alias_declaration":         {kind: tsAlias},
			"enum_declaration":               {kind: tsEnum, container: true},
		},
	}
}

// pickJSVariable classifies a variable_declarator: function-valued
// declarators tag as functions, other top-level declarators as variables,
// and anything inside a function body is a local and tags nothing.
func pickJSVariable(funcKind, varKind int) func(n *tree_sitter.Node, source []byte) int {
	return func(n *tree_sitter.Node, source []byte) int {
		if insideAny(n, "function_declaration", "function_expression",
			"arrow_function", "method_definition", "generator_function_declaration") {
			return -1
		}
		if childByKind(n, "arrow_function") != nil || childByKind(n, "function_expression") != nil {
			return funcKind
		}
		return varKind
	}
}

func pythonSpec() *langSpec {
	kinds := []*tags.Kind{
		kind('c', "class", "classes"),
		kind('f', "function", "functions"),
		kind('m', "member", "class members (methods)"),
	}
	const (
		pyClass = iota
		pyFunction
		pyMember
	)
	return &langSpec{
		name:  "python",
		exts:  []string{".py"},
		kinds: kinds,
		rules: map[string]rule{
			"class_definition": {kind: pyClass, container: true},
			"function_definition": {kind: -1, pick: func(n *tree_sitter.Node, source []byte) int {
				if insideAny(n, "class_definition") && !insideAny(n, "function_definition") {
					return pyMember
				}
				return pyFunction
			}},
		},
	}
}

func rubySpec() *langSpec {
	kinds := []*tags.Kind{
		kind('c', "class", "classes"),
		kind('m', "module", "modules"),
		kind('f', "method", "methods"),
		kind('S', "singletonMethod", "singleton methods"),
	}
	const (
		rbClass = iota
		rbModule
		rbMethod
		rbSingleton
	)
	return &langSpec{
		name:  "ruby",
		exts:  []string{".rb"},
		kinds: kinds,
		rules: map[string]rule{
			"class":            {kind: rbClass, container: true},
			"module":           {kind: rbModule, container: true},
			"method":           {kind: rbMethod},
			"singleton_method": {kind: rbSingleton},
		},
	}
}

func rustSpec() *langSpec {
	kinds := []*tags.Kind{
		kind('n', "module", "modules"),
		kind('f', "function", "functions"),
		kind('s', "struct", "structs"),
		kind('g', "enum", "enums"),
		kind('e', "enumerator", "enum variants"),
		kind('i', "trait", "traits"),
		kind('c', "implementation", "implementations"),
		kind('t', "typedef", "type aliases"),
		kind('v', "variable", "statics and constants"),
		kind('m', "field", "struct fields"),
		kind('M', "macro", "macro definitions"),
	}
	const (
		rsModule = iota
		rsFunction
		rsStruct
		rsEnum
		rsVariant
		rsTrait
		rsImpl
		rsTypedef
		rsVariable
		rsField
		rsMacro
	)
	return &langSpec{
		name:  "rust",
		exts:  []string{".rs"},
		kinds: kinds,
		rules: map[string]rule{
			"mod_item":          {kind: rsModule, container: true},
			"function_item":     {kind: rsFunction},
			"struct_item":       {kind: rsStruct, container: true},
			"enum_item":         {kind: rsEnum, container: true},
			"enum_variant":      {kind: rsVariant},
			"trait_item":        {kind: rsTrait, container: true},
			"impl_item":         {kind: rsImpl, container: true},
			"type_item":         {kind: rsTypedef},
			"static_item":       {kind: rsVariable},
			"const_item":        {kind: rsVariable},
			"field_declaration": {kind: rsField},
			"macro_definition":  {kind: rsMacro},
		},
	}
}
