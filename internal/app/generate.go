// Package app orchestrates tag generation: file discovery, scanning,
// cork-queue buffering per input file, and session lifecycle. It wires the
// ports together but contains no format or parsing logic of its own.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/corey/tagsmith/internal/domain/tagfile"
	"github.com/corey/tagsmith/internal/domain/tags"
	"github.com/corey/tagsmith/internal/ports"
)

// GenerateOptions controls one generation run.
type GenerateOptions struct {
	// Root is the workspace to walk when Paths is empty.
	Root string

	// Paths are explicit input files; when set, no walking happens.
	Paths []string

	// FileTags adds one tag per input file (kind F).
	FileTags bool

	// Incremental skips files whose size and mtime match the recorded
	// state. Only useful together with an appending session.
	Incremental bool
}

// GenerateResult reports what a run did.
type GenerateResult struct {
	Files   int
	Skipped int
	Tags    uint64
}

// Generator owns the ports needed for a run. Store may be nil when
// incremental state is not wanted.
type Generator struct {
	Scanner ports.Scanner
	Reader  ports.LineReader
	Store   ports.StateStore
}

// Generate scans the inputs and writes them through one tagging session.
func (g *Generator) Generate(opts GenerateOptions, sopts tagfile.Options) (*GenerateResult, error) {
	files := opts.Paths
	if len(files) == 0 {
		var err error
		files, err = DiscoverFiles(opts.Root, g.Scanner)
		if err != nil {
			return nil, fmt.Errorf("discover files: %w", err)
		}
	}

	sopts.AllowEmptyNames = g.Scanner.AllowsEmptyNames
	session, err := tagfile.Open(sopts, g.Reader)
	if err != nil {
		return nil, err
	}

	var prevStates map[string]ports.FileState
	projectID := ""
	if opts.Incremental && g.Store != nil {
		if projectID, err = projectIdentity(opts.Root); err == nil {
			prevStates, _ = g.Store.LoadFileStates(projectID)
		}
	}
	newStates := make(map[string]ports.FileState, len(files))

	result := &GenerateResult{}
	for _, path := range files {
		display := displayPath(path)
		info, statErr := os.Stat(path)
		if statErr != nil {
			continue
		}
		state := ports.FileState{Size: info.Size(), ModTime: info.ModTime().Unix()}
		newStates[display] = state
		if prevStates != nil {
			if prev, ok := prevStates[display]; ok && prev == state {
				result.Skipped++
				continue
			}
		}

		if err := g.tagOneFile(session, path, display, opts.FileTags); err != nil {
			session.Close(false)
			return nil, err
		}
		result.Files++
	}

	if opts.Incremental && g.Store != nil && projectID != "" {
		if err := g.Store.SaveFileStates(projectID, newStates); err != nil {
			session.Close(false)
			return nil, fmt.Errorf("save file states: %w", err)
		}
	}

	result.Tags = session.Added()
	if err := session.Close(true); err != nil {
		return nil, err
	}
	return result, nil
}

// tagOneFile scans one input and feeds its symbols through a cork session
// so sibling symbols can reference each other as scopes.
func (g *Generator) tagOneFile(session *tagfile.Session, path, display string, fileTags bool) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", display, err)
	}
	language := g.Scanner.LanguageFor(path)
	symbols, err := g.Scanner.Scan(path, source)
	if err != nil {
		return fmt.Errorf("scan %s: %w", display, err)
	}

	if err := session.BeginEtagsFile(); err != nil {
		return err
	}
	session.Cork()

	if fileTags {
		if _, err := session.Make(fileEntry(display, language)); err != nil {
			return err
		}
	}

	handles := make([]int, len(symbols))
	for i, sym := range symbols {
		e := entryFromSymbol(display, language, sym)
		if sym.Parent >= 0 && sym.Parent < i {
			e.Extension.ScopeIndex = handles[sym.Parent]
		}
		h, err := session.Make(e)
		if err != nil {
			return err
		}
		handles[i] = h
	}

	if err := session.Uncork(); err != nil {
		return err
	}
	return session.EndEtagsFile(display)
}

// entryFromSymbol translates scanner output into a tag entry.
func entryFromSymbol(path, language string, sym ports.Symbol) *tags.Entry {
	e := &tags.Entry{
		Name:         sym.Name,
		Kind:         sym.Kind,
		Language:     language,
		InputFile:    path,
		LineNumber:   sym.Line,
		FilePosition: sym.Offset,
		FileScope:    sym.FileScope,
	}
	e.Extension.RoleIndex = sym.RoleIndex
	e.Extension.EndLine = sym.EndLine
	e.Extension.Signature = sym.Signature
	e.Extension.Access = sym.Access
	e.Extension.Inheritance = sym.Inheritance
	e.Extension.Implementation = sym.Implementation
	e.Extension.TypeRef = sym.TypeRef
	e.Extension.ScopeIndex = tags.ScopeNone
	return e
}

// fileEntry builds the per-file tag (kind F, addressed by line 1).
func fileEntry(path, language string) *tags.Entry {
	return &tags.Entry{
		Name:            path,
		Kind:            tags.FileKind,
		Language:        language,
		InputFile:       path,
		LineNumber:      1,
		LineNumberEntry: true,
		FileEntry:       true,
	}
}

// displayPath prefers a path relative to the working directory; anything
// outside it stays absolute.
func displayPath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil || len(rel) >= 2 && rel[:2] == ".." {
		return path
	}
	return rel
}

// projectIdentity keys incremental state by absolute workspace root.
func projectIdentity(root string) (string, error) {
	if root == "" {
		root = "."
	}
	return filepath.Abs(root)
}
