package app

import (
	"os"
	"path/filepath"
)

// Paths holds all resolved filesystem paths for the .tagsmith/ workspace
// directory. All fields are pre-computed strings.
type Paths struct {
	Root string // .tagsmith/
	DB   string // .tagsmith/state.db

	GrammarsDir string // .tagsmith/grammars/
}

// NewPaths constructs all resolved paths from a workspace root directory.
func NewPaths(workspaceRoot string) *Paths {
	root := filepath.Join(workspaceRoot, ".tagsmith")
	return &Paths{
		Root:        root,
		DB:          filepath.Join(root, "state.db"),
		GrammarsDir: filepath.Join(root, "grammars"),
	}
}

// EnsureDirs creates all subdirectories under .tagsmith/. Idempotent.
func (p *Paths) EnsureDirs() error {
	dirs := []string{
		p.Root,
		p.GrammarsDir,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}
