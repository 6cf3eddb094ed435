package app

import (
	"os"
	"path/filepath"
	"sort"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/corey/tagsmith/internal/ports"
)

// skipDirs lists directories never worth scanning (matches the fsnotify
// watcher's ignore set).
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	".venv":        true,
	"__pycache__":  true,
	"vendor":       true,
	".idea":        true,
	".vscode":      true,
	"dist":         true,
	"build":        true,
	".tagsmith":    true,
	".next":        true,
	"target":       true,
}

// maxFileSize guards against minified bundles and generated blobs.
const maxFileSize = 1 << 20

// DiscoverFiles walks root and returns the source files the scanner can
// handle, honoring the root .gitignore when one exists. Results are sorted
// so runs are reproducible.
func DiscoverFiles(root string, scanner ports.Scanner) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	// A missing or unreadable .gitignore just means nothing is ignored.
	gi, _ := ignore.CompileIgnoreFile(filepath.Join(absRoot, ".gitignore"))

	var files []string
	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable
		}
		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			return nil
		}
		if info.IsDir() {
			if path != absRoot && (skipDirs[info.Name()] || (gi != nil && gi.MatchesPath(rel+"/"))) {
				return filepath.SkipDir
			}
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if info.Size() > maxFileSize {
			return nil
		}
		if scanner.LanguageFor(path) == "" {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
