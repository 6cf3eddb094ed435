package ports

// LineReader reads one raw source line by byte offset. The tag writer uses
// it to rebuild search patterns and etags context lines; the heavy lifting
// of buffering lives in the adapter (internal/adapters/source).
type LineReader interface {
	// LineAt returns the line starting at offset in path, including the
	// trailing newline when the file has one. Reads are strictly
	// sequential-friendly: implementations may keep the last file open.
	LineAt(path string, offset int64) (string, error)

	// Close releases any cached file handle. Safe to call multiple times.
	Close() error
}
