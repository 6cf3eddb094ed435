// Package source implements the ports.LineReader interface over plain files.
// Tag writers ask for lines by byte offset, almost always walking forward
// through the file that was just scanned, so the reader keeps the most
// recent file open and seeks within it instead of reopening per request.
package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Reader implements ports.LineReader with a single cached file handle.
// Not safe for concurrent use; tagging sessions are single-threaded.
type Reader struct {
	path string
	f    *os.File
	br   *bufio.Reader
	pos  int64
}

// NewReader returns an empty reader; the first LineAt opens a file.
func NewReader() *Reader {
	return &Reader{}
}

// LineAt returns the line beginning at offset in path, including the
// trailing newline when the file has one.
func (r *Reader) LineAt(path string, offset int64) (string, error) {
	if err := r.ensure(path, offset); err != nil {
		return "", err
	}
	line, err := r.br.ReadString('\n')
	r.pos += int64(len(line))
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("source: read %s: %w", path, err)
	}
	if line == "" && err == io.EOF {
		return "", fmt.Errorf("source: offset %d past end of %s", offset, path)
	}
	return line, nil
}

func (r *Reader) ensure(path string, offset int64) error {
	if r.f == nil || r.path != path {
		if err := r.Close(); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("source: %w", err)
		}
		r.f = f
		r.path = path
		r.br = bufio.NewReader(f)
		r.pos = 0
		if offset == 0 {
			return nil
		}
	}
	if r.pos == offset {
		return nil
	}
	if _, err := r.f.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("source: seek %s: %w", path, err)
	}
	r.br.Reset(r.f)
	r.pos = offset
	return nil
}

// Close releases the cached handle. Safe to call multiple times.
func (r *Reader) Close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	r.br = nil
	r.path = ""
	r.pos = 0
	return err
}
