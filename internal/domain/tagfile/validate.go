package tagfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// wholeFile asks the copy helpers to run until EOF.
const wholeFile int64 = -1

// looksLikeTagFile decides whether an existing file is safe to overwrite or
// append to. Empty files qualify; otherwise the first line must be a valid
// ctags record (a pseudo-tag counts) or an etags page-break header.
func looksLikeTagFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	if line == "" {
		return true, nil
	}
	return isCtagsLine(line) || isEtagsLine(line), nil
}

// isCtagsLine recognizes the five-field shape NAME<tab>FILE<tab>ADDRESS:
// exactly single tabs, a tag that isn't a comment, a file name that doesn't
// swallow the separator, and a well-formed EX address.
func isCtagsLine(line string) bool {
	line = strings.TrimRight(line, "\r\n")
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) != 3 {
		return false
	}
	tag, file, excmd := parts[0], parts[1], parts[2]
	if tag == "" || tag[0] == '#' {
		return false
	}
	if file == "" || strings.HasSuffix(file, ";") {
		return false
	}
	return isValidTagAddress(excmd)
}

// isValidTagAddress accepts a pattern address (leading / or ?) or a bare
// line number, ignoring any ;" extension suffix.
func isValidTagAddress(excmd string) bool {
	if excmd == "" {
		return false
	}
	if excmd[0] == '/' || excmd[0] == '?' {
		return true
	}
	if i := strings.IndexByte(excmd, ';'); i >= 0 {
		excmd = excmd[:i]
	}
	if excmd == "" {
		return false
	}
	for i := 0; i < len(excmd); i++ {
		if excmd[i] < '0' || excmd[i] > '9' {
			return false
		}
	}
	return true
}

// isEtagsLine recognizes the "\f\n" page break opening an etags section.
func isEtagsLine(line string) bool {
	return len(line) >= 2 && line[0] == '\f' && (line[1] == '\n' || line[1] == '\r')
}

// copyBytes streams size bytes (or everything for wholeFile) from r to w.
func copyBytes(r io.Reader, w io.Writer, size int64) error {
	var err error
	if size == wholeFile {
		_, err = io.Copy(w, r)
	} else {
		_, err = io.CopyN(w, r, size)
	}
	return err
}

// copyFile copies size bytes of from into to, replacing its contents.
func copyFile(from, to string, size int64) error {
	src, err := os.Open(from)
	if err != nil {
		return fmt.Errorf("cannot open %q: %w", from, err)
	}
	defer src.Close()

	dst, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("cannot open %q: %w", to, err)
	}
	if err := copyBytes(src, dst, size); err != nil {
		dst.Close()
		return fmt.Errorf("cannot copy %q to %q: %w", from, to, err)
	}
	return dst.Close()
}
