package tagfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Pseudo-tags are metadata records sorted to the top of a ctags file.
// PseudoTagPrefix keeps them ahead of every real tag under ASCII ordering;
// language-qualified keys append PseudoTagSeparator plus the language name.
const (
	PseudoTagPrefix    = "!_"
	PseudoTagSeparator = "!"
)

// Program identity recorded in the header block.
const (
	programName    = "tagsmith"
	programURL     = "https://github.com/corey/tagsmith"
	programAuthor  = "Corey"
	programVersion = "0.9.0"
)

// Version is the user-visible release string.
func Version() string { return programVersion }

// WritePseudoTag emits one metadata record. Unqualified keys wrap the
// comment in slashes so it reads as a pattern field; language-qualified
// keys carry the comment verbatim.
func (s *Session) WritePseudoTag(name, value, comment, language string) error {
	var err error
	var n int
	if language != "" {
		n, err = fmt.Fprintf(s.w, "%s%s%s%s\t%s\t%s\n",
			PseudoTagPrefix, name, PseudoTagSeparator, language, value, comment)
	} else {
		n, err = fmt.Fprintf(s.w, "%s%s\t%s\t/%s/\n",
			PseudoTagPrefix, name, value, comment)
	}
	if err != nil {
		return fmt.Errorf("tagfile: cannot write pseudo-tag %s: %w", name, err)
	}
	s.numAdded++
	s.rememberMaxLengths(len(PseudoTagPrefix)+len(name), n)
	return nil
}

// writeHeader emits the standard pseudo-tag block for a fresh ctags file.
func (s *Session) writeHeader() error {
	formatComment := "original ctags format"
	if s.opts.FileFormat == 2 {
		formatComment = `extended format; --format=1 will not append ;" to lines`
	}
	type pt struct{ name, value, comment string }
	header := []pt{
		{"TAG_FILE_FORMAT", strconv.Itoa(s.opts.FileFormat), formatComment},
		{"TAG_FILE_SORTED", strconv.Itoa(int(s.opts.Sort)), "0=unsorted, 1=sorted, 2=foldcase"},
		{"TAG_PROGRAM_AUTHOR", programAuthor, ""},
		{"TAG_PROGRAM_NAME", programName, ""},
		{"TAG_PROGRAM_URL", programURL, "official site"},
		{"TAG_PROGRAM_VERSION", programVersion, ""},
	}
	if s.opts.OutputEncoding != "" {
		header = append(header, pt{"TAG_FILE_ENCODING", s.opts.OutputEncoding, ""})
	}
	for _, h := range header {
		if err := s.WritePseudoTag(h.name, h.value, h.comment, ""); err != nil {
			return err
		}
	}
	return nil
}

// refreshHeader prepares an existing ctags file for appending: it patches
// the TAG_FILE_SORTED flag in place to reflect this run's sort order and
// counts the lines already present. The file is opened read-write and
// closed again; the caller reopens it in append mode.
func (s *Session) refreshHeader() (prev uint64, err error) {
	f, err := os.OpenFile(s.name, os.O_RDWR, 0o644)
	if err != nil {
		return 0, fmt.Errorf("tagfile: cannot open tag file for appending: %w", err)
	}
	defer f.Close()

	sortedKey := []byte(PseudoTagPrefix + "TAG_FILE_SORTED\t")
	r := bufio.NewReader(f)
	var offset int64
	var lines uint64
	inHeader := true
	for {
		line, rerr := r.ReadBytes('\n')
		if len(line) > 0 {
			lines++
			if inHeader && bytes.HasPrefix(line, []byte(PseudoTagPrefix)) {
				if bytes.HasPrefix(line, sortedKey) {
					pos := offset + int64(len(sortedKey))
					want := byte('0' + int(s.opts.Sort))
					if len(line) > len(sortedKey) && line[len(sortedKey)] != want {
						if _, werr := f.WriteAt([]byte{want}, pos); werr != nil {
							return 0, fmt.Errorf("tagfile: cannot update sort flag: %w", werr)
						}
					}
				}
			} else {
				inHeader = false
			}
			offset += int64(len(line))
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return 0, fmt.Errorf("tagfile: cannot scan existing tag file: %w", rerr)
		}
	}
	return lines, nil
}
