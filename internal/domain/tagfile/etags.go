package tagfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/corey/tagsmith/internal/domain/fields"
	"github.com/corey/tagsmith/internal/domain/tags"
)

// Etags output is organized per input file: a "\f\n<path>,<bytes>\n"
// section header followed by the file's entries. Since the byte count must
// be known before the header is written, entries are staged in a temp file
// and copied into place when the input file is done.

// BeginEtagsFile opens the staging area for one input file's entries.
// Only meaningful for etags sessions.
func (s *Session) BeginEtagsFile() error {
	if s.opts.Format != OutputEtags {
		return nil
	}
	if s.etagsFile != nil {
		return fmt.Errorf("tagfile: etags file section already open")
	}
	f, err := os.CreateTemp("", "tagsmith-etags-*")
	if err != nil {
		return fmt.Errorf("tagfile: cannot create etags staging file: %w", err)
	}
	s.etagsFile = f
	s.etagsName = f.Name()
	s.etagsBytes = 0
	return nil
}

// EndEtagsFile closes the current input file's section: writes the header
// naming path and the staged byte count, then splices the staged entries in.
func (s *Session) EndEtagsFile(path string) error {
	if s.opts.Format != OutputEtags || s.etagsFile == nil {
		return nil
	}
	if _, err := fmt.Fprintf(s.w, "\f\n%s,%d\n", path, s.etagsBytes); err != nil {
		return fmt.Errorf("tagfile: cannot write etags section header: %w", err)
	}
	if _, err := s.etagsFile.Seek(0, 0); err != nil {
		return fmt.Errorf("tagfile: cannot rewind etags staging file: %w", err)
	}
	if err := copyBytes(s.etagsFile, s.w, wholeFile); err != nil {
		return fmt.Errorf("tagfile: cannot splice etags section: %w", err)
	}
	s.discardEtagsStage()
	return nil
}

func (s *Session) discardEtagsStage() {
	if s.etagsFile != nil {
		s.etagsFile.Close()
		os.Remove(s.etagsName)
		s.etagsFile = nil
		s.etagsName = ""
	}
}

// writeEtagsEntry stages one entry. File entries use the short form with a
// zero offset; symbol entries carry their source line as match context:
//
//	<line>\x7f<name>\x01<lineno>,<offset>
func (s *Session) writeEtagsEntry(e *tags.Entry) (int, error) {
	if s.etagsFile == nil {
		return 0, fmt.Errorf("tagfile: etags entry outside a file section")
	}

	name := s.reg.Render(fields.FormatEtags, fields.FieldName, e, -1).Text
	var n int
	var err error
	if e.FileEntry {
		n, err = fmt.Fprintf(s.etagsFile, "\x7f%s\x01%d,0\n", name, e.LineNumber)
	} else {
		line, rerr := s.inputLine(e)
		if rerr != nil {
			// Unreadable source; the entry contributes nothing.
			return 0, nil
		}
		if e.TruncateLine {
			line = truncateTagLine(line, e.Name, true)
		} else {
			line = strings.TrimRight(line, "\r\n")
		}
		n, err = fmt.Fprintf(s.etagsFile, "%s\x7f%s\x01%d,%d\n",
			line, name, e.LineNumber, e.FilePosition)
	}
	if err != nil {
		return 0, err
	}
	s.etagsBytes += int64(n)
	return n, nil
}

// writeEtagsIncludes appends the trailing ",include" sections referencing
// other tag tables.
func (s *Session) writeEtagsIncludes() error {
	for _, inc := range s.opts.EtagsIncludes {
		if _, err := fmt.Fprintf(s.w, "\f\n%s,include\n", inc); err != nil {
			return fmt.Errorf("tagfile: cannot write etags include: %w", err)
		}
		s.numAdded++
	}
	return nil
}
