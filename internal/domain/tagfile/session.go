// Package tagfile owns the output side of tagging: one Session per output
// target, moving through Closed -> Open -> Accepting -> Closing -> Closed.
// It validates existing targets, writes pseudo-tag headers, routes entries
// either straight to the format writer or into the cork queue, and
// finalizes the file (truncate, sort, copy-to-stdout) on close.
//
// A Session is strictly single-threaded: the pattern cache and the running
// maxima are plain mutable state with no synchronization.
package tagfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/corey/tagsmith/internal/domain/fields"
	"github.com/corey/tagsmith/internal/domain/tags"
	"github.com/corey/tagsmith/internal/ports"
)

// OutputFormat selects the on-disk encoding of tag records.
type OutputFormat int

const (
	OutputCtags OutputFormat = iota
	OutputEtags
	OutputXref
)

// SortOrder mirrors the TAG_FILE_SORTED pseudo-tag values.
type SortOrder int

const (
	Unsorted   SortOrder = 0
	Sorted     SortOrder = 1
	FoldSorted SortOrder = 2
)

// DefaultPatternLengthLimit caps locator patterns unless overridden.
const DefaultPatternLengthLimit = 96

// Options configures one tagging session.
type Options struct {
	// Path is the output target. "-" or "" writes to standard output via a
	// read-write temp file (the final sort/copy pass needs read access).
	Path string

	Format OutputFormat

	// FileFormat is the ctags tag file format: 1 (plain) or 2 (extended,
	// appends the ;" sentinel and key:value fields). Defaults to 2.
	FileFormat int

	Append bool
	Sort   SortOrder

	// Backward wraps locators in ?...? instead of /.../.
	Backward bool

	// LineNumbers addresses tags by line number instead of a pattern.
	LineNumbers bool

	// LineDirectives substitutes source-file attribution for generated code.
	LineDirectives bool

	// PatternLengthLimit truncates locator patterns; 0 means the default.
	PatternLengthLimit int

	// EtagsIncludes are emitted as trailing ",include" sections.
	EtagsIncludes []string

	// XrefFormat overrides the built-in xref columns with a custom format
	// string (e.g. "%-16N %4n %C").
	XrefFormat string

	// OutputEncoding, when set, is recorded in the TAG_FILE_ENCODING
	// pseudo-tag. No transcoding happens.
	OutputEncoding string

	// PseudoTags disables the header block when false... inverted so the
	// zero value keeps the header on.
	NoPseudoTags bool

	// EnableFields and DisableFields switch extension fields on or off by
	// name once the registry is built. Unknown names only warn.
	EnableFields  []string
	DisableFields []string

	// AllowEmptyNames suppresses the empty-name warning for languages that
	// legitimately produce unnamed tags.
	AllowEmptyNames func(language string) bool

	// Warnf receives recoverable data-quality warnings. Defaults to stderr.
	Warnf func(format string, args ...any)

	// Stdout overrides the final output stream for "-" targets (tests).
	Stdout io.Writer
}

// Session is the lifecycle manager for one open tag file.
type Session struct {
	opts   Options
	reg    *fields.Registry
	reader ports.LineReader
	queue  tags.CorkQueue

	name     string // file being written (temp file for stdout targets)
	dir      string
	f        *os.File
	w        *bufio.Writer
	toStdout bool

	numAdded uint64
	numPrev  uint64
	maxName  int
	maxLine  int

	etagsFile  *os.File
	etagsName  string
	etagsBytes int64

	// Single-slot locator cache: the most recently computed pattern, keyed
	// by input path and byte offset. Valid only for untruncated lines.
	pcacheValid  bool
	pcachePath   string
	pcacheOffset int64
	pcacheText   string

	xrefCustom  []fmtElement
	xrefBuiltin []fmtElement

	closed bool
}

// Open validates the target and transitions a new session into the
// accepting state. reader supplies source lines for pattern construction;
// the session does not close it.
func Open(opts Options, reader ports.LineReader) (*Session, error) {
	if opts.FileFormat == 0 {
		opts.FileFormat = 2
	}
	if opts.FileFormat != 1 && opts.FileFormat != 2 {
		return nil, fmt.Errorf("tagfile: unsupported file format %d", opts.FileFormat)
	}
	if opts.PatternLengthLimit == 0 {
		opts.PatternLengthLimit = DefaultPatternLengthLimit
	}
	if opts.Warnf == nil {
		opts.Warnf = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "tagsmith: warning: "+format+"\n", args...)
		}
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	s := &Session{
		opts:     opts,
		reader:   reader,
		toStdout: opts.Path == "" || opts.Path == "-",
	}
	s.reg = fields.NewRegistry(fields.Hooks{
		ScopeInfo:      s.scopeInfo,
		Pattern:        s.patternFor,
		InputLine:      s.inputLine,
		LineDirectives: opts.LineDirectives,
		Warnf:          opts.Warnf,
	})

	s.applyFieldSwitches(opts.EnableFields, true)
	s.applyFieldSwitches(opts.DisableFields, false)

	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) applyFieldSwitches(names []string, state bool) {
	for _, name := range names {
		siblings := s.reg.Siblings(name)
		if len(siblings) == 0 {
			s.opts.Warnf("unknown field name %q", name)
			continue
		}
		for _, ft := range siblings {
			s.reg.SetEnabled(ft, state)
		}
	}
}

func (s *Session) open() error {
	if s.toStdout {
		f, err := os.CreateTemp("", "tagsmith-*")
		if err != nil {
			return fmt.Errorf("tagfile: cannot create staging file: %w", err)
		}
		s.f = f
		s.name = f.Name()
		s.w = bufio.NewWriter(f)
		s.dir, _ = os.Getwd()
		if s.headerWanted() {
			return s.writeHeader()
		}
		return nil
	}

	s.name = s.opts.Path
	exists := fileExists(s.name)
	if exists {
		ok, err := looksLikeTagFile(s.name)
		if err != nil {
			return fmt.Errorf("tagfile: cannot inspect %q: %w", s.name, err)
		}
		if !ok {
			return fmt.Errorf("tagfile: %q doesn't look like a tag file; refusing to overwrite it", s.name)
		}
	}

	appending := s.opts.Append && exists
	if s.opts.Format == OutputEtags {
		mode := os.O_RDWR | os.O_CREATE
		if appending {
			mode |= os.O_APPEND
		} else {
			mode |= os.O_TRUNC
		}
		f, err := os.OpenFile(s.name, mode, 0o644)
		if err != nil {
			return fmt.Errorf("tagfile: cannot open tag file: %w", err)
		}
		s.f = f
	} else if appending {
		prev, err := s.refreshHeader()
		if err != nil {
			return err
		}
		s.numPrev = prev
		f, err := os.OpenFile(s.name, os.O_RDWR|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("tagfile: cannot reopen tag file for append: %w", err)
		}
		s.f = f
	} else {
		f, err := os.Create(s.name)
		if err != nil {
			return fmt.Errorf("tagfile: cannot open tag file: %w", err)
		}
		s.f = f
	}
	s.w = bufio.NewWriter(s.f)

	if abs, err := filepath.Abs(filepath.Dir(s.name)); err == nil {
		s.dir = abs
	}
	if !appending && s.headerWanted() {
		return s.writeHeader()
	}
	return nil
}

// headerWanted reports whether the pseudo-tag block belongs in this output.
// Xref and etags outputs never carry one.
func (s *Session) headerWanted() bool {
	return !s.opts.NoPseudoTags && s.opts.Format == OutputCtags
}

// Fields exposes the session's field registry for enablement changes,
// custom field definitions, and listing.
func (s *Session) Fields() *fields.Registry { return s.reg }

// Name returns the path actually being written (the staging file for
// stdout targets).
func (s *Session) Name() string { return s.name }

// Added returns the number of records written so far, pseudo-tags included.
func (s *Session) Added() uint64 { return s.numAdded }

// Previous returns the line count found in the target before an append run.
func (s *Session) Previous() uint64 { return s.numPrev }

// MaxNameLen and MaxRecordLen report the running maxima used for column
// sizing by downstream consumers.
func (s *Session) MaxNameLen() int   { return s.maxName }
func (s *Session) MaxRecordLen() int { return s.maxLine }

// Cork opens (or nests) a buffering session: entries are queued instead of
// written, and Make returns stable handles usable as scope references.
func (s *Session) Cork() { s.queue.Cork() }

// Uncork closes one nesting level. The outermost uncork flushes every
// queued non-placeholder entry through the active format writer in
// insertion order and invalidates all handles.
func (s *Session) Uncork() error {
	return s.queue.Uncork(s.writeEntry)
}

// Corked reports whether a cork session is active.
func (s *Session) Corked() bool { return s.queue.Corked() }

// EntryAt returns a queued entry by cork handle, nil when out of range.
func (s *Session) EntryAt(handle int) *tags.Entry { return s.queue.At(handle) }

// Make accepts one entry from a scanner. Inside a cork session it is
// queued and the returned handle can anchor later scope references;
// otherwise it is written immediately and ScopeNone is returned.
//
// A non-placeholder entry with an empty name is dropped with a warning
// (unless its language allows empty names); that is not an error.
func (s *Session) Make(e *tags.Entry) (int, error) {
	if s.closed {
		return tags.ScopeNone, fmt.Errorf("tagfile: session is closed")
	}
	if e.Name == "" && !e.Placeholder {
		if s.opts.AllowEmptyNames == nil || !s.opts.AllowEmptyNames(e.Language) {
			s.opts.Warnf("ignoring null tag in %s (line %d)", e.InputFile, e.LineNumber)
		}
		return tags.ScopeNone, nil
	}
	if !e.Valid() {
		return tags.ScopeNone, fmt.Errorf("tagfile: invalid entry %q: role %d out of range for kind",
			e.Name, e.Extension.RoleIndex)
	}

	if s.queue.Corked() {
		// The origin line may be gone by flush time; capture the locator now.
		if e.Pattern == "" && !e.LineNumberEntry && !e.FileEntry {
			if p, err := s.patternFor(e); err == nil {
				e.Pattern = p
			}
		}
		return s.queue.Add(e), nil
	}
	return tags.ScopeNone, s.writeEntry(e)
}

// writeEntry serializes one resolved entry in the active format and
// maintains the counters and maxima.
func (s *Session) writeEntry(e *tags.Entry) error {
	if e.Placeholder {
		return nil
	}

	var length int
	var err error
	switch s.opts.Format {
	case OutputXref:
		length, err = s.writeXrefEntry(e)
	case OutputEtags:
		length, err = s.writeEtagsEntry(e)
	default:
		length, err = s.writeCtagsEntry(e)
	}
	if err != nil {
		return fmt.Errorf("tagfile: cannot write tag file: %w", err)
	}

	s.numAdded++
	s.rememberMaxLengths(len(e.Name), length)
	return nil
}

func (s *Session) rememberMaxLengths(nameLen, lineLen int) {
	if nameLen > s.maxName {
		s.maxName = nameLen
	}
	if lineLen > s.maxLine {
		s.maxLine = lineLen
	}
}

// scopeInfo resolves an entry's enclosing scope, either from the direct
// scope fields or by walking the cork queue.
func (s *Session) scopeInfo(e *tags.Entry) (kindName, qualified string, ok bool, err error) {
	x := &e.Extension
	if x.ScopeKind != nil && x.ScopeName != "" {
		return x.ScopeKind.Name, x.ScopeName, true, nil
	}
	if x.ScopeIndex == tags.ScopeNone {
		return "", "", false, nil
	}
	scope := s.queue.At(x.ScopeIndex)
	if scope == nil {
		return "", "", false, nil
	}
	qualified, err = s.queue.QualifiedName(scope)
	if err != nil {
		return "", "", false, err
	}
	if scope.Kind != nil {
		kindName = scope.Kind.Name
	}
	return kindName, qualified, true, nil
}

// inputLine reads the raw source line an entry points at.
func (s *Session) inputLine(e *tags.Entry) (string, error) {
	if s.reader == nil {
		return "", fmt.Errorf("tagfile: no line reader configured")
	}
	return s.reader.LineAt(e.InputFile, e.FilePosition)
}

// Close flushes and finalizes the session. resize requests shrinking the
// target to its logical length when housekeeping left it longer. After
// Close the session accepts no more entries.
func (s *Session) Close(resize bool) error {
	if s.closed {
		return nil
	}
	s.closed = true

	// A scanner that bailed out mid-file may leave the cork open; flush
	// rather than silently dropping its entries.
	for s.queue.Corked() {
		if err := s.queue.Uncork(s.writeEntry); err != nil {
			return err
		}
	}

	if s.opts.Format == OutputEtags {
		if s.etagsFile != nil {
			// BeginFile without EndFile; drop the stage.
			s.discardEtagsStage()
		}
		if err := s.writeEtagsIncludes(); err != nil {
			return err
		}
	}

	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("tagfile: cannot write tag file: %w", err)
	}

	desired, err := s.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("tagfile: cannot locate end of content: %w", err)
	}
	size, err := s.f.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("tagfile: cannot measure tag file: %w", err)
	}

	if !s.toStdout {
		if err := s.f.Close(); err != nil {
			return fmt.Errorf("tagfile: cannot close tag file: %w", err)
		}
	}

	if resize && desired < size {
		if err := resizeFile(s.name, desired); err != nil {
			return err
		}
	}

	if err := s.finishOutput(); err != nil {
		return err
	}

	if s.toStdout {
		if err := s.f.Close(); err != nil {
			return fmt.Errorf("tagfile: cannot close staging file: %w", err)
		}
		os.Remove(s.name)
	}
	return nil
}

// finishOutput runs the final sort pass, or copies staged stdout content
// through verbatim when sorting is off. Etags output is never sorted: its
// sections are positional, and a line sort would tear the page breaks away
// from their headers.
func (s *Session) finishOutput() error {
	if s.numAdded == 0 {
		return nil
	}
	if s.opts.Sort != Unsorted && s.opts.Format != OutputEtags {
		return s.sortFile()
	}
	if s.toStdout {
		return s.catFile()
	}
	return nil
}

// resizeFile shrinks path to size bytes. The copy-rewrite fallback covers
// filesystems where a native truncate is unavailable.
func resizeFile(path string, size int64) error {
	if err := os.Truncate(path, size); err == nil {
		return nil
	}
	tmp, err := os.CreateTemp("", "tagsmith-resize-*")
	if err != nil {
		return fmt.Errorf("tagfile: cannot shorten tag file: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	if err := copyFile(path, tmpName, size); err != nil {
		return fmt.Errorf("tagfile: cannot shorten tag file: %w", err)
	}
	if err := copyFile(tmpName, path, wholeFile); err != nil {
		return fmt.Errorf("tagfile: cannot shorten tag file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
