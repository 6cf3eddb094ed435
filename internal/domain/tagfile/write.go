package tagfile

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/corey/tagsmith/internal/domain/fields"
	"github.com/corey/tagsmith/internal/domain/tags"
)

// writeCtagsEntry emits one ctags record:
//
//	NAME\tFILE\tADDRESS[;"\tEXTENSIONS]\n
//
// ADDRESS is a line number or a search pattern; EXTENSIONS appear only in
// file format 2.
func (s *Session) writeCtagsEntry(e *tags.Entry) (int, error) {
	var b bytes.Buffer

	name := s.reg.Render(fields.FormatCtags, fields.FieldName, e, -1)
	input := s.reg.Render(fields.FormatCtags, fields.FieldInput, e, -1)
	b.WriteString(name.Text)
	b.WriteByte('\t')
	b.WriteString(input.Text)
	b.WriteByte('\t')

	if err := s.appendTagAddress(&b, e); err != nil {
		return 0, err
	}
	if s.opts.FileFormat > 1 {
		if err := s.appendExtensionFields(&b, e); err != nil {
			return 0, err
		}
	}
	b.WriteByte('\n')

	n, err := s.w.Write(b.Bytes())
	return n, err
}

func (s *Session) appendTagAddress(b *bytes.Buffer, e *tags.Entry) error {
	if e.LineNumberEntry || s.opts.LineNumbers {
		b.WriteString(strconv.FormatUint(e.EffectiveLine(s.opts.LineDirectives), 10))
		return nil
	}
	if e.Pattern != "" {
		b.WriteString(e.Pattern)
		return nil
	}
	p, err := s.patternFor(e)
	if err != nil {
		return err
	}
	b.WriteString(p)
	return nil
}

// appendExtensionFields writes the ;" sentinel and the key:value extras in
// their fixed order. A field appears only when enabled and applicable.
func (s *Session) appendExtensionFields(b *bytes.Buffer, e *tags.Entry) error {
	reg := s.reg
	first := true
	sep := func() {
		if first {
			b.WriteString(";\"")
			first = false
		}
		b.WriteByte('\t')
	}
	keyed := func(key, value string) {
		sep()
		b.WriteString(key)
		b.WriteByte(':')
		b.WriteString(value)
	}

	if kindValue, useKey, ok := s.kindField(e); ok {
		if useKey {
			keyed("kind", kindValue)
		} else {
			sep()
			b.WriteString(kindValue)
		}
	}

	if reg.Enabled(fields.FieldLineNumber) {
		keyed("line", strconv.FormatUint(e.EffectiveLine(s.opts.LineDirectives), 10))
	}
	if reg.Enabled(fields.FieldLanguage) && e.Language != "" {
		keyed("language", reg.Render(fields.FormatCtags, fields.FieldLanguage, e, -1).Text)
	}

	if reg.Enabled(fields.FieldScope) {
		kindName, _, ok, err := s.scopeInfo(e)
		if err != nil {
			return err
		}
		if ok {
			r := reg.Render(fields.FormatCtags, fields.FieldScope, e, -1)
			if !r.Absent && !r.Rejected {
				if reg.Enabled(fields.FieldScopeKey) {
					keyed("scope", kindName+":"+r.Text)
				} else {
					sep()
					b.WriteString(kindName)
					b.WriteByte(':')
					b.WriteString(r.Text)
				}
			}
		}
	}

	if reg.Enabled(fields.FieldTyperef) && reg.HasValue(fields.FieldTyperef, e) {
		keyed("typeref", e.Extension.TypeRef[0]+":"+reg.Render(fields.FormatCtags, fields.FieldTyperef, e, -1).Text)
	}
	if reg.Enabled(fields.FieldFileScope) && e.FileScope {
		sep()
		b.WriteString("file:")
	}
	if reg.Enabled(fields.FieldInherits) && e.Extension.Inheritance != "" {
		keyed("inherits", reg.Render(fields.FormatCtags, fields.FieldInherits, e, -1).Text)
	}
	if reg.Enabled(fields.FieldAccess) && e.Extension.Access != "" {
		keyed("access", e.Extension.Access)
	}
	if reg.Enabled(fields.FieldImplementation) && e.Extension.Implementation != "" {
		keyed("implementation", e.Extension.Implementation)
	}
	if reg.Enabled(fields.FieldSignature) && e.Extension.Signature != "" {
		keyed("signature", reg.Render(fields.FormatCtags, fields.FieldSignature, e, -1).Text)
	}
	if reg.Enabled(fields.FieldEnd) && e.Extension.EndLine != 0 {
		keyed("end", strconv.FormatUint(e.Extension.EndLine, 10))
	}
	if reg.Enabled(fields.FieldRole) && e.Extension.RoleIndex != tags.RoleDefinition {
		r := reg.Render(fields.FormatCtags, fields.FieldRole, e, -1)
		if !r.Absent {
			keyed("roles", r.Text)
		}
	}
	return nil
}

// kindField resolves which rendition of the kind appears in the extension
// block: the long name when the long-name field is on (or when no letter
// exists), the single letter otherwise. useKey reports whether the
// "kind:" key prefix is wanted.
func (s *Session) kindField(e *tags.Entry) (value string, useKey bool, ok bool) {
	k := e.Kind
	if k == nil {
		return "", false, false
	}
	useKey = s.reg.Enabled(fields.FieldKindKey)
	longOn := s.reg.Enabled(fields.FieldKindLong)
	letterOn := s.reg.Enabled(fields.FieldKind)

	if k.Name != "" && (longOn || (letterOn && k.Letter == 0)) {
		return k.Name, useKey, true
	}
	if k.Letter != 0 && (letterOn || (longOn && k.Name == "")) {
		return string(k.Letter), useKey, true
	}
	return "", false, false
}

// patternFor builds the search-pattern locator for an entry, consulting the
// single-slot cache first. Truncated lines bypass the cache entirely.
func (s *Session) patternFor(e *tags.Entry) (string, error) {
	if s.pcacheValid && !e.TruncateLine &&
		s.pcacheOffset == e.FilePosition && s.pcachePath == e.InputFile {
		return s.pcacheText, nil
	}

	line, err := s.inputLine(e)
	if err != nil {
		return "", fmt.Errorf("tagfile: cannot read pattern line for %q: %w", e.Name, err)
	}
	if e.TruncateLine {
		line = truncateTagLine(line, e.Name, false)
	}

	searchChar := byte('/')
	if s.opts.Backward {
		searchChar = '?'
	}
	endsWithNewline := strings.HasSuffix(line, "\n")

	var b strings.Builder
	b.WriteByte(searchChar)
	b.WriteByte('^')
	omitted := appendPatternLine(&b, line, searchChar, s.opts.PatternLengthLimit)
	if !omitted && endsWithNewline {
		b.WriteByte('$')
	}
	b.WriteByte(searchChar)
	text := b.String()

	if !e.TruncateLine {
		s.pcacheValid = true
		s.pcachePath = e.InputFile
		s.pcacheOffset = e.FilePosition
		s.pcacheText = text
	}
	return text, nil
}

// appendPatternLine copies line into b with pattern-special characters
// escaped, stopping at the end of line or at the length limit. The limit
// counts emitted bytes, escape backslashes included. Returns true when
// the limit cut the line short (the trailing $ must then be omitted so
// the pattern still matches).
func appendPatternLine(b *strings.Builder, line string, searchChar byte, limit int) (omitted bool) {
	written := 0
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '\n' || c == '\r' {
			break
		}
		if limit > 0 && written >= limit {
			return true
		}
		switch {
		case c == '\\', c == searchChar:
			b.WriteByte('\\')
			written++
		case c == '$' && i+1 < len(line) && (line[i+1] == '\n' || line[i+1] == '\r'):
			// A literal $ at end of line would read as the anchor.
			b.WriteByte('\\')
			written++
		}
		b.WriteByte(c)
		written++
	}
	return false
}

// truncateTagLine cuts line just past the first occurrence of token, keeping
// one extra character of context unless it is a newline being discarded.
func truncateTagLine(line, token string, discardNewline bool) string {
	if token == "" {
		return line
	}
	i := strings.Index(line, token)
	if i < 0 {
		return line
	}
	p := i + len(token)
	if p < len(line) && !(line[p] == '\n' && discardNewline) {
		p++
	}
	return line[:p]
}
