package tagfile

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/corey/tagsmith/internal/domain/fields"
	"github.com/corey/tagsmith/internal/domain/tags"
)

// Built-in xref layouts. Format 1 omits the kind column.
const (
	xrefFormat1 = "%-16N %4n %-16F %C"
	xrefFormat2 = "%-16N %-10K %4n %-16F %C"
)

// fmtElement is one compiled piece of an xref format string: either a
// literal run or a padded field reference.
type fmtElement struct {
	literal string

	field     fields.FieldType
	width     int
	leftAlign bool
	isField   bool
}

// parseXrefFormat compiles a format string against the session's registry.
// The grammar is %[-][width]LETTER or %[-][width]{name}; %% emits a percent.
func parseXrefFormat(reg *fields.Registry, format string) ([]fmtElement, error) {
	var out []fmtElement
	var lit bytes.Buffer
	flushLit := func() {
		if lit.Len() > 0 {
			out = append(out, fmtElement{literal: lit.String()})
			lit.Reset()
		}
	}

	i := 0
	for i < len(format) {
		c := format[i]
		if c != '%' {
			lit.WriteByte(c)
			i++
			continue
		}
		i++
		if i >= len(format) {
			return nil, fmt.Errorf("tagfile: truncated %% specifier in format %q", format)
		}
		if format[i] == '%' {
			lit.WriteByte('%')
			i++
			continue
		}

		el := fmtElement{isField: true}
		if format[i] == '-' {
			el.leftAlign = true
			i++
		}
		start := i
		for i < len(format) && format[i] >= '0' && format[i] <= '9' {
			i++
		}
		if i > start {
			w, err := strconv.Atoi(format[start:i])
			if err != nil {
				return nil, fmt.Errorf("tagfile: bad width in format %q: %w", format, err)
			}
			el.width = w
		}
		if i >= len(format) {
			return nil, fmt.Errorf("tagfile: truncated %% specifier in format %q", format)
		}

		if format[i] == '{' {
			end := i + 1
			for end < len(format) && format[end] != '}' {
				end++
			}
			if end >= len(format) {
				return nil, fmt.Errorf("tagfile: unterminated field name in format %q", format)
			}
			name := format[i+1 : end]
			ft := reg.ByName(name)
			if ft == fields.FieldUnknown {
				return nil, fmt.Errorf("tagfile: unknown field name %q in format", name)
			}
			el.field = ft
			i = end + 1
		} else {
			ft := reg.ByLetter(format[i])
			if ft == fields.FieldUnknown {
				return nil, fmt.Errorf("tagfile: unknown field letter %q in format", string(format[i]))
			}
			el.field = ft
			i++
		}
		flushLit()
		out = append(out, el)
	}
	flushLit()
	return out, nil
}

// xrefElements returns the compiled layout for this session, compiling the
// custom or built-in format on first use.
func (s *Session) xrefElements() ([]fmtElement, error) {
	if s.opts.XrefFormat != "" {
		if s.xrefCustom == nil {
			els, err := parseXrefFormat(s.reg, s.opts.XrefFormat)
			if err != nil {
				return nil, err
			}
			s.xrefCustom = els
		}
		return s.xrefCustom, nil
	}
	if s.xrefBuiltin == nil {
		layout := xrefFormat2
		if s.opts.FileFormat == 1 {
			layout = xrefFormat1
		}
		els, err := parseXrefFormat(s.reg, layout)
		if err != nil {
			return nil, err
		}
		s.xrefBuiltin = els
	}
	return s.xrefBuiltin, nil
}

// writeXrefEntry emits one human-readable cross-reference line. File entries
// are skipped under the built-in layouts, matching their tag-table-only
// purpose.
func (s *Session) writeXrefEntry(e *tags.Entry) (int, error) {
	if e.FileEntry && s.opts.XrefFormat == "" {
		return 0, nil
	}
	els, err := s.xrefElements()
	if err != nil {
		return 0, err
	}

	var b bytes.Buffer
	for _, el := range els {
		if !el.isField {
			b.WriteString(el.literal)
			continue
		}
		r := s.reg.Render(fields.FormatXref, el.field, e, parserValueIndex(e, el.field))
		text := r.Text
		if r.Absent || r.Rejected {
			text = ""
		}
		pad(&b, text, el.width, el.leftAlign)
	}
	b.WriteByte('\n')

	n, err := s.w.Write(b.Bytes())
	return n, err
}

func pad(b *bytes.Buffer, text string, width int, leftAlign bool) {
	fill := width - len(text)
	if fill <= 0 {
		b.WriteString(text)
		return
	}
	if leftAlign {
		b.WriteString(text)
		writeSpaces(b, fill)
	} else {
		writeSpaces(b, fill)
		b.WriteString(text)
	}
}

func writeSpaces(b *bytes.Buffer, n int) {
	for ; n > 0; n-- {
		b.WriteByte(' ')
	}
}

// parserValueIndex locates the scanner-supplied value for a custom field on
// this entry, -1 when the field is not parser-owned or carries no value.
func parserValueIndex(e *tags.Entry, ft fields.FieldType) int {
	for i := range e.ParserFields {
		if e.ParserFields[i].Field == int(ft) {
			return i
		}
	}
	return -1
}
