// Package sfm reads and writes lexicon files in the Standard Format Marker
// convention. Parsing is byte-exact: writing an unmodified Lexicon reproduces
// its input, including blank lines, trailing whitespace and the byte order mark.
package sfm

import (
	"strings"
	"unicode"

	"github.com/FocuswithJustin/sfmlex/core/errors"
)

// separator records how a marker was joined to its value in the source.
type separator uint8

const (
	sepAuto separator = iota
	sepSpace
	sepNone
)

// Field is one marker and its verbatim value. Continuation lines are part of
// Value, newlines included.
type Field struct {
	Marker string
	Value  string
	sep    separator
}

// NewField returns a field that is written with a single space between marker
// and value unless the value is empty or begins with a line break.
func NewField(marker, value string) Field {
	return Field{Marker: marker, Value: value}
}

// Trimmed returns the value without surrounding whitespace.
func (f Field) Trimmed() string {
	return strings.TrimSpace(f.Value)
}

func (f Field) spaced() bool {
	startsLine := f.Value == "" || f.Value[0] == '\n' || f.Value[0] == '\r'
	if f.sep == sepSpace {
		return true
	}
	// sepNone only survives while the value still starts a line; an edited
	// value is never glued to the marker.
	return !startsLine
}

func (f Field) writeTo(b *strings.Builder, leader string) {
	b.WriteString(leader)
	b.WriteString(f.Marker)
	if f.spaced() {
		b.WriteByte(' ')
	}
	b.WriteString(f.Value)
}

// Text serializes the field with the given leader.
func (f Field) Text(leader string) string {
	var b strings.Builder
	f.writeTo(&b, leader)
	return b.String()
}

// SplitField breaks raw field text into marker and value. The marker runs from
// after the leader to the first space or line break; one space is consumed.
// line is used only for error reporting.
func SplitField(raw, leader string, line int) (Field, error) {
	body, ok := strings.CutPrefix(raw, leader)
	if !ok {
		return Field{}, errors.NewFormat(raw, line, "missing leader")
	}
	end := strings.IndexAny(body, " \n\r")
	if end < 0 {
		end = len(body)
	}
	marker := body[:end]
	if marker == "" {
		return Field{}, errors.NewFormat(raw, line, "empty marker")
	}
	if strings.IndexFunc(marker, unicode.IsSpace) >= 0 {
		return Field{}, errors.NewFormat(raw, line, "whitespace in marker")
	}

	f := Field{Marker: marker, sep: sepNone}
	rest := body[end:]
	if strings.HasPrefix(rest, " ") {
		rest = rest[1:]
		f.sep = sepSpace
	}
	f.Value = rest
	return f, nil
}
