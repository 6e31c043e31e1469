package sfm

import (
	"bufio"
	"io"
	"strings"

	"github.com/FocuswithJustin/sfmlex/core/errors"
	"github.com/FocuswithJustin/sfmlex/core/profile"
)

const byteOrderMark = "\uFEFF"

// RawField is the unsplit text of one field and the line it starts on.
type RawField struct {
	Text string
	Line int
}

// Tokenizer splits a character stream into raw fields. It reads one line at a
// time and holds at most one line of lookahead, so input size is unbounded.
//
// Lines before the first field, and preamble lines led by the header tag
// (e.g. "\_sh v3.0"), are collected into Header instead of being emitted.
type Tokenizer struct {
	r         *bufio.Reader
	leader    string
	headerTag string

	header strings.Builder
	bom    bool

	line     int
	next     string
	nextLine int
	hasNext  bool

	started bool
	field   RawField
	err     error
}

// NewTokenizer returns a tokenizer reading r with the markers of p.
func NewTokenizer(r io.Reader, p *profile.Profile) *Tokenizer {
	return &Tokenizer{
		r:         bufio.NewReader(r),
		leader:    p.Leader,
		headerTag: p.HeaderTag(),
	}
}

// Scan advances to the next field. It returns false at the end of input or
// on a read error; check Err.
func (t *Tokenizer) Scan() bool {
	if t.err != nil {
		return false
	}
	if !t.started {
		t.started = true
		if !t.readPreamble() {
			return false
		}
	}
	if !t.hasNext {
		return false
	}

	var b strings.Builder
	b.WriteString(t.next)
	start := t.nextLine
	t.hasNext = false

	for {
		line, ok := t.readLine()
		if !ok {
			if t.err != nil {
				return false
			}
			break
		}
		if strings.HasPrefix(line, t.leader) {
			t.next, t.nextLine, t.hasNext = line, t.line, true
			break
		}
		b.WriteString(line)
	}

	t.field = RawField{Text: b.String(), Line: start}
	return true
}

// Field returns the most recent raw field.
func (t *Tokenizer) Field() RawField {
	return t.field
}

// Err returns the first read error, if any.
func (t *Tokenizer) Err() error {
	return t.err
}

// Header returns the preamble text, without the byte order mark.
// It is complete once the first field has been scanned.
func (t *Tokenizer) Header() string {
	return t.header.String()
}

// HasBOM reports whether the input began with a byte order mark.
func (t *Tokenizer) HasBOM() bool {
	return t.bom
}

func (t *Tokenizer) readPreamble() bool {
	for {
		line, ok := t.readLine()
		if !ok {
			return t.err == nil
		}
		if t.line == 1 {
			if rest, found := strings.CutPrefix(line, byteOrderMark); found {
				line = rest
				t.bom = true
			}
		}
		if strings.HasPrefix(line, t.leader) && !t.isHeaderLine(line) {
			t.next, t.nextLine, t.hasNext = line, t.line, true
			return true
		}
		t.header.WriteString(line)
	}
}

func (t *Tokenizer) isHeaderLine(line string) bool {
	return t.headerTag != "" && strings.HasPrefix(line, t.headerTag)
}

// readLine returns the next line including its terminator, which is "\n",
// "\r\n" or a lone "\r". ok is false at end of input or on error.
func (t *Tokenizer) readLine() (string, bool) {
	var b strings.Builder
	for {
		c, err := t.r.ReadByte()
		if err != nil {
			if err != io.EOF {
				t.err = errors.NewIO("read", "", err)
				return "", false
			}
			break
		}
		b.WriteByte(c)
		if c == '\n' {
			break
		}
		if c == '\r' {
			if next, err := t.r.Peek(1); err == nil && next[0] == '\n' {
				t.r.ReadByte()
				b.WriteByte('\n')
			}
			break
		}
	}
	if b.Len() == 0 {
		return "", false
	}
	t.line++
	return b.String(), true
}
