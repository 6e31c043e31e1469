package sfm

import (
	"io"
	"strings"

	"github.com/FocuswithJustin/sfmlex/core/profile"
)

// Assembler groups fields into records. A record opens at each record-marker
// field and closes when the next one is seen, so exactly one field of
// lookahead is held.
type Assembler struct {
	tok          *Tokenizer
	leader       string
	recordMarker string

	// Fields that appear before the first record marker.
	prefix strings.Builder

	pending     Field
	pendingLine int
	hasPending  bool

	started bool
	rec     *Record
	err     error
}

// NewAssembler returns an assembler reading r with the markers of p.
func NewAssembler(r io.Reader, p *profile.Profile) *Assembler {
	return &Assembler{
		tok:          NewTokenizer(r, p),
		leader:       p.Leader,
		recordMarker: p.RecordMarker,
	}
}

// Scan advances to the next record. It returns false at the end of input or
// on error; check Err. A malformed field stops the scan with a FormatError.
func (a *Assembler) Scan() bool {
	if a.err != nil {
		return false
	}
	if !a.started {
		a.started = true
		if !a.skipPrefix() {
			return false
		}
	}
	if !a.hasPending {
		return false
	}

	rec := NewRecord(a.leader, a.pendingLine, a.pending)
	a.hasPending = false

	for {
		raw, f, ok := a.nextField()
		if !ok {
			break
		}
		if f.Marker == a.recordMarker {
			a.pending, a.pendingLine, a.hasPending = f, raw.Line, true
			break
		}
		rec.Fields = append(rec.Fields, f)
	}
	if a.err != nil {
		return false
	}

	a.rec = rec
	return true
}

// Record returns the most recent record.
func (a *Assembler) Record() *Record {
	return a.rec
}

// Err returns the first error encountered.
func (a *Assembler) Err() error {
	return a.err
}

// Header returns the preamble plus any fields that preceded the first record
// marker, verbatim. It is complete once the first record has been scanned.
func (a *Assembler) Header() string {
	return a.tok.Header() + a.prefix.String()
}

// HasBOM reports whether the input began with a byte order mark.
func (a *Assembler) HasBOM() bool {
	return a.tok.HasBOM()
}

func (a *Assembler) skipPrefix() bool {
	for {
		raw, f, ok := a.nextField()
		if !ok {
			return a.err == nil
		}
		if f.Marker == a.recordMarker {
			a.pending, a.pendingLine, a.hasPending = f, raw.Line, true
			return true
		}
		a.prefix.WriteString(raw.Text)
	}
}

func (a *Assembler) nextField() (RawField, Field, bool) {
	if !a.tok.Scan() {
		a.err = a.tok.Err()
		return RawField{}, Field{}, false
	}
	raw := a.tok.Field()
	f, err := SplitField(raw.Text, a.leader, raw.Line)
	if err != nil {
		a.err = err
		return RawField{}, Field{}, false
	}
	return raw, f, true
}
