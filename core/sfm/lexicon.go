package sfm

import (
	"bufio"
	"io"
	"os"

	"github.com/FocuswithJustin/sfmlex/core/errors"
	"github.com/FocuswithJustin/sfmlex/core/profile"
)

// Lexicon is a fully materialized lexicon file.
type Lexicon struct {
	// Header is the verbatim preamble, without the byte order mark.
	Header  string
	BOM     bool
	Records []*Record
}

// Read assembles every record from r.
func Read(r io.Reader, p *profile.Profile) (*Lexicon, error) {
	a := NewAssembler(r, p)
	lex := &Lexicon{}
	for a.Scan() {
		lex.Records = append(lex.Records, a.Record())
	}
	if err := a.Err(); err != nil {
		return nil, err
	}
	lex.Header = a.Header()
	lex.BOM = a.HasBOM()
	return lex, nil
}

// ReadFile opens path and reads it as a lexicon.
func ReadFile(path string, p *profile.Profile) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	lex, err := Read(f, p)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return lex, nil
}

// WriteTo writes the byte order mark (if any), the header and every record.
func (l *Lexicon) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64

	if l.BOM {
		n, err := bw.WriteString(byteOrderMark)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	n, err := bw.WriteString(l.Header)
	total += int64(n)
	if err != nil {
		return total, err
	}
	for _, rec := range l.Records {
		n, err := rec.WriteTo(bw)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, bw.Flush()
}
