package main

import (
	"fmt"
	"io"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// printer writes report lines, optionally folded to ASCII for terminals
// that cannot show the lexicon's script.
type printer struct {
	w     io.Writer
	ascii bool
}

func (p *printer) Printf(format string, args ...any) {
	s := fmt.Sprintf(format, args...)
	if p.ascii {
		s = foldASCII(s)
	}
	fmt.Fprint(p.w, s)
}

// foldASCII strips combining marks after decomposition and replaces any
// remaining non-ASCII rune with '?'.
func foldASCII(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Map(func(r rune) rune {
			if r > unicode.MaxASCII {
				return '?'
			}
			return r
		}),
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
