// Package sensenum compares dotted sense numbers such as "2", "2.1" and
// "3.2.5" to decide whether one may directly follow another.
package sensenum

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Number is a parsed sense number; "3.2" is Number{3, 2}.
type Number []int

// String formats n with dots.
func (n Number) String() string {
	parts := make([]string, len(n))
	for i, p := range n {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ".")
}

func (n Number) parent() Number { return n[:len(n)-1] }
func (n Number) last() int      { return n[len(n)-1] }

//nolint:govet // participle grammar tags are not standard struct tags
type senseGrammar struct {
	Parts []int `@Int ( "." @Int )*`
}

var senseLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `\.`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var senseParser = participle.MustBuild[senseGrammar](
	participle.Lexer(senseLexer),
	participle.Elide("Whitespace"),
)

// Parse reads a sense number. An empty or blank value means sense 1.
func Parse(s string) (Number, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Number{1}, nil
	}
	parsed, err := senseParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("invalid sense number: %q: %w", s, err)
	}
	return Number(parsed.Parts), nil
}

// InSequence reports whether next may directly follow prev.
//
// Plain numbers must be consecutive. A subsense after a sense must end in 1.
// A sense after a subsense is compared with the subsense's parent. Sibling
// subsenses compare their last parts. With strict unset, "1.2" may also be
// followed by "2.1". Values that do not parse are never in sequence.
func InSequence(prev, next string, strict bool) bool {
	a, err := Parse(prev)
	if err != nil {
		return false
	}
	b, err := Parse(next)
	if err != nil {
		return false
	}
	return follows(a, b, strict)
}

func follows(a, b Number, strict bool) bool {
	switch {
	case len(a) == 1 && len(b) == 1:
		return a[0]+1 == b[0]
	case len(b) == 1:
		return follows(a.parent(), b, true)
	case len(a) == 1:
		return b.last() == 1
	case slices.Equal(a.parent(), b.parent()):
		return follows(Number{a.last()}, Number{b.last()}, true)
	case strict:
		return false
	default:
		return follows(a.parent(), b.parent(), true) && b.last() == 1
	}
}
