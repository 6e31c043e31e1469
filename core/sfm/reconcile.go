package sfm

import (
	"strings"

	"github.com/FocuswithJustin/sfmlex/core/errors"
)

// Pair ties a record to its counterpart in a reference copy. Reference is -1
// when no counterpart was found within the resync window.
type Pair struct {
	Record    int
	Reference int
}

// Align pairs records with reference records by key. When keys diverge the
// next window reference records are searched for the record's key; a record
// without a match is left unpaired and the walk continues from the same
// reference position.
func Align(records, reference []*Record, window int) []Pair {
	pairs := make([]Pair, 0, len(records))
	s := 0
	for r, rec := range records {
		p := Pair{Record: r, Reference: -1}
		if s < len(reference) {
			key := rec.Key()
			for k := 0; k <= window && s+k < len(reference); k++ {
				if reference[s+k].Key() == key {
					s += k
					p.Reference = s
					s++
					break
				}
			}
		}
		pairs = append(pairs, p)
	}
	return pairs
}

// Fix renames Bad markers to Good.
type Fix struct {
	Bad  string
	Good string
}

// ParseFix parses "BAD:GOOD".
func ParseFix(s string) (Fix, error) {
	bad, good, ok := strings.Cut(s, ":")
	if !ok || bad == "" || good == "" || bad == good {
		return Fix{}, errors.NewValidation("fix", "want BAD:GOOD with two different markers, got "+s)
	}
	return Fix{Bad: bad, Good: good}, nil
}

// RepairMarkers walks rec and ref in lockstep. Where ref has the good marker
// and rec the bad one with the same right-trimmed value, rec's field is
// renamed. On other marker differences the walk tries to realign within
// window fields; ok is false if it could not, and the rest of rec is left
// alone. The record marker at Fields[0] is never renamed.
func RepairMarkers(rec, ref *Record, fix Fix, window int) (renamed int, ok bool) {
	i, j := 0, 0
	for i < len(rec.Fields) && j < len(ref.Fields) {
		f, g := &rec.Fields[i], ref.Fields[j]
		if i > 0 && f.Marker == fix.Bad && g.Marker == fix.Good &&
			strings.TrimRight(f.Value, " \t\r\n") == strings.TrimRight(g.Value, " \t\r\n") {
			f.Marker = fix.Good
			renamed++
		}
		if f.Marker != g.Marker {
			ni, nj, found := resync(rec, ref, i, j, window)
			if !found {
				return renamed, false
			}
			i, j = ni, nj
		}
		i++
		j++
	}
	return renamed, true
}

// Repair applies every fix to rec until a pass renames nothing. Clustered
// corruptions can need more than one pass; maxPasses bounds the work.
func Repair(rec, ref *Record, fixes []Fix, window int) int {
	const maxPasses = 8
	total := 0
	for pass := 0; pass < maxPasses; pass++ {
		n := 0
		for _, fx := range fixes {
			renamed, _ := RepairMarkers(rec, ref, fx, window)
			n += renamed
		}
		total += n
		if n == 0 {
			break
		}
	}
	return total
}

// resync returns positions at which rec and ref agree again, searching up
// to window fields ahead on either side, also allowing the other side to be
// one field ahead. Positions are returned one step
// behind the aligned pair so the caller's advance lands on it.
func resync(rec, ref *Record, i, j, window int) (int, int, bool) {
	if i+1 >= len(rec.Fields) || j+1 >= len(ref.Fields) {
		return i, j, false
	}
	// Substitution: the following markers already agree.
	if rec.Fields[i+1].Marker == ref.Fields[j+1].Marker {
		return i, j, true
	}
	for k := 1; k <= window; k++ {
		if j+k >= len(ref.Fields) {
			break
		}
		if sameField(rec.Fields[i], ref.Fields[j+k]) {
			return i - 1, j + k - 1, true
		}
		if sameField(rec.Fields[i+1], ref.Fields[j+k]) {
			return i, j + k - 1, true
		}
		if i+k >= len(rec.Fields) {
			break
		}
		if sameField(rec.Fields[i+k], ref.Fields[j]) {
			return i + k - 1, j - 1, true
		}
		if sameField(rec.Fields[i+k], ref.Fields[j+1]) {
			return i + k - 1, j, true
		}
	}
	return i, j, false
}

func sameField(a, b Field) bool {
	return a.Marker == b.Marker &&
		strings.TrimRight(a.Value, " \t\r\n") == strings.TrimRight(b.Value, " \t\r\n")
}
