package xref

import (
	"slices"
	"strings"

	"github.com/FocuswithJustin/sfmlex/core/profile"
	"github.com/FocuswithJustin/sfmlex/core/sfm"
)

// MinorProblem is a minor entry whose main entry could not be pinned down.
type MinorProblem struct {
	Status     Status
	Key        string
	Line       int
	Marker     string
	Target     string
	Candidates int
}

// MinorReport summarizes MarkMinorEntries.
type MinorReport struct {
	Minor    int
	Upgraded int
	Problems []MinorProblem
}

// MarkMinorEntries finds records that carry a minor-entry marker and, when
// the main entry they name mentions them in a back-reference field, appends
// that field's marker to the minor marker (mn becomes mnva, for example).
// Minor entries themselves are kept out of the index so they cannot be their
// own targets.
func MarkMinorEntries(records []*sfm.Record, p *profile.Profile) *MinorReport {
	ix := Build(records, Options{
		EntryMarkers:    p.EntryMarkers,
		ExcludeMarkers:  p.MinorMarkers,
		HomographMarker: p.HomographMarker,
	})

	rep := &MinorReport{}
	for _, rec := range records {
		m, ok := rec.FindFirst(p.MinorMarkers...)
		if !ok || m.Index == 0 {
			continue
		}
		rep.Minor++

		field := &rec.Fields[m.Index]
		target := field.Trimmed()
		mains := ix.Exact[target]
		if len(mains) != 1 {
			status := Broken
			if len(mains) > 1 {
				status = Ambiguous
			}
			rep.Problems = append(rep.Problems, MinorProblem{
				Status:     status,
				Key:        rec.Key(),
				Line:       rec.LineOf(m.Index),
				Marker:     field.Marker,
				Target:     target,
				Candidates: len(mains),
			})
		}

		key := rec.Key()
		for _, main := range mains {
			for _, backref := range p.BackrefMarkers {
				if !slices.Contains(main.Record.Values([]string{backref}, 0, nil), key) {
					continue
				}
				if !strings.HasSuffix(field.Marker, backref) {
					field.Marker += backref
					rep.Upgraded++
				}
				break
			}
		}
	}
	return rep
}
