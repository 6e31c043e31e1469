package xref

import (
	"github.com/FocuswithJustin/sfmlex/core/profile"
	"github.com/FocuswithJustin/sfmlex/core/sfm"
)

// Status classifies a link target.
type Status int

const (
	Good Status = iota
	Ambiguous
	Broken
)

func (s Status) String() string {
	switch s {
	case Good:
		return "good"
	case Ambiguous:
		return "ambiguous"
	case Broken:
		return "broken"
	default:
		return "unknown"
	}
}

// Classify looks a link value up in the stripped map first and, unless that
// yields exactly one match, in the exact map. It returns the matches that
// decided the status.
func (ix *Index) Classify(value string) (Status, []Match) {
	stripped := ix.Stripped[StripHomograph(value)]
	if len(stripped) == 1 {
		return Good, stripped
	}
	exact := ix.Exact[value]
	switch {
	case len(exact) == 1:
		return Good, exact
	case len(exact) > 1:
		return Ambiguous, exact
	case len(stripped) > 1:
		return Ambiguous, stripped
	default:
		return Broken, nil
	}
}

// LinkProblem describes one ambiguous or broken link.
type LinkProblem struct {
	Status     Status
	SourceKey  string
	SourceLine int
	Marker     string
	FieldLine  int
	Target     string
	Candidates int
}

// VariantConflict is a pair of records that each name the other as a variant.
type VariantConflict struct {
	Source      string
	SourceIndex int
	SourceLine  int
	Target      string
	TargetIndex int
	TargetLine  int
}

// LinkReport collects link counters and per-link diagnostics.
type LinkReport struct {
	Good      int
	Ambiguous int
	Broken    int
	Problems  []LinkProblem
	Conflicts []VariantConflict
}

// CheckLinks classifies every non-empty link field of records against ix.
// Variant links that resolve are also checked for a variant field in the
// target pointing back at the source; each such pair is reported once.
func CheckLinks(records []*sfm.Record, ix *Index, p *profile.Profile) *LinkReport {
	rep := &LinkReport{}
	seen := make(map[[2]int]bool)

	for ri, rec := range records {
		for fi, f := range rec.Fields {
			if !p.IsLink(f.Marker) {
				continue
			}
			target := f.Trimmed()
			if target == "" {
				continue
			}

			status, matches := ix.Classify(target)
			switch status {
			case Good:
				rep.Good++
			case Ambiguous:
				rep.Ambiguous++
			case Broken:
				rep.Broken++
			}
			if status != Good {
				rep.Problems = append(rep.Problems, LinkProblem{
					Status:     status,
					SourceKey:  rec.Key(),
					SourceLine: rec.Line,
					Marker:     f.Marker,
					FieldLine:  rec.LineOf(fi),
					Target:     target,
					Candidates: len(matches),
				})
				continue
			}

			if p.IsVariant(f.Marker) {
				if c, ok := variantConflict(ri, rec, matches[0], p); ok {
					pair := [2]int{min(c.SourceIndex, c.TargetIndex), max(c.SourceIndex, c.TargetIndex)}
					if !seen[pair] {
						seen[pair] = true
						rep.Conflicts = append(rep.Conflicts, c)
					}
				}
			}
		}
	}
	return rep
}

func variantConflict(ri int, rec *sfm.Record, target Match, p *profile.Profile) (VariantConflict, bool) {
	if target.RecordIndex == ri {
		return VariantConflict{}, false
	}
	self := StripHomograph(rec.Key())
	for _, backref := range target.Record.Values(p.VariantMarkers, 0, nil) {
		if backref != "" && StripHomograph(backref) == self {
			return VariantConflict{
				Source:      rec.Key(),
				SourceIndex: ri,
				SourceLine:  rec.Line,
				Target:      target.Record.Key(),
				TargetIndex: target.RecordIndex,
				TargetLine:  target.Record.Line,
			}, true
		}
	}
	return VariantConflict{}, false
}
