package xref

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/FocuswithJustin/sfmlex/core/profile"
	"github.com/FocuswithJustin/sfmlex/core/sfm"
)

// Pointer is one headword or subentry that shares its word with others.
type Pointer struct {
	Record      *sfm.Record
	RecordIndex int
	Field       int
	Marker      string
	Word        string
	// Number is the explicit homograph number, or 0 when there is none.
	Number int
	// HMField is the index of an adjacent homograph field, or -1.
	HMField int
}

// Line returns the source line of the pointer's field.
func (p Pointer) Line() int {
	return p.Record.LineOf(p.Field)
}

// Group is every pointer sharing one word, in corpus order.
type Group struct {
	Word     string
	Pointers []Pointer
}

// IssueKind names a homograph problem.
type IssueKind int

const (
	OutOfSequence IssueKind = iota + 1
	DuplicateNumber
	LeftOver
	BadNumber
	MisplacedHM
)

func (k IssueKind) String() string {
	switch k {
	case OutOfSequence:
		return "out-of-sequence"
	case DuplicateNumber:
		return "duplicate-number"
	case LeftOver:
		return "left-over"
	case BadNumber:
		return "bad-number"
	case MisplacedHM:
		return "misplaced-hm"
	default:
		return "unknown"
	}
}

// Issue is a non-fatal homograph finding. Nothing is changed to fix it.
type Issue struct {
	Kind     IssueKind
	Word     string
	Key      string
	Line     int
	Pointers []Pointer
	Detail   string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s (line %d): %s", i.Kind, i.Key, i.Line, i.Detail)
}

// Groups collects entry-marker fields by word. Records carrying a
// no-homograph marker are skipped. A homograph field that is not an integer
// is reported as BadNumber and its pointer left out.
func Groups(records []*sfm.Record, p *profile.Profile) ([]*Group, []Issue) {
	var (
		groups []*Group
		issues []Issue
		byWord = make(map[string]*Group)
	)
	for ri, rec := range records {
		if rec.Has(p.NoHomographMarkers) {
			continue
		}
		for _, m := range rec.Find(p.EntryMarkers, 0, nil) {
			ptr, err := pointerAt(rec, ri, m.Index, p.HomographMarker)
			if err != "" {
				issues = append(issues, Issue{
					Kind:   BadNumber,
					Word:   ptr.Word,
					Key:    rec.Key(),
					Line:   rec.LineOf(ptr.HMField),
					Detail: err,
				})
				continue
			}
			if ptr.Word == "" {
				continue
			}
			g, ok := byWord[ptr.Word]
			if !ok {
				g = &Group{Word: ptr.Word}
				byWord[ptr.Word] = g
				groups = append(groups, g)
			}
			g.Pointers = append(g.Pointers, ptr)
		}
	}
	return groups, issues
}

func pointerAt(rec *sfm.Record, ri, fi int, hm string) (Pointer, string) {
	value := rec.Fields[fi].Trimmed()
	ptr := Pointer{
		Record:      rec,
		RecordIndex: ri,
		Field:       fi,
		Marker:      rec.Fields[fi].Marker,
		Word:        value,
		HMField:     -1,
	}

	if hm != "" && fi+1 < rec.Len() && rec.Fields[fi+1].Marker == hm {
		ptr.HMField = fi + 1
		raw := rec.Fields[fi+1].Trimmed()
		if raw == "" {
			return ptr, ""
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return ptr, fmt.Sprintf("homograph number %q is not a positive integer", raw)
		}
		ptr.Number = n
		return ptr, ""
	}

	if word, num := splitNumber(value); num != "" {
		if n, err := strconv.Atoi(num); err == nil && n > 0 {
			ptr.Word, ptr.Number = word, n
		}
	}
	return ptr, ""
}

// Assignment gives an unnumbered pointer its number.
type Assignment struct {
	Pointer Pointer
	Number  int
}

// Plan is the outcome of checking one group.
type Plan struct {
	Word        string
	Assignments []Assignment
	Issues      []Issue
}

// PlanGroup checks a group and decides numbers for its unnumbered pointers
// without changing any record.
//
// The explicit numbers, taken in group order, are expected to run 1, 2, 3
// and so on; the first one that breaks the run is reported. Duplicate
// explicit numbers abort the group. Otherwise free numbers are handed out in
// ascending order, up to limit.
func PlanGroup(g *Group, limit int) *Plan {
	plan := &Plan{Word: g.Word}

	want := 1
	for _, ptr := range g.Pointers {
		if ptr.Number == 0 {
			continue
		}
		if ptr.Number != want {
			plan.Issues = append(plan.Issues, Issue{
				Kind:     OutOfSequence,
				Word:     g.Word,
				Key:      ptr.Record.Key(),
				Line:     ptr.Line(),
				Pointers: []Pointer{ptr},
				Detail:   fmt.Sprintf("number %d where %d was expected", ptr.Number, want),
			})
			break
		}
		want++
	}

	taken := make(map[int]Pointer)
	var unnumbered []Pointer
	for _, ptr := range g.Pointers {
		if ptr.Number == 0 {
			unnumbered = append(unnumbered, ptr)
			continue
		}
		if first, dup := taken[ptr.Number]; dup {
			plan.Issues = append(plan.Issues, Issue{
				Kind:     DuplicateNumber,
				Word:     g.Word,
				Key:      ptr.Record.Key(),
				Line:     ptr.Line(),
				Pointers: []Pointer{first, ptr},
				Detail:   fmt.Sprintf("number %d also used at line %d", ptr.Number, first.Line()),
			})
			return plan
		}
		taken[ptr.Number] = ptr
	}

	for n := 1; len(unnumbered) > 0; n++ {
		if n > limit {
			plan.Issues = append(plan.Issues, Issue{
				Kind:     LeftOver,
				Word:     g.Word,
				Key:      unnumbered[0].Record.Key(),
				Line:     unnumbered[0].Line(),
				Pointers: unnumbered,
				Detail:   fmt.Sprintf("%d pointer(s) left after reaching %d", len(unnumbered), limit),
			})
			break
		}
		if _, ok := taken[n]; ok {
			continue
		}
		plan.Assignments = append(plan.Assignments, Assignment{Pointer: unnumbered[0], Number: n})
		unnumbered = unnumbered[1:]
	}
	return plan
}

// Apply writes the planned numbers. An empty adjacent homograph field gets
// the number; otherwise the digits are appended to the field's trimmed value
// and surrounding whitespace is kept.
func (plan *Plan) Apply() int {
	for _, a := range plan.Assignments {
		fi := a.Pointer.Field
		if a.Pointer.HMField >= 0 {
			fi = a.Pointer.HMField
		}
		rec := a.Pointer.Record
		rec.SetValue(fi, appendNumber(rec.Fields[fi].Value, a.Number))
	}
	return len(plan.Assignments)
}

func appendNumber(value string, n int) string {
	var end int
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		end = len(value) - len(strings.TrimLeftFunc(value, unicode.IsSpace)) + len(trimmed)
	} else if end = strings.IndexAny(value, "\r\n"); end < 0 {
		end = len(value)
	}
	return value[:end] + strconv.Itoa(n) + value[end:]
}

// Assign plans and applies one group.
func Assign(g *Group, limit int) *Plan {
	plan := PlanGroup(g, limit)
	plan.Apply()
	return plan
}

// HomographReport is the outcome of numbering a whole lexicon.
type HomographReport struct {
	Groups   int
	Assigned int
	Issues   []Issue
}

// AssignAll numbers every group with more than one pointer. When dryRun is
// set the plans are made but not applied.
func AssignAll(records []*sfm.Record, p *profile.Profile, dryRun bool) *HomographReport {
	groups, issues := Groups(records, p)
	rep := &HomographReport{Issues: issues}
	for _, g := range groups {
		if len(g.Pointers) < 2 {
			continue
		}
		rep.Groups++
		plan := PlanGroup(g, p.MaxHomograph)
		if !dryRun {
			plan.Apply()
		}
		rep.Assigned += len(plan.Assignments)
		rep.Issues = append(rep.Issues, plan.Issues...)
	}
	return rep
}

// CheckPlacement reports homograph fields that are not the second field of
// their record, and records with more than one.
func CheckPlacement(records []*sfm.Record, p *profile.Profile) []Issue {
	if p.HomographMarker == "" {
		return nil
	}
	var issues []Issue
	for _, rec := range records {
		hms := rec.Find([]string{p.HomographMarker}, 0, nil)
		if len(hms) > 1 {
			issues = append(issues, Issue{
				Kind:   MisplacedHM,
				Key:    rec.Key(),
				Line:   rec.LineOf(hms[1].Index),
				Detail: fmt.Sprintf("%d homograph fields in one record", len(hms)),
			})
		}
		for _, m := range hms {
			if m.Index != 1 {
				issues = append(issues, Issue{
					Kind:   MisplacedHM,
					Key:    rec.Key(),
					Line:   rec.LineOf(m.Index),
					Detail: fmt.Sprintf("homograph field is field %d, not field 2", m.Index+1),
				})
			}
		}
	}
	return issues
}
