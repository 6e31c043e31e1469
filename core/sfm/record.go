package sfm

import (
	"io"
	"slices"
	"strings"
)

// Match is one search hit within a record.
type Match struct {
	Marker string
	Index  int
}

// Record is an ordered, mutable list of fields. Fields[0] carries the record
// marker and keeps it for the life of the record.
type Record struct {
	// Line is the 1-based source line of Fields[0], or 0 for built records.
	Line   int
	Fields []Field
	leader string
}

// NewRecord builds a record from fields written with leader.
func NewRecord(leader string, line int, fields ...Field) *Record {
	return &Record{Line: line, Fields: fields, leader: leader}
}

// Leader returns the leader character used when writing the record.
func (r *Record) Leader() string {
	return r.leader
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.Fields)
}

// Key returns the trimmed value of the first field.
func (r *Record) Key() string {
	if len(r.Fields) == 0 {
		return ""
	}
	return r.Fields[0].Trimmed()
}

// Has reports whether any field carries one of the markers.
func (r *Record) Has(markers []string) bool {
	for _, f := range r.Fields {
		if slices.Contains(markers, f.Marker) {
			return true
		}
	}
	return false
}

// Find returns the fields at or after start whose marker is in markers,
// stopping at the first field whose marker is in bounds.
func (r *Record) Find(markers []string, start int, bounds []string) []Match {
	var out []Match
	for i := max(start, 0); i < len(r.Fields); i++ {
		m := r.Fields[i].Marker
		if slices.Contains(markers, m) {
			out = append(out, Match{Marker: m, Index: i})
		} else if slices.Contains(bounds, m) {
			break
		}
	}
	return out
}

// FindFirst returns the first field carrying one of the markers.
func (r *Record) FindFirst(markers ...string) (Match, bool) {
	for i, f := range r.Fields {
		if slices.Contains(markers, f.Marker) {
			return Match{Marker: f.Marker, Index: i}, true
		}
	}
	return Match{}, false
}

// Values returns the trimmed values found by Find.
func (r *Record) Values(markers []string, start int, bounds []string) []string {
	matches := r.Find(markers, start, bounds)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, r.Fields[m.Index].Trimmed())
	}
	return out
}

// Split cuts the record at every field carrying one of the markers. Fields
// before the first cut form the first piece and trailing fields stay with the
// last. Without a cut the record itself is returned.
func (r *Record) Split(markers ...string) []*Record {
	matches := r.Find(markers, 0, nil)
	if len(matches) == 0 {
		return []*Record{r}
	}

	cuts := make([]int, 0, len(matches)+2)
	if matches[0].Index != 0 {
		cuts = append(cuts, 0)
	}
	for _, m := range matches {
		cuts = append(cuts, m.Index)
	}
	cuts = append(cuts, len(r.Fields))

	pieces := make([]*Record, 0, len(cuts)-1)
	for i := 0; i+1 < len(cuts); i++ {
		lo, hi := cuts[i], cuts[i+1]
		line := 0
		if r.Line > 0 {
			line = r.LineOf(lo)
		}
		pieces = append(pieces, NewRecord(r.leader, line, slices.Clone(r.Fields[lo:hi])...))
	}
	return pieces
}

// InsertAt inserts f at position i and returns cursor adjusted so it still
// refers to the same field.
func (r *Record) InsertAt(cursor, i int, f Field) int {
	r.Fields = slices.Insert(r.Fields, i, f)
	if i <= cursor {
		cursor++
	}
	return cursor
}

// RemoveAt deletes the field at position i and returns cursor adjusted so a
// loop that increments it next visits the field after the one it was on.
// Removing the cursor's own field moves the cursor back by one.
func (r *Record) RemoveAt(cursor, i int) int {
	r.Fields = slices.Delete(r.Fields, i, i+1)
	if i <= cursor {
		cursor--
	}
	return cursor
}

// InsertBetween inserts a copy of f between every adjacent pair whose first
// marker is in first and second marker is in second. It returns the number
// of insertions.
func (r *Record) InsertBetween(first, second []string, f Field) int {
	n := 0
	for i := 1; i < len(r.Fields); i++ {
		if slices.Contains(second, r.Fields[i].Marker) && slices.Contains(first, r.Fields[i-1].Marker) {
			i = r.InsertAt(i, i, f)
			n++
		}
	}
	return n
}

// SetValue replaces the value of field i.
func (r *Record) SetValue(i int, value string) {
	r.Fields[i].Value = value
}

// LineOf returns the source line of field i, counted from the record's Line.
func (r *Record) LineOf(i int) int {
	line := r.Line
	for _, f := range r.Fields[:i] {
		line += countBreaks(f.Value)
	}
	return line
}

// countBreaks counts line terminators, treating "\r\n" as one.
func countBreaks(s string) int {
	return strings.Count(s, "\n") + strings.Count(s, "\r") - strings.Count(s, "\r\n")
}

// String serializes the record exactly.
func (r *Record) String() string {
	var b strings.Builder
	for _, f := range r.Fields {
		f.writeTo(&b, r.leader)
	}
	return b.String()
}

// WriteTo writes the serialized record to w.
func (r *Record) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, r.String())
	return int64(n), err
}
