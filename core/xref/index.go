package xref

import (
	"github.com/FocuswithJustin/sfmlex/core/profile"
	"github.com/FocuswithJustin/sfmlex/core/sfm"
)

// Match locates one indexed field.
type Match struct {
	Record      *sfm.Record
	RecordIndex int
	Field       int
}

// Options selects which fields the index is built from.
type Options struct {
	EntryMarkers    []string
	ExcludeMarkers  []string
	HomographMarker string
}

// OptionsFrom returns the index options of a profile.
func OptionsFrom(p *profile.Profile) Options {
	return Options{
		EntryMarkers:    p.EntryMarkers,
		ExcludeMarkers:  p.ExcludeMarkers,
		HomographMarker: p.HomographMarker,
	}
}

// Index maps entry keys to the fields that carry them. A key with more than
// one match is ambiguous as a link target.
type Index struct {
	Exact    map[string][]Match
	Stripped map[string][]Match

	// exact keys in first-seen order
	order []string
}

// Build indexes every entry-marker field of records that carry no exclude
// marker. The key is the trimmed value plus the trimmed value of an
// immediately following homograph field.
func Build(records []*sfm.Record, opts Options) *Index {
	ix := &Index{
		Exact:    make(map[string][]Match),
		Stripped: make(map[string][]Match),
	}
	for ri, rec := range records {
		if rec.Has(opts.ExcludeMarkers) {
			continue
		}
		for _, m := range rec.Find(opts.EntryMarkers, 0, nil) {
			key := entryKey(rec, m.Index, opts.HomographMarker)
			if key == "" {
				continue
			}
			match := Match{Record: rec, RecordIndex: ri, Field: m.Index}
			if _, seen := ix.Exact[key]; !seen {
				ix.order = append(ix.order, key)
			}
			ix.Exact[key] = append(ix.Exact[key], match)
			stripped := StripHomograph(key)
			ix.Stripped[stripped] = append(ix.Stripped[stripped], match)
		}
	}
	return ix
}

func entryKey(rec *sfm.Record, i int, hm string) string {
	key := rec.Fields[i].Trimmed()
	if hm != "" && i+1 < rec.Len() && rec.Fields[i+1].Marker == hm {
		key += rec.Fields[i+1].Trimmed()
	}
	return key
}

// Len returns the number of distinct exact keys.
func (ix *Index) Len() int {
	return len(ix.order)
}

// Duplicate is an exact key carried by more than one field.
type Duplicate struct {
	Key     string
	Matches []Match
}

// Duplicates lists exact keys with more than one match, in first-seen order.
func (ix *Index) Duplicates() []Duplicate {
	var out []Duplicate
	for _, key := range ix.order {
		if ms := ix.Exact[key]; len(ms) > 1 {
			out = append(out, Duplicate{Key: key, Matches: ms})
		}
	}
	return out
}
