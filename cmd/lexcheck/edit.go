package main

import (
	"path/filepath"

	"github.com/FocuswithJustin/sfmlex/core/cas"
	"github.com/FocuswithJustin/sfmlex/core/errors"
	"github.com/FocuswithJustin/sfmlex/core/sfm"
	"github.com/FocuswithJustin/sfmlex/core/xref"
	"github.com/FocuswithJustin/sfmlex/internal/logging"
	"github.com/FocuswithJustin/sfmlex/internal/validation"
)

// defaultSnapshotDir is created next to the rewritten file.
const defaultSnapshotDir = ".sfmlex-snapshots"

// Destination selects where an edited lexicon is written.
type Destination struct {
	Out       string `help:"Write the result to this file" type:"path" xor:"dest"`
	InPlace   bool   `name:"in-place" help:"Rewrite the input, keeping a snapshot of the original" xor:"dest"`
	Snapshots string `help:"Snapshot directory for --in-place (default: .sfmlex-snapshots beside the input)" type:"path"`
}

// resolve returns the output path. For --in-place the input is snapshotted
// before anything is written.
func (d *Destination) resolve(a *app, input string, others ...string) (string, error) {
	if d.Snapshots != "" && !d.InPlace {
		return "", errors.NewValidation("snapshots", "--snapshots only applies with --in-place")
	}
	switch {
	case d.InPlace:
		dir := d.Snapshots
		if dir == "" {
			dir = filepath.Join(filepath.Dir(input), defaultSnapshotDir)
		}
		store, err := cas.NewStore(dir)
		if err != nil {
			return "", err
		}
		snap, err := store.SnapshotFile(input)
		if err != nil {
			return "", errors.Wrap(err, "snapshot before rewrite")
		}
		logging.SnapshotTaken(a.ctx, input, snap.SHA256, snap.Size)
		a.out.Printf("snapshot %s (blake3 %s) in %s\n", snap.SHA256, snap.BLAKE3, store.Root())
		return input, nil
	case d.Out != "":
		if err := validation.CheckOutput(d.Out, append([]string{input}, others...)...); err != nil {
			return "", errors.Wrapf(err, "output %s", d.Out)
		}
		return d.Out, nil
	default:
		return "", errors.NewValidation("out", "one of --out or --in-place is required")
	}
}

// NumberCmd assigns homograph numbers and writes the result.
type NumberCmd struct {
	File string      `arg:"" help:"Lexicon file" type:"existingfile"`
	Dest Destination `embed:""`
}

func (c *NumberCmd) Run(a *app) error {
	lex, _, err := a.load(c.File)
	if err != nil {
		return err
	}
	out, err := c.Dest.resolve(a, c.File)
	if err != nil {
		return err
	}

	rep := xref.AssignAll(lex.Records, a.profile, false)
	for _, is := range rep.Issues {
		a.out.Printf("%s\n", is)
	}
	a.out.Printf("homographs: %d groups, %d numbers assigned\n", rep.Groups, rep.Assigned)
	return a.save(lex, out, c.File)
}

// MinorCmd upgrades minor-entry link markers that the main entry confirms.
type MinorCmd struct {
	File string      `arg:"" help:"Lexicon file" type:"existingfile"`
	Dest Destination `embed:""`
}

func (c *MinorCmd) Run(a *app) error {
	lex, _, err := a.load(c.File)
	if err != nil {
		return err
	}
	out, err := c.Dest.resolve(a, c.File)
	if err != nil {
		return err
	}

	rep := xref.MarkMinorEntries(lex.Records, a.profile)
	for _, p := range rep.Problems {
		a.out.Printf("%s minor link line %d: \\%s %q in %q (%d candidates)\n",
			p.Status, p.Line, p.Marker, p.Target, p.Key, p.Candidates)
	}
	a.out.Printf("minor entries: %d, markers upgraded: %d\n", rep.Minor, rep.Upgraded)
	return a.save(lex, out, c.File)
}

// RepairCmd renames corrupted markers by comparing each record with its
// counterpart in an older, intact copy of the file.
type RepairCmd struct {
	File      string      `arg:"" help:"Lexicon file with corrupted markers" type:"existingfile"`
	Reference string      `required:"" help:"Intact copy of the file" type:"existingfile"`
	Fix       []string    `required:"" help:"Marker rename as BAD:GOOD (repeatable)"`
	Window    int         `help:"Resync window (default from profile)" default:"-1"`
	Dest      Destination `embed:""`
}

func (c *RepairCmd) Run(a *app) error {
	fixes := make([]sfm.Fix, 0, len(c.Fix))
	for _, s := range c.Fix {
		f, err := sfm.ParseFix(s)
		if err != nil {
			return err
		}
		fixes = append(fixes, f)
	}
	window := a.profile.ResyncWindow
	if c.Window >= 0 {
		window = c.Window
	}

	lex, _, err := a.load(c.File)
	if err != nil {
		return err
	}
	ref, _, err := a.load(c.Reference)
	if err != nil {
		return err
	}
	out, err := c.Dest.resolve(a, c.File, c.Reference)
	if err != nil {
		return err
	}

	var paired, renamed int
	for _, p := range sfm.Align(lex.Records, ref.Records, window) {
		rec := lex.Records[p.Record]
		if p.Reference < 0 {
			a.out.Printf("no reference for %q (line %d)\n", rec.Key(), rec.Line)
			logging.WarnContext(a.ctx, "record_unpaired", "key", rec.Key(), "line", rec.Line)
			continue
		}
		paired++
		renamed += sfm.Repair(rec, ref.Records[p.Reference], fixes, window)
	}
	a.out.Printf("records paired: %d of %d, markers renamed: %d\n", paired, len(lex.Records), renamed)
	return a.save(lex, out, c.File)
}
