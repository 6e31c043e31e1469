package main

import (
	"bytes"

	"github.com/dustin/go-humanize"

	"github.com/FocuswithJustin/sfmlex/core/cas"
	"github.com/FocuswithJustin/sfmlex/core/errors"
	"github.com/FocuswithJustin/sfmlex/core/sqlite"
	"github.com/FocuswithJustin/sfmlex/internal/fileutil"
	"github.com/FocuswithJustin/sfmlex/internal/logging"
	"github.com/FocuswithJustin/sfmlex/internal/validation"
)

// RoundtripCmd parses a file, writes it back to memory and compares digests.
type RoundtripCmd struct {
	File string `arg:"" help:"Lexicon file" type:"existingfile"`
}

func (c *RoundtripCmd) Run(a *app) error {
	lex, data, err := a.load(c.File)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if _, err := lex.WriteTo(&buf); err != nil {
		return errors.Wrap(err, "serialize")
	}

	in, out := cas.Blake3Hash(data), cas.Blake3Hash(buf.Bytes())
	a.out.Printf("input  %s %s\n", in, humanize.Bytes(uint64(len(data))))
	a.out.Printf("output %s %s\n", out, humanize.Bytes(uint64(buf.Len())))
	if in != out {
		at := firstDifference(data, buf.Bytes())
		return errors.NewValidation(c.File, "round trip differs at byte "+humanize.Comma(int64(at)))
	}
	a.out.Printf("identical (%d records)\n", len(lex.Records))
	return nil
}

func firstDifference(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// RestoreCmd writes a stored snapshot back out.
type RestoreCmd struct {
	Hash      string `arg:"" help:"SHA-256 or BLAKE3 digest printed when the snapshot was taken"`
	Snapshots string `required:"" help:"Snapshot directory" type:"existingdir"`
	Out       string `required:"" help:"Where to write the restored file" type:"path"`
}

func (c *RestoreCmd) Run(a *app) error {
	store, err := cas.NewStore(c.Snapshots)
	if err != nil {
		return err
	}

	var data []byte
	if store.Exists(c.Hash) {
		data, err = store.Get(c.Hash)
	} else {
		var snap *cas.Snapshot
		snap, err = store.LookupBlake3(c.Hash)
		if err == nil {
			a.out.Printf("snapshot of %s taken %s\n", snap.Source, humanize.Time(snap.Taken))
			data, err = store.Get(snap.SHA256)
		}
	}
	if err != nil {
		return err
	}

	if err := validation.CheckOutput(c.Out); err != nil {
		return errors.Wrapf(err, "output %s", c.Out)
	}
	if err := fileutil.WriteFileAtomic(c.Out, data, 0644); err != nil {
		return errors.NewIO("write", c.Out, err)
	}
	logging.InfoContext(a.ctx, "snapshot_restored", "hash", c.Hash, "path", c.Out)
	a.out.Printf("restored %s to %s\n", humanize.Bytes(uint64(len(data))), c.Out)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(a *app) error {
	info := sqlite.GetInfo()
	a.out.Printf("lexcheck version %s\n", version)
	a.out.Printf("sqlite driver %s (%s)\n", info.Package, info.DriverType)
	return nil
}
