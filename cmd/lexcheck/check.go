package main

import (
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/FocuswithJustin/sfmlex/core/cas"
	"github.com/FocuswithJustin/sfmlex/core/errors"
	"github.com/FocuswithJustin/sfmlex/core/xref"
	"github.com/FocuswithJustin/sfmlex/internal/logging"
	"github.com/FocuswithJustin/sfmlex/internal/reportdb"
)

// CheckCmd runs every read-only check over one file.
type CheckCmd struct {
	File   string `arg:"" help:"Lexicon file" type:"existingfile"`
	DB     string `name:"db" help:"Store the results in this SQLite report database" type:"path"`
	ASCII  bool   `name:"ascii" help:"Fold output to ASCII"`
	Strict bool   `help:"Exit with an error when any problem is found"`
}

func (c *CheckCmd) Run(a *app) error {
	a.out.ascii = c.ASCII
	start := time.Now()

	lex, data, err := a.load(c.File)
	if err != nil {
		return err
	}
	recs := lex.Records

	ix := xref.Build(recs, xref.OptionsFrom(a.profile))
	dups := ix.Duplicates()
	links := xref.CheckLinks(recs, ix, a.profile)
	homs := xref.AssignAll(recs, a.profile, true)
	issues := append(homs.Issues, xref.CheckPlacement(recs, a.profile)...)

	out := a.out
	out.Printf("%s: %s records, %s index keys\n", c.File,
		humanize.Comma(int64(len(recs))), humanize.Comma(int64(ix.Len())))

	for _, d := range dups {
		out.Printf("duplicate key %q:", d.Key)
		for _, m := range d.Matches {
			out.Printf(" line %d", m.Record.LineOf(m.Field))
		}
		out.Printf("\n")
	}
	for _, p := range links.Problems {
		out.Printf("%s link line %d: \\%s %q in %q (%d candidates)\n",
			p.Status, p.FieldLine, p.Marker, p.Target, p.SourceKey, p.Candidates)
	}
	for _, v := range links.Conflicts {
		out.Printf("variant loop: %q (line %d) and %q (line %d) name each other\n",
			v.Source, v.SourceLine, v.Target, v.TargetLine)
	}
	for _, is := range issues {
		out.Printf("%s\n", is)
	}

	out.Printf("links: %s good, %s ambiguous, %s broken\n",
		humanize.Comma(int64(links.Good)), humanize.Comma(int64(links.Ambiguous)), humanize.Comma(int64(links.Broken)))
	out.Printf("homographs: %d groups, %d numbers to assign\n", homs.Groups, homs.Assigned)

	problems := len(dups) + len(links.Problems) + len(links.Conflicts) + len(issues)
	logging.CheckSummary(a.ctx, "check", problems, time.Since(start), "path", c.File)

	if c.DB != "" {
		store, err := reportdb.Open(a.ctx, c.DB)
		if err != nil {
			return err
		}
		defer store.Close()
		id, err := store.Save(a.ctx, &reportdb.Report{
			Source:     c.File,
			SHA256:     cas.Hash(data),
			Records:    len(recs),
			Links:      links,
			Duplicates: dups,
			Issues:     issues,
		})
		if err != nil {
			logging.ErrorContext(a.ctx, "report_not_stored", "db", c.DB, "error", err.Error())
			return err
		}
		out.Printf("run %s stored in %s\n", id, c.DB)
	}

	if c.Strict && problems > 0 {
		return errors.NewValidation(c.File, humanize.Comma(int64(problems))+" problems found")
	}
	return nil
}

// RunsCmd lists stored check runs, or shows one run in detail.
type RunsCmd struct {
	DB     string `name:"db" required:"" help:"SQLite report database" type:"existingfile"`
	Source string `help:"Only list runs over this file"`
	Limit  int    `help:"Maximum number of runs" default:"20"`
	ID     string `name:"run" help:"Show the stored problems of this run"`
}

func (c *RunsCmd) Run(a *app) error {
	store, err := reportdb.OpenReadOnly(a.ctx, c.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	if c.ID != "" {
		return c.show(a, store)
	}

	runs, err := store.ListRuns(a.ctx, c.Source, c.Limit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		a.out.Printf("%s  %s  %s  records=%d good=%d ambiguous=%d broken=%d\n",
			r.ID, humanize.Time(r.Started), r.Source, r.Records, r.Good, r.Ambiguous, r.Broken)
	}
	logging.DebugContext(a.ctx, "runs_listed", "db", c.DB, "count", len(runs))
	return nil
}

func (c *RunsCmd) show(a *app, store *reportdb.Store) error {
	r, err := store.GetRun(a.ctx, c.ID)
	if err != nil {
		return err
	}
	problems, err := store.LinkProblems(a.ctx, r.ID)
	if err != nil {
		return err
	}
	counts, err := store.IssueCounts(a.ctx, r.ID)
	if err != nil {
		return err
	}
	dups, err := store.DuplicateCount(a.ctx, r.ID)
	if err != nil {
		return err
	}

	out := a.out
	out.Printf("run %s over %s (%s)\n", r.ID, r.Source, humanize.Time(r.Started))
	out.Printf("sha256 %s, %d records\n", r.SHA256, r.Records)
	for _, p := range problems {
		out.Printf("%s link line %d: \\%s %q in %q (%d candidates)\n",
			p.Status, p.FieldLine, p.Marker, p.Target, p.SourceKey, p.Candidates)
	}
	out.Printf("links: %d good, %d ambiguous, %d broken\n", r.Good, r.Ambiguous, r.Broken)
	out.Printf("duplicate keys: %d\n", dups)
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		out.Printf("%s: %d\n", k, counts[k])
	}
	return nil
}
