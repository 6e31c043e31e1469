// Package reportdb persists lexicon check results in an SQLite database so
// runs over the same file can be compared over time.
//
// Tables:
//   - runs: one row per check (uuid id, source path, content hash, counts)
//   - link_problems: broken and ambiguous links
//   - variant_conflicts: symmetric variant pairs
//   - homograph_issues: numbering and placement problems
//   - duplicates: index keys claimed by more than one entry
package reportdb

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/sfmlex/core/errors"
	"github.com/FocuswithJustin/sfmlex/core/sqlite"
	"github.com/FocuswithJustin/sfmlex/core/xref"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	sha256     TEXT NOT NULL,
	records    INTEGER NOT NULL,
	good       INTEGER NOT NULL,
	ambiguous  INTEGER NOT NULL,
	broken     INTEGER NOT NULL,
	started_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS link_problems (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	status      TEXT NOT NULL,
	source_key  TEXT NOT NULL,
	source_line INTEGER NOT NULL,
	marker      TEXT NOT NULL,
	field_line  INTEGER NOT NULL,
	target      TEXT NOT NULL,
	candidates  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS variant_conflicts (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	source      TEXT NOT NULL,
	source_line INTEGER NOT NULL,
	target      TEXT NOT NULL,
	target_line INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS homograph_issues (
	run_id TEXT NOT NULL REFERENCES runs(id),
	kind   TEXT NOT NULL,
	word   TEXT NOT NULL,
	key    TEXT NOT NULL,
	line   INTEGER NOT NULL,
	detail TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS duplicates (
	run_id  TEXT NOT NULL REFERENCES runs(id),
	key     TEXT NOT NULL,
	entries INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_link_problems_run ON link_problems(run_id);
CREATE INDEX IF NOT EXISTS idx_homograph_issues_run ON homograph_issues(run_id);
`

// timeLayout is fixed width so started_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is an open report database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the report database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlite.OpenContext(ctx, path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create report schema")
	}
	return &Store{db: db}, nil
}

// OpenReadOnly opens an existing report database for queries only.
func OpenReadOnly(ctx context.Context, path string) (*Store, error) {
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.NewIO("open", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Report is the outcome of one check over a lexicon file.
type Report struct {
	Source     string
	SHA256     string
	Records    int
	Links      *xref.LinkReport
	Duplicates []xref.Duplicate
	Issues     []xref.Issue
}

// Run is a stored report summary.
type Run struct {
	ID        string
	Source    string
	SHA256    string
	Records   int
	Good      int
	Ambiguous int
	Broken    int
	Started   time.Time
}

// LinkRow is a stored link problem.
type LinkRow struct {
	Status     string
	SourceKey  string
	SourceLine int
	Marker     string
	FieldLine  int
	Target     string
	Candidates int
}

// Save stores rep in one transaction and returns the new run ID.
func (s *Store) Save(ctx context.Context, rep *Report) (string, error) {
	id := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", errors.Wrap(err, "begin report transaction")
	}
	defer tx.Rollback()

	var good, ambiguous, broken int
	if rep.Links != nil {
		good, ambiguous, broken = rep.Links.Good, rep.Links.Ambiguous, rep.Links.Broken
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, sha256, records, good, ambiguous, broken, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rep.Source, rep.SHA256, rep.Records, good, ambiguous, broken,
		time.Now().UTC().Format(timeLayout))
	if err != nil {
		return "", errors.Wrap(err, "insert run")
	}

	if rep.Links != nil {
		if err := insertLinks(ctx, tx, id, rep.Links); err != nil {
			return "", err
		}
	}
	if err := insertIssues(ctx, tx, id, rep.Issues); err != nil {
		return "", err
	}
	for _, d := range rep.Duplicates {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO duplicates (run_id, key, entries) VALUES (?, ?, ?)`,
			id, d.Key, len(d.Matches)); err != nil {
			return "", errors.Wrap(err, "insert duplicate")
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(err, "commit report")
	}
	return id, nil
}

func insertLinks(ctx context.Context, tx *sql.Tx, id string, links *xref.LinkReport) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO link_problems (run_id, status, source_key, source_line, marker, field_line, target, candidates)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare link insert")
	}
	defer stmt.Close()

	for _, p := range links.Problems {
		if _, err := stmt.ExecContext(ctx, id, p.Status.String(), p.SourceKey, p.SourceLine,
			p.Marker, p.FieldLine, p.Target, p.Candidates); err != nil {
			return errors.Wrap(err, "insert link problem")
		}
	}
	for _, c := range links.Conflicts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO variant_conflicts (run_id, source, source_line, target, target_line)
			 VALUES (?, ?, ?, ?, ?)`,
			id, c.Source, c.SourceLine, c.Target, c.TargetLine); err != nil {
			return errors.Wrap(err, "insert variant conflict")
		}
	}
	return nil
}

func insertIssues(ctx context.Context, tx *sql.Tx, id string, issues []xref.Issue) error {
	if len(issues) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO homograph_issues (run_id, kind, word, key, line, detail) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare issue insert")
	}
	defer stmt.Close()

	for _, is := range issues {
		if _, err := stmt.ExecContext(ctx, id, is.Kind.String(), is.Word, is.Key, is.Line, is.Detail); err != nil {
			return errors.Wrap(err, "insert homograph issue")
		}
	}
	return nil
}

// GetRun returns the summary of a stored run.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, sha256, records, good, ambiguous, broken, started_at FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("run", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read run %s", id)
	}
	return run, nil
}

// ListRuns returns the most recent runs for source, newest first. An empty
// source lists every run.
func (s *Store) ListRuns(ctx context.Context, source string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, sha256, records, good, ambiguous, broken, started_at FROM runs
		 WHERE ? = '' OR source = ?
		 ORDER BY started_at DESC, rowid DESC LIMIT ?`, source, source, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var r Run
	var started string
	if err := sc.Scan(&r.ID, &r.Source, &r.SHA256, &r.Records, &r.Good, &r.Ambiguous, &r.Broken, &started); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, started)
	if err != nil {
		return nil, err
	}
	r.Started = t
	return &r, nil
}

// LinkProblems returns the link problems stored for a run in insertion order.
func (s *Store) LinkProblems(ctx context.Context, runID string) ([]LinkRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, source_key, source_line, marker, field_line, target, candidates
		 FROM link_problems WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "query link problems")
	}
	defer rows.Close()

	var out []LinkRow
	for rows.Next() {
		var r LinkRow
		if err := rows.Scan(&r.Status, &r.SourceKey, &r.SourceLine, &r.Marker, &r.FieldLine, &r.Target, &r.Candidates); err != nil {
			return nil, errors.Wrap(err, "scan link problem")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// IssueCounts returns the number of homograph issues per kind for a run.
func (s *Store) IssueCounts(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, COUNT(*) FROM homograph_issues WHERE run_id = ? GROUP BY kind`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "count homograph issues")
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, errors.Wrap(err, "scan issue count")
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

// DuplicateCount returns how many duplicate keys were stored for a run.
func (s *Store) DuplicateCount(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM duplicates WHERE run_id = ?`, runID).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "count duplicates")
	}
	return n, nil
}
