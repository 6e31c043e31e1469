package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/sfmlex/core/cas"
)

func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestRoundtripCmd(t *testing.T) {
	dir := t.TempDir()
	path := createTestFile(t, dir, "dict.db", "\uFEFF\\_sh v3.0  400  MDF 4.0\r\n\r\n\\lx a\r\n\\ge  b \r\n\r\n\\lx c")

	out, err := runCLI(t, "roundtrip", path)
	if err != nil {
		t.Fatalf("roundtrip error = %v", err)
	}
	if !strings.Contains(out, "identical (2 records)") {
		t.Errorf("roundtrip output = %q", out)
	}
}

func TestCheckCmd(t *testing.T) {
	dir := t.TempDir()
	path := createTestFile(t, dir, "dict.db", ""+
		"\\lx bank\n\\cf river\n"+
		"\\lx bank\n\\ge money\n"+
		"\\lx shore\n\\cf bank\n")
	db := filepath.Join(dir, "reports.db")

	out, err := runCLI(t, "check", path, "--db", db)
	if err != nil {
		t.Fatalf("check error = %v", err)
	}
	for _, want := range []string{
		"3 records",
		`duplicate key "bank": line 1 line 3`,
		`broken link line 2: \cf "river" in "bank" (0 candidates)`,
		`ambiguous link line 6: \cf "bank" in "shore" (2 candidates)`,
		"links: 0 good, 1 ambiguous, 1 broken",
		"homographs: 1 groups, 2 numbers to assign",
		"stored in " + db,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("check output missing %q:\n%s", want, out)
		}
	}

	out, err = runCLI(t, "runs", "--db", db)
	if err != nil {
		t.Fatalf("runs error = %v", err)
	}
	if !strings.Contains(out, "records=3 good=0 ambiguous=1 broken=1") {
		t.Errorf("runs output = %q", out)
	}

	id := strings.Fields(out)[0]
	out, err = runCLI(t, "runs", "--db", db, "--run", id)
	if err != nil {
		t.Fatalf("runs --run error = %v", err)
	}
	for _, want := range []string{
		"run " + id + " over " + path,
		`broken link line 2: \cf "river" in "bank" (0 candidates)`,
		`ambiguous link line 6: \cf "bank" in "shore" (2 candidates)`,
		"links: 0 good, 1 ambiguous, 1 broken",
		"duplicate keys: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("runs --run output missing %q:\n%s", want, out)
		}
	}

	if _, err := runCLI(t, "runs", "--db", db, "--run", "missing"); err == nil {
		t.Error("runs --run with an unknown ID: expected error")
	}
}

func TestCheckCmdStrict(t *testing.T) {
	dir := t.TempDir()
	clean := createTestFile(t, dir, "clean.db", "\\lx a\n\\cf b\n\\lx b\n")
	broken := createTestFile(t, dir, "broken.db", "\\lx a\n\\cf z\n")

	if _, err := runCLI(t, "check", "--strict", clean); err != nil {
		t.Errorf("check --strict on clean file error = %v", err)
	}
	if _, err := runCLI(t, "check", "--strict", broken); err == nil {
		t.Error("check --strict on broken file: expected error")
	}
}

func TestCheckCmdASCII(t *testing.T) {
	dir := t.TempDir()
	path := createTestFile(t, dir, "dict.db", "\\lx café\n\\cf ŋa\n")

	out, err := runCLI(t, "check", "--ascii", path)
	if err != nil {
		t.Fatalf("check error = %v", err)
	}
	if !strings.Contains(out, `"?a" in "cafe"`) {
		t.Errorf("ascii output = %q", out)
	}
}

func TestNumberCmdOut(t *testing.T) {
	dir := t.TempDir()
	path := createTestFile(t, dir, "dict.db", "\\lx pal\n\\ge friend\n\\lx pal\n\\ge plate\n")
	outPath := filepath.Join(dir, "out.db")

	out, err := runCLI(t, "number", path, "--out", outPath)
	if err != nil {
		t.Fatalf("number error = %v", err)
	}
	if !strings.Contains(out, "2 numbers assigned") {
		t.Errorf("number output = %q", out)
	}
	if got, want := readFile(t, outPath), "\\lx pal1\n\\ge friend\n\\lx pal2\n\\ge plate\n"; got != want {
		t.Errorf("output file = %q, want %q", got, want)
	}
	if got := readFile(t, path); got != "\\lx pal\n\\ge friend\n\\lx pal\n\\ge plate\n" {
		t.Errorf("input was modified: %q", got)
	}
}

func TestNumberCmdInPlaceAndRestore(t *testing.T) {
	dir := t.TempDir()
	original := "\\lx pal\n\\lx pal\n"
	path := createTestFile(t, dir, "dict.db", original)
	snapshots := filepath.Join(dir, "snaps")

	out, err := runCLI(t, "number", path, "--in-place", "--snapshots", snapshots)
	if err != nil {
		t.Fatalf("number --in-place error = %v", err)
	}
	if !strings.Contains(out, cas.Hash([]byte(original))) {
		t.Errorf("expected snapshot hash in output: %q", out)
	}
	if got := readFile(t, path); got != "\\lx pal1\n\\lx pal2\n" {
		t.Errorf("rewritten file = %q", got)
	}

	restored := filepath.Join(dir, "restored.db")
	if _, err := runCLI(t, "restore", cas.Blake3Hash([]byte(original)), "--snapshots", snapshots, "--out", restored); err != nil {
		t.Fatalf("restore error = %v", err)
	}
	if got := readFile(t, restored); got != original {
		t.Errorf("restored = %q, want %q", got, original)
	}
}

func TestNumberCmdNeedsDestination(t *testing.T) {
	dir := t.TempDir()
	path := createTestFile(t, dir, "dict.db", "\\lx a\n")
	if _, err := runCLI(t, "number", path); err == nil {
		t.Error("expected error without --out or --in-place")
	}
	if _, err := runCLI(t, "number", path, "--out", path); err == nil {
		t.Error("expected error when --out names the input")
	}

	outPath := filepath.Join(dir, "out.db")
	if _, err := runCLI(t, "number", path, "--out", outPath, "--snapshots", filepath.Join(dir, "snaps")); err == nil {
		t.Error("expected error for --snapshots without --in-place")
	}
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Errorf("output written despite rejected flags: %v", err)
	}
}

func TestMinorCmd(t *testing.T) {
	dir := t.TempDir()
	prof := createTestFile(t, dir, "profile.yaml", "minor_markers: [mn]\n")
	path := createTestFile(t, dir, "dict.db", "\\lx run\n\\va ran\n\\lx ran\n\\mn run\n")
	outPath := filepath.Join(dir, "out.db")

	out, err := runCLI(t, "--profile", prof, "minor", path, "--out", outPath)
	if err != nil {
		t.Fatalf("minor error = %v", err)
	}
	if !strings.Contains(out, "minor entries: 1, markers upgraded: 1") {
		t.Errorf("minor output = %q", out)
	}
	if got, want := readFile(t, outPath), "\\lx run\n\\va ran\n\\lx ran\n\\mnva run\n"; got != want {
		t.Errorf("output file = %q, want %q", got, want)
	}
}

func TestRepairCmd(t *testing.T) {
	dir := t.TempDir()
	path := createTestFile(t, dir, "dict.db", "\\lx a\n\\gx one\n\\lx new\n\\lx b\n\\gx two \n")
	ref := createTestFile(t, dir, "ref.db", "\\lx a\n\\ge one\n\\lx b\n\\ge two\n")
	outPath := filepath.Join(dir, "out.db")

	out, err := runCLI(t, "repair", path, "--reference", ref, "--fix", "gx:ge", "--out", outPath)
	if err != nil {
		t.Fatalf("repair error = %v", err)
	}
	for _, want := range []string{`no reference for "new" (line 3)`, "records paired: 2 of 3, markers renamed: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("repair output missing %q:\n%s", want, out)
		}
	}
	if got, want := readFile(t, outPath), "\\lx a\n\\ge one\n\\lx new\n\\lx b\n\\ge two \n"; got != want {
		t.Errorf("output file = %q, want %q", got, want)
	}
}

func TestRepairCmdBadFix(t *testing.T) {
	dir := t.TempDir()
	path := createTestFile(t, dir, "dict.db", "\\lx a\n")
	if _, err := runCLI(t, "repair", path, "--reference", path, "--fix", "gx", "--out", filepath.Join(dir, "o.db")); err == nil {
		t.Error("expected error for malformed --fix")
	}
}

func TestRejectsBinaryInput(t *testing.T) {
	dir := t.TempDir()
	path := createTestFile(t, dir, "dict.db.xz", "\xfd7zXZ\x00\x00")
	if _, err := runCLI(t, "roundtrip", path); err == nil {
		t.Error("expected error for compressed input")
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out, "lexcheck version "+version) {
		t.Errorf("version output = %q", out)
	}
}

func TestFoldASCII(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"café", "cafe"},
		{"ñandú", "nandu"},
		{"ŋa", "?a"},
		{"kʷa", "k?a"},
	}
	for _, tt := range tests {
		if got := foldASCII(tt.in); got != tt.want {
			t.Errorf("foldASCII(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
