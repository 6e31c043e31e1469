// Command lexcheck checks and edits SFM lexicon files. Every rewrite keeps
// the file byte-identical outside the fields it deliberately changes.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"github.com/FocuswithJustin/sfmlex/core/errors"
	"github.com/FocuswithJustin/sfmlex/core/profile"
	"github.com/FocuswithJustin/sfmlex/core/sfm"
	"github.com/FocuswithJustin/sfmlex/internal/fileutil"
	"github.com/FocuswithJustin/sfmlex/internal/logging"
	"github.com/FocuswithJustin/sfmlex/internal/validation"
)

const version = "0.4.0"

// Globals are flags shared by every command.
type Globals struct {
	Profile   string `help:"Marker profile (YAML or JSON)" type:"existingfile" env:"SFMLEX_PROFILE"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"info" enum:"debug,info,warn,error"`
	LogFormat string `name:"log-format" help:"Log format (text, json)" default:"text" enum:"text,json"`
}

// CLI defines the command-line interface for lexcheck.
type CLI struct {
	Globals

	Check     CheckCmd     `cmd:"" help:"Check links, duplicate keys and homograph numbers"`
	Runs      RunsCmd      `cmd:"" help:"List check runs stored in a report database"`
	Number    NumberCmd    `cmd:"" help:"Assign homograph numbers"`
	Minor     MinorCmd     `cmd:"" help:"Upgrade minor-entry link markers"`
	Repair    RepairCmd    `cmd:"" help:"Repair corrupted markers against a reference copy"`
	Roundtrip RoundtripCmd `cmd:"" help:"Verify that a file survives parse and write unchanged"`
	Restore   RestoreCmd   `cmd:"" help:"Restore a snapshot taken before an in-place rewrite"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// app is bound into every command's Run.
type app struct {
	ctx     context.Context
	profile *profile.Profile
	out     *printer
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "lexcheck: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("lexcheck"),
		kong.Description("Byte-exact checker and editor for SFM lexicon files"),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cli.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(cli.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLoggerTo(stderr, level, format)

	prof, err := profile.Load(cli.Profile)
	if err != nil {
		return err
	}

	a := &app{
		ctx:     logging.WithRunID(context.Background(), uuid.New().String()),
		profile: prof,
		out:     &printer{w: stdout},
	}
	return kctx.Run(a)
}

// load reads and parses a lexicon. The raw bytes are returned for hashing.
func (a *app) load(path string) (*sfm.Lexicon, []byte, error) {
	size, err := validation.CheckInput(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "input %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.NewIO("read", path, err)
	}
	lex, err := sfm.Read(bytes.NewReader(data), a.profile)
	if err != nil {
		return nil, nil, errors.Wrap(err, path)
	}
	logging.LexiconRead(a.ctx, path, len(lex.Records), size, "bom", lex.BOM)
	return lex, data, nil
}

// save writes lex to path atomically with the permissions of like.
func (a *app) save(lex *sfm.Lexicon, path, like string) error {
	var n int64
	err := fileutil.WriteAtomic(path, fileutil.FileMode(like, 0644), func(w io.Writer) error {
		var err error
		n, err = lex.WriteTo(w)
		return err
	})
	if err != nil {
		logging.OperationError(a.ctx, "write", err, "path", path)
		return errors.NewIO("write", path, err)
	}
	logging.LexiconWritten(a.ctx, path, n)
	return nil
}
