package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"vgp-backend/internal/checklist"
	"vgp-backend/internal/photos"
	"vgp-backend/internal/report"
)

const usage = `vgpctl works with inspection records stored as JSON files.

Local commands:
  new       -type T -o FILE            start a blank inspection
  validate  FILE                       list unanswered required questions
  derive    FILE                       print the derived view
  answer    -item ID -status S FILE    answer one question
  attach    [-item ID] FILE PHOTO...   compress and attach photos
  report    [-draft] FILE              compile the report

Remote commands (VGP_API_URL, VGP_TOKEN):
  login     EMAIL                      request a magic link
  push      [-final] FILE              save a record on the server
  list                                 list stored inspections
  pull      -o DIR                     download every server record
`

// exitInvalid is returned when a record fails validation
const exitInvalid = 1

func main() {
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cmd, rest := args[0], args[1:]
	var err error
	switch cmd {
	case "new":
		err = cmdNew(rest, stdout)
	case "validate":
		var valid bool
		valid, err = cmdValidate(rest, stdout)
		if err == nil && !valid {
			return exitInvalid
		}
	case "derive":
		err = cmdDerive(rest, stdout)
	case "answer":
		err = cmdAnswer(rest, stdout)
	case "attach":
		err = cmdAttach(ctx, rest, stdout)
	case "report":
		err = cmdReport(rest, stdout)
	case "login":
		err = cmdLogin(ctx, rest, stdout)
	case "push":
		err = cmdPush(ctx, rest, stdout)
	case "list":
		err = cmdList(ctx, rest, stdout)
	case "pull":
		err = cmdPull(ctx, rest, stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	if err != nil {
		fmt.Fprintf(stderr, "vgpctl %s: %v\n", cmd, err)
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	return 0
}

func readRecord(path string) (*checklist.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec checklist.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rec.Normalize()
	return &rec, nil
}

func writeRecord(path string, rec *checklist.Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// oneFile parses fs and returns its single positional argument
func oneFile(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("expected one record file")
	}
	return fs.Arg(0), nil
}

func cmdNew(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	typ := fs.String("type", "", "equipment type (e.g. hayon-rabattable)")
	out := fs.String("o", "", "output file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("missing -o")
	}
	t := checklist.EquipmentType(*typ)
	if t != "" && !t.Known() {
		return fmt.Errorf("unknown equipment type %q", *typ)
	}
	rec := checklist.NewRecord(time.Now())
	rec.EquipmentType = t
	if err := writeRecord(*out, rec); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "created %s (%d questions required)\n", *out, len(checklist.RequiredItems(t, 0)))
	return nil
}

func cmdValidate(args []string, stdout io.Writer) (bool, error) {
	path, err := oneFile(flag.NewFlagSet("validate", flag.ContinueOnError), args)
	if err != nil {
		return false, err
	}
	rec, err := readRecord(path)
	if err != nil {
		return false, err
	}
	res := checklist.Validate(rec)
	if res.Valid {
		fmt.Fprintln(stdout, "OK")
	} else {
		fmt.Fprintln(stdout, res.Message)
		for _, m := range res.Missing {
			fmt.Fprintf(stdout, "  - [%s] %s: %s\n", m.Section, m.ID, m.Label)
		}
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(stdout, "  ! %s: non-conformité sans observation\n", w.ID)
	}
	return res.Valid, nil
}

func cmdDerive(args []string, stdout io.Writer) error {
	path, err := oneFile(flag.NewFlagSet("derive", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	rec, err := readRecord(path)
	if err != nil {
		return err
	}
	return printJSON(stdout, checklist.RecomputeDerived(rec, time.Now()))
}

func cmdAnswer(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("answer", flag.ContinueOnError)
	item := fs.String("item", "", "item id (e.g. visuel-3)")
	status := fs.String("status", "", "c, nc, nca or na")
	note := fs.String("note", "", "observation")
	path, err := oneFile(fs, args)
	if err != nil {
		return err
	}
	rec, err := readRecord(path)
	if err != nil {
		return err
	}
	notice, changed, err := rec.Answer(*item, checklist.Status(*status))
	if err != nil {
		return err
	}
	if *note != "" {
		if err := rec.SetNote(*item, *note); err != nil {
			return err
		}
	}
	if changed {
		fmt.Fprintln(stdout, notice.Message)
	}
	return writeRecord(path, rec)
}

func cmdAttach(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("attach", flag.ContinueOnError)
	item := fs.String("item", "", "item id; general photos when empty")
	workers := fs.Int("workers", 2, "parallel compressions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("expected a record file and at least one photo")
	}
	path := fs.Arg(0)
	rec, err := readRecord(path)
	if err != nil {
		return err
	}
	if *item != "" {
		if _, ok := rec.Get(*item); !ok {
			return fmt.Errorf("%w: %s", checklist.ErrUnknownItem, *item)
		}
	}

	before := rec.PhotoCount()
	var failed int
	attach := photos.Attach(rec)
	p := photos.NewProcessor(ctx, *workers, func(res photos.Result) {
		if res.Err != nil {
			failed++
		}
		attach(res)
	})
	for _, name := range fs.Args()[1:] {
		data, err := os.ReadFile(name)
		if err != nil {
			p.Close()
			return err
		}
		if err := p.Submit(ctx, *item, data); err != nil {
			p.Close()
			return err
		}
	}
	p.Close()

	fmt.Fprintf(stdout, "attached %d photo(s), %d failed\n", rec.PhotoCount()-before, failed)
	return writeRecord(path, rec)
}

func cmdReport(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	draft := fs.Bool("draft", false, "compile even when incomplete")
	path, err := oneFile(fs, args)
	if err != nil {
		return err
	}
	rec, err := readRecord(path)
	if err != nil {
		return err
	}
	doc, err := report.Compile(rec, report.Options{AllowDraft: *draft, Now: time.Now()})
	if err != nil {
		return err
	}
	return printJSON(stdout, doc)
}
