package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"vgp-backend/internal/checklist"
	"vgp-backend/internal/client"
)

// pullBatch stays under the server's per-request limit
const pullBatch = 100

func newClient() (*client.Client, error) {
	base := os.Getenv("VGP_API_URL")
	if base == "" {
		return nil, errors.New("VGP_API_URL is not set")
	}
	return client.New(base, os.Getenv("VGP_TOKEN")), nil
}

func cmdLogin(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("expected an email address")
	}
	c, err := newClient()
	if err != nil {
		return err
	}
	if err := c.RequestLink(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Email envoyé. Set VGP_TOKEN to the auth_token of the link.")
	return nil
}

func cmdPush(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("push", flag.ContinueOnError)
	final := fs.Bool("final", false, "refuse incomplete records")
	path, err := oneFile(fs, args)
	if err != nil {
		return err
	}
	rec, err := readRecord(path)
	if err != nil {
		return err
	}
	c, err := newClient()
	if err != nil {
		return err
	}

	var ack checklist.Ack
	if *final {
		ack, err = c.SaveFinal(ctx, rec)
	} else {
		res := <-checklist.SaveAsync(ctx, c, rec)
		ack, err = res.Ack, res.Err
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && len(apiErr.Missing) > 0 {
		for _, m := range apiErr.Missing {
			fmt.Fprintf(stdout, "  - %s: %s\n", m.ID, m.Label)
		}
	}
	if err != nil {
		return err
	}

	// Keep the server id and timestamp so the next push updates in place
	rec.ID = ack.ID
	rec.UpdatedAt = &ack.UpdatedAt
	fmt.Fprintf(stdout, "saved %s at %s\n", ack.ID, ack.UpdatedAt.Format("2006-01-02 15:04:05"))
	return writeRecord(path, rec)
}

func cmdList(ctx context.Context, args []string, stdout io.Writer) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	list, err := c.List(ctx)
	if err != nil {
		return err
	}
	for _, s := range list {
		verdict := string(s.Verdict)
		if verdict == "" {
			verdict = "-"
		}
		fmt.Fprintf(stdout, "%s  %s  %-12s  %-14s  %s\n", s.ID, s.DateInspection, s.Plate, verdict, s.Client)
	}
	return nil
}

func cmdPull(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("pull", flag.ContinueOnError)
	dir := fs.String("o", ".", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c, err := newClient()
	if err != nil {
		return err
	}
	list, err := c.List(ctx)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(list))
	for _, s := range list {
		ids = append(ids, s.ID)
	}
	if len(ids) == 0 {
		fmt.Fprintln(stdout, "nothing to pull")
		return nil
	}

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		return err
	}
	var written, missing int
	for start := 0; start < len(ids); start += pullBatch {
		end := min(start+pullBatch, len(ids))
		pulled, err := c.Pull(ctx, ids[start:end])
		if err != nil {
			return err
		}
		for _, rec := range pulled.Inspections {
			if err := writeRecord(filepath.Join(*dir, rec.ID+".json"), rec); err != nil {
				return err
			}
		}
		written += len(pulled.Inspections)
		missing += len(pulled.Missing)
	}
	fmt.Fprintf(stdout, "pulled %d record(s), %d missing\n", written, missing)
	return nil
}
