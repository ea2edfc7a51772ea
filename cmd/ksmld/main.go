// Command ksmld links one or more KerbalObject (KO) files into a
// single KerboScript Machine code (KSM) file: parse args, build
// in-memory inputs, run the link passes, write the output, exit
// non-zero on failure.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"nikand.dev/go/cli"
	werrors "tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/kerbalko/ksmld/internal/driver"
)

func main() {
	app := &cli.Command{
		Name:        "ksmld",
		Description: "links KerbalObject (KO) files into a KerboScript Machine code (KSM) file",
		Flags: []*cli.Flag{
			cli.NewFlag("output,o", "", "output KSM path (required; .ksm is appended if missing)"),
			cli.NewFlag("shared,s", false, "link a shared library (requires _init, suppresses the entry section)"),
			cli.NewFlag("entry,e", "", "override the default _start entry symbol (ignored with -shared)"),
		},
		Args:   cli.Args{},
		Action: link,
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func link(c *cli.Command) error {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	output := c.String("output")
	if output == "" {
		return werrors.New("-o/--output is required")
	}
	if len(c.Args) == 0 {
		return werrors.New("at least one KO input file is required")
	}

	cfg := driver.Config{
		Inputs: []string(c.Args),
		Output: output,
		Shared: c.Bool("shared"),
		Entry:  c.String("entry"),
	}

	if err := driver.Link(ctx, cfg); err != nil {
		var ie *driver.InternalError
		if errors.As(err, &ie) {
			fmt.Fprintf(os.Stderr, "ksmld: internal error: %v\n", err)
			os.Exit(2)
		}
		return werrors.Wrap(err, "link")
	}

	return nil
}
