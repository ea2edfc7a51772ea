package driver

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"

	werrors "tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/kerbalko/ksmld/internal/ko"
	"github.com/kerbalko/ksmld/internal/ksm"
	"github.com/kerbalko/ksmld/internal/link"
)

// InternalError marks an internal-invariant violation: a
// linker bug rather than a user input error. cmd/ksmld reports these
// under a distinct diagnostic class and exit code.
type InternalError struct{ Err error }

func (e *InternalError) Error() string { return "internal: " + e.Err.Error() }
func (e *InternalError) Unwrap() error { return e.Err }

// Link runs one full link invocation: it
// parses every input, resolves symbols, computes the live set, orders
// and emits surviving code, then gzip-wraps and writes the result to
// cfg.OutputPath(). A fresh Config and a fresh set of *ko.Image live
// only for the duration of this call; nothing is shared across
// concurrent calls. No partial output is written: the file is created
// only once every byte has been produced successfully.
func Link(ctx context.Context, cfg Config) error {
	units := make([]*link.Unit, 0, len(cfg.Inputs))
	for i, path := range cfg.Inputs {
		raw, err := os.ReadFile(path)
		if err != nil {
			return werrors.Wrap(err, "read %s", path)
		}
		img, err := ko.Parse(raw)
		if err != nil {
			return werrors.Wrap(err, "parse %s", path)
		}
		tlog.Printw("read input", "path", path, "bytes", len(raw), "sections", len(img.Headers))
		units = append(units, link.NewUnit(path, i, img))
	}

	globals, err := link.Resolve(units)
	if err != nil {
		return werrors.Wrap(err, "resolve symbols")
	}

	entry, err := link.EntryPoint(globals, cfg.Shared, cfg.Entry)
	if err != nil {
		return werrors.Wrap(err, "entry point")
	}

	initSym, hasInit := link.InitPoint(globals)
	if cfg.Shared {
		// EntryPoint already required "_init" to exist and be a Func
		// in shared mode, so entry and initSym name the
		// same symbol here.
		initSym, hasInit = entry, true
	}

	roots := []*link.ResolvedSymbol{entry}
	if !cfg.Shared && hasInit {
		roots = append(roots, initSym)
	}
	live := link.MarkLive(roots)
	tlog.Printw("reachability", "entry", entry.Name, "shared", cfg.Shared, "live functions", len(live))

	order := link.Order(units, live, initSym, entry, cfg.Shared)

	out, err := ksm.Write(order, initSym, entry, cfg.Shared)
	if err != nil {
		if errors.Is(err, link.ErrLostRelocation) {
			return &InternalError{Err: werrors.Wrap(err, "emit ksm")}
		}
		return werrors.Wrap(err, "emit ksm")
	}
	tlog.Printw("layout", "functions", len(order), "uncompressed bytes", len(out))

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	if _, err := zw.Write(out); err != nil {
		return werrors.Wrap(err, "gzip")
	}
	if err := zw.Close(); err != nil {
		return werrors.Wrap(err, "gzip")
	}

	outPath := cfg.OutputPath()
	if err := os.WriteFile(outPath, gz.Bytes(), 0o644); err != nil {
		return werrors.Wrap(err, "write %s", outPath)
	}
	tlog.Printw("link complete", "output", outPath, "compressed bytes", gz.Len())
	return nil
}
