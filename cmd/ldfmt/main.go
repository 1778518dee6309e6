// Command ldfmt reads an LDraw file, reports its problems and writes it
// back under one of the output standards.
//
// Usage:
//
//	ldfmt [-standard full|library|repository] [-o out] [-check] [-fix] [-v] file
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gogpu/ldraw"
	"github.com/gogpu/ldraw/config"
	"github.com/gogpu/ldraw/library"
	"github.com/gogpu/ldraw/recording"
)

func main() {
	var (
		standard = flag.String("standard", "full", "output standard: full, library or repository")
		output   = flag.String("o", "", "output file (default stdout)")
		check    = flag.Bool("check", false, "report problems and exit 1 if any is an error")
		fix      = flag.Bool("fix", false, "apply available repairs before writing")
		verbose  = flag.Bool("v", false, "log progress to stderr")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ldfmt [flags] file")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if *verbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		slog.SetDefault(logger)
		ldraw.SetLogger(logger)
	}

	if err := run(flag.Arg(0), *standard, *output, *check, *fix); err != nil {
		fmt.Fprintln(os.Stderr, "ldfmt:", err)
		os.Exit(1)
	}
}

func run(path, standard, output string, check, fix bool) error {
	std, ok := ldraw.ParseStandard(standard)
	if !ok {
		return fmt.Errorf("unknown standard %q", standard)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, err := ldraw.NewContext(cfg)
	if err != nil {
		return err
	}
	if len(cfg.SearchPath) > 0 {
		ctx = library.NewWithContext(ctx, cfg.CacheSize, cfg.SearchPath...).Context()
	}

	doc, err := ldraw.Open(ctx, path, ldraw.WithProgress(func(name string, progress int) bool {
		if progress >= 0 {
			slog.Debug("ldfmt: loading", "name", name, "progress", progress)
		}
		return true
	}))
	if err != nil {
		return err
	}
	defer doc.Dispose()

	problems := ldraw.Diagnostics(doc.Analyse(ctx, std))
	for _, p := range problems {
		fmt.Fprintln(os.Stderr, p)
	}
	if check {
		if problems.HasErrors() {
			return fmt.Errorf("%s: %d problems, worst %s", path, len(problems), problems.Worst())
		}
		return nil
	}

	if fix {
		rec, err := recording.NewRecorder("journal")
		if err != nil {
			return err
		}
		doc.SetRecorder(rec)
		var n int
		if err := doc.Batch("repair", func() error {
			var rerr error
			n, rerr = problems.RepairAll()
			return rerr
		}); err != nil {
			return err
		}
		if j, ok := rec.(*recording.Journal); ok {
			slog.Info("ldfmt: repaired", "problems", n, "changes", len(j.Commands()))
		}
	}

	code := doc.Code(ctx, std)
	if output == "" {
		_, err = os.Stdout.WriteString(code)
		return err
	}
	return os.WriteFile(output, []byte(code), 0o644)
}
