package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pixbake/pngopt/internal/policy"

	pngopt "github.com/pixbake/pngopt"
)

func main() {
	force := flag.Bool("force", false, "write output even if no size improvement was found")
	fixErrors := flag.Bool("fix-errors", false, "tolerate recoverable chunk CRC errors")
	preset := flag.Int("preset", int(pngopt.Preset2), "preset level 0-6 (7 = Max)")
	strip := flag.String("strip", "safe", "ancillary chunk strip policy: none, safe, all")
	verbose := flag.Bool("v", false, "log the file size before and after optimizing")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: pngopt [flags] <input.png>")
		os.Exit(1)
	}
	path := flag.Arg(0)

	opts := pngopt.Options{
		Force:       *force,
		FixErrors:   *fixErrors,
		PresetLevel: pngopt.PresetLevel(*preset),
		Timeout:     2 * time.Minute,
	}
	switch *strip {
	case "none":
		opts.Strip = policy.Policy{Mode: policy.None}
	case "all":
		opts.Strip = policy.Policy{Mode: policy.All}
	default:
		opts.Strip = policy.Policy{Mode: policy.Safe}
	}

	before, err := os.Stat(path)
	if err != nil {
		logger.Error("could not stat input file", "path", path, "err", err)
		os.Exit(1)
	}

	if err := pngopt.OptimizeInPlace(path, opts); err != nil {
		logger.Error("optimize failed", "path", path, "err", err)
		os.Exit(1)
	}

	after, err := os.Stat(path)
	if err != nil {
		logger.Error("could not stat output file", "path", path, "err", err)
		os.Exit(1)
	}
	logger.Info("optimized", "path", path, "before", before.Size(), "after", after.Size())
}
