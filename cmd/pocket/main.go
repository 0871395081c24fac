// Package main provides the pocket CLI.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/born-ml/pocket/model"
)

const version = "v0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stdout)
		return 2
	}

	var err error
	switch args[0] {
	case "version":
		_, err = fmt.Fprintf(stdout, "pocket %s\n", version)
	case "info":
		err = runInfo(args[1:], stdout, stderr)
	case "predict":
		err = runPredict(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}

	if err != nil {
		_, _ = fmt.Fprintf(stderr, "pocket %s: %v\n", args[0], err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	_, _ = fmt.Fprintf(w, "pocket %s - CPU inference for sequence models\n\n", version)
	_, _ = fmt.Fprintln(w, "Commands:")
	_, _ = fmt.Fprintln(w, "  version                            Show version")
	_, _ = fmt.Fprintln(w, "  info    -model m.pktm              Show host features and model layers")
	_, _ = fmt.Fprintln(w, "  predict -model m.pktm in.json...   Run inference on JSON tensors")
}

// commonFlags are shared by every command that loads a model.
type commonFlags struct {
	model        string
	threads      int
	maxThreads   int
	unroll       bool
	skipChecksum bool
	verbose      bool
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *commonFlags) {
	defaults := model.DefaultParallelConfig()
	c := &commonFlags{}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&c.model, "model", "", "path to the model file")
	fs.IntVar(&c.threads, "threads", defaults.Threads, "worker threads")
	fs.IntVar(&c.maxThreads, "max-threads", defaults.MaxThreads, "upper bound on worker threads")
	fs.BoolVar(&c.unroll, "unroll", defaults.Unroll, "use the double-width reduction when aligned")
	fs.BoolVar(&c.skipChecksum, "skip-checksum", false, "do not verify the model body checksum")
	fs.BoolVar(&c.verbose, "v", false, "verbose logging")
	return fs, c
}

func (c *commonFlags) options(stderr io.Writer) model.Options {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}

	opts := model.DefaultOptions()
	opts.Parallel = model.ParallelConfig{
		Threads:    c.threads,
		MaxThreads: c.maxThreads,
		Unroll:     c.unroll,
	}
	opts.SkipChecksum = c.skipChecksum
	opts.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	return opts
}

func (c *commonFlags) load(stderr io.Writer) (*model.Model, error) {
	if c.model == "" {
		return nil, fmt.Errorf("-model is required")
	}
	return model.LoadFile(c.model, c.options(stderr))
}
