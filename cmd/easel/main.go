// Package main is the entry point for the Easel canvas backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/easel/internal/app"
	"github.com/dshills/easel/internal/config"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	if opts == nil {
		return 0
	}

	application, err := app.New(*opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// parseFlags builds application options from the command line. It returns
// nil options when the invocation only asked for version information.
func parseFlags(fs *flag.FlagSet, args []string) (*app.Options, error) {
	var (
		opts        app.Options
		addr        string
		stdio       bool
		logLevel    string
		storageDir  string
		capacity    int
		showVersion bool
	)

	fs.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file (YAML or TOML)")
	fs.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&addr, "addr", "", "HTTP listen address (default from config, "+config.Default().Server.Addr+")")
	fs.BoolVar(&stdio, "stdio", false, "Serve JSON line commands on stdin/stdout instead of HTTP")
	fs.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&storageDir, "storage-dir", "", "Directory for saved images")
	fs.IntVar(&capacity, "capacity", 0, "Snapshots kept per history stack")
	fs.BoolVar(&showVersion, "version", false, "Show version information")
	fs.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Easel - drawing canvas backend with undo/redo history\n\n")
		fmt.Fprintf(out, "Usage: easel [options]\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  easel                           Serve HTTP on the configured address\n")
		fmt.Fprintf(out, "  easel -addr :9000               Serve HTTP on port 9000\n")
		fmt.Fprintf(out, "  easel -stdio -log-level debug   Serve commands over stdin/stdout\n")
		fmt.Fprintf(out, "  easel -c easel.toml             Load settings from a file\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if showVersion {
		fmt.Printf("Easel %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		return nil, nil
	}

	if opts.ConfigPath == "" {
		opts.ConfigPath = os.Getenv("EASEL_CONFIG")
	}

	// Only flags given on the command line override file and environment.
	opts.Overrides = make(map[string]any)
	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			opts.Overrides["server.addr"] = addr
		case "stdio":
			opts.Overrides["server.stdio"] = stdio
		case "log-level":
			switch logLevel {
			case "debug", "info", "warn", "error":
				opts.Overrides["logging.level"] = logLevel
			default:
				flagErr = fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", logLevel)
			}
		case "storage-dir":
			opts.Overrides["storage.dir"] = storageDir
		case "capacity":
			opts.Overrides["history.capacity"] = capacity
		}
	})
	if flagErr != nil {
		return nil, flagErr
	}
	return &opts, nil
}
