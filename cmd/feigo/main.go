package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/toyz/feigo/internal/cli"
	"github.com/toyz/feigo/internal/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one invocation and returns the exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("feigo", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configFlag = fs.String("config", "", "Path to a feigo.yaml config file (default ./feigo.yaml when present)")
		dirFlag    = fs.String("dir", "", "Directory patterns are resolved against (default .)")
		formatFlag = fs.String("format", "", "Output format: json or yaml")
		outFlag    = fs.String("out", "", "Write projections to this file instead of stdout")
		bodyFlag   = fs.Bool("always-encode-body", false, "Allow form parameters and a body parameter on the same method")
		prefixFlag = fs.String("prefix", "", "Marker namespace (default feigo)")
		watchFlag  = fs.Bool("watch", false, "Re-run whenever Go sources under the patterns change")
		verbose    = fs.Bool("verbose", false, "Enable verbose output and detailed error reporting")
		quiet      = fs.Bool("quiet", false, "Only show errors")
		helpFlag   = fs.Bool("help", false, "Show help information")
	)

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: feigo [options] <package-patterns...>\n\n")
		fmt.Fprintf(stderr, "Feigo HTTP Contract Parser\n")
		fmt.Fprintf(stderr, "Scans Go interfaces with feigo:: markers and writes their request descriptors.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nArguments:\n")
		fmt.Fprintf(stderr, "  package-patterns   Go package patterns, ./... when omitted\n")
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  feigo ./...                          # Describe every marked interface\n")
		fmt.Fprintf(stderr, "  feigo -format yaml ./api/...         # YAML instead of JSON\n")
		fmt.Fprintf(stderr, "  feigo -out contracts.json ./clients  # Write to a file\n")
		fmt.Fprintf(stderr, "  feigo -watch -out contracts.json     # Regenerate on change\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *helpFlag {
		fs.Usage()
		return 0
	}

	cfg, err := cli.LoadConfig(*configFlag)
	if err != nil {
		cli.NewDiagnosticReporter(stderr, *verbose).ReportError(err)
		return 1
	}

	// Flags only override the file when given explicitly.
	var flags cli.Overrides
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			flags.Dir = dirFlag
		case "format":
			flags.Format = formatFlag
		case "out":
			flags.Output = outFlag
		case "always-encode-body":
			flags.AlwaysEncodeBody = bodyFlag
		case "prefix":
			flags.MarkerPrefix = prefixFlag
		case "watch":
			flags.Watch = watchFlag
		case "verbose":
			flags.Verbose = verbose
		case "quiet":
			flags.Quiet = quiet
		}
	})
	if fs.NArg() > 0 {
		flags.Patterns = fs.Args()
	}
	cfg.Merge(flags)

	diag := newDiagnostics(cfg, stdout, stderr)

	logger := newLogger(cfg, stderr)

	runner, err := cli.NewRunner(cfg, diag, cli.WithStdout(stdout), cli.WithRunnerLogger(logger))
	if err != nil {
		cli.NewDiagnosticReporter(stderr, cfg.Verbose).ReportError(err)
		return 1
	}

	diag.Header("HTTP Contract Parser")
	if cfg.Verbose {
		diag.Subsection("Configuration")
		diag.Indent()
		diag.List("Directory: %s", cfg.Dir)
		diag.List("Patterns: %s", strings.Join(cfg.Patterns, ", "))
		diag.List("Format: %s", cfg.Format)
		diag.List("Marker prefix: %s", cfg.MarkerPrefix)
		diag.Unindent()
		fmt.Fprintln(diag.Output())
	}

	status := runOnce(ctx, runner, diag)
	if !cfg.Watch {
		return status
	}

	diag.Info("Watching %s for changes (Ctrl+C to stop)", strings.Join(cfg.Patterns, ", "))
	watcher := cli.NewWatcher(cfg.Dir, cfg.Patterns, func(ctx context.Context, changed []string) {
		diag.Info("%d file(s) changed", len(changed))
		for _, path := range changed {
			diag.Verbose("changed: %s", path)
		}
		runOnce(ctx, runner, diag)
	}, cli.WithWatchDebounce(cfg.Debounce), cli.WithWatchLogger(logger))

	if err := watcher.Run(ctx); err != nil {
		runner.Reporter().ReportError(err)
		return 1
	}
	return 0
}

// runOnce performs one run and prints its summary.
func runOnce(ctx context.Context, runner *cli.Runner, diag *utils.DiagnosticSystem) int {
	summary, err := runner.Run(ctx)
	if err != nil {
		runner.Reporter().ReportError(err)
		return 1
	}

	diag.Summary("Parsing Complete!", map[string]interface{}{
		"Interfaces": summary.Interfaces,
		"Methods":    summary.Methods,
		"Ignored":    summary.Ignored,
		"Warnings":   summary.Warnings,
		"Output":     summary.Output,
	})
	diag.Complete(fmt.Sprintf("done in %s", summary.Duration.Round(time.Millisecond)))
	return 0
}

// newLogger returns the structured logger handed to the scanner, parser and
// watcher. Their Debug lines only show with -verbose.
func newLogger(cfg cli.Config, stderr io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

// newDiagnostics picks the level from cfg. When projections go to stdout the
// progress output moves to stderr so the document stays parseable.
func newDiagnostics(cfg cli.Config, stdout, stderr io.Writer) *utils.DiagnosticSystem {
	var diag *utils.DiagnosticSystem
	switch {
	case cfg.Quiet:
		diag = utils.NewQuietDiagnostics()
	case cfg.Verbose:
		diag = utils.NewVerboseDiagnostics()
	default:
		diag = utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	}

	if stdout != os.Stdout || stderr != os.Stderr {
		diag.SetOutput(stdout, stderr)
	}
	if cfg.WritesToStdout() {
		diag.RedirectOutput(stderr)
	}
	return diag
}
