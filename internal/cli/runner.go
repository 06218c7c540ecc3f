package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/toyz/feigo/internal/errors"
	"github.com/toyz/feigo/internal/scan"
	"github.com/toyz/feigo/internal/utils"
	"github.com/toyz/feigo/pkg/contract"
)

// Document is what a run writes out.
type Document struct {
	Module     string              `json:"module,omitempty" yaml:"module,omitempty"`
	Interfaces []InterfaceDocument `json:"interfaces" yaml:"interfaces"`
}

// InterfaceDocument holds the descriptors of one interface.
type InterfaceDocument struct {
	Name    string                `json:"name" yaml:"name"`
	Package string                `json:"package" yaml:"package"`
	Methods []contract.Projection `json:"methods" yaml:"methods"`
}

// Summary contains information about one run
type Summary struct {
	Interfaces int
	Methods    int
	Ignored    int
	Warnings   int
	Output     string
	Duration   time.Duration
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets the slog logger handed to the scanner and parser.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithStdout sets where projections go when no output file is configured.
func WithStdout(w io.Writer) RunnerOption {
	return func(r *Runner) { r.stdout = w }
}

// Runner scans packages, parses every target interface and writes the
// projections.
type Runner struct {
	cfg      Config
	diag     *utils.DiagnosticSystem
	reporter *DiagnosticReporter
	logger   *slog.Logger
	stdout   io.Writer
	scanner  *scan.Scanner
	parser   *contract.Parser
}

// NewRunner validates cfg and wires the scanner and parser for it.
func NewRunner(cfg Config, diag *utils.DiagnosticSystem, opts ...RunnerOption) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:    cfg,
		diag:   diag,
		logger: slog.Default(),
		stdout: os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.reporter = NewDiagnosticReporter(diag.ErrorOutput(), cfg.Verbose)

	var ruleOpts []contract.RuleSetOption
	if cfg.AlwaysEncodeBody {
		ruleOpts = append(ruleOpts, contract.WithAlwaysEncodeBody())
	}
	rules := contract.DefaultRules(ruleOpts...)
	_, _, paramKinds := rules.Kinds()

	r.scanner = scan.New(
		scan.WithPrefix(cfg.MarkerPrefix),
		scan.WithParameterKinds(paramKinds...),
		scan.WithLogger(r.logger),
	)
	r.parser = contract.NewParser(rules, contract.WithLogger(r.logger))
	return r, nil
}

// Config returns the configuration the runner was built with.
func (r *Runner) Config() Config { return r.cfg }

// Reporter returns the reporter used for warnings and errors.
func (r *Runner) Reporter() *DiagnosticReporter { return r.reporter }

// Run performs one scan, parse and write cycle.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	r.diag.Debug("Scanning %v in %s", r.cfg.Patterns, r.cfg.Dir)

	r.diag.PhaseHeader("Scanning")
	ifaces, err := r.scanner.Load(ctx, r.cfg.Dir, r.cfg.Patterns...)
	if err != nil {
		return Summary{}, err
	}
	for _, iface := range ifaces {
		r.diag.PhaseItem(iface.QualifiedName())
	}
	if len(ifaces) == 0 {
		r.diag.Warn("No interfaces with //%s:: markers found", r.scanner.Prefix())
	}

	r.diag.PhaseHeader("Parsing")
	results, err := r.parseAll(ctx, ifaces)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Interfaces: len(ifaces)}
	doc := Document{Module: r.modulePath(), Interfaces: make([]InterfaceDocument, 0, len(ifaces))}
	for i, iface := range ifaces {
		methods := results[i]
		r.diag.PhaseProgress(fmt.Sprintf("%s: %d methods", iface.QualifiedName(), len(methods)))
		r.diag.Indent()
		for _, md := range methods {
			r.diag.Verbose("%s %s %s", md.ConfigKey(), md.Template().Verb(), md.Template().URI())
			if md.IsIgnored() {
				summary.Ignored++
			}
			for _, w := range md.WarningList() {
				summary.Warnings++
				if r.diag.Level() >= utils.DiagnosticWarn {
					r.reporter.ReportWarning(fmt.Sprintf("%s: %s", md.ConfigKey(), w))
				}
			}
		}
		r.diag.Unindent()

		summary.Methods += len(methods)
		doc.Interfaces = append(doc.Interfaces, InterfaceDocument{
			Name:    iface.Name,
			Package: iface.Package,
			Methods: contract.Project(methods),
		})
	}

	output, err := r.write(doc)
	if err != nil {
		return Summary{}, err
	}
	summary.Output = output
	summary.Duration = time.Since(start)
	return summary, nil
}

// parseAll parses the interfaces concurrently. Results keep input order, and
// when several interfaces fail the first one in input order is reported.
func (r *Runner) parseAll(ctx context.Context, ifaces []*contract.InterfaceDesc) ([][]*contract.MethodMetadata, error) {
	results := make([][]*contract.MethodMetadata, len(ifaces))
	failures := make([]error, len(ifaces))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, iface := range ifaces {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			methods, err := r.parser.ParseAndValidate(iface)
			if err != nil {
				failures[i] = err
				return err
			}
			results[i] = methods
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, failure := range failures {
			if failure != nil {
				return nil, failure
			}
		}
		return nil, err
	}
	return results, nil
}

func (r *Runner) modulePath() string {
	mod, err := utils.FindModule(r.cfg.Dir)
	if err != nil {
		r.diag.Debug("No module found for %s: %v", r.cfg.Dir, err)
		return ""
	}
	return mod.Path
}

func (r *Runner) write(doc Document) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, r.cfg.Format, doc); err != nil {
		return "", err
	}

	if r.cfg.WritesToStdout() {
		if _, err := r.stdout.Write(buf.Bytes()); err != nil {
			return "", errors.WrapFileSystemError("write", "stdout", err)
		}
		return "stdout", nil
	}

	r.diag.PhaseProgress("Writing " + r.cfg.Output)
	if err := os.WriteFile(r.cfg.Output, buf.Bytes(), 0644); err != nil {
		return "", errors.WrapFileSystemError("write", r.cfg.Output, err)
	}
	return r.cfg.Output, nil
}

// Encode writes doc in the given format, json or yaml.
func Encode(w io.Writer, format string, doc Document) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errors.ConfigurationError("feigo", fmt.Sprintf("unknown output format %q", format))
	}
}
