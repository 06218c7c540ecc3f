// Package scan turns marked Go interfaces into contract.InterfaceDesc values.
//
// Markers are ordinary line comments in the doc comment of an interface type
// or one of its methods:
//
//	//feigo::headers "Accept: application/json"
//	type Users interface {
//		//feigo::request_line GET /users/{id}
//		//feigo::param id
//		Get(ctx context.Context, id string) (*User, error)
//	}
//
// A parameter-scoped marker names its target parameter with its first value.
package scan

import (
	"context"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"log/slog"

	"golang.org/x/tools/go/packages"

	"github.com/toyz/feigo/internal/errors"
	"github.com/toyz/feigo/internal/markers"
	"github.com/toyz/feigo/pkg/contract"
)

// loadMode is what the scanner needs from go/packages.
const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo

// Scanner finds marked interfaces in Go source.
type Scanner struct {
	markers    *markers.Parser
	paramKinds map[string]bool
	logger     *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithPrefix sets the marker namespace. The default is markers.DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Scanner) {
		s.markers = markers.NewParser(prefix)
	}
}

// WithParameterKinds sets the marker kinds that are routed to parameters.
func WithParameterKinds(kinds ...string) Option {
	return func(s *Scanner) {
		s.paramKinds = make(map[string]bool, len(kinds))
		for _, k := range kinds {
			s.paramKinds[k] = true
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// New creates a Scanner. Without options it reads //feigo:: markers and
// routes the parameter kinds of contract.DefaultRules.
func New(opts ...Option) *Scanner {
	_, _, paramKinds := contract.DefaultRules().Kinds()
	s := &Scanner{markers: markers.NewParser("")}
	WithParameterKinds(paramKinds...)(s)
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Prefix returns the marker namespace the scanner reads.
func (s *Scanner) Prefix() string { return s.markers.Prefix() }

// Load loads the packages matching patterns relative to dir and returns the
// target interfaces in package and declaration order.
func (s *Scanner) Load(ctx context.Context, dir string, patterns ...string) ([]*contract.InterfaceDesc, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	fset := token.NewFileSet()
	cfg := &packages.Config{
		Context: ctx,
		Mode:    loadMode,
		Dir:     dir,
		Fset:    fset,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, errors.WrapWithOperation("load", "packages", err)
	}

	b := newBuilder(s, fset)
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, errors.WrapParseError(pkg.PkgPath, pkg.Errors[0])
		}
		b.index(pkg.Syntax, pkg.TypesInfo)
	}
	return b.targets()
}

// ScanSource type-checks a single file held in memory and returns its target
// interfaces. Imports are resolved from source.
func (s *Scanner) ScanSource(filename, src string) ([]*contract.InterfaceDesc, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, errors.WrapParseError(filename, err)
	}

	info := &types.Info{
		Defs: make(map[*ast.Ident]types.Object),
		Uses: make(map[*ast.Ident]types.Object),
	}
	conf := types.Config{Importer: importer.ForCompiler(fset, "source", nil)}
	if _, err := conf.Check(file.Name.Name, fset, []*ast.File{file}, info); err != nil {
		return nil, errors.WrapParseError(filename, err)
	}

	b := newBuilder(s, fset)
	b.index([]*ast.File{file}, info)
	return b.targets()
}
