// Package markers parses //feigo:: comment markers into contract.Marker values.
//
// A marker has the shape
//
//	//feigo::<kind> [values...] [-Option=value | -Flag]...
//
// Values are bare words or double-quoted strings. Options may appear anywhere
// after the kind.
package markers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/toyz/feigo/internal/errors"
	"github.com/toyz/feigo/pkg/contract"
)

// DefaultPrefix is the namespace used when none is configured.
const DefaultPrefix = "feigo"

var kindPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Parser turns marker comments into contract.Marker values. It is safe for
// concurrent use.
type Parser struct {
	prefix string
	parser *participle.Parser[markerArgs]
}

// markerArgs is everything after the kind.
type markerArgs struct {
	Items []*argument `parser:"@@*"`
}

type argument struct {
	Option *option `parser:"  @@"`
	Value  *string `parser:"| @(String | Word)"`
}

type option struct {
	Name  string  `parser:"@Option"`
	Value *string `parser:"( Equals @(String | Word) )?"`
}

var markerLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Option", Pattern: `-[A-Za-z][A-Za-z0-9_]*`},
	{Name: "Equals", Pattern: `=`},
	{Name: "Word", Pattern: `[^\s"=][^\s"]*`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// NewParser creates a parser for markers in the given namespace. An empty
// prefix selects DefaultPrefix.
func NewParser(prefix string) *Parser {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Parser{
		prefix: prefix,
		parser: participle.MustBuild[markerArgs](
			participle.Lexer(markerLexer),
			participle.Elide("Whitespace"),
			participle.Unquote("String"),
		),
	}
}

// Prefix returns the marker namespace.
func (p *Parser) Prefix() string { return p.prefix }

// IsMarker reports whether a comment line is a marker of this namespace.
func (p *Parser) IsMarker(comment string) bool {
	content, ok := stripComment(comment)
	return ok && strings.HasPrefix(content, p.prefix+"::")
}

// Parse parses one comment line. The line must start with // followed by
// the namespace and "::".
func (p *Parser) Parse(comment string, loc errors.SourceLocation) (contract.Marker, error) {
	kind, rest, err := p.parseBasicStructure(comment)
	if err != nil {
		return contract.Marker{}, errors.SyntaxError(loc, "invalid marker %q: %v", strings.TrimSpace(comment), err).
			WithSuggestion(fmt.Sprintf("Markers look like //%s::kind value -Option=value", p.prefix))
	}

	marker := contract.Marker{Kind: kind, Location: loc}
	if rest == "" {
		return marker, nil
	}

	args, err := p.parser.ParseString(loc.File, rest)
	if err != nil {
		return contract.Marker{}, errors.WrapParseError(fmt.Sprintf("marker %s", kind), err).WithLocation(loc)
	}

	for _, arg := range args.Items {
		switch {
		case arg.Option != nil:
			if marker.Options == nil {
				marker.Options = make(map[string]string)
			}
			name := strings.TrimPrefix(arg.Option.Name, "-")
			if _, dup := marker.Options[name]; dup {
				return contract.Marker{}, errors.SyntaxError(loc, "marker %s repeats option -%s", kind, name)
			}
			value := ""
			if arg.Option.Value != nil {
				value = *arg.Option.Value
			}
			marker.Options[name] = value
		case arg.Value != nil:
			marker.Values = append(marker.Values, *arg.Value)
		}
	}
	return marker, nil
}

// parseBasicStructure strips the comment and namespace and splits off the kind.
func (p *Parser) parseBasicStructure(comment string) (kind, rest string, err error) {
	content, ok := stripComment(comment)
	if !ok {
		return "", "", fmt.Errorf("marker must start with '//'")
	}
	if !strings.HasPrefix(content, p.prefix+"::") {
		return "", "", fmt.Errorf("marker must contain '%s::' prefix", p.prefix)
	}
	content = strings.TrimPrefix(content, p.prefix+"::")

	fields := strings.Fields(content)
	if len(fields) == 0 {
		return "", "", fmt.Errorf("empty marker")
	}
	kind = fields[0]
	if !kindPattern.MatchString(kind) {
		return "", "", fmt.Errorf("marker kind %q must be lower_snake_case", kind)
	}
	if !strings.HasPrefix(content, kind) {
		return "", "", fmt.Errorf("marker kind must follow '%s::' directly", p.prefix)
	}
	rest = strings.TrimSpace(strings.TrimPrefix(content, kind))
	return kind, rest, nil
}

func stripComment(comment string) (string, bool) {
	comment = strings.TrimSpace(comment)
	if !strings.HasPrefix(comment, "//") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(comment, "//")), true
}
