package contract

import (
	"path"
	"strings"
	"time"

	"github.com/toyz/feigo/internal/errors"
)

// SourceLocation points at the declaration a description was built from.
type SourceLocation = errors.SourceLocation

// TypeKind classifies a TypeRef.
type TypeKind int

const (
	KindBasic TypeKind = iota
	KindNamed
	KindMap
	KindSlice
	KindPointer
	KindTypeVar
	KindInterface
	KindFunc
	KindOther
)

// String returns the kind name
func (k TypeKind) String() string {
	switch k {
	case KindBasic:
		return "basic"
	case KindNamed:
		return "named"
	case KindMap:
		return "map"
	case KindSlice:
		return "slice"
	case KindPointer:
		return "pointer"
	case KindTypeVar:
		return "typevar"
	case KindInterface:
		return "interface"
	case KindFunc:
		return "func"
	default:
		return "other"
	}
}

// TypeRef is a frontend-independent description of a Go type.
//
// Args carries type arguments for named types, key and element for maps and
// the element for slices and pointers. Supers lists the types a named type is
// known to satisfy or be built from: embedded interfaces, and for non-generic
// named types their underlying type.
type TypeRef struct {
	Kind    TypeKind  `json:"kind" yaml:"kind"`
	Package string    `json:"package,omitempty" yaml:"package,omitempty"`
	Name    string    `json:"name,omitempty" yaml:"name,omitempty"`
	Args    []TypeRef `json:"args,omitempty" yaml:"args,omitempty"`
	Supers  []TypeRef `json:"-" yaml:"-"`
}

// Basic returns a predeclared type such as string or int.
func Basic(name string) TypeRef {
	return TypeRef{Kind: KindBasic, Name: name}
}

// Named returns a declared type, optionally instantiated with type arguments.
func Named(pkg, name string, args ...TypeRef) TypeRef {
	return TypeRef{Kind: KindNamed, Package: pkg, Name: name, Args: args}
}

// MapOf returns map[key]elem.
func MapOf(key, elem TypeRef) TypeRef {
	return TypeRef{Kind: KindMap, Args: []TypeRef{key, elem}}
}

// SliceOf returns []elem.
func SliceOf(elem TypeRef) TypeRef {
	return TypeRef{Kind: KindSlice, Args: []TypeRef{elem}}
}

// PointerTo returns *elem.
func PointerTo(elem TypeRef) TypeRef {
	return TypeRef{Kind: KindPointer, Args: []TypeRef{elem}}
}

// TypeVar returns a reference to a type parameter.
func TypeVar(name string) TypeRef {
	return TypeRef{Kind: KindTypeVar, Name: name}
}

// WithSupers returns a copy of t carrying the given super types.
func (t TypeRef) WithSupers(supers ...TypeRef) TypeRef {
	t.Supers = append(append([]TypeRef(nil), t.Supers...), supers...)
	return t
}

// Raw drops type arguments from a named type. Other kinds are returned as is.
func (t TypeRef) Raw() TypeRef {
	if t.Kind != KindNamed {
		return t
	}
	t.Args = nil
	return t
}

// IsParameterized reports whether t carries type arguments.
func (t TypeRef) IsParameterized() bool {
	return len(t.Args) > 0
}

// IsZero reports whether t is the zero TypeRef, used for "no type".
func (t TypeRef) IsZero() bool {
	return t.Kind == KindBasic && t.Name == "" && t.Package == "" && len(t.Args) == 0
}

// Elem returns the pointed-to type for pointers and t otherwise.
func (t TypeRef) Elem() TypeRef {
	if t.Kind == KindPointer && len(t.Args) == 1 {
		return t.Args[0]
	}
	return t
}

// Equal compares identity ignoring Supers.
func (t TypeRef) Equal(o TypeRef) bool {
	if t.Kind != o.Kind || t.Package != o.Package || t.Name != o.Name || len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// String renders t in Go syntax, qualifying named types by package name.
func (t TypeRef) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t TypeRef) write(sb *strings.Builder) {
	switch t.Kind {
	case KindMap:
		sb.WriteString("map[")
		t.arg(0).write(sb)
		sb.WriteString("]")
		t.arg(1).write(sb)
	case KindSlice:
		sb.WriteString("[]")
		t.arg(0).write(sb)
	case KindPointer:
		sb.WriteString("*")
		t.arg(0).write(sb)
	case KindNamed:
		if t.Package != "" {
			sb.WriteString(path.Base(t.Package))
			sb.WriteString(".")
		}
		sb.WriteString(t.Name)
		if len(t.Args) > 0 {
			sb.WriteString("[")
			for i, a := range t.Args {
				if i > 0 {
					sb.WriteString(",")
				}
				a.write(sb)
			}
			sb.WriteString("]")
		}
	default:
		sb.WriteString(t.Name)
	}
}

func (t TypeRef) arg(i int) TypeRef {
	if i < len(t.Args) {
		return t.Args[i]
	}
	return Basic("invalid")
}

// Well-known types recognised by the parser.
var (
	URIType     = Named("net/url", "URL")
	OptionsType = Named("github.com/toyz/feigo/pkg/contract", "Options")
	ContextType = Named("context", "Context")
	StringType  = Basic("string")
)

// IsURI reports whether t is url.URL or *url.URL.
func IsURI(t TypeRef) bool {
	return t.Elem().Equal(URIType)
}

// IsOptions reports whether t carries per-call options rather than request data.
func IsOptions(t TypeRef) bool {
	e := t.Elem()
	return e.Equal(OptionsType) || e.Equal(ContextType)
}

// IsMapLike reports whether t is a map or a named type built on one.
func IsMapLike(t TypeRef) bool {
	return isMapLike(t, 0)
}

func isMapLike(t TypeRef, depth int) bool {
	if t.Kind == KindMap {
		return true
	}
	if depth > 16 {
		return false
	}
	for _, s := range t.Supers {
		if isMapLike(s, depth+1) {
			return true
		}
	}
	return false
}

// Options are per-call settings passed alongside request data. Parameters of
// this type (or context.Context) never become the request body.
type Options struct {
	ConnectTimeout  time.Duration
	ReadTimeout     time.Duration
	FollowRedirects bool
}

// Marker is a declarative tag attached to an interface, method or parameter.
type Marker struct {
	Kind     string            `json:"kind" yaml:"kind"`
	Values   []string          `json:"values,omitempty" yaml:"values,omitempty"`
	Options  map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
	Location SourceLocation    `json:"-" yaml:"-"`
}

// Value joins the positional values with single spaces.
func (m Marker) Value() string {
	return strings.Join(m.Values, " ")
}

// Option returns a named option and whether it was present.
func (m Marker) Option(name string) (string, bool) {
	v, ok := m.Options[name]
	return v, ok
}

// Flag reports whether a boolean option is set. A bare -Flag counts as true.
func (m Marker) Flag(name string) bool {
	v, ok := m.Options[name]
	if !ok {
		return false
	}
	switch strings.ToLower(v) {
	case "", "true", "1", "yes":
		return true
	}
	return false
}

// InterfaceDesc describes one interface to be parsed.
type InterfaceDesc struct {
	Name       string
	Package    string
	TypeParams []string
	Parents    []ParentRef
	Markers    []Marker
	Methods    []*MethodDesc
	Location   SourceLocation
}

// ParentRef is an embedded interface together with the type arguments it was
// instantiated with.
type ParentRef struct {
	Desc     *InterfaceDesc
	TypeArgs []TypeRef
}

// QualifiedName returns pkg.Name.
func (d *InterfaceDesc) QualifiedName() string {
	if d.Package == "" {
		return d.Name
	}
	return path.Base(d.Package) + "." + d.Name
}

// Parent returns the single parent or nil.
func (d *InterfaceDesc) Parent() *InterfaceDesc {
	if len(d.Parents) == 0 {
		return nil
	}
	return d.Parents[0].Desc
}

// MethodDesc describes one method of an interface.
type MethodDesc struct {
	Name      string
	Params    []ParamDesc
	Markers   []Marker
	Return    TypeRef
	Declaring *InterfaceDesc

	// Static, Default and FromRoot are set by frontends whose source language
	// has such methods. They are skipped by the parser.
	Static   bool
	Default  bool
	FromRoot bool

	Location SourceLocation
}

// ParamDesc describes one method parameter.
type ParamDesc struct {
	Name    string
	Type    TypeRef
	Markers []Marker
}
