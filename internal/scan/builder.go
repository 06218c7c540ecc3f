package scan

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"

	"github.com/toyz/feigo/internal/errors"
	"github.com/toyz/feigo/pkg/contract"
)

// declInfo is an interface declaration found in scanned syntax.
type declInfo struct {
	obj   *types.TypeName
	doc   *ast.CommentGroup
	iface *ast.InterfaceType
	info  *types.Info
}

// builder converts the interfaces of one scan. Descriptors are shared so an
// interface embedded by several targets is described once.
type builder struct {
	scanner *Scanner
	fset    *token.FileSet
	conv    *typeConverter
	order   []*declInfo
	decls   map[*types.TypeName]*declInfo
	descs   map[*types.TypeName]*contract.InterfaceDesc
	errs    *errors.MultipleErrors
}

func newBuilder(s *Scanner, fset *token.FileSet) *builder {
	return &builder{
		scanner: s,
		fset:    fset,
		conv:    newTypeConverter(),
		decls:   make(map[*types.TypeName]*declInfo),
		descs:   make(map[*types.TypeName]*contract.InterfaceDesc),
		errs:    errors.NewMultipleErrors(),
	}
}

// index records every interface type declared in files.
func (b *builder) index(files []*ast.File, info *types.Info) {
	for _, file := range files {
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok || ts.Assign.IsValid() {
					continue
				}
				it, ok := ts.Type.(*ast.InterfaceType)
				if !ok {
					continue
				}
				obj, ok := info.Defs[ts.Name].(*types.TypeName)
				if !ok {
					continue
				}

				doc := ts.Doc
				if doc == nil && len(gen.Specs) == 1 {
					doc = gen.Doc
				}
				d := &declInfo{obj: obj, doc: doc, iface: it, info: info}
				b.decls[obj] = d
				b.order = append(b.order, d)
			}
		}
	}
}

// targets describes every marked interface that no other scanned interface
// embeds.
func (b *builder) targets() ([]*contract.InterfaceDesc, error) {
	embedded := make(map[*types.TypeName]bool)
	for _, d := range b.order {
		for _, parent := range embeddedInterfaces(d.obj) {
			embedded[parent.Origin().Obj()] = true
		}
	}

	var out []*contract.InterfaceDesc
	for _, d := range b.order {
		if embedded[d.obj] || !b.marked(d) {
			continue
		}
		desc := b.describe(d.obj)
		b.scanner.logger.Debug("interface scanned",
			"interface", desc.QualifiedName(),
			"methods", len(desc.Methods),
			"parents", len(desc.Parents))
		out = append(out, desc)
	}

	if err := b.errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *builder) marked(d *declInfo) bool {
	if b.hasMarker(d.doc) {
		return true
	}
	for _, field := range d.iface.Methods.List {
		if len(field.Names) > 0 && b.hasMarker(field.Doc) {
			return true
		}
	}
	return false
}

func (b *builder) hasMarker(doc *ast.CommentGroup) bool {
	if doc == nil {
		return false
	}
	for _, c := range doc.List {
		if b.scanner.markers.IsMarker(c.Text) {
			return true
		}
	}
	return false
}

// describe returns the descriptor for an interface, building it on first use.
func (b *builder) describe(obj *types.TypeName) *contract.InterfaceDesc {
	if desc, ok := b.descs[obj]; ok {
		return desc
	}

	named := types.Unalias(obj.Type()).(*types.Named)
	desc := &contract.InterfaceDesc{
		Name:     obj.Name(),
		Package:  packagePath(obj),
		Location: b.location(obj.Pos()),
	}
	b.descs[obj] = desc

	if tparams := named.TypeParams(); tparams != nil {
		for i := 0; i < tparams.Len(); i++ {
			desc.TypeParams = append(desc.TypeParams, tparams.At(i).Obj().Name())
		}
	}

	for _, parent := range embeddedInterfaces(obj) {
		ref := contract.ParentRef{Desc: b.describe(parent.Origin().Obj())}
		if targs := parent.TypeArgs(); targs != nil {
			for i := 0; i < targs.Len(); i++ {
				ref.TypeArgs = append(ref.TypeArgs, b.conv.convert(targs.At(i)))
			}
		}
		desc.Parents = append(desc.Parents, ref)
	}

	decl, ok := b.decls[obj]
	if !ok {
		// Declared outside the scanned syntax: no comments to read.
		iface := named.Underlying().(*types.Interface)
		for i := 0; i < iface.NumExplicitMethods(); i++ {
			desc.Methods = append(desc.Methods, b.method(desc, iface.ExplicitMethod(i), nil))
		}
		return desc
	}

	desc.Markers = b.markersIn(decl.doc)
	for _, field := range decl.iface.Methods.List {
		if len(field.Names) == 0 {
			continue
		}
		fn, ok := decl.info.Defs[field.Names[0]].(*types.Func)
		if !ok {
			continue
		}
		desc.Methods = append(desc.Methods, b.method(desc, fn, field.Doc))
	}
	return desc
}

func (b *builder) method(declaring *contract.InterfaceDesc, fn *types.Func, doc *ast.CommentGroup) *contract.MethodDesc {
	sig := fn.Type().(*types.Signature)
	m := &contract.MethodDesc{
		Name:      fn.Name(),
		Return:    b.conv.returnType(sig),
		Declaring: declaring,
		Location:  b.location(fn.Pos()),
	}

	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		v := params.At(i)
		name := v.Name()
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		m.Params = append(m.Params, contract.ParamDesc{Name: name, Type: b.conv.convert(v.Type())})
	}

	for _, marker := range b.markersIn(doc) {
		if !b.scanner.paramKinds[marker.Kind] {
			m.Markers = append(m.Markers, marker)
			continue
		}
		if err := routeToParameter(m, marker); err != nil {
			b.errs.Add(err)
		}
	}
	return m
}

// routeToParameter attaches a parameter-scoped marker to the parameter named
// by its first value and drops that value.
func routeToParameter(m *contract.MethodDesc, marker contract.Marker) errors.FeigoError {
	if len(marker.Values) == 0 {
		return errors.SyntaxError(marker.Location, "marker %s on method %s must name a parameter", marker.Kind, m.Name).
			WithSuggestion(fmt.Sprintf("Write the parameter name first, e.g. %s <name>", marker.Kind))
	}

	target := marker.Values[0]
	for i := range m.Params {
		if m.Params[i].Name != target {
			continue
		}
		if rest := marker.Values[1:]; len(rest) > 0 {
			marker.Values = append([]string(nil), rest...)
		} else {
			marker.Values = nil
		}
		m.Params[i].Markers = append(m.Params[i].Markers, marker)
		return nil
	}
	return errors.SyntaxError(marker.Location, "marker %s names unknown parameter %q of method %s", marker.Kind, target, m.Name)
}

func (b *builder) markersIn(doc *ast.CommentGroup) []contract.Marker {
	if doc == nil {
		return nil
	}
	var out []contract.Marker
	for _, c := range doc.List {
		if !b.scanner.markers.IsMarker(c.Text) {
			continue
		}
		marker, err := b.scanner.markers.Parse(c.Text, b.location(c.Slash))
		if err != nil {
			b.fail(err)
			continue
		}
		out = append(out, marker)
	}
	return out
}

func (b *builder) fail(err error) {
	if fe, ok := err.(errors.FeigoError); ok {
		b.errs.Add(fe)
		return
	}
	b.errs.Add(errors.Wrap(errors.SyntaxErrorCode, "invalid marker", err))
}

func (b *builder) location(pos token.Pos) errors.SourceLocation {
	if !pos.IsValid() {
		return errors.SourceLocation{}
	}
	p := b.fset.Position(pos)
	return errors.SourceLocation{File: p.Filename, Line: p.Line, Column: p.Column}
}

// embeddedInterfaces lists the named interfaces embedded by obj, in
// declaration order. Constraint elements and unnamed embeddings are skipped.
func embeddedInterfaces(obj *types.TypeName) []*types.Named {
	named, ok := types.Unalias(obj.Type()).(*types.Named)
	if !ok {
		return nil
	}
	iface, ok := named.Underlying().(*types.Interface)
	if !ok {
		return nil
	}

	var out []*types.Named
	for i := 0; i < iface.NumEmbeddeds(); i++ {
		en, ok := types.Unalias(iface.EmbeddedType(i)).(*types.Named)
		if !ok {
			continue
		}
		if _, ok := en.Underlying().(*types.Interface); ok {
			out = append(out, en)
		}
	}
	return out
}

func packagePath(obj *types.TypeName) string {
	if obj.Pkg() == nil {
		return ""
	}
	return obj.Pkg().Path()
}
