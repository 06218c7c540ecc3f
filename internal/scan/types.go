package scan

import (
	"go/types"
	"strings"

	"github.com/toyz/feigo/pkg/contract"
)

// maxSuperDepth bounds how far super types are expanded for recursive types.
const maxSuperDepth = 3

// typeConverter maps go/types types onto contract.TypeRef.
type typeConverter struct {
	qualifier types.Qualifier
}

func newTypeConverter() *typeConverter {
	return &typeConverter{
		qualifier: func(p *types.Package) string { return p.Name() },
	}
}

func (c *typeConverter) convert(t types.Type) contract.TypeRef {
	return c.convertDepth(t, 0)
}

func (c *typeConverter) convertDepth(t types.Type, depth int) contract.TypeRef {
	t = types.Unalias(t)

	switch t := t.(type) {
	case *types.Basic:
		return contract.Basic(t.Name())
	case *types.Pointer:
		return contract.PointerTo(c.convertDepth(t.Elem(), depth))
	case *types.Slice:
		return contract.SliceOf(c.convertDepth(t.Elem(), depth))
	case *types.Map:
		return contract.MapOf(c.convertDepth(t.Key(), depth), c.convertDepth(t.Elem(), depth))
	case *types.TypeParam:
		return contract.TypeVar(t.Obj().Name())
	case *types.Named:
		return c.named(t, depth)
	case *types.Interface:
		return contract.TypeRef{Kind: contract.KindInterface, Name: types.TypeString(t, c.qualifier)}
	case *types.Signature:
		return contract.TypeRef{Kind: contract.KindFunc, Name: "func" + strings.TrimPrefix(types.TypeString(t, c.qualifier), "func")}
	default:
		return contract.TypeRef{Kind: contract.KindOther, Name: types.TypeString(t, c.qualifier)}
	}
}

func (c *typeConverter) named(t *types.Named, depth int) contract.TypeRef {
	obj := t.Obj()
	pkgPath := ""
	if obj.Pkg() != nil {
		pkgPath = obj.Pkg().Path()
	}

	var args []contract.TypeRef
	if targs := t.TypeArgs(); targs != nil {
		args = make([]contract.TypeRef, targs.Len())
		for i := 0; i < targs.Len(); i++ {
			args[i] = c.convertDepth(targs.At(i), depth)
		}
	}
	ref := contract.Named(pkgPath, obj.Name(), args...)

	if depth >= maxSuperDepth {
		return ref
	}

	switch u := t.Underlying().(type) {
	case *types.Interface:
		for i := 0; i < u.NumEmbeddeds(); i++ {
			ref.Supers = append(ref.Supers, c.convertDepth(u.EmbeddedType(i), depth+1))
		}
	case *types.Struct:
		for i := 0; i < u.NumFields(); i++ {
			if f := u.Field(i); f.Embedded() {
				ref.Supers = append(ref.Supers, c.convertDepth(f.Type(), depth+1))
			}
		}
	default:
		ref.Supers = append(ref.Supers, c.convertDepth(u, depth+1))
	}
	return ref
}

// returnType drops a trailing error result. No remaining result yields the
// zero TypeRef; several are rendered as one tuple.
func (c *typeConverter) returnType(sig *types.Signature) contract.TypeRef {
	results := sig.Results()
	n := results.Len()
	if n > 0 && isError(results.At(n-1).Type()) {
		n--
	}
	switch n {
	case 0:
		return contract.TypeRef{}
	case 1:
		return c.convert(results.At(0).Type())
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = types.TypeString(results.At(i).Type(), c.qualifier)
	}
	return contract.TypeRef{Kind: contract.KindOther, Name: "(" + strings.Join(parts, ", ") + ")"}
}

func isError(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}
