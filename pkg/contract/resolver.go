package contract

// TypeResolver resolves generic types in the context of a concrete interface
// and arbitrates return types when two methods share a config key.
type TypeResolver interface {
	// Resolve substitutes the type parameters of declaring, as instantiated
	// along the parent chain of context, into t.
	Resolve(context, declaring *InterfaceDesc, t TypeRef) TypeRef

	// ResolveOverride returns overriding when it should replace existing,
	// and existing otherwise.
	ResolveOverride(existing, overriding TypeRef) TypeRef
}

// DefaultResolver follows embedded interfaces and their type arguments.
type DefaultResolver struct{}

var _ TypeResolver = DefaultResolver{}

// Resolve implements TypeResolver
func (DefaultResolver) Resolve(context, declaring *InterfaceDesc, t TypeRef) TypeRef {
	if context == nil || declaring == nil || context == declaring {
		return t
	}
	env, ok := bindings(context, declaring, map[string]TypeRef{}, map[*InterfaceDesc]bool{})
	if !ok || len(env) == 0 {
		return t
	}
	return substitute(t, env)
}

// bindings walks from current towards target and returns the type parameter
// bindings in effect at target.
func bindings(current, target *InterfaceDesc, env map[string]TypeRef, seen map[*InterfaceDesc]bool) (map[string]TypeRef, bool) {
	if current == target {
		return env, true
	}
	if seen[current] {
		return nil, false
	}
	seen[current] = true

	for _, parent := range current.Parents {
		if parent.Desc == nil {
			continue
		}
		next := make(map[string]TypeRef, len(parent.Desc.TypeParams))
		for i, name := range parent.Desc.TypeParams {
			if i < len(parent.TypeArgs) {
				next[name] = substitute(parent.TypeArgs[i], env)
			}
		}
		if found, ok := bindings(parent.Desc, target, next, seen); ok {
			return found, true
		}
	}
	return nil, false
}

func substitute(t TypeRef, env map[string]TypeRef) TypeRef {
	if t.Kind == KindTypeVar {
		if bound, ok := env[t.Name]; ok {
			return bound
		}
		return t
	}
	if len(t.Args) == 0 && len(t.Supers) == 0 {
		return t
	}
	out := t
	if len(t.Args) > 0 {
		out.Args = make([]TypeRef, len(t.Args))
		for i, a := range t.Args {
			out.Args[i] = substitute(a, env)
		}
	}
	if len(t.Supers) > 0 {
		out.Supers = make([]TypeRef, len(t.Supers))
		for i, s := range t.Supers {
			out.Supers[i] = substitute(s, env)
		}
	}
	return out
}

// ResolveOverride implements TypeResolver. The overriding type wins when it
// is identical, a subtype of existing, or a generic refinement of a raw
// existing type.
func (DefaultResolver) ResolveOverride(existing, overriding TypeRef) TypeRef {
	if overriding.Equal(existing) || isSubtype(overriding, existing, 0) {
		return overriding
	}
	if existing.Kind != KindTypeVar && !existing.IsParameterized() &&
		(overriding.IsParameterized() || overriding.Kind == KindTypeVar) {
		return overriding
	}
	return existing
}

func isSubtype(t, of TypeRef, depth int) bool {
	if depth > 16 {
		return false
	}
	for _, s := range t.Supers {
		if s.Equal(of) || isSubtype(s, of, depth+1) {
			return true
		}
	}
	return false
}
