package contract

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/toyz/feigo/internal/utils"
)

// Binding holds the runtime-only state of one descriptor, as needed by an
// invocation layer.
type Binding struct {
	ID         uuid.UUID
	ReturnType TypeRef
	BodyType   TypeRef
	Target     *InterfaceDesc
	Method     *MethodDesc

	expanders map[int]Expander
}

// Expander returns the expander for parameter i, falling back to ToStringExpander.
func (b *Binding) Expander(i int) Expander {
	if e, ok := b.expanders[i]; ok {
		return e
	}
	return ToStringExpander
}

// ExpanderFactory instantiates an expander from the reference recorded by a
// marker, e.g. "-Expander=pkg.Upper".
type ExpanderFactory func(class string) (Expander, error)

// RuntimeBindings is a side table of Binding keyed by descriptor identity.
// Entries are created lazily on first Bind and never by the parser.
type RuntimeBindings struct {
	cache   *utils.Cache[uuid.UUID, *Binding]
	factory ExpanderFactory
}

// NewRuntimeBindings returns an empty side table. A nil factory rejects every
// expander reference.
func NewRuntimeBindings(factory ExpanderFactory) *RuntimeBindings {
	if factory == nil {
		factory = func(class string) (Expander, error) {
			return nil, fmt.Errorf("no expander factory configured for %q", class)
		}
	}
	return &RuntimeBindings{
		cache:   utils.NewCache[uuid.UUID, *Binding](),
		factory: factory,
	}
}

// Bind returns the binding for m, building it on first use. Live expanders
// set on the descriptor take precedence over expander references.
func (b *RuntimeBindings) Bind(m *MethodMetadata) (*Binding, error) {
	return b.cache.GetOrCompute(m.ID(), func() (*Binding, error) {
		binding := &Binding{
			ID:         m.ID(),
			ReturnType: m.ReturnType(),
			BodyType:   m.BodyType(),
			Target:     m.TargetType(),
			Method:     m.Method(),
			expanders:  make(map[int]Expander),
		}
		for i, class := range m.IndexToExpanderClass() {
			if live, ok := m.ExpanderFor(i); ok {
				binding.expanders[i] = live
				continue
			}
			e, err := b.factory(class)
			if err != nil {
				return nil, fmt.Errorf("%s: expander for parameter %d: %w", m.ConfigKey(), i, err)
			}
			binding.expanders[i] = e
		}
		for i := range m.indexToExpander {
			if _, done := binding.expanders[i]; !done {
				binding.expanders[i] = m.indexToExpander[i]
			}
		}
		return binding, nil
	})
}

// Lookup returns a previously built binding.
func (b *RuntimeBindings) Lookup(id uuid.UUID) (*Binding, bool) {
	return b.cache.Get(id)
}

// Forget drops the binding for id.
func (b *RuntimeBindings) Forget(id uuid.UUID) {
	b.cache.Delete(id)
}

// Len returns the number of bindings held.
func (b *RuntimeBindings) Len() int {
	return b.cache.Size()
}

// ExpanderRegistry maps expander references to instances and serves as an
// ExpanderFactory.
type ExpanderRegistry struct {
	reg *utils.BaseRegistry[string, Expander]
}

// NewExpanderRegistry returns an empty registry.
func NewExpanderRegistry() *ExpanderRegistry {
	reg := utils.NewBaseRegistry[string, Expander]("expander", "expander", "instance")
	reg.SetValidator(utils.ChainValidators(
		utils.NotEmptyKeyValidator[Expander]("expander"),
		utils.NoDuplicateValidator[string, Expander]("expander"),
	))
	return &ExpanderRegistry{reg: reg}
}

// Register binds class to e.
func (r *ExpanderRegistry) Register(class string, e Expander) error {
	return r.reg.Register(class, e)
}

// Factory returns an ExpanderFactory backed by the registry.
func (r *ExpanderRegistry) Factory() ExpanderFactory {
	return func(class string) (Expander, error) {
		return r.reg.GetOrError(class)
	}
}
