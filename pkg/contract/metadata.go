package contract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Expander formats a parameter value for substitution into a template.
type Expander interface {
	Expand(value any) string
}

// ExpanderFunc adapts a function to Expander.
type ExpanderFunc func(value any) string

// Expand calls f(value).
func (f ExpanderFunc) Expand(value any) string { return f(value) }

// ToStringExpander formats values with fmt.Sprint. It is the implicit default.
var ToStringExpander Expander = ExpanderFunc(func(value any) string {
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
})

// MethodMetadata is the decoded request template and parameter role
// assignment of one interface method.
type MethodMetadata struct {
	id        uuid.UUID
	configKey string

	returnType TypeRef
	bodyType   TypeRef

	urlIndex       *int
	bodyIndex      *int
	headerMapIndex *int
	queryMapIndex  *int

	alwaysEncodeBody bool

	indexToName          map[int][]string
	indexToExpanderClass map[int]string
	indexToExpander      map[int]Expander
	indexToEncoded       map[int]bool
	parameterToIgnore    map[int]bool

	ignored    bool
	formParams []string
	warnings   []string
	template   *Template

	targetType *InterfaceDesc
	method     *MethodDesc
}

// NewMethodMetadata returns an empty descriptor with a fresh identity.
func NewMethodMetadata() *MethodMetadata {
	return &MethodMetadata{
		id:                   uuid.New(),
		indexToName:          make(map[int][]string),
		indexToExpanderClass: make(map[int]string),
		indexToEncoded:       make(map[int]bool),
		parameterToIgnore:    make(map[int]bool),
		template:             NewTemplate(),
	}
}

// ID identifies the descriptor in runtime side tables.
func (m *MethodMetadata) ID() uuid.UUID { return m.id }

// ConfigKey returns the descriptor identity, Type#method(ParamTypes).
func (m *MethodMetadata) ConfigKey() string { return m.configKey }

// SetConfigKey sets the descriptor identity.
func (m *MethodMetadata) SetConfigKey(key string) { m.configKey = key }

// ReturnType returns the resolved return type.
func (m *MethodMetadata) ReturnType() TypeRef { return m.returnType }

// SetReturnType records the resolved return type.
func (m *MethodMetadata) SetReturnType(t TypeRef) { m.returnType = t }

// BodyType returns the resolved type of the body parameter.
func (m *MethodMetadata) BodyType() TypeRef { return m.bodyType }

// SetBodyType records the resolved body type.
func (m *MethodMetadata) SetBodyType(t TypeRef) { m.bodyType = t }

// AlwaysEncodeBody reports whether form parameters and a body may coexist.
func (m *MethodMetadata) AlwaysEncodeBody() bool { return m.alwaysEncodeBody }

// SetAlwaysEncodeBody sets the always-encode flag.
func (m *MethodMetadata) SetAlwaysEncodeBody(v bool) { m.alwaysEncodeBody = v }

// Template returns the mutable request template.
func (m *MethodMetadata) Template() *Template { return m.template }

// TargetType returns the interface the descriptor was parsed for.
func (m *MethodMetadata) TargetType() *InterfaceDesc { return m.targetType }

// SetTargetType records the interface being parsed.
func (m *MethodMetadata) SetTargetType(t *InterfaceDesc) { m.targetType = t }

// Method returns the originating method description.
func (m *MethodMetadata) Method() *MethodDesc { return m.method }

// SetMethod records the originating method description.
func (m *MethodMetadata) SetMethod(method *MethodDesc) { m.method = method }

// URLIndex returns the position of the url.URL parameter.
func (m *MethodMetadata) URLIndex() (int, bool) { return deref(m.urlIndex) }

// SetURLIndex records the url.URL parameter position.
func (m *MethodMetadata) SetURLIndex(i int) { m.urlIndex = &i }

// BodyIndex returns the position of the body parameter.
func (m *MethodMetadata) BodyIndex() (int, bool) { return deref(m.bodyIndex) }

// SetBodyIndex records the body parameter position.
func (m *MethodMetadata) SetBodyIndex(i int) { m.bodyIndex = &i }

// HeaderMapIndex returns the position of the header map parameter.
func (m *MethodMetadata) HeaderMapIndex() (int, bool) { return deref(m.headerMapIndex) }

// SetHeaderMapIndex records the header map parameter position.
func (m *MethodMetadata) SetHeaderMapIndex(i int) { m.headerMapIndex = &i }

// QueryMapIndex returns the position of the query map parameter.
func (m *MethodMetadata) QueryMapIndex() (int, bool) { return deref(m.queryMapIndex) }

// SetQueryMapIndex records the query map parameter position.
func (m *MethodMetadata) SetQueryMapIndex(i int) { m.queryMapIndex = &i }

func deref(p *int) (int, bool) {
	if p == nil {
		return -1, false
	}
	return *p, true
}

// NameParam links a substitution name to position i. Repeated names are kept once.
func (m *MethodMetadata) NameParam(i int, name string) {
	for _, n := range m.indexToName[i] {
		if n == name {
			return
		}
	}
	m.indexToName[i] = append(m.indexToName[i], name)
}

// Names returns the substitution names bound to position i.
func (m *MethodMetadata) Names(i int) []string {
	return append([]string(nil), m.indexToName[i]...)
}

// IndexToName returns a copy of the position to names map.
func (m *MethodMetadata) IndexToName() map[int][]string {
	out := make(map[int][]string, len(m.indexToName))
	for i, names := range m.indexToName {
		out[i] = append([]string(nil), names...)
	}
	return out
}

// SetExpanderClass records an expander type reference for position i.
func (m *MethodMetadata) SetExpanderClass(i int, class string) {
	m.indexToExpanderClass[i] = class
}

// ExpanderClass returns the expander type reference for position i.
func (m *MethodMetadata) ExpanderClass(i int) (string, bool) {
	c, ok := m.indexToExpanderClass[i]
	return c, ok
}

// IndexToExpanderClass returns a copy of the position to expander reference map.
func (m *MethodMetadata) IndexToExpanderClass() map[int]string {
	out := make(map[int]string, len(m.indexToExpanderClass))
	for i, c := range m.indexToExpanderClass {
		out[i] = c
	}
	return out
}

// SetExpander binds a live expander to position i.
func (m *MethodMetadata) SetExpander(i int, e Expander) {
	if m.indexToExpander == nil {
		m.indexToExpander = make(map[int]Expander)
	}
	m.indexToExpander[i] = e
}

// SetIndexToExpander replaces all live expanders. Nil clears them.
func (m *MethodMetadata) SetIndexToExpander(expanders map[int]Expander) {
	m.indexToExpander = expanders
}

// ExpanderFor returns the live expander for position i, if any.
func (m *MethodMetadata) ExpanderFor(i int) (Expander, bool) {
	if m.indexToExpander == nil {
		return nil, false
	}
	e, ok := m.indexToExpander[i]
	return e, ok
}

// SetEncoded marks position i as pre-encoded.
func (m *MethodMetadata) SetEncoded(i int, encoded bool) {
	m.indexToEncoded[i] = encoded
}

// Encoded reports whether position i is pre-encoded.
func (m *MethodMetadata) Encoded(i int) bool {
	return m.indexToEncoded[i]
}

// IgnoreParameter excludes position i from implicit role inference.
func (m *MethodMetadata) IgnoreParameter(i int) {
	m.parameterToIgnore[i] = true
}

// ShouldIgnoreParameter reports whether position i was ignored.
func (m *MethodMetadata) ShouldIgnoreParameter(i int) bool {
	return m.parameterToIgnore[i]
}

// IgnoredParameters returns ignored positions in ascending order.
func (m *MethodMetadata) IgnoredParameters() []int {
	return sortedKeys(m.parameterToIgnore)
}

// IsAlreadyProcessed reports whether position i has any role or binding.
func (m *MethodMetadata) IsAlreadyProcessed(i int) bool {
	if isIndex(m.urlIndex, i) || isIndex(m.bodyIndex, i) ||
		isIndex(m.headerMapIndex, i) || isIndex(m.queryMapIndex, i) {
		return true
	}
	if _, ok := m.indexToName[i]; ok {
		return true
	}
	if _, ok := m.indexToExpanderClass[i]; ok {
		return true
	}
	if _, ok := m.indexToEncoded[i]; ok {
		return true
	}
	if m.indexToExpander != nil {
		if _, ok := m.indexToExpander[i]; ok {
			return true
		}
	}
	return m.parameterToIgnore[i]
}

func isIndex(p *int, i int) bool {
	return p != nil && *p == i
}

// IgnoreMethod flags the whole method as bypassed.
func (m *MethodMetadata) IgnoreMethod() { m.ignored = true }

// IsIgnored reports whether the method is bypassed.
func (m *MethodMetadata) IsIgnored() bool { return m.ignored }

// AddFormParam appends a form parameter name.
func (m *MethodMetadata) AddFormParam(name string) {
	m.formParams = append(m.formParams, name)
}

// FormParams returns the form parameter names in order.
func (m *MethodMetadata) FormParams() []string {
	return append([]string(nil), m.formParams...)
}

// AddWarning appends to the diagnostic trail.
func (m *MethodMetadata) AddWarning(msg string) {
	m.warnings = append(m.warnings, msg)
}

// WarningList returns the recorded warnings.
func (m *MethodMetadata) WarningList() []string {
	return append([]string(nil), m.warnings...)
}

// Warnings renders the trail for error messages: empty when nothing was
// recorded, otherwise a "Warnings:" header followed by one "- " line each.
func (m *MethodMetadata) Warnings() string {
	if len(m.warnings) == 0 {
		return ""
	}
	return "\nWarnings:\n- " + strings.Join(m.warnings, "\n- ")
}

func sortedKeys[V any](in map[int]V) []int {
	keys := make([]int, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
