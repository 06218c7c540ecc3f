package contract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/toyz/feigo/internal/errors"
)

// Parser folds the markers of an interface into validated method descriptors.
// A Parser holds only read-only state and is safe for concurrent use.
type Parser struct {
	rules    *RuleSet
	resolver TypeResolver
	logger   *slog.Logger
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithResolver replaces the DefaultResolver.
func WithResolver(r TypeResolver) ParserOption {
	return func(p *Parser) {
		p.resolver = r
	}
}

// WithLogger sets the logger used for debug output. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ParserOption {
	return func(p *Parser) {
		p.logger = logger
	}
}

// NewParser seals rules and returns a parser bound to them. A nil rule set
// selects DefaultRules.
func NewParser(rules *RuleSet, opts ...ParserOption) *Parser {
	if rules == nil {
		rules = DefaultRules()
	}
	rules.Seal()

	p := &Parser{
		rules:    rules,
		resolver: DefaultResolver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Rules returns the sealed rule set.
func (p *Parser) Rules() *RuleSet { return p.rules }

// ParseAndValidate returns one descriptor per effective method of iface in
// first-declaration order. The first invalid method aborts the whole parse.
func (p *Parser) ParseAndValidate(iface *InterfaceDesc) ([]*MethodMetadata, error) {
	if iface == nil {
		return nil, errors.StructuralViolation("nil interface description")
	}
	if len(iface.TypeParams) != 0 {
		return nil, errors.StructuralViolation("Parameterized types unsupported: %s", iface.Name).
			WithLocation(iface.Location)
	}
	if len(iface.Parents) > 1 {
		return nil, errors.StructuralViolation("Only single inheritance supported: %s", iface.Name).
			WithLocation(iface.Location)
	}

	result := newOrderedResult()
	for _, dm := range collectMethods(iface) {
		if dm.method.FromRoot || dm.method.Static || dm.method.Default {
			continue
		}

		data, err := p.parseMethod(iface, dm.declaring, dm.method)
		if err != nil {
			return nil, err
		}

		existing, ok := result.get(data.ConfigKey())
		if !ok {
			result.put(data)
			continue
		}

		resolved := p.resolver.ResolveOverride(existing.ReturnType(), data.ReturnType())
		replace := resolved.Equal(data.ReturnType())
		p.logger.Debug("config key collision",
			"interface", iface.QualifiedName(),
			"config_key", data.ConfigKey(),
			"existing", existing.ReturnType().String(),
			"overriding", data.ReturnType().String(),
			"replaced", replace)
		if replace {
			result.put(data)
		}
	}

	return result.values(), nil
}

type declaredMethod struct {
	method    *MethodDesc
	declaring *InterfaceDesc
}

// collectMethods lists inherited methods before the interface's own, so a
// redeclaration in the child is the overriding side of a collision.
func collectMethods(iface *InterfaceDesc) []declaredMethod {
	var out []declaredMethod
	seen := make(map[*InterfaceDesc]bool)
	var walk func(d *InterfaceDesc)
	walk = func(d *InterfaceDesc) {
		if d == nil || seen[d] {
			return
		}
		seen[d] = true
		for _, parent := range d.Parents {
			walk(parent.Desc)
		}
		for _, m := range d.Methods {
			declaring := m.Declaring
			if declaring == nil {
				declaring = d
			}
			out = append(out, declaredMethod{method: m, declaring: declaring})
		}
	}
	walk(iface)
	return out
}

// ConfigKey renders Target#Method(ParamType,...) with the interface under
// parse as the declaring context.
func ConfigKey(target *InterfaceDesc, method *MethodDesc) string {
	var sb strings.Builder
	sb.WriteString(target.Name)
	sb.WriteString("#")
	sb.WriteString(method.Name)
	sb.WriteString("(")
	for i, param := range method.Params {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(param.Type.String())
	}
	sb.WriteString(")")
	return sb.String()
}

func (p *Parser) parseMethod(target, declaring *InterfaceDesc, method *MethodDesc) (*MethodMetadata, error) {
	data := NewMethodMetadata()
	data.SetTargetType(target)
	data.SetMethod(method)
	data.SetReturnType(p.resolver.Resolve(target, declaring, method.Return))
	data.SetConfigKey(ConfigKey(target, method))
	if p.rules.AlwaysEncodeBody() {
		data.SetAlwaysEncodeBody(true)
	}

	if parent := target.Parent(); parent != nil {
		if err := p.processClass(data, parent); err != nil {
			return nil, err
		}
	}
	if err := p.processClass(data, target); err != nil {
		return nil, err
	}

	for _, marker := range method.Markers {
		if err := p.processMethod(data, method, marker); err != nil {
			return nil, err
		}
	}

	if data.IsIgnored() {
		p.logger.Debug("method ignored", "config_key", data.ConfigKey())
		return data, nil
	}

	if data.Template().Verb() == "" {
		return nil, errors.MissingVerb(data.ConfigKey(), data.Warnings()).WithLocation(method.Location)
	}

	for i, param := range method.Params {
		recognized, err := p.processParameter(data, i, param)
		if err != nil {
			return nil, err
		}
		if recognized {
			data.IgnoreParameter(i)
			continue
		}

		if IsURI(param.Type) {
			data.SetURLIndex(i)
			continue
		}
		if IsOptions(param.Type) {
			continue
		}

		if data.IsAlreadyProcessed(i) {
			if _, hasBody := data.BodyIndex(); hasBody && !data.AlwaysEncodeBody() && len(data.FormParams()) > 0 {
				return nil, errors.ParameterConflict(data.ConfigKey(), data.Warnings(),
					"Body parameters cannot be used with form parameters.")
			}
			continue
		}

		if !data.AlwaysEncodeBody() && len(data.FormParams()) > 0 {
			return nil, errors.ParameterConflict(data.ConfigKey(), data.Warnings(),
				"Body parameters cannot be used with form parameters.")
		}
		if _, hasBody := data.BodyIndex(); hasBody {
			return nil, errors.ParameterConflict(data.ConfigKey(), data.Warnings(),
				"Method has too many Body parameters: %s", data.ConfigKey())
		}
		data.SetBodyIndex(i)
		data.SetBodyType(p.resolver.Resolve(target, declaring, param.Type))
	}

	// Form parameters named after the body position are not seen by the loop.
	if _, hasBody := data.BodyIndex(); hasBody && !data.AlwaysEncodeBody() && len(data.FormParams()) > 0 {
		return nil, errors.ParameterConflict(data.ConfigKey(), data.Warnings(),
			"Body parameters cannot be used with form parameters.")
	}

	if i, ok := data.HeaderMapIndex(); ok {
		if err := p.checkMapKeys(data, target, declaring, "HeaderMap", method.Params[i].Type); err != nil {
			return nil, err
		}
	}
	if i, ok := data.QueryMapIndex(); ok {
		if err := p.checkMapKeys(data, target, declaring, "QueryMap", method.Params[i].Type); err != nil {
			return nil, err
		}
	}

	p.logger.Debug("method parsed",
		"config_key", data.ConfigKey(),
		"verb", data.Template().Verb(),
		"uri", data.Template().URI())
	return data, nil
}

func (p *Parser) processClass(data *MethodMetadata, iface *InterfaceDesc) error {
	for _, marker := range iface.Markers {
		handler, ok := p.rules.classHandler(marker.Kind)
		if !ok {
			data.AddWarning(fmt.Sprintf("Interface %s has marker %s that is not used by contract %s",
				iface.Name, marker.Kind, p.rules.Name()))
			continue
		}
		if err := handler(marker, data); err != nil {
			return p.handlerError(data, marker, err)
		}
	}
	return nil
}

func (p *Parser) processMethod(data *MethodMetadata, method *MethodDesc, marker Marker) error {
	handler, ok := p.rules.methodHandler(marker.Kind)
	if !ok {
		data.AddWarning(fmt.Sprintf("Method %s has marker %s that is not used by contract %s",
			method.Name, marker.Kind, p.rules.Name()))
		return nil
	}
	if err := handler(marker, data); err != nil {
		return p.handlerError(data, marker, err)
	}
	return nil
}

func (p *Parser) processParameter(data *MethodMetadata, index int, param ParamDesc) (bool, error) {
	recognized := false
	for _, marker := range param.Markers {
		handler, ok := p.rules.paramHandler(marker.Kind)
		if !ok {
			data.AddWarning(fmt.Sprintf("Parameter %s has marker %s that is not used by contract %s",
				param.Name, marker.Kind, p.rules.Name()))
			continue
		}
		handled, err := handler(marker, data, index)
		if err != nil {
			return false, p.handlerError(data, marker, err)
		}
		recognized = recognized || handled
	}

	if recognized && len(data.Names(index)) == 0 {
		return false, errors.ParameterConflict(data.ConfigKey(), data.Warnings(),
			"Parameter %d was claimed by a marker but never named", index)
	}
	return recognized, nil
}

// handlerError keeps contract errors raised by handlers and attaches the
// descriptor identity to anything else.
func (p *Parser) handlerError(data *MethodMetadata, marker Marker, err error) error {
	if ce, ok := err.(*errors.ContractError); ok {
		if ce.Location().IsEmpty() {
			ce.WithLocation(marker.Location)
		}
		return ce
	}
	return errors.WrapContract(data.ConfigKey(), data.Warnings(), err,
		"marker %s failed", marker.Kind).WithLocation(marker.Location)
}

// checkMapKeys requires a string key when one can be determined. Directly
// parameterized types use their first argument; raw named types fall back to
// the first parameterized super type.
func (p *Parser) checkMapKeys(data *MethodMetadata, target, declaring *InterfaceDesc, role string, raw TypeRef) error {
	if !IsMapLike(raw) {
		return nil
	}
	t := p.resolver.Resolve(target, declaring, raw)

	var key *TypeRef
	if t.IsParameterized() {
		key = &t.Args[0]
	} else {
		for _, super := range t.Supers {
			if super.IsParameterized() {
				key = &super.Args[0]
				break
			}
		}
	}

	if key != nil && !key.Equal(StringType) {
		return errors.TypeMismatch(data.ConfigKey(), data.Warnings(), role, key.String())
	}
	return nil
}

// orderedResult is a map keyed by config key that remembers first insertion.
type orderedResult struct {
	keys  []string
	items map[string]*MethodMetadata
}

func newOrderedResult() *orderedResult {
	return &orderedResult{items: make(map[string]*MethodMetadata)}
}

func (r *orderedResult) get(key string) (*MethodMetadata, bool) {
	m, ok := r.items[key]
	return m, ok
}

func (r *orderedResult) put(m *MethodMetadata) {
	if _, ok := r.items[m.ConfigKey()]; !ok {
		r.keys = append(r.keys, m.ConfigKey())
	}
	r.items[m.ConfigKey()] = m
}

func (r *orderedResult) values() []*MethodMetadata {
	out := make([]*MethodMetadata, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, r.items[k])
	}
	return out
}
