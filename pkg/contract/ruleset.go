package contract

import (
	"github.com/toyz/feigo/internal/errors"
	"github.com/toyz/feigo/internal/utils"
)

// ClassHandler applies an interface-level marker to a method descriptor.
// It runs once for the parent interface and once for the interface itself.
type ClassHandler func(marker Marker, data *MethodMetadata) error

// MethodHandler applies a method-level marker.
type MethodHandler func(marker Marker, data *MethodMetadata) error

// ParameterHandler applies a marker on parameter index. It returns true when
// the marker fully describes the parameter, in which case it must have named
// the position with NameParam.
type ParameterHandler func(marker Marker, data *MethodMetadata, index int) (bool, error)

// RuleSet binds marker kinds to handlers at class, method and parameter scope.
// It is populated once, sealed, and read-only afterwards.
type RuleSet struct {
	name             string
	alwaysEncodeBody bool

	class  *utils.BaseRegistry[string, ClassHandler]
	method *utils.BaseRegistry[string, MethodHandler]
	param  *utils.BaseRegistry[string, ParameterHandler]
}

// RuleSetOption configures a RuleSet.
type RuleSetOption func(*RuleSet)

// WithAlwaysEncodeBody lets a body parameter coexist with form parameters.
func WithAlwaysEncodeBody() RuleSetOption {
	return func(r *RuleSet) {
		r.alwaysEncodeBody = true
	}
}

// NewRuleSet creates an empty, unsealed rule set.
func NewRuleSet(name string, opts ...RuleSetOption) *RuleSet {
	r := &RuleSet{
		name:   name,
		class:  newHandlerRegistry[ClassHandler]("class"),
		method: newHandlerRegistry[MethodHandler]("method"),
		param:  newHandlerRegistry[ParameterHandler]("parameter"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newHandlerRegistry[H any](scope string) *utils.BaseRegistry[string, H] {
	reg := utils.NewBaseRegistry[string, H](scope+" marker", "marker kind", "handler")
	reg.SetValidator(utils.ChainValidators(
		utils.NotEmptyKeyValidator[H]("marker kind"),
		utils.NoDuplicateValidator[string, H]("marker kind"),
	))
	return reg
}

// Name identifies the rule set in warnings.
func (r *RuleSet) Name() string { return r.name }

// AlwaysEncodeBody reports whether descriptors built with this rule set relax
// the body/form exclusivity check.
func (r *RuleSet) AlwaysEncodeBody() bool { return r.alwaysEncodeBody }

// RegisterClass binds kind at interface scope.
func (r *RuleSet) RegisterClass(kind string, h ClassHandler) error {
	return register(r.class, "class", kind, h)
}

// RegisterMethod binds kind at method scope.
func (r *RuleSet) RegisterMethod(kind string, h MethodHandler) error {
	return register(r.method, "method", kind, h)
}

// RegisterParameter binds kind at parameter scope.
func (r *RuleSet) RegisterParameter(kind string, h ParameterHandler) error {
	return register(r.param, "parameter", kind, h)
}

func register[H any](reg *utils.BaseRegistry[string, H], scope, kind string, h H) error {
	if err := reg.Register(kind, h); err != nil {
		return errors.RegistrationError(scope+" handler", kind, err.Error())
	}
	return nil
}

// Seal freezes the rule set. Registration afterwards fails.
func (r *RuleSet) Seal() {
	r.class.Seal()
	r.method.Seal()
	r.param.Seal()
}

// Sealed reports whether Seal was called.
func (r *RuleSet) Sealed() bool {
	return r.class.Sealed()
}

// Kinds lists registered kinds per scope in registration order.
func (r *RuleSet) Kinds() (class, method, param []string) {
	return r.class.List(), r.method.List(), r.param.List()
}

func (r *RuleSet) classHandler(kind string) (ClassHandler, bool) {
	return r.class.Get(kind)
}

func (r *RuleSet) methodHandler(kind string) (MethodHandler, bool) {
	return r.method.Get(kind)
}

func (r *RuleSet) paramHandler(kind string) (ParameterHandler, bool) {
	return r.param.Get(kind)
}
