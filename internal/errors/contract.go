package errors

import (
	"fmt"
	"strings"
)

// ContractError is raised while folding markers into a method descriptor.
// The message always carries the descriptor's config key and its warnings trailer.
type ContractError struct {
	*BaseError
	ConfigKey string // descriptor identity, empty for interface-level failures
	Warnings  string // rendered warnings trailer, possibly empty
}

// Error implements the error interface
func (e *ContractError) Error() string {
	msg := e.BaseError.Error()
	if e.ConfigKey != "" && !strings.Contains(msg, e.ConfigKey) {
		msg = fmt.Sprintf("%s (method %s)", msg, e.ConfigKey)
	}
	return msg + e.Warnings
}

// NewContractError builds a ContractError. The message is formatted first and the
// warnings trailer appended verbatim, so callers never format it themselves.
func NewContractError(code ErrorCode, configKey, warnings, format string, args ...interface{}) *ContractError {
	base := Newf(code, format, args...)
	if configKey != "" {
		base.WithContext("config_key", configKey)
	}
	return &ContractError{
		BaseError: base,
		ConfigKey: configKey,
		Warnings:  warnings,
	}
}

// WrapContract attaches a descriptor's identity to an error raised by a marker handler.
func WrapContract(configKey, warnings string, cause error, format string, args ...interface{}) *ContractError {
	e := NewContractError(CodeOf(cause), configKey, warnings, format, args...)
	e.BaseError.WithCause(cause)
	return e
}

// WithLocation adds location information to the error
func (e *ContractError) WithLocation(loc SourceLocation) *ContractError {
	e.BaseError.WithLocation(loc)
	return e
}

// WithSuggestion adds a helpful suggestion for fixing the error
func (e *ContractError) WithSuggestion(suggestion string) *ContractError {
	e.BaseError.WithSuggestion(suggestion)
	return e
}

// StructuralViolation reports an interface shape the parser cannot handle.
func StructuralViolation(format string, args ...interface{}) *ContractError {
	return NewContractError(StructuralViolationCode, "", "", format, args...)
}

// MissingVerb reports a method left without an HTTP verb after method-scope processing.
func MissingVerb(configKey, warnings string) *ContractError {
	return NewContractError(MissingVerbCode, configKey, warnings,
		"Method %s not annotated with HTTP method type (ex. GET, POST)", configKey).
		WithSuggestion("Add //feigo::request_line VERB /path to the method")
}

// ParameterConflict reports competing claims on a parameter role.
func ParameterConflict(configKey, warnings, format string, args ...interface{}) *ContractError {
	return NewContractError(ParameterConflictCode, configKey, warnings, format, args...)
}

// TypeMismatch reports a map-role parameter whose key type is not string.
func TypeMismatch(configKey, warnings, role, keyType string) *ContractError {
	return NewContractError(TypeMismatchCode, configKey, warnings,
		"%s key must be a string: %s", role, keyType).
		WithSuggestion(fmt.Sprintf("Declare the %s parameter as map[string]...", role))
}

// MarkerFormat reports a marker value that does not match its expected shape.
func MarkerFormat(configKey, warnings, format string, args ...interface{}) *ContractError {
	return NewContractError(MarkerFormatErrorCode, configKey, warnings, format, args...)
}

// EmptyMarkerValue reports a blank value on a marker that requires one.
func EmptyMarkerValue(configKey, warnings, format string, args ...interface{}) *ContractError {
	return NewContractError(EmptyMarkerValueCode, configKey, warnings, format, args...)
}
