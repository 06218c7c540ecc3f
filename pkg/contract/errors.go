package contract

import "github.com/toyz/feigo/internal/errors"

// ErrorCode classifies contract failures.
type ErrorCode = errors.ErrorCode

// ContractError is returned by ParseAndValidate.
type ContractError = errors.ContractError

// Error codes returned by ParseAndValidate.
const (
	StructuralViolation = errors.StructuralViolationCode
	MissingVerb         = errors.MissingVerbCode
	ParameterConflict   = errors.ParameterConflictCode
	TypeMismatch        = errors.TypeMismatchCode
	MarkerFormatError   = errors.MarkerFormatErrorCode
	EmptyMarkerValue    = errors.EmptyMarkerValueCode
)

// IsCode reports whether err carries code.
func IsCode(err error, code ErrorCode) bool {
	return errors.HasCode(err, code)
}
