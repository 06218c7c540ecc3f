package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractError_MessageCarriesKeyAndWarnings(t *testing.T) {
	tests := []struct {
		name string
		err  *ContractError
		want string
	}{
		{
			name: "key already in message",
			err:  MissingVerb("Api#get()", ""),
			want: "Method Api#get() not annotated with HTTP method type (ex. GET, POST)",
		},
		{
			name: "key appended",
			err:  ParameterConflict("Api#get(string)", "", "Body parameters cannot be used with form parameters."),
			want: "Body parameters cannot be used with form parameters. (method Api#get(string))",
		},
		{
			name: "warnings trailer",
			err:  TypeMismatch("Api#q(map[int]string)", "\nWarnings:\n- Method q has marker cache that is not used by contract Default", "QueryMap", "int"),
			want: "QueryMap key must be a string: int (method Api#q(map[int]string))\nWarnings:\n- Method q has marker cache that is not used by contract Default",
		},
		{
			name: "no key",
			err:  StructuralViolation("Only single inheritance supported: %s", "Api"),
			want: "Only single inheritance supported: Api",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrapContract_KeepsCauseCode(t *testing.T) {
	cause := Newf(EmptyMarkerValueCode, "Body annotation was empty")
	err := WrapContract("Api#post()", "", cause, "marker body on %s", "Api#post()")

	assert.Equal(t, EmptyMarkerValueCode, err.ErrorCode())
	assert.Equal(t, "Api#post()", err.Context()["config_key"])
	assert.ErrorIs(t, err, cause)
}

func TestHasCode_ThroughWrapping(t *testing.T) {
	inner := MissingVerb("Api#get()", "")
	wrapped := fmt.Errorf("parse users: %w", inner)

	assert.True(t, HasCode(wrapped, MissingVerbCode))
	assert.False(t, HasCode(wrapped, SyntaxErrorCode))
	assert.False(t, HasCode(nil, MissingVerbCode))
	assert.Equal(t, UnknownErrorCode, CodeOf(errors.New("plain")))
}

func TestBaseError_Location(t *testing.T) {
	err := Newf(SyntaxErrorCode, "unexpected token %q", "=").
		WithLocation(SourceLocation{File: "api/users.go", Line: 12, Column: 3})
	assert.Equal(t, `api/users.go:12:3: unexpected token "="`, err.Error())

	err = Wrap(FileSystemErrorCode, "failed to read", errors.New("denied"))
	assert.Equal(t, "failed to read: denied", err.Error())
	assert.Equal(t, "unknown location", SourceLocation{}.String())
	assert.Equal(t, "a.go:3", SourceLocation{File: "a.go", Line: 3}.String())
}

func TestMultipleErrors(t *testing.T) {
	multi := NewMultipleErrors()
	require.NoError(t, multi.ErrorOrNil())

	multi.Add(Newf(SyntaxErrorCode, "first").WithSuggestion("fix first"))
	assert.Equal(t, "first", multi.Error())

	multi.Add(Newf(MarkerFormatErrorCode, "second"))
	assert.Equal(t, 2, multi.Count())
	assert.Equal(t, SyntaxErrorCode, multi.ErrorCode())
	assert.Equal(t, []string{"fix first"}, multi.Suggestions())
	assert.Equal(t, "multiple errors (2 total):\n  1. first\n  2. second", multi.Error())
	assert.True(t, HasCode(multi.ErrorOrNil(), SyntaxErrorCode))
}
