package markers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/feigo/internal/errors"
	"github.com/toyz/feigo/pkg/contract"
)

func TestParser_Parse(t *testing.T) {
	parser := NewParser("")
	location := errors.SourceLocation{File: "api.go", Line: 12, Column: 2}

	tests := []struct {
		name     string
		input    string
		expected contract.Marker
	}{
		{
			name:     "kind only",
			input:    "//feigo::ignore",
			expected: contract.Marker{Kind: "ignore"},
		},
		{
			name:     "request line",
			input:    "//feigo::request_line GET /users/{id}",
			expected: contract.Marker{Kind: "request_line", Values: []string{"GET", "/users/{id}"}},
		},
		{
			name:  "request line with options",
			input: "// feigo::request_line GET /search?q={q} -DecodeSlash=false -CollectionFormat=CSV",
			expected: contract.Marker{
				Kind:    "request_line",
				Values:  []string{"GET", "/search?q={q}"},
				Options: map[string]string{"DecodeSlash": "false", "CollectionFormat": "CSV"},
			},
		},
		{
			name:  "quoted headers",
			input: `//feigo::headers "Accept: application/json" "X-Trace: {trace}"`,
			expected: contract.Marker{
				Kind:   "headers",
				Values: []string{"Accept: application/json", "X-Trace: {trace}"},
			},
		},
		{
			name:  "escaped quotes in body",
			input: `//feigo::body "{\"name\": \"{name}\"}"`,
			expected: contract.Marker{
				Kind:   "body",
				Values: []string{`{"name": "{name}"}`},
			},
		},
		{
			name:  "param with flag and quoted option",
			input: `//feigo::param -Name="user id" -Encoded -Expander=strs.Upper`,
			expected: contract.Marker{
				Kind:    "param",
				Options: map[string]string{"Name": "user id", "Encoded": "", "Expander": "strs.Upper"},
			},
		},
		{
			name:  "options before values",
			input: "//feigo::query_map -Encoded filters",
			expected: contract.Marker{
				Kind:    "query_map",
				Values:  []string{"filters"},
				Options: map[string]string{"Encoded": ""},
			},
		},
		{
			name:  "values containing equals",
			input: "//feigo::body a=b&c={c}",
			expected: contract.Marker{
				Kind:   "body",
				Values: []string{"a=b&c={c}"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parser.Parse(tt.input, location)
			require.NoError(t, err)

			tt.expected.Location = location
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParser_ParseErrors(t *testing.T) {
	parser := NewParser("feigo")
	location := errors.SourceLocation{File: "api.go", Line: 3}

	tests := []struct {
		name  string
		input string
		code  errors.ErrorCode
		msg   string
	}{
		{"not a comment", "feigo::body x", errors.SyntaxErrorCode, "must start with '//'"},
		{"wrong namespace", "//axon::route GET /", errors.SyntaxErrorCode, "'feigo::' prefix"},
		{"empty", "//feigo::", errors.SyntaxErrorCode, "empty marker"},
		{"bad kind", "//feigo::RequestLine GET /", errors.SyntaxErrorCode, "lower_snake_case"},
		{"space after namespace", "//feigo:: body x", errors.SyntaxErrorCode, "directly"},
		{"unterminated string", `//feigo::body "abc`, errors.SyntaxErrorCode, "failed to parse marker body"},
		{"dangling equals", "//feigo::param = x", errors.SyntaxErrorCode, "failed to parse marker param"},
		{"repeated option", "//feigo::param -Name=a -Name=b", errors.SyntaxErrorCode, "repeats option -Name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.input, location)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "unexpected code for %v", err)
			assert.Contains(t, err.Error(), tt.msg)
			assert.Contains(t, err.Error(), "api.go:3")
		})
	}
}

func TestParser_IsMarker(t *testing.T) {
	parser := NewParser("")
	assert.Equal(t, DefaultPrefix, parser.Prefix())

	assert.True(t, parser.IsMarker("//feigo::ignore"))
	assert.True(t, parser.IsMarker("  // feigo::headers \"A: b\""))
	assert.False(t, parser.IsMarker("// Users talks to the user service."))
	assert.False(t, parser.IsMarker("//axon::route GET /"))

	custom := NewParser("http")
	assert.True(t, custom.IsMarker("//http::request_line GET /"))
	assert.False(t, custom.IsMarker("//feigo::request_line GET /"))
}
