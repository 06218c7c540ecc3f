package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleSet_Registration(t *testing.T) {
	rules := NewRuleSet("Custom", WithAlwaysEncodeBody())
	assert.Equal(t, "Custom", rules.Name())
	assert.True(t, rules.AlwaysEncodeBody())

	noop := func(Marker, *MethodMetadata) error { return nil }
	require.NoError(t, rules.RegisterMethod("verb", noop))
	require.NoError(t, rules.RegisterClass("verb", noop), "scopes are independent")

	err := rules.RegisterMethod("verb", noop)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	err = rules.RegisterParameter("", func(Marker, *MethodMetadata, int) (bool, error) { return false, nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}

func TestDefaultRules_Kinds(t *testing.T) {
	class, method, param := DefaultRules().Kinds()
	assert.Equal(t, []string{MarkerHeaders}, class)
	assert.Equal(t, []string{MarkerRequestLine, MarkerBody, MarkerHeaders, MarkerIgnore}, method)
	assert.Equal(t, []string{MarkerParam, MarkerQueryMap, MarkerHeaderMap}, param)
	assert.False(t, DefaultRules().AlwaysEncodeBody())
}
