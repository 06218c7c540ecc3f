package contract

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeBindings_Bind(t *testing.T) {
	md := parsedFixture(t)[0]

	expanders := NewExpanderRegistry()
	require.NoError(t, expanders.Register("ids.Format", ExpanderFunc(func(v any) string {
		return "id-" + ToStringExpander.Expand(v)
	})))

	bindings := NewRuntimeBindings(expanders.Factory())
	b, err := bindings.Bind(md)
	require.NoError(t, err)

	assert.Equal(t, md.ID(), b.ID)
	assert.True(t, b.ReturnType.Equal(userType))
	assert.Same(t, md.Method(), b.Method)
	assert.Equal(t, "id-7", b.Expander(0).Expand(7))
	assert.Equal(t, "7", b.Expander(1).Expand(7), "unbound positions use ToStringExpander")

	again, err := bindings.Bind(md)
	require.NoError(t, err)
	assert.Same(t, b, again)

	found, ok := bindings.Lookup(md.ID())
	assert.True(t, ok)
	assert.Same(t, b, found)

	bindings.Forget(md.ID())
	assert.Equal(t, 0, bindings.Len())
}

func TestRuntimeBindings_LiveExpanderWins(t *testing.T) {
	md := parsedFixture(t)[0]
	md.SetExpander(0, ExpanderFunc(func(any) string { return "live" }))

	bindings := NewRuntimeBindings(nil)
	b, err := bindings.Bind(md)
	require.NoError(t, err)
	assert.Equal(t, "live", b.Expander(0).Expand("x"))
}

func TestRuntimeBindings_UnknownExpander(t *testing.T) {
	md := parsedFixture(t)[0]

	bindings := NewRuntimeBindings(NewExpanderRegistry().Factory())
	_, err := bindings.Bind(md)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "ids.Format"))
	assert.Equal(t, 0, bindings.Len(), "failed bindings are not cached")
}

func TestRuntimeBindings_Concurrent(t *testing.T) {
	descriptors := parsedFixture(t)
	bindings := NewRuntimeBindings(func(string) (Expander, error) { return ToStringExpander, nil })

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, md := range descriptors {
				_, err := bindings.Bind(md)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 2, bindings.Len())
}

func TestExpanderRegistry_RejectsDuplicates(t *testing.T) {
	r := NewExpanderRegistry()
	require.NoError(t, r.Register("a", ToStringExpander))
	assert.Error(t, r.Register("a", ToStringExpander))
	assert.Error(t, r.Register("", ToStringExpander))
}
