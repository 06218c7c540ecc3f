package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplate_Defaults(t *testing.T) {
	tmpl := NewTemplate()
	assert.True(t, tmpl.DecodeSlash())
	assert.Equal(t, Exploded, tmpl.CollectionFormat())
	assert.Empty(t, tmpl.Verb())
	assert.Zero(t, tmpl.Headers().Len())
}

func TestTemplate_HasRequestVariable(t *testing.T) {
	tmpl := NewTemplate()
	tmpl.SetURI("/users/{id}/posts/{postId:[0-9]+}?q={ query }")
	tmpl.SetBodyTemplate(`{"name": "{name}"}`)
	h := NewHeaderMap()
	h.Add("Authorization", "Bearer {token}")
	tmpl.SetHeaders(h)

	for _, name := range []string{"id", "postId", "query", "name", "token"} {
		assert.True(t, tmpl.HasRequestVariable(name), name)
	}
	for _, name := range []string{"users", "Bearer", "q", ""} {
		assert.False(t, tmpl.HasRequestVariable(name), name)
	}

	assert.Equal(t, []string{"id", "postId", "query", "token", "name"}, tmpl.Variables())
}

func TestTemplate_Body(t *testing.T) {
	tmpl := NewTemplate()
	tmpl.SetBodyTemplate("{a}")
	tmpl.SetBody("plain")
	assert.Equal(t, "plain", tmpl.Body())
	assert.Empty(t, tmpl.BodyTemplate())

	tmpl.SetBodyTemplate("{a}")
	assert.Empty(t, tmpl.Body())
}

func TestTemplate_SetHeaders(t *testing.T) {
	tmpl := NewTemplate()

	h := NewHeaderMap()
	h.Add("B", "1")
	h.Add("A", "2")
	h.Add("B", "3")
	tmpl.SetHeaders(h)
	assert.Equal(t, []string{"B", "A"}, tmpl.HeaderNames())
	assert.Equal(t, []string{"1", "3"}, tmpl.Header("B"))

	tmpl.SetHeaders(NewHeaderMap())
	assert.Empty(t, tmpl.HeaderNames())

	tmpl.SetHeaders(h)
	tmpl.SetHeaders(nil)
	assert.Empty(t, tmpl.HeaderNames())
}

func TestHeaderMap_PutAllKeepsPosition(t *testing.T) {
	base := NewHeaderMap()
	base.Add("X", "1")
	base.Add("Y", "2")

	over := NewHeaderMap()
	over.Add("Z", "3")
	over.Add("X", "9")

	base.PutAll(over)
	assert.Equal(t, []string{"X", "Y", "Z"}, base.Names())
	assert.Equal(t, []string{"9"}, base.Values("X"))
	assert.True(t, base.Has("Z"))
	assert.False(t, base.Has("W"))
}

func TestParseCollectionFormat(t *testing.T) {
	tests := []struct {
		in   string
		want CollectionFormat
		sep  string
		ok   bool
	}{
		{"EXPLODED", Exploded, "", true},
		{"csv", CSV, ",", true},
		{"SSV", SSV, " ", true},
		{"tsv", TSV, "\t", true},
		{"Pipes", Pipes, "|", true},
		{"comma", "", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseCollectionFormat(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.sep, got.Separator(), tt.in)
	}
}
