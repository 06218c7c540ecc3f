package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGoMod(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte(content), 0644))
}

func TestParseModuleName(t *testing.T) {
	dir := t.TempDir()
	writeGoMod(t, dir, "module example.com/shop\n\ngo 1.25\n")

	name, err := ParseModuleName(filepath.Join(dir, "go.mod"))
	require.NoError(t, err)
	assert.Equal(t, "example.com/shop", name)

	_, err = ParseModuleName(filepath.Join(dir, "go.sum"))
	assert.ErrorContains(t, err, "not a go.mod file")

	writeGoMod(t, dir, "go 1.25\n")
	_, err = ParseModuleName(filepath.Join(dir, "go.mod"))
	assert.ErrorContains(t, err, "no module declaration")

	writeGoMod(t, dir, "module\n")
	_, err = ParseModuleName(filepath.Join(dir, "go.mod"))
	assert.ErrorContains(t, err, "failed to parse go.mod")
}

func TestFindModule(t *testing.T) {
	root := t.TempDir()
	writeGoMod(t, root, "module example.com/shop\n")
	nested := filepath.Join(root, "internal", "clients")
	require.NoError(t, os.MkdirAll(nested, 0755))

	mod, err := FindModule(nested)
	require.NoError(t, err)
	assert.Equal(t, "example.com/shop", mod.Path)

	expectedRoot, err := filepath.Abs(root)
	require.NoError(t, err)
	assert.Equal(t, expectedRoot, mod.Root)

	path, err := mod.ImportPath(nested)
	require.NoError(t, err)
	assert.Equal(t, "example.com/shop/internal/clients", path)

	path, err = mod.ImportPath(root)
	require.NoError(t, err)
	assert.Equal(t, "example.com/shop", path)

	_, err = mod.ImportPath(filepath.Dir(root))
	assert.ErrorContains(t, err, "outside module")
}
