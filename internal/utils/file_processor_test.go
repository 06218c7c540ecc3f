package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestDefaultFilters(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"api.go":      "package api",
		"api_test.go": "package api",
		"README.md":   "# api",
	})

	entries, err := os.ReadDir(root)
	require.NoError(t, err)

	filter := DefaultGoFileFilter()
	var accepted []string
	for _, entry := range entries {
		if filter(filepath.Join(root, entry.Name()), entry) {
			accepted = append(accepted, entry.Name())
		}
	}
	assert.Equal(t, []string{"api.go"}, accepted)
}

func TestPatternRoots(t *testing.T) {
	base := filepath.FromSlash("/work/shop")
	roots := PatternRoots(base, []string{"./...", "./internal/...", "./api", "...", "/abs/dir"})

	assert.Equal(t, []PatternRoot{
		{Dir: base, Recursive: true},
		{Dir: filepath.Join(base, "internal"), Recursive: true},
		{Dir: filepath.Join(base, "api")},
		{Dir: base, Recursive: true},
		{Dir: filepath.FromSlash("/abs/dir")},
	}, roots)
}

func TestPackageDirs(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"go.mod":                   "module example.com/shop",
		"api/users.go":             "package api",
		"api/v2/orders.go":         "package v2",
		"api/docs/README.md":       "# docs",
		"only_tests/x_test.go":     "package only",
		"vendor/lib/lib.go":        "package lib",
		"testdata/fixture/f.go":    "package fixture",
		".hidden/h.go":             "package hidden",
		"_scratch/s.go":            "package scratch",
		"internal/clients/http.go": "package clients",
	})

	dirs, err := PackageDirs(PatternRoots(root, []string{"./..."}))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "api"),
		filepath.Join(root, "api", "v2"),
		filepath.Join(root, "internal", "clients"),
	}, dirs)

	dirs, err = PackageDirs(PatternRoots(root, []string{"./api", "./api/..."}))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "api"), filepath.Join(root, "api", "v2")}, dirs,
		"non-recursive roots do not descend and directories are reported once")

	_, err = PackageDirs(PatternRoots(root, []string{"./missing"}))
	assert.Error(t, err)
}
