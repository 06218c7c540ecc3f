package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/toyz/feigo/internal/errors"
)

// FileFilter defines a function that determines whether a file should be processed
type FileFilter func(path string, info os.DirEntry) bool

// DirectoryFilter defines a function that determines whether a directory should be processed
type DirectoryFilter func(path string, info os.DirEntry) bool

// DefaultGoFileFilter filters for .go files, excluding tests
func DefaultGoFileFilter() FileFilter {
	return func(path string, info os.DirEntry) bool {
		if info.IsDir() {
			return false
		}
		name := info.Name()
		return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
	}
}

// DefaultDirectoryFilter skips directories the go tool ignores plus common
// non-source trees.
func DefaultDirectoryFilter() DirectoryFilter {
	skipDirs := map[string]bool{
		"vendor":       true,
		"node_modules": true,
		"testdata":     true,
	}

	return func(path string, info os.DirEntry) bool {
		if !info.IsDir() {
			return true
		}
		name := info.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			return false
		}
		return !skipDirs[name]
	}
}

// PatternRoot is the directory a package pattern starts from.
type PatternRoot struct {
	Dir       string
	Recursive bool
}

// PatternRoots turns go package patterns relative to base into directories.
// "./..." style patterns are recursive; plain directories are not.
func PatternRoots(base string, patterns []string) []PatternRoot {
	roots := make([]PatternRoot, 0, len(patterns))
	for _, pattern := range patterns {
		recursive := false
		if pattern == "..." || strings.HasSuffix(pattern, "/...") {
			recursive = true
			pattern = strings.TrimSuffix(strings.TrimSuffix(pattern, "..."), "/")
			if pattern == "" {
				pattern = "."
			}
		}
		dir := pattern
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(base, dir)
		}
		roots = append(roots, PatternRoot{Dir: filepath.Clean(dir), Recursive: recursive})
	}
	return roots
}

// PackageDirs returns every directory under the roots that holds non-test Go
// files, each at most once, in walk order.
func PackageDirs(roots []PatternRoot) ([]string, error) {
	var packageDirs []string
	visited := make(map[string]bool)
	fileFilter := DefaultGoFileFilter()
	dirFilter := DefaultDirectoryFilter()

	for _, root := range roots {
		err := filepath.WalkDir(root.Dir, func(path string, entry os.DirEntry, err error) error {
			if err != nil {
				return errors.WrapFileSystemError("walk", path, err)
			}
			if !entry.IsDir() {
				return nil
			}
			if path != root.Dir && (!root.Recursive || !dirFilter(path, entry)) {
				return filepath.SkipDir
			}
			if visited[path] {
				return nil
			}
			visited[path] = true

			has, err := HasGoFiles(path, fileFilter)
			if err != nil {
				return err
			}
			if has {
				packageDirs = append(packageDirs, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return packageDirs, nil
}

// HasGoFiles checks if a directory contains a file accepted by filter
func HasGoFiles(dir string, filter FileFilter) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, errors.WrapFileSystemError("read directory", dir, err)
	}
	for _, entry := range entries {
		if filter(filepath.Join(dir, entry.Name()), entry) {
			return true, nil
		}
	}
	return false, nil
}
