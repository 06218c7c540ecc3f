package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"

	"github.com/toyz/feigo/internal/errors"
)

// ModuleInfo locates a Go module on disk.
type ModuleInfo struct {
	Root string // directory holding go.mod
	Path string // module path declared in go.mod
}

// ParseModuleName extracts the module name from a go.mod file
func ParseModuleName(goModPath string) (string, error) {
	cleanPath := filepath.Clean(goModPath)
	if filepath.Base(cleanPath) != "go.mod" {
		return "", fmt.Errorf("file is not a go.mod file: %s", goModPath)
	}

	content, err := os.ReadFile(cleanPath)
	if err != nil {
		return "", errors.WrapFileSystemError("read", cleanPath, err)
	}

	modFile, err := modfile.Parse(cleanPath, content, nil)
	if err != nil {
		return "", errors.WrapParseError("go.mod", err)
	}

	if modFile.Module == nil {
		return "", fmt.Errorf("no module declaration found in %s", cleanPath)
	}

	return modFile.Module.Mod.Path, nil
}

// FindModule walks up from startDir to the nearest go.mod.
func FindModule(startDir string) (ModuleInfo, error) {
	currentDir, err := filepath.Abs(startDir)
	if err != nil {
		return ModuleInfo{}, errors.WrapFileSystemError("resolve path", startDir, err)
	}

	for {
		goModPath := filepath.Join(currentDir, "go.mod")
		if info, err := os.Stat(goModPath); err == nil && !info.IsDir() {
			path, err := ParseModuleName(goModPath)
			if err != nil {
				return ModuleInfo{}, err
			}
			return ModuleInfo{Root: currentDir, Path: path}, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ModuleInfo{}, fmt.Errorf("go.mod file not found above %s", startDir)
}

// ImportPath returns the import path of dir inside the module.
func (m ModuleInfo) ImportPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.WrapFileSystemError("resolve path", dir, err)
	}
	rel, err := filepath.Rel(m.Root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside module %s", dir, m.Path)
	}
	if rel == "." {
		return m.Path, nil
	}
	return m.Path + "/" + filepath.ToSlash(rel), nil
}
