package utils

import (
	"errors"
	"os"
	"path/filepath"
)

// DirName is the per-project state directory.
const DirName = ".conductor"

// ErrNoProject is returned when no .conductor directory is found.
var ErrNoProject = errors.New("not in a conductor project (no .conductor directory found)")

// FindConductorDir walks up from start looking for a .conductor directory and
// returns its path. The CONDUCTOR_DIR environment variable short-circuits the
// search.
func FindConductorDir(start string) (string, error) {
	if env := os.Getenv("CONDUCTOR_DIR"); env != "" {
		return CanonicalizePath(env), nil
	}
	dir := CanonicalizePath(start)
	for {
		candidate := filepath.Join(dir, DirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoProject
		}
		dir = parent
	}
}

// ResolveForWrite returns the path to write to, resolving symlinks.
// If path is a symlink, returns the resolved target path.
// If path doesn't exist, returns path unchanged (new file).
func ResolveForWrite(path string) (string, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return path, nil
		}
		return "", err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return filepath.EvalSymlinks(path)
	}
	return path, nil
}

// CanonicalizePath converts a path to its canonical form by:
// 1. Converting to absolute path
// 2. Resolving symlinks
//
// If either step fails, it falls back to the best available form:
// - If symlink resolution fails, returns absolute path
// - If absolute path conversion fails, returns original path
func CanonicalizePath(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	canonical, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return absPath
	}
	return canonical
}
