package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizePath(t *testing.T) {
	dir := t.TempDir()
	got := CanonicalizePath(dir)
	assert.True(t, filepath.IsAbs(got))

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Nonexistent paths come back absolute.
	missing := CanonicalizePath(filepath.Join("does", "not", "exist"))
	assert.True(t, filepath.IsAbs(missing))
}

func TestFindConductorDir(t *testing.T) {
	t.Setenv("CONDUCTOR_DIR", "")
	root := t.TempDir()
	stateDir := filepath.Join(root, DirName)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(stateDir, 0o750))
	require.NoError(t, os.MkdirAll(nested, 0o750))

	got, err := FindConductorDir(nested)
	require.NoError(t, err)
	assert.Equal(t, CanonicalizePath(stateDir), got)

	_, err = FindConductorDir(t.TempDir())
	assert.ErrorIs(t, err, ErrNoProject)
}

func TestFindConductorDirEnvOverride(t *testing.T) {
	override := t.TempDir()
	t.Setenv("CONDUCTOR_DIR", override)
	got, err := FindConductorDir("/")
	require.NoError(t, err)
	assert.Equal(t, CanonicalizePath(override), got)
}

func TestResolveForWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.json")
	require.NoError(t, os.WriteFile(target, []byte("{}"), 0o600))
	link := filepath.Join(dir, "link.json")
	require.NoError(t, os.Symlink(target, link))

	got, err := ResolveForWrite(link)
	require.NoError(t, err)
	assert.Equal(t, CanonicalizePath(target), CanonicalizePath(got))

	fresh := filepath.Join(dir, "new.json")
	got, err = ResolveForWrite(fresh)
	require.NoError(t, err)
	assert.Equal(t, fresh, got)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "state.json")

	require.NoError(t, WriteFileAtomic(path, []byte(`{"v":1}`), 0o600))
	require.NoError(t, WriteFileAtomic(path, []byte(`{"v":2}`), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRenameWithRetryReportsFailure(t *testing.T) {
	dir := t.TempDir()
	err := RenameWithRetry(filepath.Join(dir, "missing"), filepath.Join(dir, "dst"), 2, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rename failed after")
}
