package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("project.name=Demo\n"), 0644))
}

func TestFindDescriptor_Single(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "game.cgt"))
	touch(t, filepath.Join(dir, "notes.txt"))

	got, err := FindDescriptor(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "game.cgt"), got)
}

func TestFindDescriptor_UpperCaseExtension(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "GAME.CGT"))

	got, err := FindDescriptor(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "GAME.CGT"), got)
}

func TestFindDescriptor_None(t *testing.T) {
	_, err := FindDescriptor(t.TempDir())
	require.ErrorIs(t, err, ErrNoDescriptor)
}

func TestFindDescriptor_IgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old.cgt"), 0755))

	_, err := FindDescriptor(dir)
	require.ErrorIs(t, err, ErrNoDescriptor)
}

func TestFindDescriptor_Ambiguous(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.cgt"))
	touch(t, filepath.Join(dir, "a.cgt"))

	_, err := FindDescriptor(dir)
	var ambiguous *AmbiguousDescriptorError
	require.True(t, errors.As(err, &ambiguous), "error = %v", err)
	require.Equal(t, []string{filepath.Join(dir, "a.cgt"), filepath.Join(dir, "b.cgt")}, ambiguous.Candidates)
	require.Contains(t, err.Error(), "a.cgt, b.cgt")
}

func TestFindDescriptorFrom_Subdir(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "game.cgt"))
	deep := filepath.Join(root, "src", "lib", "deep")
	require.NoError(t, os.MkdirAll(deep, 0755))

	got, err := FindDescriptorFrom(deep)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "game.cgt"), got)
}

func TestFindDescriptorFrom_StopsAtAmbiguity(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "game.cgt"))
	sub := filepath.Join(root, "sub")
	touch(t, filepath.Join(sub, "a.cgt"))
	touch(t, filepath.Join(sub, "b.cgt"))

	_, err := FindDescriptorFrom(sub)
	var ambiguous *AmbiguousDescriptorError
	require.ErrorAs(t, err, &ambiguous)
}

func TestResolve_ExplicitPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.cgt")
	touch(t, path)

	got, err := Resolve([]string{path})
	require.NoError(t, err)
	require.Equal(t, path, got)

	got, err = Resolve([]string{dir})
	require.NoError(t, err)
	require.Equal(t, path, got)

	missing := filepath.Join(dir, "missing.cgt")
	got, err = Resolve([]string{missing})
	require.NoError(t, err, "a missing file is reported by the build, not discovery")
	require.Equal(t, missing, got)
}

func TestResolve_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "game.cgt"))
	t.Chdir(dir)

	got, err := Resolve(nil)
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(filepath.Join(dir, "game.cgt"))
	require.NoError(t, err)
	gotReal, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	require.Equal(t, want, gotReal)
}
