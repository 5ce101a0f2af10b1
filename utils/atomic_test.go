package utils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")

	require.NoError(t, AtomicWriteFile(path, []byte("hello"), 0o600))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAtomicWriteStreamFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")

	err := AtomicWriteStream(path, 0o644, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAtomicWriteJSONNoHTMLEscape(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	require.NoError(t, AtomicWriteJSON(path, map[string]string{"title": "a<b> é"}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"title\": \"a<b> é\"\n}\n", string(data))
}

func TestRemoveMatchingStaleTemp(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, TempPrefix+"old")
	fresh := filepath.Join(dir, TempPrefix+"new")
	keep := filepath.Join(dir, "images.zip")
	for _, p := range []string{stale, fresh, keep} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	old := fileTime(t, -2*StaleTempAge)
	require.NoError(t, os.Chtimes(stale, old, old))

	errs := RemoveMatching(t.Context(), dir, StaleTemp(fileTime(t, 0)))
	assert.Empty(t, errs)

	var names []string
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{TempPrefix + "new", "images.zip"}, names)
	assert.False(t, strings.Contains(strings.Join(names, ","), "old"))
}

func TestEnsureDirsAndIsDir(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a", "b")
	require.NoError(t, EnsureDirs(a))
	assert.True(t, IsDir(a))

	file := filepath.Join(a, "file")
	require.NoError(t, os.WriteFile(file, []byte("1"), 0o644))
	assert.False(t, IsDir(file))
	assert.False(t, IsDir(filepath.Join(root, "missing")))
}

func fileTime(t *testing.T, offset time.Duration) time.Time {
	t.Helper()
	return time.Now().Add(offset)
}
