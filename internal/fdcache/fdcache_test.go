package fdcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

func writeTestZip(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("a.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return path
}

// Expectation: Acquire opens and caches an archive; a second Acquire for
// the same path reuses the cached reader rather than reopening it.
func Test_Cache_Acquire_ReusesCachedReader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeTestZip(t, dir, "a.zip")

	c := New(8, time.Minute, nil)
	defer c.Stop()

	r1, err := c.Acquire(path)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	r2, err := c.Acquire(path)
	require.NoError(t, err)
	require.Same(t, r1, r2)
	require.Equal(t, 1, c.Len())

	c.Release(path)
	c.Release(path)
}

// Expectation: two distinct archives occupy two distinct cache slots.
func Test_Cache_Acquire_DistinctPathsDistinctEntries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pathA := writeTestZip(t, dir, "a.zip")
	pathB := writeTestZip(t, dir, "b.zip")

	c := New(8, time.Minute, nil)
	defer c.Stop()

	_, err := c.Acquire(pathA)
	require.NoError(t, err)
	_, err = c.Acquire(pathB)
	require.NoError(t, err)

	require.Equal(t, 2, c.Len())

	c.Release(pathA)
	c.Release(pathB)
}

// Expectation: Acquire on a non-existent path propagates the open error.
func Test_Cache_Acquire_MissingFileErrors(t *testing.T) {
	t.Parallel()

	c := New(8, time.Minute, nil)
	defer c.Stop()

	_, err := c.Acquire(filepath.Join(t.TempDir(), "missing.zip"))
	require.Error(t, err)
}
