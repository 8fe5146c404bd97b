package vfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Expectation: a CovariantEntry should hold at most one entry per type.
func Test_CovariantEntry_PutGet(t *testing.T) {
	t.Parallel()

	ce := newCovariantEntry("foo")
	file := newFakeEntry("foo", FILE)
	dir := newFakeEntry("foo", DIRECTORY)

	ce.Put(FILE, file)
	ce.Put(DIRECTORY, dir)

	require.Same(t, ArchiveEntry(file), ce.Get(FILE))
	require.Same(t, ArchiveEntry(dir), ce.Get(DIRECTORY))
	require.True(t, ce.IsType(FILE))
	require.True(t, ce.IsType(DIRECTORY))
	require.False(t, ce.IsType(SPECIAL))
}

// Expectation: PreferredEntry should prefer FILE over DIRECTORY over SPECIAL.
func Test_CovariantEntry_PreferredEntry(t *testing.T) {
	t.Parallel()

	ce := newCovariantEntry("foo")
	require.Nil(t, ce.PreferredEntry())

	dir := newFakeEntry("foo", DIRECTORY)
	ce.Put(DIRECTORY, dir)
	require.Same(t, ArchiveEntry(dir), ce.PreferredEntry())

	file := newFakeEntry("foo", FILE)
	ce.Put(FILE, file)
	require.Same(t, ArchiveEntry(file), ce.PreferredEntry())
}

// Expectation: Add should report growth only on genuinely new members.
func Test_CovariantEntry_Members(t *testing.T) {
	t.Parallel()

	ce := newCovariantEntry("dir")

	require.True(t, ce.Add("a"))
	require.False(t, ce.Add("a"))
	require.True(t, ce.Add("b"))
	require.Equal(t, []string{"a", "b"}, ce.Members())

	require.True(t, ce.Remove("a"))
	require.False(t, ce.Remove("a"))
	require.Equal(t, []string{"b"}, ce.Members())
}

// Expectation: clone should copy the member set independently of the source.
func Test_CovariantEntry_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	ce := newCovariantEntry("dir")
	ce.Add("a")

	cp := ce.clone()
	cp.Add("b")

	require.Equal(t, []string{"a"}, ce.Members())
	require.Equal(t, []string{"a", "b"}, cp.Members())
}
