package vfs

// ReadOnlyFileSystem wraps an [ArchiveFileSystem] and rejects every mutator
// with [ErrReadOnlyFileSystem] before any modification is attempted.
type ReadOnlyFileSystem struct {
	*ArchiveFileSystem
}

// NewReadOnlyFileSystem returns a [ReadOnlyFileSystem] populated from
// container, sharing the construction and integrity fix-up logic of the
// writable filesystem but rejecting all subsequent mutation.
func NewReadOnlyFileSystem(driver ArchiveDriver, container EntryContainer, rootTemplate ArchiveEntry) (*ReadOnlyFileSystem, error) {
	fsys, err := NewPopulatedFileSystem(driver, container, rootTemplate)
	if err != nil {
		return nil, err
	}

	return &ReadOnlyFileSystem{ArchiveFileSystem: fsys}, nil
}

// IsReadOnly always returns true.
func (fsys *ReadOnlyFileSystem) IsReadOnly() bool {
	return true
}

// IsWritable always returns false.
func (fsys *ReadOnlyFileSystem) IsWritable(_ string) bool {
	return false
}

// Mknod always fails with [ErrReadOnlyFileSystem].
func (fsys *ReadOnlyFileSystem) Mknod(name string, _ EntryType, _ Options, _ any) (*Operation, error) {
	return nil, newPathError("mknod", name, ErrReadOnlyFileSystem)
}

// Unlink always fails with [ErrReadOnlyFileSystem].
func (fsys *ReadOnlyFileSystem) Unlink(name string) error {
	return newPathError("unlink", name, ErrReadOnlyFileSystem)
}

// SetTime always fails with [ErrReadOnlyFileSystem].
func (fsys *ReadOnlyFileSystem) SetTime(name string, _ []Access, _ int64) (bool, error) {
	return false, newPathError("setTime", name, ErrReadOnlyFileSystem)
}

// SetTimes always fails with [ErrReadOnlyFileSystem].
func (fsys *ReadOnlyFileSystem) SetTimes(name string, _ map[Access]int64) (bool, error) {
	return false, newPathError("setTime", name, ErrReadOnlyFileSystem)
}

// SetReadOnly succeeds as a no-op: the filesystem is already read-only.
func (fsys *ReadOnlyFileSystem) SetReadOnly(_ string) error {
	return nil
}
