package vfs

// Options is a bitset of creation options accepted by [ArchiveFileSystem.Mknod].
type Options uint8

const (
	// CreateParents instructs Mknod to create any missing parent
	// directories instead of failing with [ErrMissingParent].
	CreateParents Options = 1 << iota
	// Exclusive instructs Mknod to fail with [ErrAlreadyExists] if an
	// entry already exists at the target path.
	Exclusive
)

// Has reports whether all bits of o are set in flags.
func (flags Options) Has(o Options) bool {
	return flags&o == o
}

// Clear returns flags with the bits of o cleared.
func (flags Options) Clear(o Options) Options {
	return flags &^ o
}

// ArchiveDriver is implemented by the concrete archive codec (a ZIP or TAR
// reader/writer; this package has no opinion on the archive format) and is
// the only way [ArchiveFileSystem] constructs new archive entries.
type ArchiveDriver interface {
	// NewEntry returns a new archive entry of the given type, optionally
	// inheriting properties from template (nil if none). It may return
	// [ErrInvalidName] if name cannot be encoded by the driver's format.
	NewEntry(name string, t EntryType, template ArchiveEntry, options Options) (ArchiveEntry, error)

	// AssertEncodable performs a pure check that name is encodable by the
	// driver's archive format, without allocating an entry.
	AssertEncodable(name string) error
}

// EntryContainer is an iterable set of archive entries used to populate an
// [ArchiveFileSystem]. Iteration order is driver-defined; this package never
// relies on it.
type EntryContainer interface {
	// Entries returns every entry in the container, in driver-defined order.
	Entries() []ArchiveEntry

	// Size returns the number of entries in the container.
	Size() int

	// Entry returns the entry with the given canonical name, or nil.
	Entry(name string) ArchiveEntry
}

// TouchListener is notified immediately before an [ArchiveFileSystem] is
// modified for the first time since construction (or since the last touch
// epoch). Returning an error vetoes the modification: the filesystem state
// remains unchanged and the caller's mutator returns the same error.
type TouchListener interface {
	PreTouch() error
}
