package vfs

import (
	"fmt"
	"time"
)

// ArchiveFileSystem is a read/write virtual filesystem for archive entries.
// It is not internally thread-safe: callers must serialize their own
// calls, typically through an owning controller.
type ArchiveFileSystem struct {
	driver ArchiveDriver
	table  *entryTable

	touched       bool
	touchListener TouchListener
}

// NewEmptyFileSystem returns a new, empty, writable [ArchiveFileSystem].
// Only the root directory is created, with every access time set to the
// current time. The filesystem is marked as already touched.
func NewEmptyFileSystem(driver ArchiveDriver) (*ArchiveFileSystem, error) {
	root, err := driver.NewEntry(Root, DIRECTORY, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("new empty filesystem: %w", err)
	}

	now := time.Now().UnixMilli()
	for _, a := range AllAccessKinds {
		root.SetTime(a, now)
	}

	table := newEntryTable(1)
	table.add(Root, root)

	return &ArchiveFileSystem{
		driver:  driver,
		table:   table,
		touched: true,
	}, nil
}

// NewPopulatedFileSystem returns a new [ArchiveFileSystem] whose entries are
// loaded from container. rootTemplate, if non-nil, is used to construct the
// replacement root directory entry.
func NewPopulatedFileSystem(driver ArchiveDriver, container EntryContainer, rootTemplate ArchiveEntry) (*ArchiveFileSystem, error) {
	entries := container.Entries()
	table := newEntryTable(len(entries) + 1)

	toFix := make([]string, 0, len(entries))
	for _, entry := range entries {
		path := Canonical(entry.Name())
		table.add(path, entry)

		if len(path) >= 3 && path[:3] == ".."+Separator {
			continue
		}
		if len(path) >= 1 && path[:1] == Separator {
			continue
		}
		toFix = append(toFix, path)
	}

	root, err := driver.NewEntry(Root, DIRECTORY, rootTemplate, 0)
	if err != nil {
		return nil, fmt.Errorf("new populated filesystem: %w", err)
	}
	table.add(Root, root)

	fsys := &ArchiveFileSystem{driver: driver, table: table}
	for _, path := range toFix {
		fsys.fix(path)
	}

	return fsys, nil
}

// fix ensures that every parent directory of path exists in the table and
// that its member set contains path's base name, synthesizing "ghost"
// directories (all times Unknown) where a parent is missing, then recursing
// toward the root.
func (fsys *ArchiveFileSystem) fix(path string) {
	if IsRoot(path) {
		return
	}

	parentPath, memberName := Split(path)

	parent := fsys.table.get(parentPath)
	if parent == nil || !parent.IsType(DIRECTORY) {
		ghost, err := fsys.driver.NewEntry(parentPath, DIRECTORY, nil, 0)
		if err != nil {
			panic(fmt.Sprintf("archive entry name %q rejected by driver during integrity fix-up: %v", parentPath, err))
		}
		parent = fsys.table.add(parentPath, ghost)
	}
	parent.Add(memberName)

	fsys.fix(parentPath)
}

// IsReadOnly reports whether this filesystem rejects mutators. The base
// implementation always returns false; see [ReadOnlyFileSystem].
func (fsys *ArchiveFileSystem) IsReadOnly() bool {
	return false
}

// IsWritable reports !IsReadOnly() for the given entry (this package
// does not support per-entry write protection beyond the global flag).
func (fsys *ArchiveFileSystem) IsWritable(_ string) bool {
	return !fsys.IsReadOnly()
}

// Size returns the number of distinct paths currently in the filesystem.
func (fsys *ArchiveFileSystem) Size() int {
	return fsys.table.size()
}

// Iterator returns every covariant entry currently in the filesystem, in
// insertion order. The returned entries are defensive clones: mutating one
// does not affect the live tree.
func (fsys *ArchiveFileSystem) Iterator() []*CovariantEntry {
	all := fsys.table.all()
	out := make([]*CovariantEntry, len(all))
	for i, ce := range all {
		out[i] = ce.clone()
	}

	return out
}

// Entry returns a defensive clone of the covariant entry at name, or nil if
// no entry exists there.
func (fsys *ArchiveFileSystem) Entry(name string) *CovariantEntry {
	ce := fsys.table.get(Canonical(name))
	if ce == nil {
		return nil
	}

	return ce.clone()
}

// SetTouchListener installs listener, called at most once per clean→dirty
// transition. Passing a non-nil listener when one is already set fails with
// [ErrListenerAlreadySet]; passing nil always clears the listener.
func (fsys *ArchiveFileSystem) SetTouchListener(listener TouchListener) error {
	if listener != nil && fsys.touchListener != nil {
		return ErrListenerAlreadySet
	}
	fsys.touchListener = listener

	return nil
}

// touch marks the filesystem touched, invoking the touch listener's
// PreTouch at most once per touch epoch. If PreTouch returns an error, the
// error propagates and the filesystem remains untouched (and therefore
// unmodified, so long as callers touch before mutating).
func (fsys *ArchiveFileSystem) touch() error {
	if fsys.touched {
		return nil
	}
	if fsys.touchListener != nil {
		if err := fsys.touchListener.PreTouch(); err != nil {
			return fmt.Errorf("touch: %w", err)
		}
	}
	fsys.touched = true

	return nil
}

// SetTime sets the given access kinds on the entry at name to value. It
// returns the conjunction of each per-kind ArchiveEntry.SetTime result; a
// false return means at least one kind could not be represented by the
// driver's entry type, not that the whole call failed.
func (fsys *ArchiveFileSystem) SetTime(name string, kinds []Access, value int64) (bool, error) {
	if value < 0 {
		return false, newPathError("setTime", name, ErrInvalidArgument)
	}

	ce := fsys.table.get(Canonical(name))
	if ce == nil {
		return false, newPathError("setTime", name, ErrNotFound)
	}

	if err := fsys.touch(); err != nil {
		return false, err
	}

	ae := ce.PreferredEntry()
	ok := true
	for _, kind := range kinds {
		ok = ae.SetTime(kind, value) && ok
	}

	return ok, nil
}

// SetTimes sets each (kind, value) pair on the entry at name, applying only
// the pairs with a non-negative value; any skipped or rejected pair is
// AND'd into the returned conjunction as a partial failure. The listener is
// touched unconditionally before applying any pair.
func (fsys *ArchiveFileSystem) SetTimes(name string, times map[Access]int64) (bool, error) {
	ce := fsys.table.get(Canonical(name))
	if ce == nil {
		return false, newPathError("setTime", name, ErrNotFound)
	}

	if err := fsys.touch(); err != nil {
		return false, err
	}

	ae := ce.PreferredEntry()
	ok := true
	for kind, value := range times {
		ok = value >= 0 && ae.SetTime(kind, value) && ok
	}

	return ok, nil
}

// SetReadOnly succeeds iff the filesystem is already read-only: the base
// (writable) implementation always fails with [ErrReadOnlyFileSystem],
// since it cannot change its own mutability.
func (fsys *ArchiveFileSystem) SetReadOnly(name string) error {
	if !fsys.IsReadOnly() {
		return newPathError("setReadOnly", name, ErrReadOnlyFileSystem)
	}

	return nil
}

// Unlink removes the entry at name. Directories must be empty. Unlinking
// the root path is a silent no-op (it is never removed from the table).
func (fsys *ArchiveFileSystem) Unlink(name string) error {
	path := Canonical(name)

	ce := fsys.table.get(path)
	if ce == nil {
		return newPathError("unlink", name, ErrNotFound)
	}
	if ce.IsType(DIRECTORY) {
		if n := len(ce.Members()); n != 0 {
			return &DirectoryNotEmptyError{Path: name, Members: n}
		}
	}
	if IsRoot(path) {
		return nil
	}

	if err := fsys.touch(); err != nil {
		return err
	}

	removed := fsys.table.remove(path)
	ae := removed.PreferredEntry()
	for _, s := range AllSizeKinds {
		ae.SetSize(s, Unknown)
	}
	for _, a := range AllAccessKinds {
		ae.SetTime(a, Unknown)
	}

	parentPath, memberName := Split(path)
	parent := fsys.table.get(parentPath)
	if parent == nil {
		panic(fmt.Sprintf("the parent directory of %q is missing - archive file system is corrupted", name))
	}
	if !parent.Remove(memberName) {
		panic(fmt.Sprintf("the parent directory of %q does not contain this entry - archive file system is corrupted", name))
	}

	pae := parent.PreferredEntry()
	if pae.Time(AccessWrite) != Unknown {
		pae.SetTime(AccessWrite, time.Now().UnixMilli())
	}

	return nil
}
