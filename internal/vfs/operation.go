package vfs

import (
	"fmt"
	"time"
)

// Operation is a staged mknod transaction returned by
// [ArchiveFileSystem.Mknod]. Nothing is linked into the filesystem until
// [Operation.Commit] is called.
type Operation struct {
	fsys  *ArchiveFileSystem
	links []segmentLink
}

// segmentLink is one entry in the chain built by Mknod: the first link's
// base is empty (it is the pre-existing parent the chain hangs off of);
// every subsequent link's base is the name it will be registered under in
// the preceding link's entry.
type segmentLink struct {
	base  string
	entry *CovariantEntry
}

// Target returns the covariant entry that will be linked at the requested
// path once Commit is called.
func (op *Operation) Target() *CovariantEntry {
	return op.links[len(op.links)-1].entry
}

// Mknod begins a transaction to create (or replace) and finally link a
// chain of one or more archive entries for name into the filesystem.
func (fsys *ArchiveFileSystem) Mknod(name string, t EntryType, options Options, template any) (*Operation, error) {
	if t != FILE && t != DIRECTORY {
		return nil, newPathError("mknod", name, ErrUnsupportedType)
	}

	path := Canonical(name)

	if old := fsys.table.get(path); old != nil {
		if !old.IsType(FILE) {
			return nil, newPathError("mknod", name, ErrNotReplaceable)
		}
		if t != FILE {
			return nil, newPathError("mknod", name, ErrTypeMismatch)
		}
		if options.Has(Exclusive) {
			return nil, newPathError("mknod", name, ErrAlreadyExists)
		}
	}

	templateEntry := unwrapTemplate(template, t)

	createParents := options.Has(CreateParents)
	childOptions := options.Clear(CreateParents)

	links, err := fsys.newSegmentLinks(path, t, childOptions, templateEntry, createParents)
	if err != nil {
		return nil, err
	}

	return &Operation{fsys: fsys, links: links}, nil
}

// unwrapTemplate resolves a caller-supplied mknod template to a plain
// [ArchiveEntry]. A template may be nil, an [ArchiveEntry] directly, or a
// *[CovariantEntry] (typically one previously returned by
// [ArchiveFileSystem.Entry]) — in the latter case it is unwrapped to its
// variant of the requested type.
func unwrapTemplate(template any, t EntryType) ArchiveEntry {
	switch v := template.(type) {
	case nil:
		return nil
	case *CovariantEntry:
		if v == nil {
			return nil
		}

		return v.Get(t)
	case ArchiveEntry:
		return v
	default:
		return nil
	}
}

// newSegmentLinks recursively builds the chain of segments needed to link
// entryName into the filesystem, creating missing parent directories along
// the way when createParents is set.
func (fsys *ArchiveFileSystem) newSegmentLinks(entryName string, entryType EntryType, options Options, template ArchiveEntry, createParents bool) ([]segmentLink, error) {
	parentPath, memberName := Split(entryName)

	newCE := newCovariantEntry(entryName)
	newEntry, err := fsys.driver.NewEntry(entryName, entryType, template, options)
	if err != nil {
		return nil, newPathError("mknod", entryName, fmt.Errorf("%w: %v", ErrInvalidName, err))
	}
	newCE.Put(entryType, newEntry)

	if parentCE := fsys.table.get(parentPath); parentCE != nil {
		if !parentCE.IsType(DIRECTORY) {
			return nil, newPathError("mknod", entryName, ErrNotADirectory)
		}

		return []segmentLink{
			{base: "", entry: parentCE},
			{base: memberName, entry: newCE},
		}, nil
	}

	if !createParents {
		return nil, newPathError("mknod", entryName, ErrMissingParent)
	}

	links, err := fsys.newSegmentLinks(parentPath, DIRECTORY, options, nil, createParents)
	if err != nil {
		return nil, err
	}

	return append(links, segmentLink{base: memberName, entry: newCE}), nil
}

// Commit stages the operation's segment chain into the filesystem: touches
// the filesystem, links every segment's entry into the table, and grows
// each parent's member set.
//
// Only links[0] — the anchor the chain hangs off of — may be a pre-existing
// directory; every other link is an entry this same call just created. The
// anchor's write time is bumped on growth, but only if it is not itself a
// ghost (a ghost's write time stays Unknown until a driver elects to persist
// it). Every other, freshly created link is never a ghost, so its write time
// is stamped with the commit time outright, unless a template already gave
// it one.
func (op *Operation) Commit() error {
	if err := op.fsys.touch(); err != nil {
		return err
	}

	var now int64 = Unknown
	currentTime := func() int64 {
		if now == Unknown {
			now = time.Now().UnixMilli()
		}

		return now
	}

	anchorCE := op.links[0].entry
	anchorAE := anchorCE.Get(DIRECTORY)

	parentPath := anchorCE.Path()

	for i := 1; i < len(op.links); i++ {
		link := op.links[i]
		entryCE := link.entry
		entryAE := entryCE.PreferredEntry()

		op.fsys.table.add(entryCE.Path(), entryAE)

		grew := op.fsys.table.get(parentPath).Add(link.base)
		if i == 1 && grew && anchorAE.Time(AccessWrite) != Unknown {
			anchorAE.SetTime(AccessWrite, currentTime())
		}

		if entryAE.Time(AccessWrite) == Unknown {
			entryAE.SetTime(AccessWrite, currentTime())
		}

		parentPath = entryCE.Path()
	}

	return nil
}
