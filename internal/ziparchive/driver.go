// Package ziparchive is the concrete ZIP codec driver for [vfs]: it
// implements [vfs.ArchiveDriver] and [vfs.EntryContainer] against a real
// opened ZIP central directory (github.com/klauspost/compress/zip),
// including name encodability checks, so the virtual filesystem overlay is
// exercised against a real archive format end to end and not only against
// in-memory fakes.
package ziparchive

import (
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/archvfs/archvfs/internal/vfs"
)

// maxNameLength is the length a ZIP file name field can hold (a uint16
// byte count); names are also rejected if they contain a NUL byte, which
// no ZIP implementation can round-trip.
const maxNameLength = 0xFFFF

// ErrInvalidName is returned by AssertEncodable/NewEntry for a name the
// ZIP format cannot represent.
var ErrInvalidName = errors.New("ziparchive: name not encodable in ZIP format")

// ErrNotAFile is returned by [Reader.Open] for a DIRECTORY entry.
var ErrNotAFile = errors.New("ziparchive: entry is not a file")

// Driver implements [vfs.ArchiveDriver] for the ZIP format.
type Driver struct{}

// NewDriver returns a new ZIP [Driver]. There is no configuration: naming
// rules are fixed by the ZIP format itself.
func NewDriver() *Driver {
	return &Driver{}
}

// AssertEncodable performs a pure check that name is encodable as a ZIP
// entry name, without allocating an entry.
func (d *Driver) AssertEncodable(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: %d bytes exceeds ZIP's %d byte limit", ErrInvalidName, len(name), maxNameLength)
	}
	for i := 0; i < len(name); i++ {
		if name[i] == 0 {
			return fmt.Errorf("%w: contains a NUL byte", ErrInvalidName)
		}
	}

	return nil
}

// NewEntry returns a new [Entry] of the given type, optionally inheriting
// times and sizes from template. The directory suffix ZIP central
// directories use internally is this driver's concern alone: name is the
// canonical path handed over by [vfs.ArchiveFileSystem.Mknod], with no
// trailing separator, and Entry.Name echoes it back unchanged. The root
// path [vfs.Root] ("") is accepted here although AssertEncodable rejects
// it: the filesystem builds its root directory through NewEntry, and
// [WriteArchive] never writes the root as a ZIP record.
func (d *Driver) NewEntry(name string, t vfs.EntryType, template vfs.ArchiveEntry, _ vfs.Options) (vfs.ArchiveEntry, error) {
	if !vfs.IsRoot(name) {
		if err := d.AssertEncodable(name); err != nil {
			return nil, err
		}
	}

	e := &Entry{name: name, typ: t}
	for i := range e.times {
		e.times[i] = vfs.Unknown
	}
	for i := range e.sizes {
		e.sizes[i] = vfs.Unknown
	}

	if template != nil {
		for _, a := range vfs.AllAccessKinds {
			if v := template.Time(a); v != vfs.Unknown {
				e.times[a] = v
			}
		}
		for _, s := range vfs.AllSizeKinds {
			if v := template.Size(s); v != vfs.Unknown {
				e.sizes[s] = v
			}
		}
	}

	return e, nil
}

// Entry is a [vfs.ArchiveEntry] backed by a ZIP central directory record,
// or freshly minted in memory by NewEntry. A ZIP entry carries only one real modification time (the
// central directory's Modified field); AccessRead and AccessCreate are
// tracked here purely in memory and are never written back to the archive.
type Entry struct {
	name string
	typ  vfs.EntryType
	file *zip.File // nil for an entry not yet persisted

	times [3]int64 // indexed by vfs.Access
	sizes [2]int64 // indexed by vfs.Size
}

// fromZipFile returns an [Entry] wrapping an already-opened ZIP central
// directory record.
func fromZipFile(f *zip.File) *Entry {
	name := vfs.Canonical(f.Name)
	typ := vfs.FILE
	if f.FileInfo().IsDir() {
		typ = vfs.DIRECTORY
	}

	e := &Entry{name: name, typ: typ, file: f}
	e.times[vfs.AccessWrite] = f.Modified.UnixMilli()
	e.times[vfs.AccessRead] = vfs.Unknown
	e.times[vfs.AccessCreate] = vfs.Unknown
	e.sizes[vfs.SizeData] = int64(f.UncompressedSize64)
	e.sizes[vfs.SizeStorage] = int64(f.CompressedSize64)

	return e
}

func (e *Entry) Name() string {
	return e.name
}

func (e *Entry) Type() vfs.EntryType {
	return e.typ
}

func (e *Entry) Time(access vfs.Access) int64 {
	return e.times[access]
}

func (e *Entry) SetTime(access vfs.Access, value int64) bool {
	e.times[access] = value
	if access == vfs.AccessWrite && e.file != nil {
		e.file.Modified = time.UnixMilli(value)
	}

	return true
}

func (e *Entry) Size(kind vfs.Size) int64 {
	return e.sizes[kind]
}

func (e *Entry) SetSize(kind vfs.Size, value int64) bool {
	if e.file != nil {
		// Sizes of an already-persisted ZIP record are fixed by its
		// compressed stream; only an entry minted by NewEntry has a
		// bookkeeping size that can be changed.
		return false
	}

	e.sizes[kind] = value

	return true
}
