package ziparchive

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"

	"github.com/archvfs/archvfs/internal/rofile"
	"github.com/archvfs/archvfs/internal/vfs"
)

// Reader exposes an opened ZIP central directory as a [vfs.EntryContainer],
// plus per-entry random-access content reading. It owns closer (if any) and
// must itself be closed after use.
type Reader struct {
	closer  io.Closer
	entries []vfs.ArchiveEntry
	byName  map[string]*Entry
}

// OpenReader opens path as a ZIP archive and returns a [Reader] over its
// central directory.
func OpenReader(path string) (*Reader, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("ziparchive: open %q: %w", path, err)
	}

	return newReader(rc, rc.File), nil
}

// NewReader wraps an already-opened [zip.Reader] (for instance one backed
// by an in-memory buffer or another embedded source) as a [Reader]. Close
// on the result is a no-op; the caller owns zr's underlying source.
func NewReader(zr *zip.Reader) *Reader {
	return newReader(nil, zr.File)
}

func newReader(closer io.Closer, files []*zip.File) *Reader {
	r := &Reader{
		closer:  closer,
		entries: make([]vfs.ArchiveEntry, 0, len(files)),
		byName:  make(map[string]*Entry, len(files)),
	}

	for _, f := range files {
		e := fromZipFile(f)
		r.entries = append(r.entries, e)
		r.byName[e.name] = e
	}

	return r
}

// Entries returns every entry loaded from the central directory.
func (r *Reader) Entries() []vfs.ArchiveEntry {
	return r.entries
}

// Size returns the number of entries loaded from the central directory.
func (r *Reader) Size() int {
	return len(r.entries)
}

// Entry returns the entry canonically named name, or nil.
func (r *Reader) Entry(name string) vfs.ArchiveEntry {
	if e, ok := r.byName[name]; ok {
		return e
	}

	return nil
}

// Open opens the content of the FILE entry canonically named name for
// random-access reading. It returns [vfs.ErrNotFound] if no such entry
// exists and [ErrNotAFile] if it is not a file.
func (r *Reader) Open(name string) (rofile.ReadOnlyFile, error) {
	e, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("ziparchive: open %q: %w", name, vfs.ErrNotFound)
	}
	if e.typ != vfs.FILE {
		return nil, fmt.Errorf("ziparchive: open %q: %w", name, ErrNotAFile)
	}

	rc, err := e.file.Open()
	if err != nil {
		return nil, fmt.Errorf("ziparchive: open %q: %w", name, err)
	}

	return &entryFile{rc: rc, size: int64(e.file.UncompressedSize64)}, nil
}

// Close closes the underlying ZIP archive, if this [Reader] owns one. Any
// [entryFile] obtained via Open that is still live must be closed
// independently first.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	if err := r.closer.Close(); err != nil {
		return fmt.Errorf("ziparchive: close: %w", err)
	}

	return nil
}

var _ io.Closer = (*Reader)(nil)
