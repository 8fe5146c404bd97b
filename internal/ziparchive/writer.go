package ziparchive

import (
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/archvfs/archvfs/internal/rofile"
	"github.com/archvfs/archvfs/internal/vfs"
)

// ContentSource supplies the bytes of a FILE entry by canonical path. A
// [Reader] satisfies it for entries it still holds open.
type ContentSource interface {
	Open(name string) (rofile.ReadOnlyFile, error)
}

// WriteArchive writes every entry currently in fsys out to w as a new ZIP
// archive: directories as ZIP directory records (trailing '/', no content),
// files by copying from content. The root entry is not written. If content
// cannot open a file's body, WriteArchive stops and returns that error.
func WriteArchive(w io.Writer, fsys *vfs.ArchiveFileSystem, content ContentSource) error {
	zw := zip.NewWriter(w)

	for _, ce := range fsys.Iterator() {
		if vfs.IsRoot(ce.Path()) {
			continue
		}

		if err := writeEntry(zw, ce, content); err != nil {
			_ = zw.Close()

			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("ziparchive: finalize: %w", err)
	}

	return nil
}

func writeEntry(zw *zip.Writer, ce *vfs.CovariantEntry, content ContentSource) error {
	if dir := ce.Get(vfs.DIRECTORY); dir != nil {
		hdr := headerFor(ce.Path()+"/", dir)
		hdr.Method = zip.Store

		if _, err := zw.CreateHeader(hdr); err != nil {
			return fmt.Errorf("ziparchive: write directory %q: %w", ce.Path(), err)
		}
	}

	file := ce.Get(vfs.FILE)
	if file == nil {
		return nil
	}

	hdr := headerFor(ce.Path(), file)
	hdr.Method = zip.Deflate

	dest, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("ziparchive: write file %q: %w", ce.Path(), err)
	}

	src, err := content.Open(ce.Path())
	if err != nil {
		return fmt.Errorf("ziparchive: read content of %q: %w", ce.Path(), err)
	}
	defer src.Close()

	if _, err := io.Copy(dest, src); err != nil {
		return fmt.Errorf("ziparchive: copy content of %q: %w", ce.Path(), err)
	}

	return nil
}

func headerFor(zipName string, entry vfs.ArchiveEntry) *zip.FileHeader {
	hdr := &zip.FileHeader{Name: zipName}

	if t := entry.Time(vfs.AccessWrite); t != vfs.Unknown {
		hdr.Modified = time.UnixMilli(t)
	} else {
		hdr.Modified = time.Now()
	}

	return hdr
}
