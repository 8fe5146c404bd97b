package ziparchive

import (
	"errors"
	"fmt"
	"io"
)

// errNonSeekableRewind occurs when an attempt is made to rewind a
// non-seekable entry's reader. ZIP deflate streams are forward-only, so a
// rewind can only be emulated by re-opening, which this type does not do
// on the caller's behalf.
var errNonSeekableRewind = errors.New("ziparchive: cannot rewind a non-seekable entry")

// entryFile adapts a [zip.File]'s opened content stream to
// [rofile.ReadOnlyFile]. Forward seeking is emulated by discarding bytes
// when the underlying reader is not an [io.Seeker] (the common case for a
// deflated entry); backward seeking on such a stream fails outright.
type entryFile struct {
	rc   io.ReadCloser
	size int64
	pos  int64
}

func (f *entryFile) Length() (int64, error) {
	return f.size, nil
}

func (f *entryFile) Position() (int64, error) {
	return f.pos, nil
}

func (f *entryFile) Seek(offset int64) error {
	if offset == f.pos {
		return nil
	}

	if seeker, ok := f.rc.(io.Seeker); ok {
		n, err := seeker.Seek(offset, io.SeekStart)
		f.pos = n
		if err != nil {
			return fmt.Errorf("ziparchive: seek: %w", err)
		}

		return nil
	}

	if offset < f.pos {
		return fmt.Errorf("%w (want %d, current %d)", errNonSeekableRewind, offset, f.pos)
	}

	n, err := io.CopyN(io.Discard, f.rc, offset-f.pos)
	f.pos += n
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("ziparchive: discard while seeking: %w", err)
	}

	return nil
}

func (f *entryFile) Read(p []byte) (int, error) {
	n, err := f.rc.Read(p)
	f.pos += int64(n)

	return n, err //nolint:wrapcheck
}

func (f *entryFile) Close() error {
	if err := f.rc.Close(); err != nil {
		return fmt.Errorf("ziparchive: close entry: %w", err)
	}

	return nil
}
