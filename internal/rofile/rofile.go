// Package rofile provides a small random-access, read-only file
// abstraction plus a default ReadFully, grounded on TrueZIP's
// ReadOnlyFile/AbstractReadOnlyFile pair.
package rofile

import (
	"errors"
	"io"
)

// ReadOnlyFile is a random-access, read-only file: the Read half of
// io.ReadCloser plus explicit positioning. Concrete implementations (an
// archive entry reader, for instance) wrap whatever source they have and
// report position in terms of bytes already delivered to Read.
type ReadOnlyFile interface {
	io.Closer

	// Length returns the total size of the file in bytes.
	Length() (int64, error)

	// Position returns the current file pointer offset.
	Position() (int64, error)

	// Seek moves the file pointer to the given absolute offset. Forward
	// seeks on a non-seekable source may be emulated by discarding bytes;
	// backward seeks on one are expected to fail.
	Seek(offset int64) error

	// Read reads into p, starting at the current position, and advances
	// the position by the number of bytes read. It follows the io.Reader
	// contract: a short read is not itself an error, and io.EOF is
	// returned once no more bytes are available.
	Read(p []byte) (int, error)
}

// ReadFully reads exactly len(p) bytes from r into p, starting at r's
// current position, retrying over short reads the way
// AbstractReadOnlyFile.readFully(byte[], int, int) loops over its
// abstract read(). Where the Java original throws EOFException on a
// negative read, ReadFully follows Go's io.Reader convention instead: it
// returns io.ErrUnexpectedEOF if the file ends before p is filled, and
// nil if it ends exactly on the last byte requested.
func ReadFully(r ReadOnlyFile, p []byte) error {
	total := 0
	for total < len(p) {
		n, err := r.Read(p[total:])
		total += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				if total >= len(p) {
					return nil
				}

				return io.ErrUnexpectedEOF
			}

			return err
		}
	}

	return nil
}
