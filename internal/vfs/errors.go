package vfs

import (
	"errors"
	"fmt"
)

// Sentinel error kinds surfaced by [ArchiveFileSystem].
// Use errors.Is against these; use [PathError] to recover the offending path.
var (
	ErrNotFound           = errors.New("archive entry does not exist")
	ErrAlreadyExists      = errors.New("archive entry exists already")
	ErrNotReplaceable     = errors.New("only files can be replaced")
	ErrTypeMismatch       = errors.New("entry exists as a different type")
	ErrUnsupportedType    = errors.New("only FILE and DIRECTORY entries are supported")
	ErrNotADirectory      = errors.New("parent entry must be a directory")
	ErrMissingParent      = errors.New("missing parent directory entry")
	ErrDirectoryNotEmpty  = errors.New("directory not empty")
	ErrInvalidName        = errors.New("entry name is not encodable by the driver")
	ErrReadOnlyFileSystem = errors.New("filesystem is read-only")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrListenerAlreadySet = errors.New("touch listener has already been set")
)

// PathError wraps one of the Err* sentinels above with the offending
// archive entry name, so the offending path can be recovered without
// string-matching the error text.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

func newPathError(op, path string, err error) error {
	return &PathError{Op: op, Path: path, Err: err}
}

// DirectoryNotEmptyError is [ErrDirectoryNotEmpty] plus the member count
// that made the directory non-empty.
type DirectoryNotEmptyError struct {
	Path    string
	Members int
}

func (e *DirectoryNotEmptyError) Error() string {
	return fmt.Sprintf("unlink %q: directory not empty - contains %d member(s)", e.Path, e.Members)
}

func (e *DirectoryNotEmptyError) Unwrap() error {
	return ErrDirectoryNotEmpty
}
