// Package mount maps a [vfs.ArchiveFileSystem] onto a real FUSE mount:
// kernel Create/Mkdir/Remove/Setattr calls route through
// [vfs.ArchiveFileSystem.Mknod]/Unlink/SetTime, with the mount/unmount
// orchestration sitting one layer above.
package mount

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"sync"
	"syscall"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"

	"github.com/archvfs/archvfs/internal/logging"
	"github.com/archvfs/archvfs/internal/rofile"
	"github.com/archvfs/archvfs/internal/vfs"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// FS is a [fs.FS] backed by a [vfs.ArchiveFileSystem]. It is not
// goroutine-safe by itself; every call serializes through mu, matching
// [vfs.ArchiveFileSystem]'s own "callers must serialize" contract.
type FS struct {
	mu      sync.Mutex
	fsys    *vfs.ArchiveFileSystem
	rbuf    *logging.RingBuffer
	content map[string][]byte

	// Loader, if non-nil, lazily supplies a freshly opened archive's file
	// content on first read of a path this FS did not itself create.
	Loader func(path string) ([]byte, error)
}

var _ fs.FS = (*FS)(nil)

// New returns a [FS] wrapping fsys.
func New(fsys *vfs.ArchiveFileSystem, rbuf *logging.RingBuffer) *FS {
	return &FS{fsys: fsys, rbuf: rbuf, content: make(map[string][]byte)}
}

func (f *FS) Root() (fs.Node, error) {
	return &node{fs: f, path: vfs.Root}, nil
}

// FileSystem returns the underlying [vfs.ArchiveFileSystem], for callers
// that need to iterate it directly (tree printing, archive write-back).
func (f *FS) FileSystem() *vfs.ArchiveFileSystem {
	return f.fsys
}

// Open implements [ziparchive.ContentSource] over this FS's in-memory
// content, letting a mounted, possibly edited filesystem be written back
// out to a fresh archive on unmount.
func (f *FS) Open(name string) (rofile.ReadOnlyFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	buf, ok := f.content[name]
	if !ok && f.Loader != nil {
		loaded, err := f.Loader(name)
		if err != nil {
			return nil, err
		}
		buf = loaded
		f.content[name] = loaded
	}

	return &bytesFile{data: buf}, nil
}

// bytesFile is a [rofile.ReadOnlyFile] over an in-memory byte slice.
type bytesFile struct {
	data []byte
	pos  int64
}

func (b *bytesFile) Length() (int64, error) { return int64(len(b.data)), nil }
func (b *bytesFile) Position() (int64, error) { return b.pos, nil }

func (b *bytesFile) Seek(offset int64) error {
	b.pos = offset

	return nil
}

func (b *bytesFile) Read(p []byte) (int, error) {
	if b.pos >= int64(len(b.data)) {
		return 0, io.EOF
	}

	n := copy(p, b.data[b.pos:])
	b.pos += int64(n)

	return n, nil
}

func (b *bytesFile) Close() error { return nil }

func errnoFor(err error) fuse.Errno {
	switch {
	case isNotFound(err):
		return fuse.Errno(syscall.ENOENT)
	case isExists(err):
		return fuse.Errno(syscall.EEXIST)
	case isNotEmpty(err):
		return fuse.Errno(syscall.ENOTEMPTY)
	case isReadOnly(err):
		return fuse.Errno(syscall.EROFS)
	default:
		return fuse.Errno(syscall.EIO)
	}
}

func join(parent, name string) string {
	if vfs.IsRoot(parent) {
		return name
	}

	return path.Join(parent, name)
}

var (
	_ fs.Node               = (*node)(nil)
	_ fs.NodeStringLookuper = (*node)(nil)
	_ fs.HandleReadDirAller = (*node)(nil)
	_ fs.NodeCreater        = (*node)(nil)
	_ fs.NodeMkdirer        = (*node)(nil)
	_ fs.NodeRemover        = (*node)(nil)
	_ fs.NodeSetattrer      = (*node)(nil)
	_ fs.HandleReader       = (*node)(nil)
	_ fs.HandleWriter       = (*node)(nil)
)

// node is both the [fs.Node] and the [fs.Handle] for a single archive path:
// bazil.org/fuse falls back to the node itself as the handle whenever
// Open is not implemented, which this package relies on rather than
// tracking separate per-open handle state.
type node struct {
	fs   *FS
	path string
}

func (n *node) entry() *vfs.CovariantEntry {
	return n.fs.fsys.Entry(n.path)
}

func (n *node) Attr(_ context.Context, a *fuse.Attr) error {
	n.fs.mu.Lock()
	defer n.fs.mu.Unlock()

	ce := n.entry()
	if ce == nil {
		return fuse.Errno(syscall.ENOENT)
	}

	ae := ce.PreferredEntry()
	if ae == nil {
		return fuse.Errno(syscall.ENOENT)
	}

	mtime := timeOf(ae.Time(vfs.AccessWrite))

	if ae.Type() == vfs.DIRECTORY {
		a.Mode = os.ModeDir | dirPerm
	} else {
		a.Mode = filePerm
		a.Size = uint64(len(n.fs.content[n.path]))
	}
	a.Mtime, a.Ctime, a.Atime = mtime, mtime, mtime

	return nil
}

func timeOf(ms int64) time.Time {
	if ms == vfs.Unknown {
		return time.Time{}
	}

	return time.UnixMilli(ms)
}

func (n *node) Lookup(_ context.Context, name string) (fs.Node, error) {
	n.fs.mu.Lock()
	defer n.fs.mu.Unlock()

	childPath := join(n.path, name)
	if n.fs.fsys.Entry(childPath) == nil {
		return nil, fuse.Errno(syscall.ENOENT)
	}

	return &node{fs: n.fs, path: childPath}, nil
}

func (n *node) ReadDirAll(_ context.Context) ([]fuse.Dirent, error) {
	n.fs.mu.Lock()
	defer n.fs.mu.Unlock()

	ce := n.entry()
	if ce == nil {
		return nil, fuse.Errno(syscall.ENOENT)
	}

	out := make([]fuse.Dirent, 0, len(ce.Members()))
	for _, member := range ce.Members() {
		childPath := join(n.path, member)
		childCE := n.fs.fsys.Entry(childPath)
		if childCE == nil {
			continue
		}

		dt := fuse.DT_File
		if childCE.IsType(vfs.DIRECTORY) {
			dt = fuse.DT_Dir
		}

		out = append(out, fuse.Dirent{Name: member, Type: dt})
	}

	return out, nil
}

func (n *node) Create(_ context.Context, req *fuse.CreateRequest, resp *fuse.CreateResponse) (fs.Node, fs.Handle, error) {
	n.fs.mu.Lock()
	defer n.fs.mu.Unlock()

	childPath := join(n.path, req.Name)

	op, err := n.fs.fsys.Mknod(childPath, vfs.FILE, 0, nil)
	if err != nil {
		return nil, nil, errnoFor(err)
	}
	if err := op.Commit(); err != nil {
		return nil, nil, errnoFor(err)
	}

	n.fs.content[childPath] = []byte{}
	resp.Attr.Mode = filePerm

	child := &node{fs: n.fs, path: childPath}

	return child, child, nil
}

func (n *node) Mkdir(_ context.Context, req *fuse.MkdirRequest) (fs.Node, error) {
	n.fs.mu.Lock()
	defer n.fs.mu.Unlock()

	childPath := join(n.path, req.Name)

	op, err := n.fs.fsys.Mknod(childPath, vfs.DIRECTORY, 0, nil)
	if err != nil {
		return nil, errnoFor(err)
	}
	if err := op.Commit(); err != nil {
		return nil, errnoFor(err)
	}

	return &node{fs: n.fs, path: childPath}, nil
}

func (n *node) Remove(_ context.Context, req *fuse.RemoveRequest) error {
	n.fs.mu.Lock()
	defer n.fs.mu.Unlock()

	childPath := join(n.path, req.Name)

	if err := n.fs.fsys.Unlink(childPath); err != nil {
		return errnoFor(err)
	}
	delete(n.fs.content, childPath)

	return nil
}

func (n *node) Setattr(_ context.Context, req *fuse.SetattrRequest, _ *fuse.SetattrResponse) error {
	n.fs.mu.Lock()
	defer n.fs.mu.Unlock()

	if req.Valid.Mtime() {
		if _, err := n.fs.fsys.SetTime(n.path, []vfs.Access{vfs.AccessWrite}, req.Mtime.UnixMilli()); err != nil {
			return errnoFor(err)
		}
	}

	if req.Valid.Size() {
		buf := n.fs.content[n.path]
		if uint64(len(buf)) != req.Size {
			resized := make([]byte, req.Size)
			copy(resized, buf)
			n.fs.content[n.path] = resized
		}
	}

	return nil
}

func (n *node) loadContent() ([]byte, error) {
	if buf, ok := n.fs.content[n.path]; ok {
		return buf, nil
	}

	if n.fs.Loader == nil {
		return nil, nil
	}

	buf, err := n.fs.Loader(n.path)
	if err != nil {
		return nil, err
	}
	n.fs.content[n.path] = buf

	return buf, nil
}

func (n *node) Read(_ context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	n.fs.mu.Lock()
	defer n.fs.mu.Unlock()

	buf, err := n.loadContent()
	if err != nil {
		if n.fs.rbuf != nil {
			n.fs.rbuf.Printf("mount: read %q: %v\n", n.path, err)
		}

		return fuse.Errno(syscall.EIO)
	}

	start := req.Offset
	if start > int64(len(buf)) {
		start = int64(len(buf))
	}
	end := start + int64(req.Size)
	if end > int64(len(buf)) {
		end = int64(len(buf))
	}

	resp.Data = buf[start:end]

	return nil
}

func (n *node) Write(_ context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	n.fs.mu.Lock()
	defer n.fs.mu.Unlock()

	buf := n.fs.content[n.path]

	end := req.Offset + int64(len(req.Data))
	if end > int64(len(buf)) {
		grown := make([]byte, end)
		copy(grown, buf)
		buf = grown
	}
	copy(buf[req.Offset:end], req.Data)
	n.fs.content[n.path] = buf

	if _, err := n.fs.fsys.SetTime(n.path, []vfs.Access{vfs.AccessWrite}, time.Now().UnixMilli()); err != nil {
		return errnoFor(err)
	}

	resp.Size = len(req.Data)

	return nil
}

func isNotFound(err error) bool { return errors.Is(err, vfs.ErrNotFound) }
func isExists(err error) bool   { return errors.Is(err, vfs.ErrAlreadyExists) }
func isNotEmpty(err error) bool { return errors.Is(err, vfs.ErrDirectoryNotEmpty) }
func isReadOnly(err error) bool { return errors.Is(err, vfs.ErrReadOnlyFileSystem) }
