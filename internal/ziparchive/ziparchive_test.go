package ziparchive

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"github.com/archvfs/archvfs/internal/vfs"
)

// buildTestArchive writes a small in-memory ZIP with one directory and two
// files, returning the encoded bytes.
func buildTestArchive(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	dirHdr := &zip.FileHeader{Name: "docs/", Modified: stamp}
	dirHdr.SetMode(0o755)
	_, err := zw.CreateHeader(dirHdr)
	require.NoError(t, err)

	fileHdr := &zip.FileHeader{Name: "docs/readme.txt", Method: zip.Deflate, Modified: stamp}
	w, err := zw.CreateHeader(fileHdr)
	require.NoError(t, err)
	_, err = w.Write([]byte("hello archive"))
	require.NoError(t, err)

	rootHdr := &zip.FileHeader{Name: "top.txt", Method: zip.Store, Modified: stamp}
	w, err = zw.CreateHeader(rootHdr)
	require.NoError(t, err)
	_, err = w.Write([]byte("root file"))
	require.NoError(t, err)

	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func openTestReader(t *testing.T) *Reader {
	t.Helper()

	data := buildTestArchive(t)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	return NewReader(zr)
}

// Expectation: every ZIP record loads as an entry with the right type,
// canonical name, and write time.
func Test_Reader_Entries_LoadsTypesAndNames(t *testing.T) {
	t.Parallel()

	r := openTestReader(t)
	defer r.Close()

	require.Equal(t, 3, r.Size())

	dir := r.Entry("docs")
	require.NotNil(t, dir)
	require.Equal(t, vfs.DIRECTORY, dir.Type())

	file := r.Entry("docs/readme.txt")
	require.NotNil(t, file)
	require.Equal(t, vfs.FILE, file.Type())
	require.NotEqual(t, vfs.Unknown, file.Time(vfs.AccessWrite))

	top := r.Entry("top.txt")
	require.NotNil(t, top)
	require.Equal(t, vfs.FILE, top.Type())
}

// Expectation: Entry returns nil for a path not present in the archive.
func Test_Reader_Entry_MissingReturnsNil(t *testing.T) {
	t.Parallel()

	r := openTestReader(t)
	defer r.Close()

	require.Nil(t, r.Entry("nope.txt"))
}

// Expectation: Open streams a file entry's full content.
func Test_Reader_Open_ReadsFileContent(t *testing.T) {
	t.Parallel()

	r := openTestReader(t)
	defer r.Close()

	f, err := r.Open("docs/readme.txt")
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, "hello archive", string(data))

	length, err := f.Length()
	require.NoError(t, err)
	require.Equal(t, int64(len("hello archive")), length)
}

// Expectation: Open on a directory entry fails with ErrNotAFile.
func Test_Reader_Open_DirectoryFails(t *testing.T) {
	t.Parallel()

	r := openTestReader(t)
	defer r.Close()

	_, err := r.Open("docs")
	require.ErrorIs(t, err, ErrNotAFile)
}

// Expectation: Open on a missing path fails with vfs.ErrNotFound.
func Test_Reader_Open_MissingFails(t *testing.T) {
	t.Parallel()

	r := openTestReader(t)
	defer r.Close()

	_, err := r.Open("nope.txt")
	require.ErrorIs(t, err, vfs.ErrNotFound)
}

// Expectation: forward-seeking a Store-method entry's reader lands at the
// requested offset (the opened entry stream is not an io.Seeker, so the
// skipped bytes are read and discarded).
func Test_EntryFile_Seek_ForwardOnStoredEntry(t *testing.T) {
	t.Parallel()

	r := openTestReader(t)
	defer r.Close()

	f, err := r.Open("top.txt")
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.Seek(5))

	buf := make([]byte, 4)
	n, err := f.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "file", string(buf[:n]))
}

// Expectation: the driver rejects empty names and names exceeding ZIP's
// length limit, and accepts an ordinary name.
func Test_Driver_AssertEncodable(t *testing.T) {
	t.Parallel()

	d := NewDriver()

	require.NoError(t, d.AssertEncodable("fine/name.txt"))
	require.ErrorIs(t, d.AssertEncodable(""), ErrInvalidName)

	tooLong := make([]byte, maxNameLength+1)
	require.ErrorIs(t, d.AssertEncodable(string(tooLong)), ErrInvalidName)
}

// Expectation: NewEntry inherits times and sizes from a non-nil template.
func Test_Driver_NewEntry_InheritsFromTemplate(t *testing.T) {
	t.Parallel()

	d := NewDriver()

	template := &Entry{times: [3]int64{vfs.Unknown, 1000, vfs.Unknown}, sizes: [2]int64{42, vfs.Unknown}}

	e, err := d.NewEntry("fresh.txt", vfs.FILE, template, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1000), e.Time(vfs.AccessWrite))
	require.Equal(t, int64(42), e.Size(vfs.SizeData))
	require.Equal(t, vfs.Unknown, e.Time(vfs.AccessRead))
}

// Expectation: WriteArchive round-trips a populated filesystem's entries
// back out to a fresh ZIP, preserving paths and content.
func Test_WriteArchive_RoundTrips(t *testing.T) {
	t.Parallel()

	r := openTestReader(t)
	defer r.Close()

	fsys, err := vfs.NewPopulatedFileSystem(NewDriver(), r, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, WriteArchive(&out, fsys, r))

	zr, err := zip.NewReader(bytes.NewReader(out.Bytes()), int64(out.Len()))
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	require.True(t, names["docs/"])
	require.True(t, names["docs/readme.txt"])
	require.True(t, names["top.txt"])
}
