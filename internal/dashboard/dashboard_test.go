package dashboard

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/archvfs/archvfs/internal/logging"
	"github.com/archvfs/archvfs/internal/vfs"
)

type fakeDriver struct{}

func (fakeDriver) NewEntry(name string, t vfs.EntryType, _ vfs.ArchiveEntry, _ vfs.Options) (vfs.ArchiveEntry, error) {
	return &fakeEntry{name: name, typ: t}, nil
}

func (fakeDriver) AssertEncodable(string) error { return nil }

type fakeEntry struct {
	name string
	typ  vfs.EntryType
}

func (e *fakeEntry) Name() string                  { return e.name }
func (e *fakeEntry) Type() vfs.EntryType            { return e.typ }
func (e *fakeEntry) Time(vfs.Access) int64          { return vfs.Unknown }
func (e *fakeEntry) SetTime(vfs.Access, int64) bool { return true }
func (e *fakeEntry) Size(vfs.Size) int64            { return vfs.Unknown }
func (e *fakeEntry) SetSize(vfs.Size, int64) bool   { return true }

func newTestDashboard(t *testing.T) *Dashboard {
	t.Helper()

	fsys, err := vfs.NewEmptyFileSystem(fakeDriver{})
	require.NoError(t, err)

	rbuf := logging.NewRingBuffer(16, io.Discard)

	d, err := New(fsys, nil, rbuf, "test")
	require.NoError(t, err)

	return d
}

// Expectation: New rejects a nil filesystem or ring buffer.
func Test_New_RejectsMissingArguments(t *testing.T) {
	t.Parallel()

	rbuf := logging.NewRingBuffer(4, io.Discard)
	_, err := New(nil, nil, rbuf, "v")
	require.ErrorIs(t, err, errInvalidArgument)

	fsys, err := vfs.NewEmptyFileSystem(fakeDriver{})
	require.NoError(t, err)
	_, err = New(fsys, nil, nil, "v")
	require.ErrorIs(t, err, errInvalidArgument)
}

// Expectation: the index route renders without error and includes the
// program name.
func Test_Dashboard_Index_Renders(t *testing.T) {
	t.Parallel()

	d := newTestDashboard(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	d.mux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "archvfs")
}

// Expectation: the JSON metrics route reports the live entry count.
func Test_Dashboard_MetricsJSON_ReportsEntryCount(t *testing.T) {
	t.Parallel()

	d := newTestDashboard(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics.json", nil)
	rec := httptest.NewRecorder()
	d.mux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var data dashboardData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	require.Equal(t, 1, data.EntryCount) // root only
}

// Expectation: /reset-log clears the ring buffer.
func Test_Dashboard_ResetLog_ClearsBuffer(t *testing.T) {
	t.Parallel()

	d := newTestDashboard(t)
	d.rbuf.Println("hello")
	require.Len(t, d.rbuf.Lines(), 1)

	req := httptest.NewRequest(http.MethodGet, "/reset-log", nil)
	rec := httptest.NewRecorder()
	d.mux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, d.rbuf.Lines())
}
