// Package dashboard implements a diagnostics HTTP dashboard over a live
// [vfs.ArchiveFileSystem].
package dashboard

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"runtime/debug"
	"slices"
	"text/template"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"

	"github.com/archvfs/archvfs/internal/fdcache"
	"github.com/archvfs/archvfs/internal/logging"
	"github.com/archvfs/archvfs/internal/vfs"
)

var (
	//go:embed templates/*.html
	templateFS embed.FS

	indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

	// errInvalidArgument is for an invalid constructor argument.
	errInvalidArgument = errors.New("invalid argument")
)

// Dashboard serves diagnostics about a live [vfs.ArchiveFileSystem]: entry
// count, read-only flag, and fd-cache occupancy, plus the shared log
// ring buffer and basic runtime controls.
type Dashboard struct {
	version string
	fsys    *vfs.ArchiveFileSystem
	fds     *fdcache.Cache
	rbuf    *logging.RingBuffer
}

// New returns a pointer to a new [Dashboard]. fds may be nil if no fd
// cache backs the filesystem; the fd-cache size is then reported as 0.
func New(fsys *vfs.ArchiveFileSystem, fds *fdcache.Cache, rbuf *logging.RingBuffer, version string) (*Dashboard, error) {
	if fsys == nil {
		return nil, fmt.Errorf("%w: need filesystem", errInvalidArgument)
	}
	if rbuf == nil {
		return nil, fmt.Errorf("%w: need ring buffer", errInvalidArgument)
	}

	return &Dashboard{version: version, fsys: fsys, fds: fds, rbuf: rbuf}, nil
}

// Serve serves the dashboard as part of an [http.Server].
func (d *Dashboard) Serve(addr string) *http.Server {
	srv := &http.Server{Addr: addr, Handler: d.mux()}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(os.Stderr, "(dashboard) PANIC: %v\n", r)
				debug.PrintStack()
			}
		}()

		d.rbuf.Printf("serving dashboard on %s\n", addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.rbuf.Printf("dashboard HTTP error: %v\n", err)
		}
	}()

	return srv
}

func (d *Dashboard) mux() *mux.Router {
	m := mux.NewRouter()

	m.HandleFunc("/", d.indexHandler)
	m.HandleFunc("/metrics.json", d.metricsHandler)
	m.HandleFunc("/gc", d.gcHandler)
	m.HandleFunc("/reset-log", d.resetLogHandler)

	return m
}

type dashboardData struct {
	Version        string   `json:"version"`
	EntryCount     int      `json:"entryCount"`
	ReadOnly       bool     `json:"readOnly"`
	FDCacheSize    int      `json:"fdCacheSize"`
	AllocBytes     string   `json:"allocBytes"`
	SysBytes       string   `json:"sysBytes"`
	NumGC          uint32   `json:"numGc"`
	RingBufferSize int      `json:"ringBufferSize"`
	Logs           []string `json:"logs"`
}

func (d *Dashboard) collect() dashboardData {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	fdSize := 0
	if d.fds != nil {
		fdSize = d.fds.Len()
	}

	lines := d.rbuf.Lines()
	slices.Reverse(lines)

	return dashboardData{
		Version:        d.version,
		EntryCount:     d.fsys.Size(),
		ReadOnly:       d.fsys.IsReadOnly(),
		FDCacheSize:    fdSize,
		AllocBytes:     humanize.IBytes(m.Alloc),
		SysBytes:       humanize.IBytes(m.Sys),
		NumGC:          m.NumGC,
		RingBufferSize: d.rbuf.Size(),
		Logs:           lines,
	}
}

func (d *Dashboard) indexHandler(w http.ResponseWriter, _ *http.Request) {
	data := d.collect()

	if err := indexTemplate.Execute(w, data); err != nil {
		d.rbuf.Printf("dashboard template error: %v\n", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (d *Dashboard) metricsHandler(w http.ResponseWriter, _ *http.Request) {
	data := d.collect()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (d *Dashboard) gcHandler(w http.ResponseWriter, _ *http.Request) {
	runtime.GC()
	debug.FreeOSMemory()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	d.rbuf.Printf("GC forced via API, current heap: %s.\n", humanize.IBytes(m.Alloc))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "GC forced, current heap: %s.\n", humanize.IBytes(m.Alloc))
}

func (d *Dashboard) resetLogHandler(w http.ResponseWriter, _ *http.Request) {
	d.rbuf.Reset()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "Log ring buffer reset.")
}
