/*
archvfs mounts ZIP archives as a writable, in-memory FUSE filesystem: reads
stream straight from the archive's central directory, writes are buffered
in memory until unmount, at which point the archive is rewritten in place.
It also offers a "tree" subcommand for printing an archive's virtual
layout without mounting, and a "passphrase-demo" subcommand that exercises
the interactive key-retrieval state machine on the console.

The following signals are observed once mounted:
  - SIGTERM or SIGINT (CTRL+C) gracefully unmounts the filesystem
  - SIGUSR1 forces a garbage collection (within Go)
  - SIGUSR2 dumps a diagnostic stacktrace to standard error (stderr)

When enabled, the diagnostics dashboard exposes:
  - "/" for filesystem metrics and the event ring-buffer
  - "/metrics.json" for the same, machine-readable
  - "/gc" for forcing a garbage collection
  - "/reset-log" for clearing the ring-buffer
*/
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	"github.com/spf13/cobra"

	"github.com/archvfs/archvfs/cmd/archvfs/mount"
	"github.com/archvfs/archvfs/cmd/archvfs/passphrase"
	"github.com/archvfs/archvfs/internal/dashboard"
	"github.com/archvfs/archvfs/internal/fdcache"
	"github.com/archvfs/archvfs/internal/hook"
	"github.com/archvfs/archvfs/internal/keyprovider"
	"github.com/archvfs/archvfs/internal/logging"
	"github.com/archvfs/archvfs/internal/vfs"
	"github.com/archvfs/archvfs/internal/ziparchive"
)

const stackTraceBuffer = 1 << 24

// Version is the program version; it is empty unless set at link time
// (-ldflags "-X main.Version=...").
var Version string

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "archvfs",
		Short:   "a virtual, writable filesystem overlay for ZIP archives",
		Version: Version,
	}

	cmd.AddCommand(treeCmd(), mountCmd(), passphraseDemoCmd())

	return cmd
}

func treeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <archive.zip>",
		Short: "print the virtual layout of a ZIP archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runTree(args[0])
		},
	}
}

func runTree(path string) error {
	r, err := ziparchive.OpenReader(path)
	if err != nil {
		return fmt.Errorf("tree: %w", err)
	}
	defer r.Close()

	fsys, err := vfs.NewPopulatedFileSystem(ziparchive.NewDriver(), r, nil)
	if err != nil {
		return fmt.Errorf("tree: %w", err)
	}

	for _, ce := range fsys.Iterator() {
		if vfs.IsRoot(ce.Path()) {
			continue
		}

		kind := "file"
		if ce.IsType(vfs.DIRECTORY) {
			kind = "dir"
		}

		fmt.Printf("%-4s %s\n", kind, ce.Path())
	}

	return nil
}

type mountOpts struct {
	archivePath      string
	mountDir         string
	cacheCapacity    int
	cacheTTL         string
	dashboardAddress string
	touchCommand     string
}

func mountCmd() *cobra.Command {
	var opts mountOpts
	var argTTL string

	cmd := &cobra.Command{
		Use:   "mount <archive.zip> <mountpoint>",
		Short: "mount a ZIP archive as a writable FUSE filesystem",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE: func(_ *cobra.Command, args []string) error {
			opts.archivePath = args[0]
			opts.mountDir = args[1]
			opts.cacheTTL = argTTL

			return runMount(opts)
		},
	}

	cmd.Flags().IntVar(&opts.cacheCapacity, "fd-cache-size", 16, "Number of open archives kept in the fd cache") //nolint:mnd
	cmd.Flags().StringVar(&argTTL, "fd-cache-ttl", "5m", "Idle time before a cached archive handle is closed")
	cmd.Flags().StringVarP(&opts.dashboardAddress, "webaddr", "w", "", "Address to serve the diagnostics dashboard on (e.g. :8000; disabled when empty)")
	cmd.Flags().StringVar(&opts.touchCommand, "on-touch", "", "Shell command to run (with the archive path appended) the first time the archive is modified")

	return cmd
}

func runMount(opts mountOpts) error {
	ttl, err := parseDuration(opts.cacheTTL)
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	rbuf := logging.NewRingBuffer(256, os.Stderr) //nolint:mnd

	fds := fdcache.New(opts.cacheCapacity, ttl, rbuf)
	defer fds.Stop()

	reader, err := fds.Acquire(opts.archivePath)
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}
	defer fds.Release(opts.archivePath)

	fsys, err := vfs.NewPopulatedFileSystem(ziparchive.NewDriver(), reader, nil)
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	if opts.touchCommand != "" {
		h := hook.New(opts.archivePath, opts.touchCommand, rbuf)
		if err := fsys.SetTouchListener(h); err != nil {
			return fmt.Errorf("mount: %w", err)
		}
	}

	mfs := mount.New(fsys, rbuf)
	mfs.Loader = func(name string) ([]byte, error) {
		f, err := reader.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		return io.ReadAll(f)
	}

	c, err := fuse.Mount(opts.mountDir, fuse.FSName("archvfs"))
	if err != nil {
		return fmt.Errorf("mount: fs mount error: %w", err)
	}
	defer c.Close()
	defer fuse.Unmount(opts.mountDir) //nolint:errcheck

	if opts.dashboardAddress != "" {
		dash, err := dashboard.New(fsys, fds, rbuf, Version)
		if err != nil {
			return fmt.Errorf("mount: %w", err)
		}

		srv := dash.Serve(opts.dashboardAddress)
		defer srv.Close()
	}

	var wg sync.WaitGroup
	errChan := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(errChan)

		if err := fs.Serve(c, mfs); err != nil {
			errChan <- fmt.Errorf("fs serve error: %w", err)
		}
	}()

	handleSignals(rbuf, opts.mountDir)

	wg.Wait()

	if err := writeBack(mfs, opts.archivePath); err != nil {
		rbuf.Printf("mount: write-back error: %v\n", err)
	}

	return <-errChan
}

// writeBack rewrites the archive at path from the mounted filesystem's
// current state. It rewrites the archive whether or not the filesystem was
// modified; an untouched filesystem is not skipped.
func writeBack(mfs *mount.FS, path string) error {
	out, err := os.CreateTemp(os.TempDir(), "archvfs-*.zip")
	if err != nil {
		return fmt.Errorf("write-back: %w", err)
	}
	defer os.Remove(out.Name())

	if err := ziparchive.WriteArchive(out, mfs.FileSystem(), mfs); err != nil {
		out.Close()

		return fmt.Errorf("write-back: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("write-back: %w", err)
	}

	if err := os.Rename(out.Name(), path); err != nil {
		return fmt.Errorf("write-back: %w", err)
	}

	return nil
}

func handleSignals(rbuf *logging.RingBuffer, mountDir string) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for range sig {
			rbuf.Println("Signal received, unmounting the filesystem...")

			if err := fuse.Unmount(mountDir); err != nil {
				rbuf.Printf("Unmount error: %v (try again later)\n", err)

				continue
			}

			return
		}
	}()

	sig1 := make(chan os.Signal, 1)
	signal.Notify(sig1, syscall.SIGUSR1)
	go func() {
		for range sig1 {
			rbuf.Println("Signal received, forcing garbage collection...")
			runtime.GC()
			debug.FreeOSMemory()
		}
	}()

	sig2 := make(chan os.Signal, 1)
	signal.Notify(sig2, syscall.SIGUSR2)
	go func() {
		for range sig2 {
			rbuf.Println("Signal received, printing stacktrace (to stderr)...")
			buf := make([]byte, stackTraceBuffer)
			stacklen := runtime.Stack(buf, true)
			os.Stderr.Write(buf[:stacklen])
		}
	}()
}

func passphraseDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passphrase-demo <resource>",
		Short: "exercise the interactive key-retrieval state machine on the console",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runPassphraseDemo(args[0])
		},
	}
}

func runPassphraseDemo(resource string) error {
	view := passphrase.New(os.Stdin, os.Stdout)
	provider := keyprovider.New[passphrase.Key](view, resource)

	writeKey, err := provider.WriteKey()
	if err != nil {
		return fmt.Errorf("passphrase-demo: %w", err)
	}
	fmt.Printf("write key: %q\n", writeKey.Value)

	invalid := false
	for {
		readKey, err := provider.ReadKey(invalid)
		if err != nil {
			return fmt.Errorf("passphrase-demo: %w", err)
		}

		if readKey.Value == writeKey.Value {
			fmt.Println("read key matches, done.")

			return nil
		}

		invalid = true
	}
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
