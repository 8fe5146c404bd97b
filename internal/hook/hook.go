// Package hook implements a touch-listener-driven exec hook: a shell
// command run whenever a watched [vfs.ArchiveFileSystem] transitions from
// clean to dirty for the first time.
package hook

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"al.essio.dev/pkg/shellescape"

	"github.com/archvfs/archvfs/internal/logging"
	"github.com/archvfs/archvfs/internal/vfs"
)

// ExecOnTouch implements [vfs.TouchListener]: it runs command through
// /bin/sh each time PreTouch is called (which [vfs.ArchiveFileSystem] does
// on its first modification), logging its outcome to rbuf. The
// underlying command never sees or influences the mutation it was fired
// for; PreTouch never returns an error, so a hook never itself vetoes a
// write.
type ExecOnTouch struct {
	resource string
	command  string
	rbuf     *logging.RingBuffer
}

var _ vfs.TouchListener = (*ExecOnTouch)(nil)

// New returns an [ExecOnTouch] that runs command (already assembled, not
// shell-escaped here; the caller supplies a full shell command line) when
// resource is first modified. rbuf, if non-nil, receives a line recording
// the run and its outcome.
func New(resource, command string, rbuf *logging.RingBuffer) *ExecOnTouch {
	return &ExecOnTouch{resource: resource, command: command, rbuf: rbuf}
}

// PreTouch runs the configured command, shell-escaping resource as its
// sole positional argument. A failing command is logged but never blocks
// the mutation that triggered it.
func (h *ExecOnTouch) PreTouch() error {
	quoted := shellescape.Quote(h.resource)
	line := fmt.Sprintf("%s %s", h.command, quoted)

	cmd := exec.Command("/bin/sh", "-c", line)
	cmd.Env = os.Environ()

	out, err := cmd.CombinedOutput()
	if h.rbuf != nil {
		if err != nil {
			h.rbuf.Printf("hook: %q failed: %v: %s\n", line, err, strings.TrimSpace(string(out)))
		} else {
			h.rbuf.Printf("hook: ran %q for %q\n", h.command, h.resource)
		}
	}

	return nil
}
