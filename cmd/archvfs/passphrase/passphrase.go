// Package passphrase is a console [keyprovider.View] used by the
// passphrase-demo subcommand: it reads a line from stdin for each prompt.
// No terminal library is involved, so typed input is echoed.
package passphrase

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/archvfs/archvfs/internal/keyprovider"
)

// Key is the passphrase credential this demo's [keyprovider.Provider] is
// parameterized over.
type Key struct {
	Value string
}

// Clone returns a copy of k, satisfying [keyprovider.Cloneable].
func (k Key) Clone() Key {
	return Key{Value: k.Value}
}

// ConsoleView prompts for a passphrase on in/out. A blank line or EOF at
// the write prompt cancels; at the read prompt, EOF or the word "cancel"
// cancels, and a rejected previous attempt is noted in the prompt text.
type ConsoleView struct {
	in  *bufio.Scanner
	out io.Writer
}

var _ keyprovider.View[Key] = (*ConsoleView)(nil)

// New returns a [ConsoleView] reading lines from in and writing prompts to out.
func New(in io.Reader, out io.Writer) *ConsoleView {
	return &ConsoleView{in: bufio.NewScanner(in), out: out}
}

func (v *ConsoleView) readLine(prompt string) (string, bool) {
	fmt.Fprint(v.out, prompt)

	if !v.in.Scan() {
		return "", false
	}

	return strings.TrimSpace(v.in.Text()), true
}

// PromptWriteKey asks for a new passphrase, leaving the controller's key
// unset (cancelling) on a blank line or EOF.
func (v *ConsoleView) PromptWriteKey(c keyprovider.Controller[Key]) error {
	resource, err := c.Resource()
	if err != nil {
		return fmt.Errorf("passphrase: resource: %w", err)
	}

	line, ok := v.readLine(fmt.Sprintf("New passphrase for %q (blank to cancel): ", resource))
	if !ok || line == "" {
		return nil
	}

	return c.SetKey(&Key{Value: line}) //nolint:wrapcheck
}

// PromptReadKey asks for the passphrase to decrypt resource, noting when a
// previous attempt was rejected. Typing "cancel" yields
// [keyprovider.ErrCacheableUnknownKey] instead of retrying.
func (v *ConsoleView) PromptReadKey(c keyprovider.Controller[Key], invalid bool) error {
	resource, err := c.Resource()
	if err != nil {
		return fmt.Errorf("passphrase: resource: %w", err)
	}

	prompt := fmt.Sprintf("Passphrase for %q: ", resource)
	if invalid {
		prompt = fmt.Sprintf("Passphrase for %q was wrong, try again: ", resource)
	}

	line, ok := v.readLine(prompt)
	if !ok {
		return keyprovider.ErrCacheableUnknownKey
	}
	if line == "cancel" {
		return keyprovider.ErrCacheableUnknownKey
	}

	return c.SetKey(&Key{Value: line}) //nolint:wrapcheck
}
