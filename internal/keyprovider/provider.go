// Package keyprovider implements an interactive state machine for obtaining
// a key (a passphrase, typically) needed to read or write a protected
// resource. The user is prompted through a pluggable [View]; the provider
// itself only tracks {RESET, SET, CANCELLED} state and the caching rules
// around it.
package keyprovider

import "sync"

// Cloneable is the constraint a key type must satisfy: SetKey stores a
// clone of the caller's key rather than the caller's own value, so that a
// later mutation of the original does not reach into the provider.
type Cloneable[K any] interface {
	Clone() K
}

type stateKind int

const (
	stateReset stateKind = iota
	stateSet
	stateCancelled
)

func (s stateKind) String() string {
	switch s {
	case stateReset:
		return "RESET"
	case stateSet:
		return "SET"
	case stateCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// Provider coordinates a [View] and a resource identifier to produce keys
// for writing and reading a protected resource. A zero-value Provider is
// not usable; construct one with [New].
type Provider[K Cloneable[K]] struct {
	mu sync.Mutex

	view     View[K]
	resource string

	state                stateKind
	key                  *K
	askAlwaysForWriteKey bool
	changeRequested      bool
}

// New returns a Provider in the initial RESET state, prompting through view
// for the given resource identifier.
func New[K Cloneable[K]](view View[K], resource string) *Provider[K] {
	return &Provider[K]{view: view, resource: resource, state: stateReset}
}

// Resource returns the identifier of the protected resource this provider
// was constructed for.
func (p *Provider[K]) Resource() string {
	return p.resource
}

// SetAskAlwaysForWriteKey controls whether RetrieveWriteKey re-prompts in
// the SET state even though a key is already known.
func (p *Provider[K]) SetAskAlwaysForWriteKey(always bool) {
	p.mu.Lock()
	p.askAlwaysForWriteKey = always
	p.mu.Unlock()
}

// Key returns the currently stored key, if any. It reflects whatever the
// last successful SetKey call (directly, or through a controller) stored;
// it does not itself prompt.
func (p *Provider[K]) Key() (K, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.key == nil {
		var zero K

		return zero, false
	}

	return *p.key, true
}

// SetKey stores a clone of key and transitions to SET, or clears the key
// and transitions to CANCELLED if key is nil.
func (p *Provider[K]) SetKey(key *K) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.setKeyLocked(key)
}

func (p *Provider[K]) setKeyLocked(key *K) {
	if key == nil {
		p.key = nil
		p.state = stateCancelled

		return
	}

	cloned := (*key).Clone()
	p.key = &cloned
	p.state = stateSet
}

func (p *Provider[K]) currentState() stateKind {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

func (p *Provider[K]) setState(s stateKind) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// ResetCancelledKey resets the provider's key, changeRequested flag, and
// state to RESET, but only if it is currently CANCELLED; a no-op otherwise.
func (p *Provider[K]) ResetCancelledKey() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != stateCancelled {
		return
	}

	p.resetLocked()
}

// ResetUnconditionally resets the provider's key, changeRequested flag, and
// state to RESET regardless of the current state.
func (p *Provider[K]) ResetUnconditionally() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.resetLocked()
}

func (p *Provider[K]) resetLocked() {
	p.key = nil
	p.changeRequested = false
	p.state = stateReset
}

// RetrieveWriteKey drives the write-key prompting dance for the current
// state. On success, Key returns the key the view chose.
func (p *Provider[K]) RetrieveWriteKey() error {
	return p.dispatchWrite(p.currentState())
}

// RetrieveReadKey drives the read-key prompting dance for the current
// state. invalid signals that a previous read attempt produced a key the
// caller rejected as wrong.
func (p *Provider[K]) RetrieveReadKey(invalid bool) error {
	return p.dispatchRead(p.currentState(), invalid)
}

// WriteKey is a convenience wrapper combining RetrieveWriteKey with Key.
func (p *Provider[K]) WriteKey() (K, error) {
	var zero K

	if err := p.RetrieveWriteKey(); err != nil {
		return zero, err
	}

	if k, ok := p.Key(); ok {
		return k, nil
	}

	return zero, ErrKeyPromptingCancelled
}

// ReadKey is a convenience wrapper combining RetrieveReadKey with Key.
func (p *Provider[K]) ReadKey(invalid bool) (K, error) {
	var zero K

	if err := p.RetrieveReadKey(invalid); err != nil {
		return zero, err
	}

	if k, ok := p.Key(); ok {
		return k, nil
	}

	return zero, ErrKeyPromptingCancelled
}
