package keyprovider

import "errors"

// dispatchWrite runs the retrieveWriteKey behavior of state.
func (p *Provider[K]) dispatchWrite(state stateKind) error {
	switch state {
	case stateReset:
		return p.resetRetrieveWriteKey()
	case stateSet:
		return p.setRetrieveWriteKey()
	case stateCancelled:
		return p.cancelledRetrieveWriteKey()
	default:
		panic("keyprovider: unreachable state " + state.String())
	}
}

// dispatchRead runs the retrieveReadKey behavior of state.
func (p *Provider[K]) dispatchRead(state stateKind, invalid bool) error {
	switch state {
	case stateReset:
		return p.resetRetrieveReadKey(invalid)
	case stateSet:
		return p.setRetrieveReadKey(invalid)
	case stateCancelled:
		return p.cancelledRetrieveReadKey(invalid)
	default:
		panic("keyprovider: unreachable state " + state.String())
	}
}

// promptWriteController runs a single write prompt through a fresh write
// controller, with no side effects beyond what the view itself requests
// through the controller. capturedState is not consulted here; the
// controller always acts on the provider's live state.
func (p *Provider[K]) promptWriteController(capturedState stateKind) error {
	c := p.newController(flavorWrite)
	err := p.view.PromptWriteKey(c)
	c.close()

	return err
}

// resetStyleRetrieveWriteKey is the RESET state's retrieveWriteKey
// behavior, captured as capturedState: prompt, then — only if the
// provider's live state is still exactly capturedState when the prompt
// returns — transition to CANCELLED, then tail-delegate to whatever state
// resulted (unless the prompt itself errored).
//
// setRetrieveWriteKey reuses this with capturedState = RESET even while the
// provider's live state is SET, which is what makes a declined key change
// leave the existing key alone instead of erasing it to CANCELLED: the
// live state (SET) never equals the captured identity (RESET), so the
// auto-cancel never fires.
func (p *Provider[K]) resetStyleRetrieveWriteKey(capturedState stateKind) error {
	err := p.promptWriteController(capturedState)

	next := p.currentState()
	if next == capturedState {
		p.setState(stateCancelled)
		next = stateCancelled
	}

	if err != nil {
		return err
	}

	return p.dispatchWrite(next)
}

func (p *Provider[K]) resetRetrieveWriteKey() error {
	return p.resetStyleRetrieveWriteKey(stateReset)
}

func (p *Provider[K]) setRetrieveWriteKey() error {
	p.mu.Lock()
	changeRequested := p.changeRequested
	if changeRequested {
		p.changeRequested = false
	}
	askAlways := p.askAlwaysForWriteKey
	p.mu.Unlock()

	if changeRequested {
		return p.resetStyleRetrieveWriteKey(stateReset)
	}

	if !askAlways {
		return nil
	}

	return p.promptWriteController(stateSet)
}

// cancelledRetrieveWriteKey always raises ErrKeyPromptingCancelled without
// prompting; only ResetCancelledKey/ResetUnconditionally escape CANCELLED.
//
// Some prompting state machines tail-delegate CANCELLED straight back into
// RESET's prompt-and-maybe-cancel dance, which re-prompts silently in place
// whenever the view keeps declining. This package instead makes CANCELLED
// terminal for both the write and the read half, symmetric with
// cancelledRetrieveReadKey: once cancelled, a caller must explicitly reset
// before another prompt happens.
func (p *Provider[K]) cancelledRetrieveWriteKey() error {
	return ErrKeyPromptingCancelled
}

// resetRetrieveReadKey prompts for a read key, retrying while the state
// stays RESET (the view left the key untouched without erroring). A
// cacheable unknown-key error from the view cancels the provider and is
// reported to the caller directly rather than being retried in place: once
// cancelled, the caller must reset before another prompt happens.
func (p *Provider[K]) resetRetrieveReadKey(invalid bool) error {
	for {
		c := p.newController(flavorRead)
		err := p.view.PromptReadKey(c, invalid)
		c.close()

		if errors.Is(err, ErrCacheableUnknownKey) {
			p.setState(stateCancelled)

			return ErrKeyPromptingCancelled
		}
		if err != nil {
			return err
		}

		next := p.currentState()
		if next != stateReset {
			return p.dispatchRead(next, false)
		}
	}
}

func (p *Provider[K]) setRetrieveReadKey(invalid bool) error {
	if !invalid {
		return nil
	}

	p.setState(stateReset)

	return p.resetRetrieveReadKey(true)
}

// cancelledRetrieveReadKey always raises ErrKeyPromptingCancelled without
// prompting; only ResetCancelledKey/ResetUnconditionally escape CANCELLED.
func (p *Provider[K]) cancelledRetrieveReadKey(_ bool) error {
	return ErrKeyPromptingCancelled
}
