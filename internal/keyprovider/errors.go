package keyprovider

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by this package.
var (
	// ErrKeyPromptingCancelled is terminal until the provider is reset: it
	// means the user has already declined to supply a key once, and the
	// provider will not prompt again on its own.
	ErrKeyPromptingCancelled = errors.New("keyprovider: key prompting has been cancelled")

	// ErrUnknownKey is the generic "the view could not produce a key" error.
	ErrUnknownKey = errors.New("keyprovider: key is unknown")

	// ErrCacheableUnknownKey wraps ErrUnknownKey: a view returns this to
	// signal that the cancellation should be cached, transitioning the
	// provider straight to CANCELLED rather than retrying the prompt.
	ErrCacheableUnknownKey = fmt.Errorf("%w (cacheable)", ErrUnknownKey)

	// ErrIllegalState is raised by any call on a controller after it has
	// been closed.
	ErrIllegalState = errors.New("keyprovider: illegal state")

	// ErrControllerUnsupported is raised by the operations a controller
	// flavor never supports: WriteController.SetChangeRequested and
	// ReadController.Key.
	ErrControllerUnsupported = errors.New("keyprovider: operation not supported by this controller")
)
