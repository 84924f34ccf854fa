package visibility

import "errors"

var (
	// ErrValidation is returned by Install when the tracked set is malformed.
	// Nothing is mutated when it is returned.
	ErrValidation = errors.New("visibility: invalid tracked set")

	// ErrUnavailable is returned by platforms that cannot create a Notifier.
	ErrUnavailable = errors.New("visibility: intersection notifications unavailable")
)
