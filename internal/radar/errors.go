package radar

import "errors"

var (
	// ErrTimeout is returned when no matching response arrives before the
	// driver's response timeout.
	ErrTimeout = errors.New("radar: timed out waiting for response")

	// ErrNotApplicable is returned for catalog operations that have no
	// template in the current mode.
	ErrNotApplicable = errors.New("radar: operation not applicable in current mode")

	// ErrInvalidValue is returned when a setting is outside the range the
	// sensor accepts.
	ErrInvalidValue = errors.New("radar: invalid value")
)
