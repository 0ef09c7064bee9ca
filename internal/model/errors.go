package model

import (
	"errors"
	"fmt"
)

// Error kinds used across the backtesting core. Callers distinguish
// "not enough data" from genuine faults by errors.Is, never by string match.
var (
	// ErrInsufficientData means a series is shorter than the required lookback.
	// Surfaced by the simulator and optimizer; indicator functions signal the
	// same condition by returning an empty series instead.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidParameters means a caller-supplied parameter is unusable
	// (non-positive period, inverted bounds, empty universe).
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrComputation means an unexpected numeric failure (NaN propagation).
	ErrComputation = errors.New("computation error")
)

// Errorf wraps a sentinel kind with a formatted message.
func Errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{kind}, args...)...)
}
