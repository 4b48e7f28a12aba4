package gatekeep

import (
	"errors"
	"fmt"
	"time"
)

// ErrDenied is the sentinel wrapped by every DeniedError. Use
// errors.Is(err, gatekeep.ErrDenied) to detect admission denial in code
// that only sees an error value.
var ErrDenied = errors.New("rate limit exceeded")

// DeniedError is the denial signal handed to middleware error handlers.
//
// The engine itself never returns it: denial is a normal Result. The
// middleware layer constructs a DeniedError when it chooses to express the
// denial as a value for its error-handling hook.
type DeniedError struct {
	// Limit and Window identify the budget that was exhausted.
	Limit  int
	Window time.Duration
	// RetryAfter is copied from the denying Result.
	RetryAfter time.Duration
	// Identifier is the kind of key that hit the limit.
	Identifier Identifier
}

// NewDeniedError builds the denial signal for a denied Result under the
// given config.
func NewDeniedError(cfg Config, res Result) *DeniedError {
	return &DeniedError{
		Limit:      cfg.Limit,
		Window:     cfg.Window,
		RetryAfter: res.RetryAfter,
		Identifier: cfg.Identifier,
	}
}

// Error implements the error interface.
func (e *DeniedError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d per %v by %s, retry after %v",
		e.Limit, e.Window, e.Identifier, e.RetryAfter)
}

// Unwrap makes errors.Is(err, ErrDenied) work.
func (e *DeniedError) Unwrap() error {
	return ErrDenied
}
