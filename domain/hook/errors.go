package hook

import (
	"errors"
	"fmt"
)

// Domain errors for hooks.
var (
	// ErrEmptyName indicates a hook without a name.
	ErrEmptyName = errors.New("hook name cannot be empty")

	// ErrInvalidType indicates an unknown hook type.
	ErrInvalidType = errors.New("invalid hook type")

	// ErrNoHandler indicates a hook without a handler.
	ErrNoHandler = errors.New("hook has no handler")
)

// InvalidHookError names the hook rejected at registration.
type InvalidHookError struct {
	Name string
	Err  error
}

func (e *InvalidHookError) Error() string {
	return fmt.Sprintf("hook %q: %v", e.Name, e.Err)
}

func (e *InvalidHookError) Unwrap() error {
	return e.Err
}
