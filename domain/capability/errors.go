package capability

import (
	"errors"
	"fmt"
)

// Domain errors for capabilities.
var (
	// ErrEmptyName indicates a capability was created with an empty name.
	ErrEmptyName = errors.New("capability name cannot be empty")

	// ErrNoHandler indicates a capability was created without a handler.
	ErrNoHandler = errors.New("capability has no handler")

	// ErrNotFound indicates the requested capability is not registered.
	ErrNotFound = errors.New("capability not found")

	// ErrDuplicate indicates a capability with the same kind and name exists.
	ErrDuplicate = errors.New("capability already registered")

	// ErrInvalidInput indicates tool parameters failed schema validation.
	ErrInvalidInput = errors.New("invalid capability input")

	// ErrInputMismatch indicates a capability received another variant's input.
	ErrInputMismatch = errors.New("capability input does not match its kind")
)

// InputMismatchError reports which input variant was expected.
type InputMismatchError struct {
	Want Kind
	Got  Kind
}

func (e *InputMismatchError) Error() string {
	return fmt.Sprintf("%s: want %s input, got %s", ErrInputMismatch, e.Want, e.Got)
}

// Is matches ErrInputMismatch.
func (e *InputMismatchError) Is(target error) bool {
	return target == ErrInputMismatch
}

// NotFoundError names the capability that was missing.
type NotFoundError struct {
	Kind Kind
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
