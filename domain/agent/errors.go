package agent

import "errors"

// Domain errors for the orchestration loop.
var (
	// ErrNoProvider indicates an engine was created without a reasoning provider.
	ErrNoProvider = errors.New("reasoning provider is required")

	// ErrNoRegistry indicates an engine was created without a capability registry.
	ErrNoRegistry = errors.New("capability registry is required")

	// ErrEmptyGoal indicates a run was started without a goal.
	ErrEmptyGoal = errors.New("goal cannot be empty")

	// ErrUnknownActionKind indicates an action kind the dispatcher cannot route.
	ErrUnknownActionKind = errors.New("unknown action kind")

	// ErrCallTimeout indicates an external call exceeded its deadline.
	ErrCallTimeout = errors.New("external call timed out")

	// ErrEmptyResponse indicates the reasoning provider returned no text.
	ErrEmptyResponse = errors.New("reasoning provider returned an empty response")
)

// CriticalError marks an error as fatal to the run.
type CriticalError struct {
	Err error
}

func (e *CriticalError) Error() string {
	return "critical: " + e.Err.Error()
}

func (e *CriticalError) Unwrap() error {
	return e.Err
}

// Critical reports true.
func (e *CriticalError) Critical() bool {
	return true
}

// Critical wraps err so the loop terminates instead of continuing.
func Critical(err error) error {
	if err == nil {
		return nil
	}
	return &CriticalError{Err: err}
}

// IsCritical returns true if any error in the chain flags itself critical.
func IsCritical(err error) bool {
	var c interface{ Critical() bool }
	if errors.As(err, &c) {
		return c.Critical()
	}
	return false
}
