package scout

import "errors"

// Domain errors surfaced synchronously by control-plane operations.
var (
	// ErrNotFound indicates the requested scout, session, or page result
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotCancellable indicates a cancel was attempted on a session in a
	// terminal state.
	ErrNotCancellable = errors.New("session is not running or pending, cannot cancel")

	// ErrInvalidSchedule indicates a schedule string that does not parse to
	// a valid recurring trigger.
	ErrInvalidSchedule = errors.New("invalid schedule expression")

	// ErrSessionCapacity indicates the engine is already running its
	// configured maximum of concurrent sessions.
	ErrSessionCapacity = errors.New("session capacity reached")
)
