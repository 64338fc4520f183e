package engine

import "errors"

// Domain error taxonomy. All validation failures surface as one of these so
// callers can tell "your request was invalid" apart from wrapped store
// failures ("the system could not complete your valid request").
var (
	// ErrSessionNotFound: the operation referenced a session ID with no
	// matching active session. Recoverable by re-querying current sessions.
	ErrSessionNotFound = errors.New("no active session with that ID")

	// ErrAlreadyEnrolled: a non-completed session already references the
	// requested program.
	ErrAlreadyEnrolled = errors.New("already enrolled in this program")

	// ErrTooManyActivePrograms: the active-session cap is reached. The caller
	// must complete or cancel an existing session first.
	ErrTooManyActivePrograms = errors.New("maximum number of active programs reached")

	// ErrInvalidWeight: starting weight outside the sane [10,200] lb range.
	ErrInvalidWeight = errors.New("starting weight must be between 10 and 200 lbs")

	// ErrNoUpcomingWorkout: the session's schedule window is empty, either
	// because it is paused or because the program has run out of weeks.
	ErrNoUpcomingWorkout = errors.New("no upcoming workouts scheduled")

	// ErrProfileNotFound: an internal precondition tripped; operations fall
	// back to a default profile rather than failing the process.
	ErrProfileNotFound = errors.New("no fitness profile for user")

	// ErrAdaptationFailed is reserved for when adaptation application becomes
	// automatic. Adaptations are advisory today, so nothing returns it yet.
	ErrAdaptationFailed = errors.New("failed to apply adaptation")
)
