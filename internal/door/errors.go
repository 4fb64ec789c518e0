package door

import "errors"

// Domain errors for the door package.
var (
	// ErrActuatorFault is returned when the relay could not be driven.
	// The logical state transition has still happened.
	ErrActuatorFault = errors.New("door: actuator fault")

	// ErrAlreadyLocked is returned by a manual lock when the door is
	// already locked.
	ErrAlreadyLocked = errors.New("door: already locked")
)
