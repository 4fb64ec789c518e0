package sensor

import "errors"

// Domain errors for sensor polling.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(verdict.Err, sensor.ErrTimeout) {
//	    // nobody presented within the poll window
//	}
var (
	// ErrTimeout is returned when a poll exceeds its deadline without a
	// reading. For the face capability this usually means nobody stood
	// in front of the camera.
	ErrTimeout = errors.New("sensor: poll timed out")

	// ErrDisconnected is returned when the underlying hardware cannot be
	// reached (camera unplugged, serial line dead).
	ErrDisconnected = errors.New("sensor: disconnected")

	// ErrUnknownSlot is returned when the fingerprint sensor matched a
	// slot that no enrolled identity owns. This indicates drift between
	// the sensor's flash and the database.
	ErrUnknownSlot = errors.New("sensor: matched slot not enrolled")
)
