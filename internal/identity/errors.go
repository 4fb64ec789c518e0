package identity

import "errors"

// Domain errors for the identity package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, identity.ErrNotFound) {
//	    // handle not found case
//	}
var (
	// ErrNotFound is returned when an identity ID does not exist.
	ErrNotFound = errors.New("identity: not found")

	// ErrExists is returned when creating an identity with an ID that already exists.
	ErrExists = errors.New("identity: already exists")

	// ErrInvalidName is returned when an identity name is empty or too long.
	ErrInvalidName = errors.New("identity: invalid name")

	// ErrSlotTaken is returned when a fingerprint sensor slot is already
	// assigned to another identity.
	ErrSlotTaken = errors.New("identity: fingerprint slot already assigned")

	// ErrTemplateCorrupt is returned when a stored template fails its
	// integrity hash check.
	ErrTemplateCorrupt = errors.New("identity: template integrity check failed")
)
