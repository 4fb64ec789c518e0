package engine

import "errors"

// Domain errors for the authentication pipeline.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, engine.ErrLockedOut) {
//	    // identity is in cooldown
//	}
var (
	// ErrNoMatch indicates neither or only one factor matched an identity.
	ErrNoMatch = errors.New("engine: no matching identity")

	// ErrIdentityMismatch indicates the two factors matched different people.
	ErrIdentityMismatch = errors.New("engine: factors matched different identities")

	// ErrAccountDisabled indicates the matched identity is not active.
	ErrAccountDisabled = errors.New("engine: account disabled")

	// ErrLockedOut indicates the identity is suppressed by the lockout policy.
	ErrLockedOut = errors.New("engine: locked out")

	// ErrIncompleteAttempt indicates the attempt window elapsed before
	// both verdicts arrived.
	ErrIncompleteAttempt = errors.New("engine: attempt window elapsed")
)
