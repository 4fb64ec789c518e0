package admin

import "errors"

// Domain errors for the admin package.
var (
	// ErrNotFound is returned when an admin username does not exist.
	ErrNotFound = errors.New("admin: not found")

	// ErrExists is returned when creating an admin with a taken username.
	ErrExists = errors.New("admin: already exists")

	// ErrInvalidCredentials is returned on a failed login. It is
	// deliberately identical for unknown usernames and wrong passwords.
	ErrInvalidCredentials = errors.New("admin: invalid credentials")

	// ErrTokenInvalid is returned when a JWT fails validation.
	ErrTokenInvalid = errors.New("admin: invalid token")
)
