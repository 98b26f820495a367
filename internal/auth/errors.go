package auth

import "errors"

// Sentinel errors returned by the session service. Handlers translate
// these into HTTP status codes with errors.Is; wrapping with fmt.Errorf
// ("...: %w") preserves the mapping.
var (
	// ErrValidation means the input was missing or malformed.
	ErrValidation = errors.New("invalid input")

	// ErrConflict means a user with the same email or username exists.
	ErrConflict = errors.New("user already exists")

	// ErrNotFound means no user matched the lookup.
	ErrNotFound = errors.New("user not found")

	// ErrInvalidCredentials covers a wrong password as well as an
	// invalid, expired, or superseded token.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUpload means a mandatory asset could not be stored.
	ErrUpload = errors.New("asset upload failed")

	// ErrInternal means a storage or hashing subsystem failed.
	ErrInternal = errors.New("internal error")
)
