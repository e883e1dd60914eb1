package tracker

import "errors"

var (
	// ErrConflict wraps a duplicate username, email or admin id.
	ErrConflict           = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidAccount     = errors.New("username, email and password are required")
	ErrNotRegularUser     = errors.New("user is not a regular user")
	ErrNotAdmin           = errors.New("user is not an admin")
	ErrInvalidText        = errors.New("text is empty or too long")
)
