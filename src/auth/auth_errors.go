package auth

import "errors"

var (
	// ErrUserAlreadyExists is returned when a user already exists in the system.
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	// ErrInvalidCredentials covers both an unknown user and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidUsername    = errors.New("invalid username")
	// ErrCorruptUsersFile is returned when the users file does not parse
	// or holds hashes with unusable parameters.
	ErrCorruptUsersFile  = errors.New("corrupt users file")
	ErrInvalidHashParams = errors.New("invalid hash parameters")
)
