package service

import (
	"errors"
	"fmt"
)

// Error classes. Handlers map them to transport status with errors.Is;
// anything that matches none of them is an internal failure.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
)

var (
	ErrInvalidAction      = fmt.Errorf(`%w: invalid action, use "like" or "dislike"`, ErrValidation)
	ErrPostNotFound       = fmt.Errorf("%w: post not found", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrSlugTaken          = fmt.Errorf("%w: a post with this title already exists", ErrConflict)
	ErrConcurrentUpdate   = fmt.Errorf("%w: post was modified concurrently, reload and retry", ErrConflict)
	ErrEmailAlreadyExists = fmt.Errorf("%w: email already exists", ErrConflict)
	ErrInvalidCredentials = errors.New("invalid credentials")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func forbiddenError(reason string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, reason)
}
