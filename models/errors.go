package models

import "errors"

// Sentinel errors shared by repositories, services and transports.
// Wrap them with fmt.Errorf("%w: ...") to add a user-visible detail.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrDisabled   = errors.New("feature not configured")
)
