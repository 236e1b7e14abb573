package identity

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned for unknown emails and wrong
	// passwords alike.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrCurrentPasswordInvalid = fmt.Errorf("%w: current password", ErrInvalidCredentials)

	ErrPasswordMismatch      = errors.New("passwords do not match")
	ErrInvalidOrExpiredToken = errors.New("reset token is invalid or has expired")
	ErrDeliveryFailed        = errors.New("email could not be sent")
	ErrNothingToUpdate       = errors.New("no updatable fields supplied")
	ErrSelfRoleChange        = errors.New("cannot change your own role")
)
