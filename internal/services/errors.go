// Package services defines the application-facing operations built on top of
// the rotation cache. This file centralizes service-level error values so
// that they can be consistently returned by service methods and checked by
// callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

// ErrRotationUnavailable is returned when no rotation has been computed yet
// and the listing repository could not be reached to compute one.
var ErrRotationUnavailable = errors.New("rotation unavailable")
