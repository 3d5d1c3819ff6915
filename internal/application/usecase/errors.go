package usecase

import "errors"

var (
	// ErrDetectorUnavailable wraps failures of the remote object detector.
	ErrDetectorUnavailable = errors.New("detector unavailable")

	// ErrForbidden is returned by admin operations that are disabled in production.
	ErrForbidden = errors.New("forbidden")

	// ErrKeyRequired is returned when an empty detector key is submitted.
	ErrKeyRequired = errors.New("key is required")
)
