package anim

import "errors"

var (
	// ErrInvalidArgument is returned for non-positive durations, non-finite
	// values and missing collaborators.
	ErrInvalidArgument = errors.New("anim: invalid argument")

	// ErrInvalidTarget is returned when the animated attribute does not exist.
	ErrInvalidTarget = errors.New("anim: invalid target")
)
