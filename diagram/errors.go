package diagram

import "errors"

var (
	// ErrInvalidWorkspace is returned when loaded data violates the model invariants
	ErrInvalidWorkspace = errors.New("invalid workspace")

	// ErrIndicatorNotFound is returned when an indicator id is unknown
	ErrIndicatorNotFound = errors.New("indicator not found")

	// ErrNoWorkspace is returned by stores that hold no saved workspace yet
	ErrNoWorkspace = errors.New("no saved workspace")

	// ErrUnknownCommand is returned by Engine.Execute for unrecognised ops
	ErrUnknownCommand = errors.New("unknown command")

	// ErrInvalidColor is returned when a color token cannot be parsed
	ErrInvalidColor = errors.New("invalid color")
)
