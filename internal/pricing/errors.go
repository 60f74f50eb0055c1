package pricing

import "errors"

var (
	// ErrUnknownMaterial is returned when a material key is absent from the parameter maps.
	ErrUnknownMaterial = errors.New("unknown material")
	// ErrInvalidQuantity is returned for quantities below one.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInvalidInput is returned for negative or non-finite geometry, timing or coefficients.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoConfigAvailable is returned when there is no config to select from.
	ErrNoConfigAvailable = errors.New("no pricing config available")
	// ErrIncompleteParameters is returned when a parameter set does not price every required material.
	ErrIncompleteParameters = errors.New("incomplete pricing parameters")
)
