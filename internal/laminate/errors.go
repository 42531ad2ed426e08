package laminate

import "errors"

var (
	// ErrInvalidSequence is returned when a sequence is empty, references an unknown
	// material, has a non-positive ply thickness or yields a singular stiffness matrix.
	ErrInvalidSequence = errors.New("invalid stacking sequence")
	// ErrInvalidLoad is returned when the design load is not a positive finite number.
	ErrInvalidLoad = errors.New("invalid design load")
)
