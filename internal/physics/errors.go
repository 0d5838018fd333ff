package physics

import "errors"

var (
	// ErrInvalidTimestep indicates a non-positive, NaN or infinite step size.
	ErrInvalidTimestep = errors.New("physics: timestep must be positive and finite")

	// ErrNilBody indicates a nil body passed to the world or a constraint.
	ErrNilBody = errors.New("physics: nil body")

	// ErrSameBody indicates a constraint that connects a body to itself.
	ErrSameBody = errors.New("physics: constraint connects a body to itself")

	// ErrNegativeDistance indicates a distance constraint with a negative rest length.
	ErrNegativeDistance = errors.New("physics: negative rest distance")

	// ErrNilConstraint indicates a nil constraint, including a typed nil pointer.
	ErrNilConstraint = errors.New("physics: nil constraint")

	// ErrNilMaterial indicates a contact material missing one of its materials.
	ErrNilMaterial = errors.New("physics: contact material needs two materials")
)
