package icurve

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingArray is returned when a named vector or scalar array exists in
	// neither the point nor the cell data of a mesh.
	ErrMissingArray = errors.New("icurve: array not found")

	// ErrWrongComponentCount is returned for a vector array without 3 components or
	// a scalar array with more than 1.
	ErrWrongComponentCount = errors.New("icurve: wrong number of array components")

	// ErrUnsupportedCellShape is returned by staggered sampling on a cell that is
	// neither a quad nor a hexahedron.
	ErrUnsupportedCellShape = errors.New("icurve: unsupported cell shape")

	// ErrLocateFailed is returned when a staggering correction finds no valid point.
	ErrLocateFailed = errors.New("icurve: staggered component could not be located")

	// ErrTimeout is returned when a batch exceeds its wall-clock budget.
	ErrTimeout = errors.New("icurve: batch timed out")

	ErrNoSeeds              = errors.New("icurve: no seeds")
	ErrSingleSeed           = errors.New("icurve: scalar trace needs exactly one curve")
	ErrAttributeNotRecorded = errors.New("icurve: attribute was not recorded")
)

// PartialError reports a batch cut short by its timeout. The accompanying result
// holds the curves that finished.
type PartialError struct {
	Abandoned int
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%v: %d curves abandoned", ErrTimeout, e.Abandoned)
}

func (e *PartialError) Unwrap() error { return ErrTimeout }
