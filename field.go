package icurve

import "gonum.org/v1/gonum/spatial/r3"

// Classification is the outcome of locating a point in a field.
type Classification int

const (
	Inside Classification = iota
	OutsideSpatial
	OutsideTemporal
)

func (c Classification) String() string {
	switch c {
	case Inside:
		return "inside"
	case OutsideSpatial:
		return "outside_spatial"
	case OutsideTemporal:
		return "outside_temporal"
	}
	return "unknown"
}

// Status tags a field evaluation.
type Status int

const (
	StatusOK Status = iota
	StatusOutsideDomain
	StatusOutsideSpatial
	StatusOutsideTemporal
)

// Result is a field evaluation; V is only meaningful when Status is StatusOK.
type Result struct {
	Status Status
	V      r3.Vec
}

// ScalarHandle addresses one of the 256 scalar arrays a field can bind.
type ScalarHandle uint8

// Field is a vector field sampled over one mesh partition.
//
// A Field caches the last located cell and is therefore single-writer: every
// concurrently advecting curve (or worker) needs its own instance.
type Field interface {
	// Locate classifies p, reusing the cached cell when p is the last point located.
	Locate(t float64, p r3.Vec) Classification
	Evaluate(t float64, p r3.Vec) (Result, error)
	// IsInside classifies p against the cells this partition owns.
	IsInside(t float64, p r3.Vec) Classification
	// Scalar returns 0 for an unbound handle or an unlocated point.
	Scalar(h ScalarHandle, t float64, p r3.Vec) float64
	// Vorticity returns the curl of the field projected on the unit velocity.
	Vorticity(t float64, p r3.Vec) (float64, error)
	Extents() r3.Box
	TimeRange() (float64, float64)
}
