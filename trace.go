package icurve

import "fmt"

// TraceKind is a per-sample quantity plotted by a scalar trace.
type TraceKind int

const (
	TraceStep TraceKind = iota
	TraceTime
	TraceArclength
	TraceSpeed
	TraceVorticity
	TraceVariable
)

func (k TraceKind) String() string {
	switch k {
	case TraceStep:
		return "step"
	case TraceTime:
		return "time"
	case TraceArclength:
		return "arclength"
	case TraceSpeed:
		return "speed"
	case TraceVorticity:
		return "vorticity"
	case TraceVariable:
		return "variable"
	}
	return "unknown"
}

// requires returns the attribute that must be recorded to trace k.
func (k TraceKind) requires() Attribute {
	switch k {
	case TraceTime:
		return AttrTime
	case TraceArclength:
		return AttrArclength
	case TraceSpeed:
		return AttrVelocity
	case TraceVorticity:
		return AttrVorticity
	case TraceVariable:
		return AttrScalar
	}
	return 0
}

func (k TraceKind) value(s *Sample, j int) float64 {
	switch k {
	case TraceTime:
		return s.T
	case TraceArclength:
		return s.Arclength
	case TraceSpeed:
		return s.Speed()
	case TraceVorticity:
		return s.Vorticity
	case TraceVariable:
		return s.Scalar
	}
	return float64(j)
}

// XY is one point of a scalar trace.
type XY struct{ X, Y float64 }

// ScalarTrace samples kinds x and y along the single curve of a batch recorded
// with the attributes in mask.
func ScalarTrace(curves []*Curve, mask Attribute, x, y TraceKind) ([]XY, error) {
	if len(curves) != 1 {
		return nil, fmt.Errorf("icurve.ScalarTrace: %d curves: %w", len(curves), ErrSingleSeed)
	}
	for _, k := range []TraceKind{x, y} {
		if !mask.Has(k.requires()) {
			return nil, fmt.Errorf("icurve.ScalarTrace: %v: %w", k, ErrAttributeNotRecorded)
		}
	}
	ss := curves[0].Samples
	o := make([]XY, len(ss))
	for j := range ss {
		o[j] = XY{X: x.value(&ss[j], j), Y: y.value(&ss[j], j)}
	}
	return o, nil
}
