package icurve

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Direction of integration along a curve.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

func (d Direction) sign() float64 {
	if d == Backward {
		return -1.
	}
	return 1.
}

// IVPState is the integration state a curve carries between steps. H is the
// magnitude of the step the solver will attempt next.
type IVPState struct {
	T float64
	P r3.Vec
	V r3.Vec
	H float64
}

// StepStatus classifies a solver step.
type StepStatus int

const (
	StepOK StepStatus = iota
	StepOutsideDomain
	StepOutsideTime
	StepStiff
)

// Step is the outcome of one solver step. On StepOK, T, P and V describe the new
// point; Next is the step size suggested for the following step.
type Step struct {
	Status StepStatus
	T      float64
	P      r3.Vec
	V      r3.Vec
	H      float64
	Next   float64
	Err    float64
}

// Solver advances a curve by one step through f. A Solver holds configuration
// only and never mutates the state it is given, so one Solver may serve any
// number of curves at once.
type Solver interface {
	Step(f Field, s *IVPState, dir Direction) (Step, error)
	InitialStep() float64
}

func eval(f Field, t float64, p r3.Vec) (r3.Vec, StepStatus, error) {
	r, err := f.Evaluate(t, p)
	if err != nil {
		return r3.Vec{}, StepOK, err
	}
	switch r.Status {
	case StatusOK:
		return r.V, StepOK, nil
	case StatusOutsideTemporal:
		return r3.Vec{}, StepOutsideTime, nil
	}
	return r3.Vec{}, StepOutsideDomain, nil
}

func nonzero(h, def float64) float64 {
	if h <= 0 || math.IsInf(h, 0) || math.IsNaN(h) {
		return def
	}
	return h
}
