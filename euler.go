package icurve

import "gonum.org/v1/gonum/spatial/r3"

// EulerSpace is a constant space step Euler scheme.
type EulerSpace struct{ Ds float64 }

// EulerTime is a constant time step Euler scheme.
type EulerTime struct{ Dt float64 }

func (es EulerSpace) InitialStep() float64 { return es.Ds }

// Step implements Solver. The step length is Ds unless s.H was shortened while
// approaching a boundary; a stagnant point advances neither in space nor time.
func (es EulerSpace) Step(f Field, s *IVPState, dir Direction) (Step, error) {
	v, st, err := eval(f, s.T, s.P)
	if err != nil || st != StepOK {
		return Step{Status: st, H: s.H}, err
	}
	ds := nonzero(s.H, es.Ds)
	spd := r3.Norm(v)
	if spd == 0. {
		return Step{Status: StepOK, T: s.T, P: s.P, H: ds, Next: es.Ds}, nil
	}
	dt := dir.sign() * ds / spd // ds/|vn|
	return euler(f, s, v, dt, ds, es.Ds)
}

func (et EulerTime) InitialStep() float64 { return et.Dt }

// Step implements Solver.
func (et EulerTime) Step(f Field, s *IVPState, dir Direction) (Step, error) {
	v, st, err := eval(f, s.T, s.P)
	if err != nil || st != StepOK {
		return Step{Status: st, H: s.H}, err
	}
	h := nonzero(s.H, et.Dt)
	return euler(f, s, v, dir.sign()*h, h, et.Dt)
}

func euler(f Field, s *IVPState, v r3.Vec, dt, h, next float64) (Step, error) {
	p := r3.Add(s.P, r3.Scale(dt, v))
	vn, st, err := eval(f, s.T+dt, p)
	if err != nil || st != StepOK {
		return Step{Status: st, H: h}, err
	}
	return Step{Status: StepOK, T: s.T + dt, P: p, V: vn, H: h, Next: next}, nil
}
