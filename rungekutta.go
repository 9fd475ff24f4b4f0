package icurve

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// RungeKutta is a fixed step 4th-order Runge-Kutta scheme.
type RungeKutta struct{ Dt float64 }

// RungeKuttaAdaptive is a 4th-order Runge-Kutta scheme with step doubling: each
// step is taken once in full and once as two halves, and the distance between
// the two results is held below Ds.
type RungeKuttaAdaptive struct {
	Ds, Dt       float64
	MinDt, MaxDt float64 // MinDt bounds stiffness, MaxDt of 0 is unbounded
	MaxRetries   int
}

func (rk RungeKutta) InitialStep() float64 { return rk.Dt }

// Step implements Solver.
func (rk RungeKutta) Step(f Field, s *IVPState, dir Direction) (Step, error) {
	h := nonzero(s.H, rk.Dt)
	dt := dir.sign() * h
	p, st, err := trial(f, s.T, s.P, dt)
	if err != nil || st != StepOK {
		return Step{Status: st, H: h}, err
	}
	v, st, err := eval(f, s.T+dt, p)
	if err != nil || st != StepOK {
		return Step{Status: st, H: h}, err
	}
	return Step{Status: StepOK, T: s.T + dt, P: p, V: v, H: h, Next: rk.Dt}, nil
}

func (rk RungeKuttaAdaptive) InitialStep() float64 { return rk.Dt }

func (rk RungeKuttaAdaptive) retries() int {
	if rk.MaxRetries > 0 {
		return rk.MaxRetries
	}
	return defaultRetries
}

// Step implements Solver.
func (rk RungeKuttaAdaptive) Step(f Field, s *IVPState, dir Direction) (Step, error) {
	h, sg := nonzero(s.H, rk.Dt), dir.sign()
	for i := 0; i < rk.retries(); i++ {
		if h < rk.MinDt {
			return Step{Status: StepStiff, H: h}, nil
		}

		// 1 full step
		p1, st, err := trial(f, s.T, s.P, sg*h)
		if err != nil || st != StepOK {
			return Step{Status: st, H: h}, err
		}
		// 2 half steps
		ph, st, err := trial(f, s.T, s.P, sg*h/2.)
		if err != nil || st != StepOK {
			return Step{Status: st, H: h}, err
		}
		p0, st, err := trial(f, s.T+sg*h/2., ph, sg*h/2.)
		if err != nil || st != StepOK {
			return Step{Status: st, H: h}, err
		}

		dst, next := r3.Norm(r3.Sub(p0, p1)), 2.*h
		if dst > 0. {
			next = h * .9 * math.Pow(rk.Ds/dst, .2) // adaptive timestepping
		}
		if rk.MaxDt > 0. && next > rk.MaxDt {
			next = rk.MaxDt
		}
		if dst > rk.Ds {
			h = next // time step too large, repeat calculation
			continue
		}

		v, st, err := eval(f, s.T+sg*h, p0)
		if err != nil || st != StepOK {
			return Step{Status: st, H: h}, err
		}
		return Step{Status: StepOK, T: s.T + sg*h, P: p0, V: v, H: h, Next: next, Err: dst}, nil
	}
	return Step{Status: StepStiff, H: h}, nil
}

// trial advances p by one RK4 step of signed size dt.
func trial(f Field, t float64, p r3.Vec, dt float64) (r3.Vec, StepStatus, error) {
	k1, st, err := eval(f, t, p)
	if err != nil || st != StepOK {
		return p, st, err
	}
	k2, st, err := eval(f, t+dt/2., r3.Add(p, r3.Scale(dt/2., k1)))
	if err != nil || st != StepOK {
		return p, st, err
	}
	k3, st, err := eval(f, t+dt/2., r3.Add(p, r3.Scale(dt/2., k2)))
	if err != nil || st != StepOK {
		return p, st, err
	}
	k4, st, err := eval(f, t+dt, r3.Add(p, r3.Scale(dt, k3)))
	if err != nil || st != StepOK {
		return p, st, err
	}
	k := r3.Add(r3.Add(k1, k4), r3.Scale(2., r3.Add(k2, k3)))
	return r3.Add(p, r3.Scale(dt/6., k)), StepOK, nil
}
