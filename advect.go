package icurve

import (
	"context"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"
)

// Advect integrates c through f until it terminates or leaves the cells f's
// partition owns, in which case it stops with TerminatedDomainExit and may be
// resumed elsewhere. Field faults stop the curve with TerminatedFieldError;
// Advect never returns them.
func (c *Curve) Advect(f Field, s Solver, pol *Policy, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	if c.Terminated() {
		return
	}
	if c.ivp.H <= 0 {
		c.ivp.H = s.InitialStep()
	}
	if !c.started {
		c.started = true
		r, err := f.Evaluate(c.ivp.T, c.ivp.P)
		if err != nil {
			c.fail(err)
			c.logStop(log)
			return
		}
		c.ivp.V = r.V
		if pol.RecordSeed {
			if err := c.record(f, pol); err != nil {
				c.fail(err)
				c.logStop(log)
				return
			}
		}
	}

	for !c.Terminated() {
		if c.limit(pol) {
			break
		}
		if f.IsInside(c.ivp.T, c.ivp.P) != Inside {
			c.Status = TerminatedDomainExit
			break
		}
		st, err := s.Step(f, &c.ivp, c.Dir)
		if err != nil {
			c.fail(err)
			break
		}
		switch st.Status {
		case StepOK:
			c.commit(st, f, pol)
		case StepStiff:
			c.Status = TerminatedStiffness
		case StepOutsideTime:
			c.Status = TerminatedDomainExit
		case StepOutsideDomain:
			c.crossBoundary(f, s, pol)
		}
	}
	c.logStop(log)
}

func (c *Curve) logStop(log *slog.Logger) {
	if !log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	log.Debug("curve stopped",
		"curve", c.ID,
		"partition", c.Partition,
		"status", c.Status.String(),
		"steps", c.Steps,
		"x", c.ivp.P.X, "y", c.ivp.P.Y, "z", c.ivp.P.Z, "t", c.ivp.T,
	)
}

// commit accepts a solver step and applies the step limit.
func (c *Curve) commit(st Step, f Field, pol *Policy) {
	c.arclength += r3.Norm(r3.Sub(st.P, c.ivp.P))
	c.ivp = IVPState{T: st.T, P: st.P, V: st.V, H: st.Next}
	c.Steps++
	if err := c.record(f, pol); err != nil {
		c.fail(err)
		return
	}
	c.limit(pol)
}

// limit stops a curve that has taken MaxSteps steps. A curve stalled at or below
// the critical speed is reported as a critical point instead.
func (c *Curve) limit(pol *Policy) bool {
	if c.Steps < pol.MaxSteps {
		return false
	}
	c.Status = TerminatedMaxSteps
	if c.Speed() <= pol.CriticalSpeed {
		c.Status = TerminatedCriticalPoint
	}
	return true
}

// crossBoundary halves the step until it stays inside the mesh, and once the
// step is negligible steps the curve out with explicit Euler.
func (c *Curve) crossBoundary(f Field, s Solver, pol *Policy) {
	h0 := c.ivp.H
	tol := boundaryTol * diagonal(f.Extents())
halving:
	for i := 0; i < boundaryHalvings; i++ {
		c.ivp.H /= 2.
		if c.ivp.H*c.Speed() < tol {
			break
		}
		st, err := s.Step(f, &c.ivp, c.Dir)
		if err != nil {
			c.fail(err)
			return
		}
		switch st.Status {
		case StepOK:
			c.commit(st, f, pol)
			return
		case StepOutsideTime:
			c.Status = TerminatedDomainExit
			return
		case StepStiff:
			break halving
		case StepOutsideDomain:
		}
	}
	c.nudge(f, pol, h0)
}

// nudge takes the shortest doubling Euler step that leaves the mesh.
func (c *Curve) nudge(f Field, pol *Policy, h0 float64) {
	c.Status = TerminatedDomainExit
	v, sg := c.ivp.V, c.Dir.sign()
	if c.Speed() == 0. {
		return
	}
	h := c.ivp.H
	if h <= 0 {
		h = h0
	}
	for i := 0; i < nudgeDoublings; i++ {
		t, q := c.ivp.T+sg*h, r3.Add(c.ivp.P, r3.Scale(sg*h, v))
		if f.Locate(t, q) != Inside {
			c.arclength += r3.Norm(r3.Sub(q, c.ivp.P))
			c.ivp = IVPState{T: t, P: q, V: v, H: h0}
			c.Steps++
			if err := c.record(f, pol); err != nil {
				c.fail(err)
			}
			return
		}
		h *= 2.
	}
}

func diagonal(b r3.Box) float64 { return r3.Norm(r3.Sub(b.Max, b.Min)) }
