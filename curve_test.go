package icurve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	centred = box([3]int{3, 3, 3}, r3.Vec{X: -1, Y: -1, Z: -1}, r3.Vec{X: 1, Y: 1, Z: 1})
	plane   = box([3]int{9, 9, 2}, r3.Vec{X: -2, Y: -2}, r3.Vec{X: 2, Y: 2, Z: 1})
	rk4     = RungeKutta{Dt: .05}
)

func TestZeroFieldIsCriticalPoint(t *testing.T) {
	for _, seed := range []bool{false, true} {
		f := directField(t, lattice(t, centred, uniform(r3.Vec{})))
		c := NewCurve(0, Forward, r3.Vec{}, 0)
		pol := Policy{MaxSteps: 1, Attributes: AttrAll, RecordSeed: seed}
		c.Advect(f, RungeKuttaAdaptive{Ds: 1e-6, Dt: .1, MinDt: 1e-9}, &pol, nil)

		assert.Equal(t, TerminatedCriticalPoint, c.Status)
		assert.Equal(t, 1, c.Steps)
		assert.Zero(t, c.Speed())
		if seed {
			assert.Len(t, c.Samples, 2)
		} else {
			assert.Len(t, c.Samples, 1)
		}
	}
}

func TestConstantFieldMaxSteps(t *testing.T) {
	v := r3.Vec{X: 1, Y: .5}
	g := box([3]int{11, 11, 2}, r3.Vec{}, r3.Vec{X: 10, Y: 10, Z: 1})
	f := directField(t, lattice(t, g, uniform(v)))
	c := NewCurve(4, Forward, r3.Vec{X: .5, Y: .5, Z: .5}, 0)
	pol := Policy{MaxSteps: 5, Attributes: AttrAll}
	c.Advect(f, RungeKutta{Dt: .1}, &pol, nil)

	require.Equal(t, TerminatedMaxSteps, c.Status)
	assert.Equal(t, 5, c.Steps)
	require.Len(t, c.Samples, 5)
	assert.InDelta(t, r3.Norm(v), c.Speed(), 1e-9)
	for j := 1; j < len(c.Samples); j++ {
		assert.Greater(t, c.Samples[j].T, c.Samples[j-1].T)
		assert.Greater(t, c.Samples[j].Arclength, c.Samples[j-1].Arclength)
	}
	assert.InDelta(t, .5*r3.Norm(v), c.Arclength(), 1e-9)
	assert.InDelta(t, 1., c.Position().X, 1e-9)
}

func TestBackwardTimeDecreases(t *testing.T) {
	f := directField(t, lattice(t, plane, vortex))
	c := NewCurve(0, Backward, r3.Vec{X: 1, Z: .5}, 10)
	pol := Policy{MaxSteps: 20, Attributes: AttrTime}
	c.Advect(f, rk4, &pol, nil)
	require.Len(t, c.Samples, 20)
	for j := 1; j < len(c.Samples); j++ {
		assert.Less(t, c.Samples[j].T, c.Samples[j-1].T)
	}
	assert.Less(t, c.Position().Y, 0., "clockwise when integrating backward")
}

func TestRotationalField(t *testing.T) {
	f := directField(t, lattice(t, plane, vortex))

	far := NewCurve(0, Forward, r3.Vec{X: 1, Z: .5}, 0)
	pol := Policy{MaxSteps: 100, CriticalSpeed: 1e-3, Attributes: AttrVelocity}
	far.Advect(f, rk4, &pol, nil)
	assert.Equal(t, TerminatedMaxSteps, far.Status)
	assert.Greater(t, far.Speed(), 0.)
	r := math.Hypot(far.Position().X, far.Position().Y)
	assert.InDelta(t, 1., r, 1e-6)

	near := NewCurve(1, Forward, r3.Vec{X: 1e-4, Z: .5}, 0)
	pol.MaxSteps = 3
	near.Advect(f, rk4, &pol, nil)
	assert.Equal(t, TerminatedCriticalPoint, near.Status)
}

func TestDomainExitNudgesPastBoundary(t *testing.T) {
	g := box([3]int{3, 2, 2}, r3.Vec{}, r3.Vec{X: 2, Y: 1, Z: 1})
	f := directField(t, lattice(t, g, uniform(r3.Vec{X: 1})))
	c := NewCurve(0, Forward, r3.Vec{X: .5, Y: .5, Z: .5}, 0)
	pol := Policy{MaxSteps: 1000, Attributes: AttrTime}
	c.Advect(f, RungeKutta{Dt: .3}, &pol, nil)

	require.Equal(t, TerminatedDomainExit, c.Status)
	last := c.Samples[len(c.Samples)-1]
	assert.Greater(t, last.P.X, 2.)
	assert.Less(t, last.P.X, 2.+1e-6)
	for _, s := range c.Samples[:len(c.Samples)-1] {
		assert.LessOrEqual(t, s.P.X, 2.+1e-8)
	}
	assert.InDelta(t, last.P.X-.5, last.T, 1e-9)
}

func TestStiffCurve(t *testing.T) {
	f := directField(t, lattice(t, plane, vortex))
	c := NewCurve(0, Forward, r3.Vec{X: 1, Z: .5}, 0)
	pol := Policy{MaxSteps: 10}
	c.Advect(f, RungeKuttaAdaptive{Ds: 1e-14, Dt: .1, MinDt: .05}, &pol, nil)
	assert.Equal(t, TerminatedStiffness, c.Status)
	assert.Empty(t, c.Samples)
}

func TestFieldErrorStopsCurve(t *testing.T) {
	f := NewOffsetField(directField(t, lattice(t, cube, identity)), [3]r3.Vec{{X: .5}})
	c := NewCurve(0, Forward, r3.Vec{X: .1, Y: 1.5, Z: 1.5}, 0)
	pol := Policy{MaxSteps: 10}
	c.Advect(f, rk4, &pol, nil)
	assert.Equal(t, TerminatedFieldError, c.Status)
	assert.ErrorIs(t, c.Err(), ErrLocateFailed)
}

func TestRecordMask(t *testing.T) {
	u := lattice(t, plane, vortex)
	f := directField(t, u)
	c := NewCurve(0, Forward, r3.Vec{X: 1, Z: .5}, 0)
	pol := Policy{MaxSteps: 2, Attributes: AttrTime}
	c.Advect(f, rk4, &pol, nil)
	require.Len(t, c.Samples, 2)
	s := c.Samples[1]
	assert.InDelta(t, .1, s.T, 1e-12)
	assert.Zero(t, s.Arclength)
	assert.Equal(t, r3.Vec{}, s.V)
	assert.NotZero(t, c.Arclength())
}

func TestTerminationString(t *testing.T) {
	for term := NotTerminated; term < numTerminations; term++ {
		assert.NotContains(t, term.String(), "termination(")
	}
	assert.Equal(t, "termination(42)", Termination(42).String())
}
