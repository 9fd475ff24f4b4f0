package icurve

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Termination is the reason a curve stopped.
type Termination int

const (
	NotTerminated Termination = iota
	TerminatedMaxSteps
	TerminatedCriticalPoint
	TerminatedStiffness
	TerminatedDomainExit
	TerminatedFieldError
	numTerminations
)

func (t Termination) String() string {
	switch t {
	case NotTerminated:
		return "not_terminated"
	case TerminatedMaxSteps:
		return "max_steps"
	case TerminatedCriticalPoint:
		return "critical_point"
	case TerminatedStiffness:
		return "stiffness"
	case TerminatedDomainExit:
		return "domain_exit"
	case TerminatedFieldError:
		return "field_error"
	}
	return fmt.Sprintf("termination(%d)", int(t))
}

// Attribute selects the per-sample attributes a curve records. Position is
// always recorded.
type Attribute uint8

const (
	AttrTime Attribute = 1 << iota
	AttrArclength
	AttrVelocity
	AttrVorticity
	AttrScalar

	AttrAll = AttrTime | AttrArclength | AttrVelocity | AttrVorticity | AttrScalar
)

// Has reports whether every attribute of b is in a.
func (a Attribute) Has(b Attribute) bool { return a&b == b }

// Sample is one recorded point of a curve. Fields not selected by the recording
// mask are left zero.
type Sample struct {
	P         r3.Vec
	T         float64
	Arclength float64
	V         r3.Vec
	Vorticity float64
	Scalar    float64
}

// Speed is the magnitude of the recorded velocity.
func (s Sample) Speed() float64 { return r3.Norm(s.V) }

// Policy controls how curves are advected and recorded.
type Policy struct {
	MaxSteps      int
	CriticalSpeed float64 // absolute speed at or below which a curve at MaxSteps is a critical point
	Attributes    Attribute
	Scalar        ScalarHandle
	RecordSeed    bool // record the seed as the first sample
}

// Curve is a single integral curve: its recorded samples, its integration state
// and the reason it stopped. A curve is advanced by one worker at a time.
type Curve struct {
	ID        int64
	Dir       Direction
	Samples   []Sample
	Status    Termination
	Steps     int
	Partition int
	Hops      int

	ivp       IVPState
	arclength float64
	started   bool
	err       error
}

// NewCurve returns an unstarted curve seeded at p at time t.
func NewCurve(id int64, dir Direction, p r3.Vec, t float64) *Curve {
	return &Curve{ID: id, Dir: dir, Partition: -1, ivp: IVPState{T: t, P: p}}
}

// Position returns the current point of integration.
func (c *Curve) Position() r3.Vec { return c.ivp.P }

// Time returns the current integration time.
func (c *Curve) Time() float64 { return c.ivp.T }

// Speed returns the speed at the current point.
func (c *Curve) Speed() float64 { return r3.Norm(c.ivp.V) }

// Arclength returns the distance integrated so far.
func (c *Curve) Arclength() float64 { return c.arclength }

func (c *Curve) Terminated() bool { return c.Status != NotTerminated }

// Err returns the field error that stopped the curve, if any.
func (c *Curve) Err() error { return c.err }

// resume clears a domain exit so the curve can continue in partition id.
func (c *Curve) resume(id int) {
	c.Status = NotTerminated
	c.Partition = id
	c.Hops++
}

func (c *Curve) fail(err error) {
	c.err = err
	c.Status = TerminatedFieldError
}

// record appends the current state filtered by the policy's attribute mask.
func (c *Curve) record(f Field, pol *Policy) error {
	s := Sample{P: c.ivp.P}
	m := pol.Attributes
	if m.Has(AttrTime) {
		s.T = c.ivp.T
	}
	if m.Has(AttrArclength) {
		s.Arclength = c.arclength
	}
	if m.Has(AttrVelocity) {
		s.V = c.ivp.V
	}
	if m.Has(AttrVorticity) {
		w, err := f.Vorticity(c.ivp.T, c.ivp.P)
		if err != nil {
			return err
		}
		s.Vorticity = w
	}
	if m.Has(AttrScalar) {
		s.Scalar = f.Scalar(pol.Scalar, c.ivp.T, c.ivp.P)
	}
	c.Samples = append(c.Samples, s)
	return nil
}
